package operators

import (
	"context"
	"fmt"
	"os"
)

// Download fetches a datasource artifact to local disk.
type Download struct {
	URL         string `toml:"url"`
	Destination string `toml:"destination"` // file the artifact lands at, relative to the data dir
	Force       bool   `toml:"force"`       // refetch even when the file already exists
}

func (o *Download) Name() string { return "download" }

func (o *Download) Execute(ctx context.Context, env *Env) (*Result, error) {
	dest := env.Path(o.Destination)

	if !o.Force {
		if info, err := os.Stat(dest); err == nil {
			if info.IsDir() {
				return nil, fmt.Errorf("download destination %s is a directory", dest)
			}
			env.logger().Info("download skipped, artifact exists", "path", dest)
			return &Result{Frame: env.Frame, Files: []string{dest}}, nil
		}
	}

	if env.Fetcher == nil {
		return nil, fmt.Errorf("cannot download %s: no fetcher configured", o.URL)
	}

	res, err := env.Fetcher.Fetch(ctx, o.URL, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", o.URL, err)
	}

	env.logger().Info("downloaded artifact", "url", o.URL, "path", res.Path, "bytes", res.SizeBytes)
	return &Result{Frame: env.Frame, Files: []string{res.Path}}, nil
}
