package operators

import (
	"context"
	"fmt"

	"github.com/desertthunder/rsx/internal/frames"
)

// Ingest loads a delimited file into the frame store.
type Ingest struct {
	Path      string          `toml:"path"`
	Table     string          `toml:"table"`
	Columns   []frames.Column `toml:"columns"` // explicit column types, empty lets the store sniff
	Delimiter string          `toml:"delimiter"`
	Header    bool            `toml:"header"`
	Force     bool            `toml:"force"` // reload even when the frame already exists
}

func (o *Ingest) Name() string { return "ingest" }

func (o *Ingest) Execute(ctx context.Context, env *Env) (*Result, error) {
	if env.Frames == nil {
		return nil, fmt.Errorf("cannot ingest %s: no frame store configured", o.Table)
	}

	if !o.Force {
		exists, err := env.Frames.HasFrame(ctx, o.Table)
		if err != nil {
			return nil, err
		}
		if exists {
			rows, err := env.Frames.Rows(ctx, o.Table)
			if err != nil {
				return nil, err
			}
			env.logger().Info("ingest skipped, frame exists", "frame", o.Table, "rows", rows)
			return &Result{Frame: o.Table, Rows: rows}, nil
		}
	}

	stats, err := env.Frames.IngestCSV(ctx, o.Table, env.Path(o.Path), frames.IngestOptions{
		Columns:   o.Columns,
		Delimiter: o.Delimiter,
		Header:    o.Header,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ingest %s: %w", o.Path, err)
	}

	env.logger().Info("ingested frame", "frame", o.Table, "rows", stats.Rows, "cols", stats.Cols)
	return &Result{Frame: o.Table, Rows: stats.Rows}, nil
}
