package operators

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extract unpacks a zip or tar.gz archive into a directory.
type Extract struct {
	Archive     string   `toml:"archive"`
	Destination string   `toml:"destination"` // directory members are extracted into
	Members     []string `toml:"members"`     // optional subset of archive entries to extract
	Force       bool     `toml:"force"`       // re-extract even when the members already exist
}

func (o *Extract) Name() string { return "extract" }

func (o *Extract) Execute(ctx context.Context, env *Env) (*Result, error) {
	archive := env.Path(o.Archive)
	dest := env.Path(o.Destination)

	if !o.Force && len(o.Members) > 0 {
		if _, err := os.Stat(filepath.Join(dest, o.Members[0])); err == nil {
			env.logger().Info("extract skipped, members exist", "archive", filepath.Base(archive))
			return &Result{Frame: env.Frame, Files: o.memberPaths(dest)}, nil
		}
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create extract directory: %w", err)
	}

	var (
		files []string
		err   error
	)
	switch {
	case strings.HasSuffix(archive, ".zip"):
		files, err = o.extractZip(archive, dest)
	case strings.HasSuffix(archive, ".tar.gz"), strings.HasSuffix(archive, ".tgz"):
		files, err = o.extractTarGz(archive, dest)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", filepath.Base(archive))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filepath.Base(archive), err)
	}

	env.logger().Info("extracted archive", "archive", filepath.Base(archive), "files", len(files))
	return &Result{Frame: env.Frame, Files: files}, nil
}

func (o *Extract) memberPaths(dest string) []string {
	paths := make([]string, len(o.Members))
	for i, m := range o.Members {
		paths[i] = filepath.Join(dest, m)
	}
	return paths
}

// wanted reports whether an archive entry should be extracted. An empty
// member list extracts everything.
func (o *Extract) wanted(name string) bool {
	if len(o.Members) == 0 {
		return true
	}
	for _, m := range o.Members {
		if name == m {
			return true
		}
	}
	return false
}

// target resolves an entry name under dest, rejecting names that climb
// out of the destination directory.
func target(dest, name string) (string, error) {
	path := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return path, nil
}

func (o *Extract) extractZip(archive, dest string) ([]string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var files []string
	for _, entry := range r.File {
		if !o.wanted(entry.Name) {
			continue
		}
		path, err := target(dest, entry.Name)
		if err != nil {
			return nil, err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if err := writeZipEntry(entry, path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeZipEntry(entry *zip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	in, err := entry.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (o *Extract) extractTarGz(archive, dest string) ([]string, error) {
	f, err := os.Open(archive)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var files []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !o.wanted(hdr.Name) {
			continue
		}
		path, err := target(dest, hdr.Name)
		if err != nil {
			return nil, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			if err := writeTarEntry(tr, path); err != nil {
				return nil, err
			}
			files = append(files, path)
		}
	}
	return files, nil
}

func writeTarEntry(tr *tar.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, tr); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
