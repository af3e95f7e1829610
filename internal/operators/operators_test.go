package operators

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/rsx/internal/frames"
	"github.com/desertthunder/rsx/internal/shared"
	tu "github.com/desertthunder/rsx/internal/testing"
)

const ratingsCSV = `userId,movieId,rating
1,10,4.0
1,11,3.0
1,12,5.0
2,10,2.0
2,11,4.0
3,12,3.0
3,13,4.0
4,10,5.0
4,13,2.0
`

func newEnv(t *testing.T) *Env {
	t.Helper()
	store, err := frames.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open frame store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return &Env{
		Frames:  store,
		Logger:  shared.NewLogger(io.Discard),
		DataDir: t.TempDir(),
		Seed:    42,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
}

func writeTarGz(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
}

func TestNull(t *testing.T) {
	env := newEnv(t)
	env.Frame = "ratings"

	result, err := Null{}.Execute(context.Background(), env)
	if err != nil {
		t.Fatalf("failed to execute: %v", err)
	}
	if result.Frame != "ratings" {
		t.Errorf("expected incoming frame to pass through, got %q", result.Frame)
	}
}

func TestDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches via the configured fetcher", func(t *testing.T) {
		env := newEnv(t)
		fetcher := &tu.MockFetcher{Payload: []byte("archive bytes")}
		env.Fetcher = fetcher

		op := &Download{URL: "https://files.grouplens.org/ml-latest-small.zip", Destination: "raw/ml-latest-small.zip"}
		result, err := op.Execute(ctx, env)
		if err != nil {
			t.Fatalf("failed to execute: %v", err)
		}

		want := filepath.Join(env.DataDir, "raw", "ml-latest-small.zip")
		if len(result.Files) != 1 || result.Files[0] != want {
			t.Errorf("expected files [%s], got %v", want, result.Files)
		}
		if len(fetcher.Calls) != 1 || fetcher.Calls[0] != op.URL {
			t.Errorf("expected one fetch of %s, got %v", op.URL, fetcher.Calls)
		}
		tu.AssertFileExists(t, want)
	})

	t.Run("skips existing artifact unless forced", func(t *testing.T) {
		env := newEnv(t)
		fetcher := &tu.MockFetcher{Payload: []byte("fresh")}
		env.Fetcher = fetcher

		dest := filepath.Join(env.DataDir, "raw", "ml-latest-small.zip")
		writeFile(t, dest, "stale")

		op := &Download{URL: "https://files.grouplens.org/ml-latest-small.zip", Destination: "raw/ml-latest-small.zip"}
		if _, err := op.Execute(ctx, env); err != nil {
			t.Fatalf("failed to execute: %v", err)
		}
		if len(fetcher.Calls) != 0 {
			t.Errorf("expected no fetches for existing artifact, got %v", fetcher.Calls)
		}

		op.Force = true
		if _, err := op.Execute(ctx, env); err != nil {
			t.Fatalf("failed to execute forced: %v", err)
		}
		if len(fetcher.Calls) != 1 {
			t.Errorf("expected forced refetch, got %v", fetcher.Calls)
		}
		if got := tu.MustReadFile(t, dest); got != "fresh" {
			t.Errorf("expected forced download to overwrite, got %q", got)
		}
	})

	t.Run("fails without a fetcher", func(t *testing.T) {
		env := newEnv(t)
		op := &Download{URL: "https://example.com/data.zip", Destination: "data.zip"}
		if _, err := op.Execute(ctx, env); err == nil {
			t.Fatal("expected error without fetcher")
		}
	})

	t.Run("propagates fetch failures", func(t *testing.T) {
		env := newEnv(t)
		boom := errors.New("connection reset")
		env.Fetcher = &tu.MockFetcher{Err: boom}

		op := &Download{URL: "https://example.com/data.zip", Destination: "data.zip"}
		if _, err := op.Execute(ctx, env); !errors.Is(err, boom) {
			t.Fatalf("expected fetch error, got %v", err)
		}
	})
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("extracts zip archives", func(t *testing.T) {
		env := newEnv(t)
		archive := filepath.Join(env.DataDir, "raw", "ml.zip")
		writeZip(t, archive, map[string]string{
			"ml/ratings.csv": ratingsCSV,
			"ml/README.txt":  "MovieLens sample",
		})

		op := &Extract{Archive: "raw/ml.zip", Destination: "staged"}
		result, err := op.Execute(ctx, env)
		if err != nil {
			t.Fatalf("failed to execute: %v", err)
		}
		if len(result.Files) != 2 {
			t.Errorf("expected 2 extracted files, got %v", result.Files)
		}
		tu.AssertFileExists(t, filepath.Join(env.DataDir, "staged", "ml", "ratings.csv"))
		tu.AssertFileExists(t, filepath.Join(env.DataDir, "staged", "ml", "README.txt"))
	})

	t.Run("extracts only listed members", func(t *testing.T) {
		env := newEnv(t)
		archive := filepath.Join(env.DataDir, "raw", "ml.zip")
		writeZip(t, archive, map[string]string{
			"ml/ratings.csv": ratingsCSV,
			"ml/README.txt":  "MovieLens sample",
		})

		op := &Extract{Archive: "raw/ml.zip", Destination: "staged", Members: []string{"ml/ratings.csv"}}
		result, err := op.Execute(ctx, env)
		if err != nil {
			t.Fatalf("failed to execute: %v", err)
		}
		if len(result.Files) != 1 {
			t.Errorf("expected 1 extracted file, got %v", result.Files)
		}
		if _, err := os.Stat(filepath.Join(env.DataDir, "staged", "ml", "README.txt")); !os.IsNotExist(err) {
			t.Error("expected unlisted member to be skipped")
		}
	})

	t.Run("skips when members already exist", func(t *testing.T) {
		env := newEnv(t)
		archive := filepath.Join(env.DataDir, "raw", "ml.zip")
		writeZip(t, archive, map[string]string{"ml/ratings.csv": ratingsCSV})

		extracted := filepath.Join(env.DataDir, "staged", "ml", "ratings.csv")
		writeFile(t, extracted, "already here")

		op := &Extract{Archive: "raw/ml.zip", Destination: "staged", Members: []string{"ml/ratings.csv"}}
		if _, err := op.Execute(ctx, env); err != nil {
			t.Fatalf("failed to execute: %v", err)
		}
		if got := tu.MustReadFile(t, extracted); got != "already here" {
			t.Error("expected existing member to be left alone")
		}

		op.Force = true
		if _, err := op.Execute(ctx, env); err != nil {
			t.Fatalf("failed to execute forced: %v", err)
		}
		if got := tu.MustReadFile(t, extracted); got != ratingsCSV {
			t.Error("expected forced extract to overwrite")
		}
	})

	t.Run("extracts tar.gz archives", func(t *testing.T) {
		env := newEnv(t)
		archive := filepath.Join(env.DataDir, "raw", "ml.tar.gz")
		writeTarGz(t, archive, map[string]string{"ml/ratings.csv": ratingsCSV})

		op := &Extract{Archive: "raw/ml.tar.gz", Destination: "staged"}
		result, err := op.Execute(ctx, env)
		if err != nil {
			t.Fatalf("failed to execute: %v", err)
		}
		if len(result.Files) != 1 {
			t.Errorf("expected 1 extracted file, got %v", result.Files)
		}
		if got := tu.MustReadFile(t, filepath.Join(env.DataDir, "staged", "ml", "ratings.csv")); got != ratingsCSV {
			t.Error("expected archive content to round trip")
		}
	})

	t.Run("rejects entries escaping the destination", func(t *testing.T) {
		env := newEnv(t)
		archive := filepath.Join(env.DataDir, "raw", "evil.zip")
		writeZip(t, archive, map[string]string{"../evil.txt": "escape"})

		op := &Extract{Archive: "raw/evil.zip", Destination: "staged"}
		if _, err := op.Execute(ctx, env); err == nil {
			t.Fatal("expected error for escaping entry")
		}
		if _, err := os.Stat(filepath.Join(env.DataDir, "evil.txt")); !os.IsNotExist(err) {
			t.Error("expected no file outside the destination")
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		env := newEnv(t)
		writeFile(t, filepath.Join(env.DataDir, "data.rar"), "not supported")

		op := &Extract{Archive: "data.rar", Destination: "staged"}
		if _, err := op.Execute(ctx, env); err == nil {
			t.Fatal("expected error for unknown format")
		}
	})
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("loads csv into the frame store", func(t *testing.T) {
		env := newEnv(t)
		writeFile(t, filepath.Join(env.DataDir, "staged", "ratings.csv"), ratingsCSV)

		op := &Ingest{Path: "staged/ratings.csv", Table: "ratings"}
		result, err := op.Execute(ctx, env)
		if err != nil {
			t.Fatalf("failed to execute: %v", err)
		}
		if result.Frame != "ratings" {
			t.Errorf("expected frame ratings, got %q", result.Frame)
		}
		if result.Rows != 9 {
			t.Errorf("expected 9 rows, got %d", result.Rows)
		}
	})

	t.Run("skips existing frame unless forced", func(t *testing.T) {
		env := newEnv(t)
		path := filepath.Join(env.DataDir, "staged", "ratings.csv")
		writeFile(t, path, ratingsCSV)

		op := &Ingest{Path: "staged/ratings.csv", Table: "ratings"}
		if _, err := op.Execute(ctx, env); err != nil {
			t.Fatalf("failed to execute: %v", err)
		}

		writeFile(t, path, "userId,movieId,rating\n9,99,1.0\n")
		result, err := op.Execute(ctx, env)
		if err != nil {
			t.Fatalf("failed to execute again: %v", err)
		}
		if result.Rows != 9 {
			t.Errorf("expected existing frame to be kept, got %d rows", result.Rows)
		}

		op.Force = true
		result, err = op.Execute(ctx, env)
		if err != nil {
			t.Fatalf("failed to execute forced: %v", err)
		}
		if result.Rows != 1 {
			t.Errorf("expected forced reload, got %d rows", result.Rows)
		}
	})

	t.Run("fails without a frame store", func(t *testing.T) {
		env := &Env{Logger: shared.NewLogger(io.Discard), DataDir: t.TempDir()}
		op := &Ingest{Path: "ratings.csv", Table: "ratings"}
		if _, err := op.Execute(ctx, env); err == nil {
			t.Fatal("expected error without frame store")
		}
	})
}
