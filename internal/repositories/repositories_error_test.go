package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/mattn/go-sqlite3"
)

func TestRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Add", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewDataSourceRepository(db)

			invalid := models.NewDataSource("movielens", "GroupLens", "", "", "")

			if _, err := repo.Add(ctx, invalid); err == nil {
				t.Fatal("expected validation error for missing url")
			}
		})

		t.Run("DuplicateName", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewDataSourceRepository(db)

			if _, err := repo.Add(ctx, testDataSource("movielens")); err != nil {
				t.Fatalf("failed to add first datasource: %v", err)
			}

			_, err := repo.Add(ctx, testDataSource("movielens"))

			var dup *DuplicateKeyError
			if !errors.As(err, &dup) {
				t.Fatalf("expected DuplicateKeyError, got %v", err)
			}
			if dup.Entity != "datasource" {
				t.Errorf("expected datasource entity, got %q", dup.Entity)
			}

			// The driver error stays reachable through the wrapper.
			var sqliteErr sqlite3.Error
			if !errors.As(err, &sqliteErr) {
				t.Error("expected the sqlite error to be wrapped")
			}
		})

		t.Run("DuplicateNameMode", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewDatasetRepository(db, NewDataFrameRepository(db))

			if _, err := repo.Add(ctx, testDataset("ml-small", models.ModeDev)); err != nil {
				t.Fatalf("failed to add first dataset: %v", err)
			}

			// Same name in another mode is a different business key.
			if _, err := repo.Add(ctx, testDataset("ml-small", models.ModeProd)); err != nil {
				t.Fatalf("failed to add dataset in another mode: %v", err)
			}

			_, err := repo.Add(ctx, testDataset("ml-small", models.ModeDev))

			var dup *DuplicateKeyError
			if !errors.As(err, &dup) {
				t.Fatalf("expected DuplicateKeyError for repeated (name, mode), got %v", err)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewDataSourceRepository(db)

			_, err := repo.Get(ctx, 99)

			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
			if nf.Entity != "datasource" || nf.ID != 99 {
				t.Errorf("expected datasource 99, got %s %d", nf.Entity, nf.ID)
			}
		})

		t.Run("NotFoundByKey", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewFileRepository(db)

			_, err := repo.GetByNameMode(ctx, "missing", models.ModeDev)

			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
			if nf.Key != "missing/dev" {
				t.Errorf("expected key missing/dev, got %q", nf.Key)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewDataSourceRepository(db)

			src, err := repo.Add(ctx, testDataSource("movielens"))
			if err != nil {
				t.Fatalf("failed to add datasource: %v", err)
			}

			if err := repo.Remove(ctx, src.ID()); err != nil {
				t.Fatalf("failed to remove datasource: %v", err)
			}

			_, err = repo.Add(ctx, src)

			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFoundError when updating a removed row, got %v", err)
			}
		})
	})

	t.Run("Remove", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewDataSourceRepository(db)

			err := repo.Remove(ctx, 99)

			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
		})
	})

	t.Run("Registry", func(t *testing.T) {
		t.Run("UnknownName", func(t *testing.T) {
			db := setupTestDB(t)
			reg := DefaultRegistry(db)

			_, err := reg.Get("playlist")

			var unknown *UnknownRepositoryError
			if !errors.As(err, &unknown) {
				t.Fatalf("expected UnknownRepositoryError, got %v", err)
			}
			if unknown.Name != "playlist" {
				t.Errorf("expected name playlist, got %q", unknown.Name)
			}
		})
	})
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not found by id",
			err:  &NotFoundError{Entity: "dataset", ID: 7},
			want: "dataset 7 not found",
		},
		{
			name: "not found by key",
			err:  &NotFoundError{Entity: "dataset", Key: "ml-small/dev"},
			want: `dataset "ml-small/dev" not found`,
		},
		{
			name: "unknown repository",
			err:  &UnknownRepositoryError{Name: "playlist"},
			want: `no repository registered for "playlist"`,
		},
		{
			name: "transaction state",
			err:  &TransactionStateError{Op: "rollback", Reason: "no active scope"},
			want: "cannot rollback: no active scope",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
