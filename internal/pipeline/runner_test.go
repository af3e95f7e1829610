package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/rsx/internal/frames"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/operators"
	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/shared"
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

// failOp is an operator that always fails with a fixed error.
type failOp struct{ err error }

func (f failOp) Name() string { return "fail" }

func (f failOp) Execute(ctx context.Context, env *operators.Env) (*operators.Result, error) {
	return nil, f.err
}

func newTestRunner(t *testing.T) (*Runner, string) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repositories.NewSchema(db).Create(context.Background()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	store, err := frames.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open frame store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	dir := t.TempDir()
	env := operators.Env{
		Frames:  store,
		Logger:  shared.NewLogger(io.Discard),
		DataDir: dir,
		Seed:    42,
	}
	return NewRunner(db, repositories.DefaultRegistry(db), env), dir
}

// readScope runs fn inside a fresh catalog read scope.
func readScope(t *testing.T, r *Runner, fn func(u *repositories.UnitOfWork)) {
	t.Helper()
	err := repositories.NewUnitOfWork(r.db, r.reg).Run(context.Background(), func(u *repositories.UnitOfWork) error {
		fn(u)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read catalog: %v", err)
	}
}

func writeRatings(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "ratings.csv"), []byte(ratingsCSV), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

func ratingsPipeline() *Pipeline {
	p := &Pipeline{Name: "etl-test", Description: "catalog run", Mode: models.ModeDev, Seed: 7}
	p.AddStage(Stage{
		Name:     "load",
		Operator: &operators.Ingest{Path: "ratings.csv", Table: "ratings", Header: true},
		Output:   &DatasetSpec{Name: "ratings", Description: "raw ratings", Stage: "raw"},
	})
	p.AddStage(Stage{
		Name:     "means",
		Operator: &operators.Aggregate{Out: "user_means", Var: "rating", GroupVar: "userId"},
		Output:   &DatasetSpec{Name: "user_means", Stage: "interim"},
	})
	return p
}

func drain(updates chan Update) []Update {
	got := make([]Update, 0, len(updates))
	for len(updates) > 0 {
		got = append(got, <-updates)
	}
	return got
}

func TestRunnerRun(t *testing.T) {
	ctx := context.Background()
	r, dir := newTestRunner(t)
	writeRatings(t, dir)

	updates := make(chan Update, 16)
	job, err := r.Run(ctx, ratingsPipeline(), RunOpts{Progress: updates})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if job.ID() == 0 {
		t.Error("expected a persisted job id")
	}
	if job.State() != models.StateCompleted {
		t.Errorf("expected completed job, got %s", job.State())
	}

	t.Run("persists the job and its tasks", func(t *testing.T) {
		readScope(t, r, func(u *repositories.UnitOfWork) {
			stored, err := u.Jobs().Get(ctx, job.ID())
			if err != nil {
				t.Fatalf("failed to load job: %v", err)
			}
			if stored.State() != models.StateCompleted {
				t.Errorf("expected completed job in catalog, got %s", stored.State())
			}

			tasks, err := u.Tasks().GetByJob(ctx, job.ID())
			if err != nil {
				t.Fatalf("failed to load tasks: %v", err)
			}
			if len(tasks) != 2 {
				t.Fatalf("expected 2 tasks, got %d", len(tasks))
			}
			want := []struct {
				name     string
				operator string
			}{
				{"load", "ingest"},
				{"means", "aggregate"},
			}
			for i, task := range tasks {
				if task.Name() != want[i].name || task.Operator() != want[i].operator {
					t.Errorf("task %d: expected %s/%s, got %s/%s",
						i, want[i].name, want[i].operator, task.Name(), task.Operator())
				}
				if task.Position() != i {
					t.Errorf("task %d: expected position %d, got %d", i, i, task.Position())
				}
				if task.State() != models.StateCompleted {
					t.Errorf("task %d: expected completed, got %s", i, task.State())
				}
			}
		})
	})

	t.Run("profiles every task", func(t *testing.T) {
		readScope(t, r, func(u *repositories.UnitOfWork) {
			tasks, err := u.Tasks().GetByJob(ctx, job.ID())
			if err != nil {
				t.Fatalf("failed to load tasks: %v", err)
			}
			for _, task := range tasks {
				profiles, err := u.Profiles().GetByTask(ctx, task.ID())
				if err != nil {
					t.Fatalf("failed to load profiles for %s: %v", task.Name(), err)
				}
				if len(profiles) != 1 {
					t.Fatalf("expected 1 profile for %s, got %d", task.Name(), len(profiles))
				}
				prof := profiles[0]
				if prof.TaskID() != task.ID() {
					t.Errorf("expected profile bound to task %d, got %d", task.ID(), prof.TaskID())
				}
				if prof.Ended().Before(prof.Started()) {
					t.Errorf("profile for %s ended before it started", task.Name())
				}
				if prof.Duration() < 0 {
					t.Errorf("expected non-negative duration for %s, got %v", task.Name(), prof.Duration())
				}
			}
		})
	})

	t.Run("registers stage outputs as datasets", func(t *testing.T) {
		readScope(t, r, func(u *repositories.UnitOfWork) {
			ds, err := u.Datasets().GetByNameMode(ctx, "ratings", models.ModeDev)
			if err != nil {
				t.Fatalf("failed to load ratings dataset: %v", err)
			}
			if ds.Stage() != models.StageRaw {
				t.Errorf("expected raw stage, got %s", ds.Stage())
			}
			if ds.TaskID() == 0 {
				t.Error("expected dataset bound to a task")
			}
			if len(ds.Frames()) != 1 {
				t.Fatalf("expected 1 frame, got %d", len(ds.Frames()))
			}
			frame := ds.Frames()[0]
			if frame.Table() != "ratings" {
				t.Errorf("expected frame table ratings, got %q", frame.Table())
			}
			if frame.Rows() != 9 || frame.Cols() != 3 {
				t.Errorf("expected 9x3 frame, got %dx%d", frame.Rows(), frame.Cols())
			}

			means, err := u.Datasets().GetByNameMode(ctx, "user_means", models.ModeDev)
			if err != nil {
				t.Fatalf("failed to load user_means dataset: %v", err)
			}
			if len(means.Frames()) != 1 {
				t.Fatalf("expected 1 frame, got %d", len(means.Frames()))
			}
			if means.Frames()[0].Rows() != 4 {
				t.Errorf("expected 4 user means, got %d", means.Frames()[0].Rows())
			}
		})
	})

	t.Run("reports progress in order", func(t *testing.T) {
		got := drain(updates)
		want := []Phase{JobStart, StageStart, StageDone, StageStart, StageDone, JobDone}
		if len(got) != len(want) {
			t.Fatalf("expected %d updates, got %d", len(want), len(got))
		}
		for i, update := range got {
			if update.Phase != want[i] {
				t.Errorf("update %d: expected %s, got %s", i, want[i], update.Phase)
			}
		}
		if !strings.Contains(got[0].Message, "etl-test") {
			t.Errorf("expected job name in start message, got %q", got[0].Message)
		}
		if !strings.Contains(got[2].Message, "ratings") {
			t.Errorf("expected frame name in stage message, got %q", got[2].Message)
		}
	})

	t.Run("keeps the shared environment clean", func(t *testing.T) {
		if r.env.Frame != "" {
			t.Errorf("expected pristine runner environment, got frame %q", r.env.Frame)
		}
	})
}

func TestRunnerStageFailure(t *testing.T) {
	ctx := context.Background()
	r, dir := newTestRunner(t)
	writeRatings(t, dir)

	boom := errors.New("operator exploded")
	p := &Pipeline{Name: "doomed", Mode: models.ModeDev}
	p.AddStage(Stage{
		Name:     "load",
		Operator: &operators.Ingest{Path: "ratings.csv", Table: "ratings", Header: true},
	})
	p.AddStage(Stage{Name: "boom", Operator: failOp{err: boom}})

	updates := make(chan Update, 16)
	job, err := r.Run(ctx, p, RunOpts{Progress: updates})
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected operator error, got %v", err)
	}
	if !strings.Contains(err.Error(), `stage "boom" failed`) {
		t.Errorf("expected stage name in error, got %v", err)
	}
	if job == nil || job.State() != models.StateFailed {
		t.Fatalf("expected failed job, got %+v", job)
	}

	t.Run("records the failure durably", func(t *testing.T) {
		readScope(t, r, func(u *repositories.UnitOfWork) {
			stored, err := u.Jobs().Get(ctx, job.ID())
			if err != nil {
				t.Fatalf("failed to load job: %v", err)
			}
			if stored.State() != models.StateFailed {
				t.Errorf("expected failed job in catalog, got %s", stored.State())
			}

			tasks, err := u.Tasks().GetByJob(ctx, job.ID())
			if err != nil {
				t.Fatalf("failed to load tasks: %v", err)
			}
			if len(tasks) != 2 {
				t.Fatalf("expected 2 tasks, got %d", len(tasks))
			}
			if tasks[0].State() != models.StateCompleted {
				t.Errorf("expected completed first task, got %s", tasks[0].State())
			}
			if tasks[1].State() != models.StateFailed {
				t.Errorf("expected failed second task, got %s", tasks[1].State())
			}

			profiles, err := u.Profiles().GetByTask(ctx, tasks[1].ID())
			if err != nil {
				t.Fatalf("failed to load profiles: %v", err)
			}
			if len(profiles) != 1 {
				t.Errorf("expected a profile for the failed task, got %d", len(profiles))
			}
		})
	})

	t.Run("reports the failure", func(t *testing.T) {
		got := drain(updates)
		if len(got) < 2 {
			t.Fatalf("expected at least 2 updates, got %d", len(got))
		}
		last := got[len(got)-1]
		if last.Phase != JobFailed {
			t.Errorf("expected job_failed last, got %s", last.Phase)
		}
		if got[len(got)-2].Phase != StageFailed {
			t.Errorf("expected stage_failed before it, got %s", got[len(got)-2].Phase)
		}
	})
}

func TestRunnerOutputRollback(t *testing.T) {
	ctx := context.Background()
	r, dir := newTestRunner(t)
	writeRatings(t, dir)

	// Stage validation happens at load time, so a bad output stage can
	// only reach the runner through a hand-built pipeline. The record
	// scope must roll back without leaving a half-written task behind.
	p := &Pipeline{Name: "bad-output", Mode: models.ModeDev}
	p.AddStage(Stage{
		Name:     "load",
		Operator: &operators.Ingest{Path: "ratings.csv", Table: "ratings", Header: true},
		Output:   &DatasetSpec{Name: "ratings", Stage: "polished"},
	})

	job, err := r.Run(ctx, p, RunOpts{})
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if !strings.Contains(err.Error(), `failed to record stage "load"`) {
		t.Errorf("expected record error, got %v", err)
	}

	readScope(t, r, func(u *repositories.UnitOfWork) {
		stored, err := u.Jobs().Get(ctx, job.ID())
		if err != nil {
			t.Fatalf("failed to load job: %v", err)
		}
		if stored.State() != models.StateFailed {
			t.Errorf("expected failed job, got %s", stored.State())
		}

		tasks, err := u.Tasks().GetByJob(ctx, job.ID())
		if err != nil {
			t.Fatalf("failed to load tasks: %v", err)
		}
		if len(tasks) != 0 {
			t.Errorf("expected rolled back task records, got %d", len(tasks))
		}

		if _, err := u.Datasets().GetByNameMode(ctx, "ratings", models.ModeDev); err == nil {
			t.Error("expected no dataset record")
		}
	})
}

func TestRunnerSplitOutput(t *testing.T) {
	ctx := context.Background()
	r, dir := newTestRunner(t)
	writeRatings(t, dir)

	p := &Pipeline{Name: "partition", Mode: models.ModeDev, Seed: 11}
	p.AddStage(Stage{
		Name:     "load",
		Operator: &operators.Ingest{Path: "ratings.csv", Table: "ratings", Header: true},
	})
	p.AddStage(Stage{
		Name:     "split",
		Operator: &operators.Split{TrainOut: "train", TestOut: "test", TrainFrac: 0.8},
		Output:   &DatasetSpec{Name: "ratings_split", Stage: "interim"},
	})

	if _, err := r.Run(ctx, p, RunOpts{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	readScope(t, r, func(u *repositories.UnitOfWork) {
		ds, err := u.Datasets().GetByNameMode(ctx, "ratings_split", models.ModeDev)
		if err != nil {
			t.Fatalf("failed to load dataset: %v", err)
		}
		if len(ds.Frames()) != 2 {
			t.Fatalf("expected train and test frames, got %d", len(ds.Frames()))
		}

		rows := make(map[string]int64, 2)
		var total int64
		for _, frame := range ds.Frames() {
			rows[frame.Name()] = frame.Rows()
			total += frame.Rows()
		}
		if _, ok := rows["ratings_split_train"]; !ok {
			t.Errorf("expected ratings_split_train frame, got %v", rows)
		}
		if _, ok := rows["ratings_split_test"]; !ok {
			t.Errorf("expected ratings_split_test frame, got %v", rows)
		}
		if total != 9 {
			t.Errorf("expected partitions to cover all 9 rows, got %d", total)
		}
	})
}

func TestRunnerEmptyPipeline(t *testing.T) {
	r, _ := newTestRunner(t)

	if _, err := r.Run(context.Background(), nil, RunOpts{}); err == nil {
		t.Fatal("expected error for nil pipeline")
	}
	if _, err := r.Run(context.Background(), &Pipeline{Name: "empty"}, RunOpts{}); err == nil {
		t.Fatal("expected error for empty pipeline")
	}
}
