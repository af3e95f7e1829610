package operators

import (
	"context"
	"path/filepath"
	"testing"
)

// seedRatings ingests the fixture ratings and threads the frame into env.
func seedRatings(t *testing.T, env *Env) {
	t.Helper()
	path := filepath.Join(env.DataDir, "ratings.csv")
	writeFile(t, path, ratingsCSV)

	op := &Ingest{Path: "ratings.csv", Table: "ratings"}
	result, err := op.Execute(context.Background(), env)
	if err != nil {
		t.Fatalf("failed to seed ratings: %v", err)
	}
	env.Frame = result.Frame
}

func TestSampleOperator(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	seedRatings(t, env)

	op := &Sample{Out: "sampled", Frac: 0.5}
	result, err := op.Execute(ctx, env)
	if err != nil {
		t.Fatalf("failed to execute: %v", err)
	}
	if result.Frame != "sampled" {
		t.Errorf("expected frame sampled, got %q", result.Frame)
	}
	if result.Rows > 9 {
		t.Errorf("expected at most 9 rows, got %d", result.Rows)
	}

	again, err := op.Execute(ctx, env)
	if err != nil {
		t.Fatalf("failed to re-execute: %v", err)
	}
	if again.Rows != result.Rows {
		t.Errorf("expected seeded sample to repeat, got %d then %d", result.Rows, again.Rows)
	}
}

func TestSampleOperatorClusters(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	seedRatings(t, env)

	op := &Sample{Out: "sampled", Frac: 0.5, Cluster: true, ClusterBy: "userId"}
	if _, err := op.Execute(ctx, env); err != nil {
		t.Fatalf("failed to execute: %v", err)
	}
}

func TestSplitOperator(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	seedRatings(t, env)

	op := &Split{TrainOut: "train", TestOut: "test", TrainFrac: 0.8}
	result, err := op.Execute(ctx, env)
	if err != nil {
		t.Fatalf("failed to execute: %v", err)
	}
	if result.Frame != "train" {
		t.Errorf("expected train frame threaded forward, got %q", result.Frame)
	}
	if result.Frames["train"] != "train" || result.Frames["test"] != "test" {
		t.Errorf("expected named outputs, got %v", result.Frames)
	}

	trainRows, err := env.Frames.Rows(ctx, "train")
	if err != nil {
		t.Fatalf("failed to count train: %v", err)
	}
	testRows, err := env.Frames.Rows(ctx, "test")
	if err != nil {
		t.Fatalf("failed to count test: %v", err)
	}
	if trainRows+testRows != 9 {
		t.Errorf("expected partitions to cover all rows, got %d + %d", trainRows, testRows)
	}
}

func TestCenterOperator(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	seedRatings(t, env)

	op := &Center{Out: "centered", Var: "rating", GroupVar: "userId"}
	result, err := op.Execute(ctx, env)
	if err != nil {
		t.Fatalf("failed to execute: %v", err)
	}
	if result.Rows != 9 {
		t.Errorf("expected 9 rows, got %d", result.Rows)
	}

	stats, err := env.Frames.Stats(ctx, "centered")
	if err != nil {
		t.Fatalf("failed to compute stats: %v", err)
	}
	if stats.Cols != 4 {
		t.Errorf("expected adj_rating column added, got %d cols", stats.Cols)
	}
}

func TestAggregateOperator(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	seedRatings(t, env)

	op := &Aggregate{Out: "user_means", Var: "rating", GroupVar: "userId"}
	result, err := op.Execute(ctx, env)
	if err != nil {
		t.Fatalf("failed to execute: %v", err)
	}
	if result.Rows != 4 {
		t.Errorf("expected one row per user, got %d", result.Rows)
	}
}

func TestPairsAndWeightsOperators(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	seedRatings(t, env)

	center := &Center{Out: "centered", Var: "rating", GroupVar: "userId"}
	result, err := center.Execute(ctx, env)
	if err != nil {
		t.Fatalf("failed to center: %v", err)
	}
	env.Frame = result.Frame

	pairs := &Pairs{Out: "pairs", On: "movieId", ID: "userId", Var: "adj_rating"}
	result, err = pairs.Execute(ctx, env)
	if err != nil {
		t.Fatalf("failed to pair: %v", err)
	}
	if result.Rows != 6 {
		t.Errorf("expected 6 co-rater pairs, got %d", result.Rows)
	}
	env.Frame = result.Frame

	weights := &Weights{Out: "weights"}
	result, err = weights.Execute(ctx, env)
	if err != nil {
		t.Fatalf("failed to weight: %v", err)
	}
	if result.Rows != 5 {
		t.Errorf("expected 5 weighted pairs, got %d", result.Rows)
	}
}

func TestMergeOperator(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)
	seedRatings(t, env)

	agg := &Aggregate{Out: "user_means", Var: "rating", GroupVar: "userId"}
	if _, err := agg.Execute(ctx, env); err != nil {
		t.Fatalf("failed to aggregate: %v", err)
	}

	op := &Merge{Left: "ratings", Right: "user_means", Out: "merged", On: "userId", How: "left"}
	result, err := op.Execute(ctx, env)
	if err != nil {
		t.Fatalf("failed to execute: %v", err)
	}
	if result.Rows != 9 {
		t.Errorf("expected 9 rows, got %d", result.Rows)
	}
}

func TestTransformsRequireInput(t *testing.T) {
	ctx := context.Background()
	env := newEnv(t)

	ops := []Operator{
		&Sample{Out: "out", Frac: 0.5},
		&Split{TrainOut: "train", TestOut: "test", TrainFrac: 0.8},
		&Center{Out: "out", Var: "rating", GroupVar: "userId"},
		&Aggregate{Out: "out", Var: "rating", GroupVar: "userId"},
		&Pairs{Out: "out", On: "movieId", ID: "userId", Var: "rating"},
		&Weights{Out: "out"},
		&Merge{Right: "other", Out: "out", On: "userId"},
	}
	for _, op := range ops {
		if _, err := op.Execute(ctx, env); err == nil {
			t.Errorf("expected %s to fail without an input frame", op.Name())
		}
	}
}
