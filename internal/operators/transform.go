package operators

import (
	"context"
	"fmt"

	"github.com/desertthunder/rsx/internal/frames"
)

// Sample draws a repeatable fraction of a frame's rows, or of whole
// clusters when Cluster is set.
type Sample struct {
	Table     string  `toml:"table"` // source frame, defaults to the incoming frame
	Out       string  `toml:"out"`
	Frac      float64 `toml:"frac"`
	Cluster   bool    `toml:"cluster"`
	ClusterBy string  `toml:"cluster_by"`
	Seed      int64   `toml:"seed"`
}

func (o *Sample) Name() string { return "sample" }

func (o *Sample) Execute(ctx context.Context, env *Env) (*Result, error) {
	src := env.input(o.Table)
	if src == "" {
		return nil, fmt.Errorf("sample has no input frame")
	}

	spec := frames.SampleSpec{Frac: o.Frac, Seed: env.seed(o.Seed)}
	var err error
	if o.Cluster {
		err = env.Frames.ClusterSample(ctx, src, o.Out, o.ClusterBy, spec)
	} else {
		err = env.Frames.Sample(ctx, src, o.Out, spec)
	}
	if err != nil {
		return nil, err
	}

	return output(ctx, env, o.Out)
}

// Split partitions a frame into disjoint train and test frames. When
// Cluster is set whole clusters land on one side or the other.
type Split struct {
	Table     string  `toml:"table"` // source frame, defaults to the incoming frame
	TrainOut  string  `toml:"train_out"`
	TestOut   string  `toml:"test_out"`
	TrainFrac float64 `toml:"train_frac"`
	Cluster   bool    `toml:"cluster"`
	ClusterBy string  `toml:"cluster_by"`
	Seed      int64   `toml:"seed"`
}

func (o *Split) Name() string { return "split" }

func (o *Split) Execute(ctx context.Context, env *Env) (*Result, error) {
	src := env.input(o.Table)
	if src == "" {
		return nil, fmt.Errorf("split has no input frame")
	}

	spec := frames.SplitSpec{TrainFrac: o.TrainFrac, Seed: env.seed(o.Seed)}
	if o.Cluster {
		spec.ClusterBy = o.ClusterBy
	}
	if err := env.Frames.Split(ctx, src, o.TrainOut, o.TestOut, spec); err != nil {
		return nil, err
	}

	res, err := output(ctx, env, o.TrainOut)
	if err != nil {
		return nil, err
	}
	res.Frames = map[string]string{"train": o.TrainOut, "test": o.TestOut}
	return res, nil
}

// Center subtracts the per-group mean of Var from each row, writing the
// difference to OutVar. With Var "rating" grouped by "userId" this turns
// raw ratings into deviations from each user's average.
type Center struct {
	Table    string `toml:"table"` // source frame, defaults to the incoming frame
	Out      string `toml:"out"`
	Var      string `toml:"var"`
	GroupVar string `toml:"group_var"`
	OutVar   string `toml:"out_var"` // defaults to adj_<Var>
}

func (o *Center) Name() string { return "center" }

func (o *Center) Execute(ctx context.Context, env *Env) (*Result, error) {
	src := env.input(o.Table)
	if src == "" {
		return nil, fmt.Errorf("center has no input frame")
	}

	outVar := o.OutVar
	if outVar == "" {
		outVar = "adj_" + o.Var
	}
	if err := env.Frames.CenterBy(ctx, src, o.Out, o.Var, o.GroupVar, outVar); err != nil {
		return nil, err
	}

	return output(ctx, env, o.Out)
}

// Aggregate computes the per-group mean of Var into a frame of one row
// per group.
type Aggregate struct {
	Table    string `toml:"table"` // source frame, defaults to the incoming frame
	Out      string `toml:"out"`
	Var      string `toml:"var"`
	GroupVar string `toml:"group_var"`
	OutVar   string `toml:"out_var"` // defaults to mean_<Var>
}

func (o *Aggregate) Name() string { return "aggregate" }

func (o *Aggregate) Execute(ctx context.Context, env *Env) (*Result, error) {
	src := env.input(o.Table)
	if src == "" {
		return nil, fmt.Errorf("aggregate has no input frame")
	}

	outVar := o.OutVar
	if outVar == "" {
		outVar = "mean_" + o.Var
	}
	if err := env.Frames.MeanBy(ctx, src, o.Out, o.Var, o.GroupVar, outVar); err != nil {
		return nil, err
	}

	return output(ctx, env, o.Out)
}

// Pairs expands a frame into co-rater pairs: every pair of distinct IDs
// that share a value of On, carrying each side's Var. For ratings keyed
// by userId and paired on movieId, the output holds every pair of users
// who rated the same movie.
type Pairs struct {
	Table string `toml:"table"` // source frame, defaults to the incoming frame
	Out   string `toml:"out"`
	On    string `toml:"on"`  // column the pair must share, e.g. movieId
	ID    string `toml:"id"`  // column identifying pair members, e.g. userId
	Var   string `toml:"var"` // value column carried for both sides, e.g. adj_rating
}

func (o *Pairs) Name() string { return "pairs" }

func (o *Pairs) Execute(ctx context.Context, env *Env) (*Result, error) {
	src := env.input(o.Table)
	if src == "" {
		return nil, fmt.Errorf("pairs has no input frame")
	}

	if err := env.Frames.PairsBy(ctx, src, o.Out, o.On, o.ID, o.Var); err != nil {
		return nil, err
	}

	return output(ctx, env, o.Out)
}

// Weights reduces a pairs frame to one similarity weight per ID pair,
// the cosine of the two sides' value vectors. Over centered ratings this
// is the pearson correlation between co-raters.
type Weights struct {
	Table string `toml:"table"` // pairs frame, defaults to the incoming frame
	Out   string `toml:"out"`
}

func (o *Weights) Name() string { return "weights" }

func (o *Weights) Execute(ctx context.Context, env *Env) (*Result, error) {
	src := env.input(o.Table)
	if src == "" {
		return nil, fmt.Errorf("weights has no input frame")
	}

	if err := env.Frames.CosineBy(ctx, src, o.Out); err != nil {
		return nil, err
	}

	return output(ctx, env, o.Out)
}

// Merge joins two frames on a shared column.
type Merge struct {
	Left  string `toml:"left"` // defaults to the incoming frame
	Right string `toml:"right"`
	Out   string `toml:"out"`
	On    string `toml:"on"`
	How   string `toml:"how"` // "inner" (default) or "left"
}

func (o *Merge) Name() string { return "merge" }

func (o *Merge) Execute(ctx context.Context, env *Env) (*Result, error) {
	left := env.input(o.Left)
	if left == "" {
		return nil, fmt.Errorf("merge has no left frame")
	}

	if err := env.Frames.MergeBy(ctx, left, o.Right, o.Out, o.On, o.How); err != nil {
		return nil, err
	}

	return output(ctx, env, o.Out)
}

// output builds the standard transform result: the produced frame and
// its row count.
func output(ctx context.Context, env *Env, frame string) (*Result, error) {
	rows, err := env.Frames.Rows(ctx, frame)
	if err != nil {
		return nil, err
	}
	return &Result{Frame: frame, Rows: rows}, nil
}
