package operators

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rsx/internal/frames"
	"github.com/desertthunder/rsx/internal/services"
)

// Operator is a single executable pipeline step.
type Operator interface {
	// Name identifies the operator kind in logs and task records.
	Name() string

	// Execute runs the step against env and reports what it produced.
	Execute(ctx context.Context, env *Env) (*Result, error)
}

// Env carries the shared facilities the pipeline hands to each step.
type Env struct {
	Frames  *frames.Store    // frame store transforms operate on
	Fetcher services.Fetcher // used by Download, nil disables fetching
	Logger  *log.Logger
	DataDir string // base directory relative paths resolve against
	Seed    int64  // fallback seed for sampling and splitting
	Frame   string // frame produced by the previous step, if any
}

// Path resolves p against the environment's data directory. Absolute
// paths pass through untouched.
func (e *Env) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.DataDir, p)
}

func (e *Env) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// input picks the source frame for a transform: the operator's own table
// when set, otherwise the frame threaded from the previous step.
func (e *Env) input(table string) string {
	if table != "" {
		return table
	}
	return e.Frame
}

func (e *Env) seed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return e.Seed
}

// Result reports what an operator produced.
type Result struct {
	Frame  string            // primary output frame, threaded to the next step
	Frames map[string]string // named secondary outputs, e.g. train and test
	Files  []string          // artifacts written to disk
	Rows   int64             // rows in the primary output frame
}

// Null passes the incoming frame through unchanged.
type Null struct{}

func (Null) Name() string { return "null" }

func (Null) Execute(ctx context.Context, env *Env) (*Result, error) {
	return &Result{Frame: env.Frame}, nil
}
