package pipeline

import (
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/operators"
)

// Pipeline is an ordered list of stages loaded from a pipeline file.
type Pipeline struct {
	Name        string
	Description string
	Mode        models.Mode
	Seed        int64 // pins Env.Seed for the run when non-zero
	Stages      []Stage
}

// Stage pairs one operator with its catalog registration.
type Stage struct {
	Name     string
	Operator operators.Operator
	Output   *DatasetSpec // registers the stage's frame when set
}

// DatasetSpec names the catalog dataset a stage's output frame is
// recorded under.
type DatasetSpec struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Stage       string `toml:"stage"` // raw, interim or cooked; defaults to interim
}

// AddStage appends a stage to the run order.
func (p *Pipeline) AddStage(s Stage) {
	p.Stages = append(p.Stages, s)
}

// Len reports the number of stages.
func (p *Pipeline) Len() int { return len(p.Stages) }
