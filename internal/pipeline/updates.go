package pipeline

import (
	"fmt"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/operators"
)

// Update represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type Update struct {
	Phase   Phase  // run phase
	Step    int    // current stage number
	Total   int    // total stages in the pipeline
	Message string // human-readable message for display
	Data    any    // optional phase-specific data for advanced UIs
}

// Run phase enumeration
type Phase int

const (
	JobStart Phase = iota
	StageStart
	StageDone
	StageFailed
	JobDone
	JobFailed
)

func (p Phase) String() string {
	switch p {
	case JobStart:
		return "job_start"
	case StageStart:
		return "stage_start"
	case StageDone:
		return "stage_done"
	case StageFailed:
		return "stage_failed"
	case JobDone:
		return "job_done"
	case JobFailed:
		return "job_failed"
	default:
		return ""
	}
}

func jobStartUpdate(total int, job *models.Job) Update {
	return Update{
		Phase:   JobStart,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Starting %s (%d stages)...", job.Name(), total),
		Data:    job,
	}
}

func stageStartUpdate(step, total int, stage Stage) Update {
	return Update{
		Phase:   StageStart,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%s)...", step, total, stage.Name, stage.Operator.Name()),
	}
}

func stageDoneUpdate(step, total int, stage Stage, result *operators.Result) Update {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, stage.Name)
	if result.Frame != "" {
		msg = fmt.Sprintf("[%d/%d] ✓ %s → %s (%d rows)", step, total, stage.Name, result.Frame, result.Rows)
	}
	return Update{
		Phase:   StageDone,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    result,
	}
}

func stageFailedUpdate(step, total int, stage Stage, err error) Update {
	return Update{
		Phase:   StageFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, stage.Name, err),
	}
}

func jobDoneUpdate(total int, job *models.Job) Update {
	return Update{
		Phase:   JobDone,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Completed %s", job.Name()),
		Data:    job,
	}
}

func jobFailedUpdate(step, total int, job *models.Job) Update {
	return Update{
		Phase:   JobFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed %s", job.Name()),
		Data:    job,
	}
}
