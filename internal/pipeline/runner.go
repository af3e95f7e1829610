package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/operators"
	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/shared"
)

// RunOpts tunes a single pipeline run.
type RunOpts struct {
	Progress chan<- Update // optional; updates are dropped when full
}

// Runner executes pipelines and records jobs, tasks, profiles and stage
// outputs in the catalog.
type Runner struct {
	db  *shared.Database
	reg *repositories.Registry
	env operators.Env
}

// NewRunner wires a runner to the catalog database and the operator
// environment. The environment is copied per run, so frame threading in
// one run never leaks into the next.
func NewRunner(db *shared.Database, reg *repositories.Registry, env operators.Env) *Runner {
	return &Runner{db: db, reg: reg, env: env}
}

// Run executes every stage of p in order. The job is registered before
// the first stage runs, each stage persists a task with its resource
// profile, and stage outputs named by the pipeline file become catalog
// datasets. The first stage failure stops the run, marks the job failed
// and returns the stage's error; the job record is returned either way
// once it exists.
func (r *Runner) Run(ctx context.Context, p *Pipeline, opts RunOpts) (*models.Job, error) {
	if p == nil || p.Len() == 0 {
		return nil, fmt.Errorf("pipeline has no stages")
	}

	env := r.env
	if p.Seed != 0 {
		env.Seed = p.Seed
	}

	job := models.NewJob(p.Name, p.Description)
	err := repositories.NewUnitOfWork(r.db, r.reg).Run(ctx, func(u *repositories.UnitOfWork) error {
		if _, err := u.Jobs().Add(ctx, job); err != nil {
			return err
		}
		if err := job.SetState(models.StateRunning); err != nil {
			return err
		}
		_, err := u.Jobs().Add(ctx, job)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register job %q: %w", p.Name, err)
	}

	total := p.Len()
	r.send(opts.Progress, jobStartUpdate(total, job))

	prof := newProfiler()
	for i, stage := range p.Stages {
		step := i + 1
		r.send(opts.Progress, stageStartUpdate(step, total, stage))
		r.logger().Info("running stage", "job", job.Name(), "stage", stage.Name, "operator", stage.Operator.Name())

		task := models.NewTask(stage.Name, stage.Operator.Name(), i)
		var result *operators.Result
		meas, execErr := prof.measure(func() error {
			res, err := stage.Operator.Execute(ctx, &env)
			result = res
			return err
		})

		if execErr != nil {
			r.recordFailure(ctx, job, task, meas)
			r.send(opts.Progress, stageFailedUpdate(step, total, stage, execErr))
			r.send(opts.Progress, jobFailedUpdate(step, total, job))
			return job, fmt.Errorf("stage %q failed: %w", stage.Name, execErr)
		}

		if result == nil {
			result = &operators.Result{Frame: env.Frame}
		}
		if result.Frame != "" {
			env.Frame = result.Frame
		}

		err := repositories.NewUnitOfWork(r.db, r.reg).Run(ctx, func(u *repositories.UnitOfWork) error {
			return r.recordStage(ctx, u, job, task, meas, result, stage, p.Mode)
		})
		if err != nil {
			r.recordFailure(ctx, job, nil, usage{})
			r.send(opts.Progress, jobFailedUpdate(step, total, job))
			return job, fmt.Errorf("failed to record stage %q: %w", stage.Name, err)
		}

		r.send(opts.Progress, stageDoneUpdate(step, total, stage, result))
	}

	err = repositories.NewUnitOfWork(r.db, r.reg).Run(ctx, func(u *repositories.UnitOfWork) error {
		if err := job.SetState(models.StateCompleted); err != nil {
			return err
		}
		_, err := u.Jobs().Add(ctx, job)
		return err
	})
	if err != nil {
		return job, fmt.Errorf("failed to complete job %q: %w", p.Name, err)
	}

	r.send(opts.Progress, jobDoneUpdate(total, job))
	return job, nil
}

// recordStage persists the completed task, its profile and any declared
// stage output inside the caller's scope.
func (r *Runner) recordStage(ctx context.Context, u *repositories.UnitOfWork, job *models.Job, task *models.Task, meas usage, result *operators.Result, stage Stage, mode models.Mode) error {
	task.SetJobID(job.ID())
	if err := task.SetState(models.StateCompleted); err != nil {
		return err
	}
	if _, err := u.Tasks().Add(ctx, task); err != nil {
		return err
	}

	if _, err := u.Profiles().Add(ctx, buildProfile(task, meas)); err != nil {
		return err
	}

	if stage.Output == nil || result.Frame == "" {
		return nil
	}
	return r.recordOutput(ctx, u, task, result, stage, mode)
}

// recordOutput registers the stage's produced frames as a dataset. A
// multi-frame result (train/test) becomes one dataset holding a frame
// per named output.
func (r *Runner) recordOutput(ctx context.Context, u *repositories.UnitOfWork, task *models.Task, result *operators.Result, stage Stage, mode models.Mode) error {
	spec := stage.Output
	dataStage, err := models.ParseStage(spec.Stage)
	if err != nil {
		return err
	}

	outputs := map[string]string{spec.Name: result.Frame}
	if len(result.Frames) > 0 {
		outputs = make(map[string]string, len(result.Frames))
		for label, frame := range result.Frames {
			outputs[spec.Name+"_"+label] = frame
		}
	}

	ds := models.NewDataset(spec.Name, spec.Description, 0, mode, dataStage)
	ds.SetTaskID(task.ID())

	for name, frame := range outputs {
		stats, err := r.env.Frames.Stats(ctx, frame)
		if err != nil {
			return err
		}
		df := models.NewDataFrame(name, spec.Description, frame, mode, dataStage)
		df.SetTaskID(task.ID())
		df.SetStats(stats.Rows, stats.Cols, stats.Nulls, stats.PctNulls, stats.SizeBytes)
		ds.AddFrame(df)
	}

	_, err = u.Datasets().Add(ctx, ds)
	return err
}

// recordFailure marks the job failed in a fresh scope, so the record
// survives whatever the failing stage rolled back. A non-nil task is
// persisted as failed along with its profile.
func (r *Runner) recordFailure(ctx context.Context, job *models.Job, task *models.Task, meas usage) {
	err := repositories.NewUnitOfWork(r.db, r.reg).Run(ctx, func(u *repositories.UnitOfWork) error {
		if task != nil {
			task.SetJobID(job.ID())
			if err := task.SetState(models.StateFailed); err != nil {
				return err
			}
			if _, err := u.Tasks().Add(ctx, task); err != nil {
				return err
			}
			if _, err := u.Profiles().Add(ctx, buildProfile(task, meas)); err != nil {
				return err
			}
		}
		if err := job.SetState(models.StateFailed); err != nil {
			return err
		}
		_, err := u.Jobs().Add(ctx, job)
		return err
	})
	if err != nil {
		r.logger().Error("failed to record job failure", "job", job.Name(), "error", err)
	}
}

func buildProfile(task *models.Task, meas usage) *models.Profile {
	profile := models.NewProfile(task.Name(), task.ID())
	profile.SetWindow(meas.started, meas.ended)
	profile.SetUsage(meas.cpuPercent, meas.memoryRSS, meas.memoryPct, meas.readBytes, meas.writeBytes)
	return profile
}

// send delivers an update without blocking. Slow consumers miss updates
// rather than stalling the run.
func (r *Runner) send(progress chan<- Update, update Update) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (r *Runner) logger() *log.Logger {
	if r.env.Logger != nil {
		return r.env.Logger
	}
	return log.Default()
}
