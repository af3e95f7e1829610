package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/rsx/internal/formatter"
	"github.com/desertthunder/rsx/internal/frames"
	"github.com/desertthunder/rsx/internal/operators"
	"github.com/desertthunder/rsx/internal/pipeline"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/urfave/cli/v3"
)

// RunPipeline loads a pipeline file, executes every stage and records the
// job in the catalog.
func (r *Runner) RunPipeline(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("pipeline")
	if path == "" {
		return fmt.Errorf("%w: pipeline file", shared.ErrMissingArgument)
	}

	p, err := pipeline.Load(path)
	if err != nil {
		return err
	}

	if r.db == nil {
		return fmt.Errorf("%w: catalog not initialized, run 'rsx setup' first", shared.ErrServiceUnavailable)
	}

	store, err := frames.Open(r.config.Workspace.FramesPath)
	if err != nil {
		return fmt.Errorf("failed to open frame store: %w", err)
	}
	defer store.Close()

	env := operators.Env{
		Frames:  store,
		Fetcher: r.fetcher,
		Logger:  shared.WithLogger(r.logger, "pipeline", p.Name),
		DataDir: r.config.Workspace.DataDir,
		Seed:    r.config.Pipeline.Seed,
	}

	r.logger.Info("starting pipeline", "name", p.Name, "stages", p.Len())
	r.writePlain("Running %s (%d stages)\n\n", p.Name, p.Len())

	// Progress updates land here; the goroutine prints them as stages move.
	progressCh := make(chan pipeline.Update, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case pipeline.StageStart:
				r.writePlain("▸ %s\n", update.Message)
			case pipeline.StageDone, pipeline.StageFailed:
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	runner := pipeline.NewRunner(r.db, r.reg, env)
	job, runErr := runner.Run(ctx, p, pipeline.RunOpts{Progress: progressCh})
	close(progressCh)
	<-done

	if runErr != nil {
		if job != nil {
			r.writePlainln("✗ %s failed: %v", job.Name(), runErr)
		}
		return runErr
	}

	r.writePlain("\n")
	r.writePlainHeader("Run Complete")

	export, err := r.findJob(ctx, fmt.Sprintf("%d", job.ID()))
	if err != nil {
		return err
	}

	out, err := formatter.JobToText(export)
	if err != nil {
		return err
	}
	return r.writePlain("%s", out)
}
