package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/rsx/internal/formatter"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/urfave/cli/v3"
)

// JobList prints every recorded pipeline run.
func (r *Runner) JobList(ctx context.Context, cmd *cli.Command) error {
	var jobs []*models.Job
	if err := r.scope(ctx, func(u *repositories.UnitOfWork) error {
		var err error
		jobs, err = u.Jobs().GetAll(ctx)
		return err
	}); err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(jobs))
		for _, job := range jobs {
			rows = append(rows, map[string]any{
				"id":         job.ID(),
				"name":       job.Name(),
				"state":      job.State().String(),
				"created_at": job.CreatedAt(),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(jobs) == 0 {
		r.writePlain("No jobs recorded. Run a pipeline with 'rsx run' to record one.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Jobs (%d)", len(jobs)))
	for i, job := range jobs {
		r.writePlain("%d. %s (#%d) %s\n", i+1, job.Name(), job.ID(), job.State())
		if job.Description() != "" {
			r.writePlain("   %s\n", job.Description())
		}
	}
	return nil
}

// JobShow prints one job with its tasks and their resource profiles.
func (r *Runner) JobShow(ctx context.Context, cmd *cli.Command) error {
	ident := cmd.StringArg("job")
	if ident == "" {
		return fmt.Errorf("%w: job name or id", shared.ErrMissingArgument)
	}

	export, err := r.findJob(ctx, ident)
	if err != nil {
		return err
	}

	var out []byte
	switch {
	case cmd.Bool("json"):
		out, err = formatter.JobToJSON(export)
	case cmd.Bool("md"):
		out, err = formatter.JobToMarkdown(export)
	case cmd.Bool("csv"):
		out, err = formatter.JobToCSV(export)
	default:
		out, err = formatter.JobToText(export)
	}
	if err != nil {
		return err
	}

	if err := r.writePlain("%s\n", out); err != nil {
		return err
	}

	if path := cmd.String("log"); path != "" {
		written, err := formatter.WriteJobLog(export, path)
		if err != nil {
			return err
		}
		r.writePlain("✓ Task log written to %s\n", written)
	}
	return nil
}

// findJob resolves a numeric id or job name to the job with its tasks in
// run order, plus the profile recorded for each task.
func (r *Runner) findJob(ctx context.Context, ident string) (*formatter.JobExport, error) {
	export := &formatter.JobExport{Profiles: map[int64]*models.Profile{}}

	if err := r.scope(ctx, func(u *repositories.UnitOfWork) error {
		var err error
		if id, perr := strconv.ParseInt(ident, 10, 64); perr == nil {
			export.Job, err = u.Jobs().Get(ctx, id)
		} else {
			export.Job, err = u.Jobs().GetByName(ctx, ident)
		}
		if err != nil {
			return err
		}

		for _, task := range export.Job.Tasks() {
			profiles, err := u.Profiles().GetByTask(ctx, task.ID())
			if err != nil {
				return err
			}
			if len(profiles) > 0 {
				export.Profiles[task.ID()] = profiles[0]
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return export, nil
}
