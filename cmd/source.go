package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SourceAdd registers a datasource in the catalog.
func (r *Runner) SourceAdd(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: datasource name", shared.ErrMissingArgument)
	}

	source := models.NewDataSource(
		name,
		cmd.String("publisher"),
		cmd.String("website"),
		cmd.String("url"),
		cmd.String("description"),
	)

	if err := r.scope(ctx, func(u *repositories.UnitOfWork) error {
		_, err := u.Sources().Add(ctx, source)
		return err
	}); err != nil {
		return err
	}

	r.logger.Info("registered datasource", "name", source.Name(), "id", source.ID())
	r.writePlain("✓ Registered datasource %s (#%d)\n", source.Name(), source.ID())
	r.writePlain("URL: %s\n", source.URL())
	return nil
}

// SourceOpen opens a datasource's website in the default browser, falling
// back to the download URL when no website is recorded.
func (r *Runner) SourceOpen(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: datasource name", shared.ErrMissingArgument)
	}

	var source *models.DataSource
	if err := r.scope(ctx, func(u *repositories.UnitOfWork) error {
		var err error
		source, err = u.Sources().GetByName(ctx, name)
		return err
	}); err != nil {
		return err
	}

	target := source.Website()
	if target == "" {
		target = source.URL()
	}
	if target == "" {
		return fmt.Errorf("%w: datasource %s has no website or download URL", shared.ErrInvalidInput, name)
	}

	if err := shared.OpenBrowser(target); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}

	r.writePlain("✓ Opened %s\n", target)
	return nil
}

// SourceList prints every registered datasource.
func (r *Runner) SourceList(ctx context.Context, cmd *cli.Command) error {
	var sources []*models.DataSource
	if err := r.scope(ctx, func(u *repositories.UnitOfWork) error {
		var err error
		sources, err = u.Sources().GetAll(ctx)
		return err
	}); err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(sources))
		for _, s := range sources {
			rows = append(rows, map[string]any{
				"id":        s.ID(),
				"name":      s.Name(),
				"publisher": s.Publisher(),
				"website":   s.Website(),
				"url":       s.URL(),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(sources) == 0 {
		r.writePlain("No datasources registered. Add one with 'rsx source add'.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Datasources (%d)", len(sources)))
	for i, s := range sources {
		r.writePlain("%d. %s", i+1, s.Name())
		if s.Publisher() != "" {
			r.writePlain(" (%s)", s.Publisher())
		}
		r.writePlain("\n   %s\n", s.URL())
	}
	return nil
}
