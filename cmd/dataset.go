package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/rsx/internal/formatter"
	"github.com/desertthunder/rsx/internal/frames"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/urfave/cli/v3"
)

// DatasetList prints every dataset in the catalog.
func (r *Runner) DatasetList(ctx context.Context, cmd *cli.Command) error {
	var datasets []*models.Dataset
	if err := r.scope(ctx, func(u *repositories.UnitOfWork) error {
		var err error
		datasets, err = u.Datasets().GetAll(ctx)
		return err
	}); err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, 0, len(datasets))
		for _, ds := range datasets {
			rows = append(rows, datasetRow(ds))
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(datasets) == 0 {
		r.writePlain("No datasets in the catalog. Run a pipeline with 'rsx run' to register one.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Datasets (%d)", len(datasets)))
	for i, ds := range datasets {
		r.writePlain("%d. %s [%s/%s] v%d\n", i+1, ds.Name(), ds.Mode(), ds.Stage(), ds.Version())
		if ds.Description() != "" {
			r.writePlain("   %s\n", ds.Description())
		}
	}
	return nil
}

// DatasetShow prints one dataset with its frames.
func (r *Runner) DatasetShow(ctx context.Context, cmd *cli.Command) error {
	ds, err := r.findDataset(ctx, cmd)
	if err != nil {
		return err
	}

	var out []byte
	switch {
	case cmd.Bool("json"):
		out, err = formatter.ToMetadataJSON(ds)
	case cmd.Bool("md"):
		out, err = formatter.DatasetToMarkdown(ds)
	case cmd.Bool("csv"):
		out, err = formatter.DatasetToCSV(ds)
	default:
		out, err = formatter.DatasetToText(ds)
	}
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", out)
}

// DatasetExport writes a dataset's frames to CSV files alongside metadata
// and a README.
func (r *Runner) DatasetExport(ctx context.Context, cmd *cli.Command) error {
	ds, err := r.findDataset(ctx, cmd)
	if err != nil {
		return err
	}

	store, err := frames.Open(r.config.Workspace.FramesPath)
	if err != nil {
		return fmt.Errorf("failed to open frame store: %w", err)
	}
	defer store.Close()

	r.logger.Info("exporting dataset", "name", ds.Name(), "frames", len(ds.Frames()))

	result, err := formatter.WriteDatasetExport(ctx, store, ds, cmd.String("output"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %s to %s\n", ds.Name(), result.Directory)
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	r.writePlain("  %s\n", result.MetadataFile)
	return nil
}

// DatasetRemove deletes a dataset and its frame records from the catalog.
// With --drop-frames the backing tables are dropped from the frame store
// after the catalog delete commits.
func (r *Runner) DatasetRemove(ctx context.Context, cmd *cli.Command) error {
	ds, err := r.findDataset(ctx, cmd)
	if err != nil {
		return err
	}

	if err := r.scope(ctx, func(u *repositories.UnitOfWork) error {
		return u.Datasets().Remove(ctx, ds.ID())
	}); err != nil {
		return err
	}

	r.writePlain("✓ Removed dataset %s [%s]\n", ds.Name(), ds.Mode())

	if !cmd.Bool("drop-frames") {
		return nil
	}

	store, err := frames.Open(r.config.Workspace.FramesPath)
	if err != nil {
		return fmt.Errorf("failed to open frame store: %w", err)
	}
	defer store.Close()

	for _, f := range ds.Frames() {
		if err := store.DropFrame(ctx, f.Table()); err != nil {
			r.logger.Warn("failed to drop frame", "table", f.Table(), "error", err)
			continue
		}
		r.writePlain("  dropped frame %s\n", f.Table())
	}
	return nil
}

// findDataset resolves the name argument and --mode flag to a cataloged
// dataset with its frames loaded.
func (r *Runner) findDataset(ctx context.Context, cmd *cli.Command) (*models.Dataset, error) {
	name := cmd.StringArg("name")
	if name == "" {
		return nil, fmt.Errorf("%w: dataset name", shared.ErrMissingArgument)
	}

	mode, err := models.ParseMode(cmd.String("mode"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	var ds *models.Dataset
	if err := r.scope(ctx, func(u *repositories.UnitOfWork) error {
		var err error
		ds, err = u.Datasets().GetByNameMode(ctx, name, mode)
		return err
	}); err != nil {
		return nil, err
	}
	return ds, nil
}

// datasetRow flattens a dataset for JSON list output.
func datasetRow(ds *models.Dataset) map[string]any {
	return map[string]any{
		"id":          ds.ID(),
		"name":        ds.Name(),
		"description": ds.Description(),
		"mode":        ds.Mode().String(),
		"stage":       ds.Stage().String(),
		"version":     ds.Version(),
		"created_at":  ds.CreatedAt(),
	}
}
