// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles first-run initialization of the workspace.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize the catalog, frame store and workspace directories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Drop and recreate the catalog tables",
			},
		},
		Action: r.Setup,
	}
}

// datasetCommand handles catalog dataset operations
func datasetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dataset",
		Aliases: []string{"ds"},
		Usage:   "Inspect and export cataloged datasets",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List datasets in the catalog",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.DatasetList,
			},
			{
				Name:  "show",
				Usage: "Show a dataset and its frames",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Catalog mode the dataset was registered under",
						Value: "dev",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output metadata JSON",
					},
					&cli.BoolFlag{
						Name:  "md",
						Usage: "Render as Markdown",
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Render the frame summary as CSV",
					},
				},
				Action: r.DatasetShow,
			},
			{
				Name:  "export",
				Usage: "Export a dataset's frames to CSV with metadata",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Catalog mode the dataset was registered under",
						Value: "dev",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (defaults to the dataset name)",
					},
				},
				Action: r.DatasetExport,
			},
			{
				Name:  "rm",
				Usage: "Remove a dataset from the catalog",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Catalog mode the dataset was registered under",
						Value: "dev",
					},
					&cli.BoolFlag{
						Name:  "drop-frames",
						Usage: "Also drop the dataset's tables from the frame store",
					},
				},
				Action: r.DatasetRemove,
			},
		},
	}
}

// sourceCommand handles datasource registration
func sourceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "source",
		Aliases: []string{"src"},
		Usage:   "Manage datasources",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Register a datasource",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Archive URL the datasource publishes",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "publisher",
						Usage: "Organization publishing the data",
					},
					&cli.StringFlag{
						Name:  "website",
						Usage: "Project website",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Datasource description",
					},
				},
				Action: r.SourceAdd,
			},
			{
				Name:  "list",
				Usage: "List registered datasources",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SourceList,
			},
			{
				Name:  "open",
				Usage: "Open a datasource's website in the browser",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Action: r.SourceOpen,
			},
		},
	}
}

// jobCommand inspects recorded pipeline runs
func jobCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "job",
		Usage: "Inspect recorded pipeline runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List jobs in the catalog",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.JobList,
			},
			{
				Name:  "show",
				Usage: "Show a job with its tasks and resource profiles",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "job",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "md",
						Usage: "Render as Markdown",
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Render the task summary as CSV",
					},
					&cli.StringFlag{
						Name:  "log",
						Usage: "Also write a task log to this path",
					},
				},
				Action: r.JobShow,
			},
		},
	}
}

// runCommand executes a pipeline file against the catalog.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run a pipeline file and record the job",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "pipeline",
			},
		},
		Action: r.RunPipeline,
	}
}

// tuiCommand returns the top-level TUI command for interactive catalog browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive catalog browser",
		Action:  r.TUI,
	}
}
