package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/rsx/internal/frames"
	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup initializes the workspace: the config file, the catalog schema, the
// frame store and the data directory. With --reset the catalog tables are
// dropped and recreated; the frame store is left untouched.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	reset := cmd.Bool("reset")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	if err := os.MkdirAll(config.Workspace.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	r.logger.Info("initializing catalog", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	db.Configure(config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	schema := repositories.NewSchema(db)
	if reset {
		r.logger.Warn("resetting catalog tables")
		if err := schema.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset catalog: %w", err)
		}
	} else if err := schema.Create(ctx); err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}

	store, err := frames.Open(config.Workspace.FramesPath)
	if err != nil {
		return fmt.Errorf("failed to open frame store: %w", err)
	}
	store.Close()

	r.logger.Infof("setup complete for catalog: %v", config.Database.Path)

	r.writePlain("✓ Workspace ready\n")
	r.writePlain("Config:  %s\n", configPath)
	r.writePlain("Catalog: %s\n", config.Database.Path)
	r.writePlain("Frames:  %s\n", config.Workspace.FramesPath)
	r.writePlain("Data:    %s\n", config.Workspace.DataDir)
	return nil
}
