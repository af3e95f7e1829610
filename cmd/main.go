package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/services"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	switch config.Mode {
	case "dev":
		shared.SetLogLevel(logger, log.DebugLevel)
	case "prod":
		shared.SetLogLevel(logger, log.WarnLevel)
	}

	var db *shared.Database
	var reg *repositories.Registry
	if opened, err := shared.NewDatabase(config.Database.Path); err == nil {
		db = opened
		db.Configure(config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		reg = repositories.DefaultRegistry(db)
		defer db.Close()
	} else {
		logger.Warn("failed to open catalog", "path", config.Database.Path, "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		DB:         db,
		Registry:   reg,
		Fetcher:    services.NewFetcher(fetcherConfig(config, logger)),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "rsx",
		Usage:    "Build, profile and catalog movie ratings datasets",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// fetcherConfig translates the fetch section of the config into fetcher
// settings. Client credentials are attached only when a token endpoint is
// configured; captured browser headers only when a curl file is.
func fetcherConfig(config *shared.Config, logger *log.Logger) services.FetcherConfig {
	cfg := services.FetcherConfig{
		Timeout:           time.Duration(config.Fetch.TimeoutSeconds) * time.Second,
		RequestsPerSecond: config.Fetch.RequestsPerSecond,
		Burst:             config.Fetch.Burst,
	}
	if config.Fetch.Auth.TokenURL != "" {
		cfg.Auth = &services.AuthConfig{
			TokenURL:     config.Fetch.Auth.TokenURL,
			ClientID:     config.Fetch.Auth.ClientID,
			ClientSecret: config.Fetch.Auth.ClientSecret,
		}
	}
	if config.Fetch.CurlFile != "" {
		headers, err := shared.ParseCurlFile(config.Fetch.CurlFile)
		if err != nil {
			logger.Warn("failed to parse curl file", "path", config.Fetch.CurlFile, "error", err)
		} else {
			cfg.Headers = headers
		}
	}
	return cfg
}
