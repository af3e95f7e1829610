package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Mode != "dev" {
			t.Errorf("expected mode dev, got %s", config.Mode)
		}

		if config.Database.Path != "./rsx.db" {
			t.Errorf("expected database path ./rsx.db, got %s", config.Database.Path)
		}

		if config.Workspace.DataDir != "./data" {
			t.Errorf("expected data dir ./data, got %s", config.Workspace.DataDir)
		}

		if config.Pipeline.Seed != 55 {
			t.Errorf("expected seed 55, got %d", config.Pipeline.Seed)
		}

		if config.Fetch.RequestsPerSecond != 2.0 {
			t.Errorf("expected 2.0 requests per second, got %v", config.Fetch.RequestsPerSecond)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `mode = "prod"

[workspace]
data_dir = "/var/lib/rsx/data"
frames_path = "/var/lib/rsx/frames.duckdb"

[database]
path = "/var/lib/rsx/catalog.db"
max_open_conns = 20
max_idle_conns = 10

[pipeline]
seed = 7

[fetch]
timeout_seconds = 60
requests_per_second = 0.5
burst = 1

[fetch.auth]
token_url = "https://example.com/oauth/token"
client_id = "rsx"
client_secret = "hunter2"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Mode != "prod" {
			t.Errorf("expected mode prod, got %s", config.Mode)
		}

		if config.Database.Path != "/var/lib/rsx/catalog.db" {
			t.Errorf("expected database path /var/lib/rsx/catalog.db, got %s", config.Database.Path)
		}

		if config.Pipeline.Seed != 7 {
			t.Errorf("expected seed 7, got %d", config.Pipeline.Seed)
		}

		if config.Fetch.Auth.TokenURL != "https://example.com/oauth/token" {
			t.Errorf("expected token url, got %s", config.Fetch.Auth.TokenURL)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("loading a missing config should fail")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		t.Run("accepts the default config", func(t *testing.T) {
			if err := DefaultConfig().Validate(); err != nil {
				t.Errorf("default config should be valid: %v", err)
			}
		})

		t.Run("rejects a missing mode", func(t *testing.T) {
			config := DefaultConfig()
			config.Mode = ""

			if err := config.Validate(); !errors.Is(err, ErrMissingConfig) {
				t.Errorf("expected missing config error, got %v", err)
			}
		})

		t.Run("rejects an unknown mode", func(t *testing.T) {
			config := DefaultConfig()
			config.Mode = "staging"

			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected invalid config error, got %v", err)
			}
		})

		t.Run("rejects a missing database path", func(t *testing.T) {
			config := DefaultConfig()
			config.Database.Path = ""

			if err := config.Validate(); !errors.Is(err, ErrMissingConfig) {
				t.Errorf("expected missing config error, got %v", err)
			}
		})
	})
}
