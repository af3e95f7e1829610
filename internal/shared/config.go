package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Mode      string          `toml:"mode"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Database  DatabaseConfig  `toml:"database"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Fetch     FetchConfig     `toml:"fetch"`
}

// WorkspaceConfig locates the on-disk working area for pipeline data.
type WorkspaceConfig struct {
	DataDir    string `toml:"data_dir"`
	FramesPath string `toml:"frames_path"`
}

// DatabaseConfig contains catalog database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PipelineConfig contains knobs applied to every pipeline run.
type PipelineConfig struct {
	Seed int64 `toml:"seed"`
}

// FetchConfig contains settings for downloading from datasources.
type FetchConfig struct {
	TimeoutSeconds    int        `toml:"timeout_seconds"`
	RequestsPerSecond float64    `toml:"requests_per_second"`
	Burst             int        `toml:"burst"`
	CurlFile          string     `toml:"curl_file"`
	Auth              AuthConfig `toml:"auth"`
}

// AuthConfig contains client credentials for datasources that gate their
// downloads behind a token endpoint. All fields empty means unauthenticated.
type AuthConfig struct {
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Validate reports settings that cannot back a working catalog.
func (c *Config) Validate() error {
	if c.Mode == "" {
		return fmt.Errorf("%w: mode", ErrMissingConfig)
	}
	switch c.Mode {
	case "dev", "test", "prod":
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.Workspace.DataDir == "" {
		return fmt.Errorf("%w: workspace.data_dir", ErrMissingConfig)
	}
	if c.Workspace.FramesPath == "" {
		return fmt.Errorf("%w: workspace.frames_path", ErrMissingConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", ErrMissingConfig)
	}
	if c.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: fetch.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
