// Package config handles reading and writing .qudud/config.yaml and
// applying environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for .qudud/config.yaml.
type Config struct {
	Version int           `yaml:"version"`
	Backend BackendConfig `yaml:"backend"`
	Log     LogConfig     `yaml:"log"`
	UI      UIConfig      `yaml:"ui"`
}

// BackendConfig describes how to reach the conversational service.
type BackendConfig struct {
	APIURL         string `yaml:"api_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LogConfig controls the structured event log.
type LogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"` // "debug" | "info" | "warn" | "error"
}

// UIConfig holds terminal rendering preferences.
type UIConfig struct {
	Markdown bool `yaml:"markdown"` // render bot replies as markdown
}

// Environment variables that override the file.
const (
	EnvAPIURL       = "QUDUD_API_URL"
	EnvLegacyAPIURL = "NEXT_PUBLIC_API_URL"
	EnvTimeout      = "QUDUD_TIMEOUT_SECONDS"
	EnvLogLevel     = "QUDUD_LOG_LEVEL"
)

const (
	configDir  = ".qudud"
	configFile = "config.yaml"
	envFile    = ".env"
)

// Dir returns the .qudud directory for a project root.
func Dir(root string) string {
	return filepath.Join(root, configDir)
}

// Path returns the config file path for a project root.
func Path(root string) string {
	return filepath.Join(root, configDir, configFile)
}

// Timeout returns the per-request deadline for backend calls.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// ReadConfig reads .qudud/config.yaml from the given directory.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Start from defaults so keys missing from older files keep sane values.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to .qudud/config.yaml in the given directory.
// Creates the .qudud/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(Dir(dir), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Backend: BackendConfig{
			APIURL:         "http://localhost:5000",
			TimeoutSeconds: 30,
		},
		Log: LogConfig{
			Enabled: true,
			Level:   "info",
		},
		UI: UIConfig{
			Markdown: true,
		},
	}
}

// Load builds the effective configuration for dir: the config file if one
// exists (defaults otherwise), then dir/.env, then the process environment.
// Variables already set in the environment win over .env entries.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}

	envPath := filepath.Join(dir, envFile)
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envPath, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.Backend.APIURL = v
	} else if v := os.Getenv(EnvLegacyAPIURL); v != "" {
		c.Backend.APIURL = v
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Backend.TimeoutSeconds = n
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}

	return nil
}

// Validate checks that required fields are set and well formed.
func (c *Config) Validate() error {
	if c.Backend.APIURL == "" {
		return fmt.Errorf("backend.api_url cannot be empty")
	}
	u, err := url.Parse(c.Backend.APIURL)
	if err != nil {
		return fmt.Errorf("backend.api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.api_url must be http or https, got %q", c.Backend.APIURL)
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("backend.timeout_seconds must be > 0")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	return nil
}
