// Package config loads tempo's settings from config.yaml and TEMPO_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stefanpenner/tempo/pkg/api"
	"github.com/stefanpenner/tempo/pkg/logging"
	"github.com/stefanpenner/tempo/pkg/store"
)

// FileName is the config file inside the config dir.
const FileName = "config.yaml"

// Config holds every setting. Durations accept Go syntax ("30s", "1m").
type Config struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	DataDir        string        `yaml:"data_dir,omitempty" mapstructure:"data_dir"`
	LogLevel       string        `yaml:"log_level" mapstructure:"log_level"`
	HealthInterval time.Duration `yaml:"health_interval" mapstructure:"health_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		BaseURL:        api.DefaultBaseURL,
		LogLevel:       "info",
		HealthInterval: 30 * time.Second,
		RequestTimeout: api.DefaultTimeout,
	}
}

// ResolvedDataDir returns DataDir, falling back to TEMPO_DIR and then the
// OS default.
func (c *Config) ResolvedDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	if dir := os.Getenv("TEMPO_DIR"); dir != "" {
		return dir
	}
	return store.DefaultDataDir()
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is empty")
	}
	if c.HealthInterval < time.Second {
		return fmt.Errorf("health_interval %s is below 1s", c.HealthInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DefaultPath is where tempo looks for its config file.
func DefaultPath() string {
	return filepath.Join(store.DefaultConfigDir(), FileName)
}

// WriteDefault writes a commented starter config to path.
func WriteDefault(path string) error {
	content := `# tempo configuration

# Planning backend
base_url: ` + api.DefaultBaseURL + `

# Local state and logs (defaults to the OS data dir, or $TEMPO_DIR)
# data_dir: ~/.local/share/tempo

# debug, info, warn or error
log_level: info

# How often the board checks /health
health_interval: 30s

# Upper bound for every backend request
request_timeout: 30s
`
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
