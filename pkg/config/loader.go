package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TEMPO_BASE_URL.
const EnvPrefix = "TEMPO"

// Load reads defaults, then the file at path (a missing file is fine), then
// TEMPO_* environment variables. An empty path means DefaultPath().
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	def := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("health_interval", def.HealthInterval)
	v.SetDefault("request_timeout", def.RequestTimeout)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
