// Package config loads scope's settings from an optional config file and
// SCOPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultServerURL       = "http://localhost:8080/api/v1"
	DefaultPollInterval    = 3 * time.Second
	DefaultMaxArchiveBytes = 100 << 20
)

type Config struct {
	ServerURL       string        // SCOPE_SERVER_URL (default DefaultServerURL)
	Token           string        // SCOPE_TOKEN (optional, sent as a bearer token)
	PollInterval    time.Duration // SCOPE_POLL_INTERVAL (default 3s)
	NATSURL         string        // SCOPE_NATS_URL (optional, empty = no events)
	MaxArchiveBytes int64         // SCOPE_MAX_ARCHIVE_BYTES (default 100 MiB)
	MaxResults      int           // SCOPE_MAX_RESULTS (default 0 = service default)

	// Logging
	LogLevel  string // SCOPE_LOG_LEVEL (default "info")
	LogFormat string // SCOPE_LOG_FORMAT (default "text")
	LogOutput string // SCOPE_LOG_OUTPUT (default "stderr")

	// File is the config file that was read, empty if none was found.
	File string
}

// Load reads configuration. When path is empty, scope.yaml (or .toml, .json)
// is looked up in $XDG_CONFIG_HOME/codescope and the working directory, and
// a missing file is not an error. Environment variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server_url", DefaultServerURL)
	v.SetDefault("poll_interval", DefaultPollInterval.String())
	v.SetDefault("max_archive_bytes", DefaultMaxArchiveBytes)
	v.SetDefault("max_results", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")

	// Enable environment variable overrides
	v.SetEnvPrefix("SCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("scope")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "codescope"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	c := &Config{
		ServerURL:       strings.TrimRight(v.GetString("server_url"), "/"),
		Token:           v.GetString("token"),
		NATSURL:         v.GetString("nats_url"),
		MaxArchiveBytes: v.GetInt64("max_archive_bytes"),
		MaxResults:      v.GetInt("max_results"),
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		LogOutput:       v.GetString("log.output"),
		File:            v.ConfigFileUsed(),
	}
	if c.ServerURL == "" {
		return nil, fmt.Errorf("server_url must not be empty")
	}

	d, err := time.ParseDuration(v.GetString("poll_interval"))
	if err != nil {
		return nil, fmt.Errorf("poll_interval: %w", err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("poll_interval must be positive, got %s", d)
	}
	c.PollInterval = d

	if c.MaxArchiveBytes <= 0 {
		return nil, fmt.Errorf("max_archive_bytes must be positive, got %d", c.MaxArchiveBytes)
	}
	if c.MaxResults < 0 {
		return nil, fmt.Errorf("max_results must not be negative, got %d", c.MaxResults)
	}

	return c, nil
}
