// Package config loads weekplan settings from a YAML file with WEEKPLAN_
// environment overrides on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/persist"
	"github.com/abhisek/weekplan/internal/validation"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Editor     EditorConfig      `yaml:"editor"`
	Persist    persist.Config    `yaml:"persist"`
	Validation validation.Config `yaml:"validation"`
	Store      StoreConfig       `yaml:"store"`
	Server     ServerConfig      `yaml:"server"`
	Log        LogConfig         `yaml:"log"`
}

type EditorConfig struct {
	MaxHistory     int           `yaml:"max_history"`
	CoalesceWindow time.Duration `yaml:"coalesce_window"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	Path   string `yaml:"path"`   // sqlite file; empty resolves the default location
	DSN    string `yaml:"dsn"`    // postgres connection string
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Editor: EditorConfig{
			MaxHistory:     command.DefaultMaxHistory,
			CoalesceWindow: 1500 * time.Millisecond,
		},
		Persist:    persist.DefaultConfig(),
		Validation: validation.DefaultConfig(),
		Store:      StoreConfig{Driver: DriverSQLite},
		Server:     ServerConfig{Host: "127.0.0.1", Port: 8080},
		Log:        LogConfig{Level: "info"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/weekplan/config.yaml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "weekplan", "config.yaml"), nil
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file or an empty path yields
// the defaults. Env vars use the prefix WEEKPLAN_:
//
//	WEEKPLAN_EDITOR_MAX_HISTORY, WEEKPLAN_EDITOR_COALESCE_WINDOW,
//	WEEKPLAN_PERSIST_DEBOUNCE, WEEKPLAN_PERSIST_SAVE_TIMEOUT,
//	WEEKPLAN_PERSIST_MAX_RETRIES,
//	WEEKPLAN_STORE_DRIVER, WEEKPLAN_STORE_PATH, WEEKPLAN_STORE_DSN,
//	WEEKPLAN_SERVER_HOST, WEEKPLAN_SERVER_PORT, WEEKPLAN_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"WEEKPLAN_EDITOR_MAX_HISTORY", &cfg.Editor.MaxHistory},
		{"WEEKPLAN_PERSIST_MAX_RETRIES", &cfg.Persist.Retry.MaxRetries},
		{"WEEKPLAN_SERVER_PORT", &cfg.Server.Port},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"WEEKPLAN_EDITOR_COALESCE_WINDOW", &cfg.Editor.CoalesceWindow},
		{"WEEKPLAN_PERSIST_DEBOUNCE", &cfg.Persist.Debounce},
		{"WEEKPLAN_PERSIST_SAVE_TIMEOUT", &cfg.Persist.SaveTimeout},
	}
	for _, e := range durations {
		if v := os.Getenv(e.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = d
		}
	}

	if v := os.Getenv("WEEKPLAN_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("WEEKPLAN_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("WEEKPLAN_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("WEEKPLAN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WEEKPLAN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate checks ranges and the store selection.
func (c *Config) Validate() error {
	if c.Editor.MaxHistory < 1 {
		return fmt.Errorf("editor.max_history must be at least 1")
	}
	if c.Editor.CoalesceWindow < 0 {
		return fmt.Errorf("editor.coalesce_window must not be negative")
	}
	if c.Persist.Debounce < 0 {
		return fmt.Errorf("persist.debounce must not be negative")
	}
	if c.Persist.SaveTimeout <= 0 {
		return fmt.Errorf("persist.save_timeout must be positive")
	}
	if c.Persist.Retry.MaxRetries < 0 {
		return fmt.Errorf("persist.retry.max_retries must not be negative")
	}
	if c.Validation.MaxSessionsPerWeek < 1 {
		return fmt.Errorf("validation.max_sessions_per_week must be at least 1")
	}
	if c.Validation.MinDailyLoad < 0 {
		return fmt.Errorf("validation.min_daily_load must not be negative")
	}
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}
