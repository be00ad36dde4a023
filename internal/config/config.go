package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
)

// SourceConfig describes where run records come from.
type SourceConfig struct {
	Kind         string `yaml:"kind" json:"kind"`
	Endpoint     string `yaml:"endpoint" json:"endpoint,omitempty"`
	Method       string `yaml:"method" json:"method,omitempty"`
	Timeout      string `yaml:"timeout" json:"timeout,omitempty"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" json:"max_body_bytes,omitempty"`
	DBPath       string `yaml:"db_path" json:"db_path,omitempty"`
}

// ParseTimeout parses Timeout. Returns 0 when empty.
func (s SourceConfig) ParseTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Timeout)
}

// Describe returns the endpoint shown to users for this source.
func (s SourceConfig) Describe() string {
	if s.Kind == SourceSQLite {
		return s.DBPath
	}
	return s.Endpoint
}

// DisplayConfig controls how runs are rendered.
type DisplayConfig struct {
	Layout       string `yaml:"layout" json:"layout"`
	ShowActivity bool   `yaml:"show_activity" json:"show_activity"`
	ActivityDays int    `yaml:"activity_days" json:"activity_days"`
	MaxLines     int    `yaml:"max_lines" json:"max_lines"`
	MaxChars     int    `yaml:"max_chars" json:"max_chars"`
}

// RefreshConfig controls automatic refreshes. An empty Schedule disables them.
type RefreshConfig struct {
	Schedule string `yaml:"schedule" json:"schedule,omitempty"`
}

// Config is the top-level configuration parsed from runboard.yaml.
type Config struct {
	Listen   string        `yaml:"listen" json:"listen"`
	LogLevel string        `yaml:"log_level" json:"log_level"`
	Source   SourceConfig  `yaml:"source" json:"source"`
	Display  DisplayConfig `yaml:"display" json:"display"`
	Refresh  RefreshConfig `yaml:"refresh" json:"refresh"`
}

func applyDefaults(c *Config) {
	if c.Listen == "" {
		c.Listen = ":8445"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceHTTP
	}
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Endpoint == "" {
		c.Source.Endpoint = "http://localhost:8444/stats"
	}
	if c.Source.Method == "" {
		c.Source.Method = "GET"
	}
	c.Source.Method = strings.ToUpper(strings.TrimSpace(c.Source.Method))
	if c.Source.Timeout == "" {
		c.Source.Timeout = "10s"
	}
	if c.Source.MaxBodyBytes <= 0 {
		c.Source.MaxBodyBytes = 32 * 1024 * 1024 // 32MB
	}
	if c.Source.DBPath == "" {
		c.Source.DBPath = "runs.db"
	}
	c.Source.DBPath = expandPath(c.Source.DBPath)
	if c.Display.Layout == "" {
		c.Display.Layout = "table"
	}
	if c.Display.ActivityDays <= 0 {
		c.Display.ActivityDays = 14
	}
	if c.Display.MaxLines <= 0 {
		c.Display.MaxLines = 80
	}
	if c.Display.MaxChars <= 0 {
		c.Display.MaxChars = 8000
	}
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceHTTP:
		if c.Source.Method != "GET" && c.Source.Method != "POST" {
			return fmt.Errorf("source.method must be GET or POST, got %q", c.Source.Method)
		}
	case SourceSQLite:
	default:
		return fmt.Errorf("unknown source.kind %q (want http or sqlite)", c.Source.Kind)
	}
	if _, err := c.Source.ParseTimeout(); err != nil {
		return fmt.Errorf("invalid source.timeout: %w", err)
	}
	return nil
}

func expandPath(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return value
	}

	v = os.ExpandEnv(v)

	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return v
	}

	if v == "~" {
		return home
	}
	if strings.HasPrefix(v, "~/") {
		return filepath.Join(home, v[2:])
	}
	if strings.HasPrefix(v, "~\\") {
		return filepath.Join(home, v[2:])
	}
	return v
}

// envOverrides maps environment variables onto config fields.
var envOverrides = map[string]func(c *Config, v string) error{
	"RUNBOARD_LISTEN":           func(c *Config, v string) error { c.Listen = v; return nil },
	"RUNBOARD_LOG_LEVEL":        func(c *Config, v string) error { c.LogLevel = v; return nil },
	"RUNBOARD_SOURCE_KIND":      func(c *Config, v string) error { c.Source.Kind = v; return nil },
	"RUNBOARD_ENDPOINT":         func(c *Config, v string) error { c.Source.Endpoint = v; return nil },
	"RUNBOARD_METHOD":           func(c *Config, v string) error { c.Source.Method = v; return nil },
	"RUNBOARD_DB_PATH":          func(c *Config, v string) error { c.Source.DBPath = v; return nil },
	"RUNBOARD_LAYOUT":           func(c *Config, v string) error { c.Display.Layout = v; return nil },
	"RUNBOARD_REFRESH_SCHEDULE": func(c *Config, v string) error { c.Refresh.Schedule = v; return nil },
	"RUNBOARD_SHOW_ACTIVITY": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Display.ShowActivity = b
		return nil
	},
}

func applyEnv(c *Config) error {
	for name, set := range envOverrides {
		v, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := set(c, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// LoadConfig reads a YAML configuration file from path, applies .env and
// RUNBOARD_* environment overrides and fills defaults for unset fields.
// A missing file is not an error; defaults and environment still apply.
func LoadConfig(path string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
