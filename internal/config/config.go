// Package config loads application configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSourceURL is the timetable page scraped when no other source is
// configured.
const DefaultSourceURL = "https://ianua.unige.it/didattica/orario-delle-lezioni"

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the feed server.
	Listen string `yaml:"listen"`

	// SourceURL is the timetable page to scrape.
	SourceURL string `yaml:"source_url"`

	// Timezone is the IANA zone the source page's dates and times are
	// expressed in.
	Timezone string `yaml:"timezone"`

	// RefreshCron is a robfig/cron schedule for periodic refresh, e.g.
	// "@every 1h" or "0 * * * *".
	RefreshCron string `yaml:"refresh"`

	// FetchTimeout bounds a single fetch attempt.
	FetchTimeout Duration `yaml:"fetch_timeout"`

	// MaxFetchAttempts bounds transient-failure retries per refresh cycle.
	MaxFetchAttempts uint `yaml:"max_fetch_attempts"`

	// SkipLocandine disables downloading the flyer PDFs linked from the
	// timetable. Flyers are the only source of venue and speaker details,
	// but fetching them costs one request per event.
	SkipLocandine bool `yaml:"skip_locandine"`

	// DataDir is where snapshots are persisted for warm starts. Empty
	// disables persistence.
	DataDir string `yaml:"data_dir"`

	// CalendarName is the X-WR-CALNAME of the combined feed.
	CalendarName string `yaml:"calendar_name"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the in-memory default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing or zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.SourceURL == "" {
		c.SourceURL = DefaultSourceURL
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Rome"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "@every 1h"
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = Duration(30 * time.Second)
	}
	if c.MaxFetchAttempts == 0 {
		c.MaxFetchAttempts = 3
	}
	if c.CalendarName == "" {
		c.CalendarName = "IANUA Lezioni"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from the given YAML path and applies environment
// overrides. A missing file is not an error: defaults are used. An empty
// path skips the file entirely.
func Load(path string) (*Config, error) {
	// .env is optional; absence is the normal case.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// Fall through to defaults.
		default:
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

// applyEnv overrides file values from IANUA_* environment variables.
func (c *Config) applyEnv() {
	c.Listen = getEnv("IANUA_LISTEN", c.Listen)
	c.SourceURL = getEnv("IANUA_SOURCE_URL", c.SourceURL)
	c.Timezone = getEnv("IANUA_TIMEZONE", c.Timezone)
	c.RefreshCron = getEnv("IANUA_REFRESH", c.RefreshCron)
	c.DataDir = getEnv("IANUA_DATA_DIR", c.DataDir)
	c.CalendarName = getEnv("IANUA_CALENDAR_NAME", c.CalendarName)
	c.LogLevel = getEnv("IANUA_LOG_LEVEL", c.LogLevel)
	if val := os.Getenv("IANUA_FETCH_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.FetchTimeout = Duration(d)
		}
	}
	if val := os.Getenv("IANUA_SKIP_LOCANDINE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.SkipLocandine = b
		}
	}
	if val := os.Getenv("IANUA_MAX_FETCH_ATTEMPTS"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			c.MaxFetchAttempts = uint(n)
		}
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
