// Package config provides the settings of a sync run.
//
// Settings start from built-in defaults, may be overridden by a TOML file and finally by
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pfrederiksen/draw-sync/internal/logger"
	"github.com/pfrederiksen/draw-sync/internal/merge"
	"github.com/pfrederiksen/draw-sync/internal/scraper"
	"github.com/pfrederiksen/draw-sync/internal/storage"
)

// DefaultKeyColumn is the header label of the issue column in the local store
const DefaultKeyColumn = "期号"

// Config holds the settings of a sync run
type Config struct {
	StorePath     string `toml:"store_path"`
	SourceURL     string `toml:"source_url"`
	Limit         int    `toml:"limit"`
	KeyColumn     string `toml:"key_column"`
	ExpectedWidth int    `toml:"expected_width"`
	Timeout       string `toml:"timeout"`
	UserAgent     string `toml:"user_agent"`
	LogLevel      string `toml:"log_level"`
}

// NewDefault returns the built-in settings
func NewDefault() *Config {
	return &Config{
		StorePath:     storage.DefaultPath,
		SourceURL:     scraper.HistoryURL,
		Limit:         scraper.DefaultLimit,
		KeyColumn:     DefaultKeyColumn,
		ExpectedWidth: merge.ExpectedWidth,
		Timeout:       scraper.Timeout.String(),
		UserAgent:     scraper.UserAgent,
		LogLevel:      string(logger.LevelInfo),
	}
}

// Load reads a TOML file over the defaults. Keys absent from the file keep their default.
func Load(path string) (*Config, error) {
	cfg := NewDefault()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("parsing config %s at line %d, column %d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the settings and names the first invalid field
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StorePath) == "" {
		return fmt.Errorf("store_path must not be empty")
	}
	if strings.TrimSpace(c.SourceURL) == "" {
		return fmt.Errorf("source_url must not be empty")
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if strings.TrimSpace(c.KeyColumn) == "" {
		return fmt.Errorf("key_column must not be empty")
	}
	if c.ExpectedWidth < 1 {
		return fmt.Errorf("expected_width must be positive, got %d", c.ExpectedWidth)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// TimeoutDuration parses the HTTP timeout
func (c *Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return d, nil
}

// URL returns the source URL with the limit applied
func (c *Config) URL() (string, error) {
	return scraper.BuildURL(c.SourceURL, c.Limit)
}
