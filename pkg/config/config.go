package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Naming schemes for downloaded files.
const (
	NamingOriginal = "original"
	NamingNumbered = "numbered"
	NamingCaption  = "caption"
)

// Config holds all configuration options for the downloader engine.
//
// A Config value is copied into every scrape and every job at enqueue time,
// so later edits never race with work already in flight.
type Config struct {
	// Per-kind selection settings
	Video KindConfig `yaml:"video" json:"video"`
	Photo KindConfig `yaml:"photo" json:"photo"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Scrape settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// System settings
	System SystemConfig `yaml:"system" json:"system"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// KindConfig selects and limits one media kind (video or photo).
type KindConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Top limits collection to Count items of this kind.
	Top   bool `yaml:"top" json:"top"`
	Count int  `yaml:"count" json:"count"`
	// All collects every discovered item of this kind, bounded only by the
	// overall entry cap.
	All bool `yaml:"all" json:"all"`
	// Resolution is the target ceiling for videos ("Best Available", "1080p",
	// "720p", ...). Ignored for photos.
	Resolution string `yaml:"resolution" json:"resolution"`
}

// Limit returns the per-kind item cap. Zero means no per-kind cap.
func (k KindConfig) Limit() int {
	if !k.Enabled {
		return 0
	}
	if k.All {
		return 0
	}
	if k.Top && k.Count > 0 {
		return k.Count
	}
	return 0
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	// Extension is the requested output container ("best", "mp4", "mkv", ...)
	Extension string `yaml:"extension" json:"extension"`
	// Naming is one of original, numbered, caption.
	Naming    string `yaml:"naming" json:"naming"`
	Subtitles bool   `yaml:"subtitles" json:"subtitles"`
	VideoPath string `yaml:"video_path" json:"video_path"`
	PhotoPath string `yaml:"photo_path" json:"photo_path"`

	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts" json:"retry_attempts"`
}

// ScrapeConfig tunes the browser-driven extraction loop. The thresholds were
// tuned empirically against specific sites; treat them as knobs, not
// invariants.
type ScrapeConfig struct {
	MaxEntries        int           `yaml:"max_entries" json:"max_entries"`
	MaxIterations     int           `yaml:"max_iterations" json:"max_iterations"`
	StagnationFar     int           `yaml:"stagnation_far" json:"stagnation_far"`
	StagnationNear    int           `yaml:"stagnation_near" json:"stagnation_near"`
	NudgeAfter        int           `yaml:"nudge_after" json:"nudge_after"`
	ScrollSettle      time.Duration `yaml:"scroll_settle" json:"scroll_settle"`
	NavigateTimeout   time.Duration `yaml:"navigate_timeout" json:"navigate_timeout"`
	ResolveTimeout    time.Duration `yaml:"resolve_timeout" json:"resolve_timeout"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
}

// SystemConfig holds worker pool and shutdown configuration
type SystemConfig struct {
	// Threads is the download worker pool size.
	Threads int `yaml:"threads" json:"threads"`
	// Shutdown requests an OS shutdown once the queue drains.
	Shutdown bool `yaml:"shutdown" json:"shutdown"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Video: KindConfig{
			Enabled:    true,
			Top:        false,
			Count:      5,
			All:        false,
			Resolution: "Best Available",
		},
		Photo: KindConfig{
			Enabled: true,
			Top:     false,
			Count:   5,
			All:     false,
		},
		Download: DownloadConfig{
			Extension:     "best",
			Naming:        NamingOriginal,
			Subtitles:     false,
			VideoPath:     "./downloads/videos",
			PhotoPath:     "./downloads/photos",
			Timeout:       10 * time.Minute,
			RetryAttempts: 3,
		},
		Scrape: ScrapeConfig{
			MaxEntries:      100,
			MaxIterations:   200,
			StagnationFar:   10,
			StagnationNear:  6,
			NudgeAfter:      3,
			ScrollSettle:    time.Second,
			NavigateTimeout: 60 * time.Second,
			ResolveTimeout:  15 * time.Second,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		System: SystemConfig{
			Threads:  4,
			Shutdown: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load reads configuration from a YAML file with environment overrides.
// Missing file is not an error; defaults apply. Keys absent from the file
// keep their default values.
func Load(path string) (*Config, error) {
	// A .env file is optional.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("MEDIAGRAB_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.System.Threads = n
		}
	}
	if v := os.Getenv("MEDIAGRAB_VIDEO_PATH"); v != "" {
		c.Download.VideoPath = v
	}
	if v := os.Getenv("MEDIAGRAB_PHOTO_PATH"); v != "" {
		c.Download.PhotoPath = v
	}
	if v := os.Getenv("MEDIAGRAB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MEDIAGRAB_USER_AGENT"); v != "" {
		c.Scrape.UserAgent = v
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.System.Threads < 1 {
		return errors.New("system.threads must be at least 1")
	}
	if c.Video.Count < 0 || c.Photo.Count < 0 {
		return errors.New("per-kind count must not be negative")
	}
	switch c.Download.Naming {
	case NamingOriginal, NamingNumbered, NamingCaption:
	default:
		return fmt.Errorf("unknown naming scheme: %q", c.Download.Naming)
	}
	if c.Scrape.MaxIterations < 1 {
		return errors.New("scrape.max_iterations must be at least 1")
	}
	if c.Scrape.MaxEntries < 1 {
		return errors.New("scrape.max_entries must be at least 1")
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return errors.New("rate_limit.requests_per_minute must not be negative")
	}
	return nil
}

// Snapshot returns a value copy of the config, taken per scrape or per
// enqueue so UI-driven edits never mutate work in flight.
func (c *Config) Snapshot() Config {
	return *c
}
