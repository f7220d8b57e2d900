// Package config loads tasador settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/model"
)

// Environment variables that override file values.
const (
	EnvConfig   = "TASADOR_CONFIG"
	EnvAPIURL   = "TASADOR_API_URL"
	EnvTimeout  = "TASADOR_TIMEOUT"
	EnvLogLevel = "TASADOR_LOG_LEVEL"
)

// DefaultBaseURL mirrors the client default.
const DefaultBaseURL = api.DefaultBaseURL

// Config is the full set of settings.
type Config struct {
	API          APIConfig               `yaml:"api"`
	Preview      PreviewConfig           `yaml:"preview"`
	Report       ReportConfig            `yaml:"report"`
	Log          LogConfig               `yaml:"log"`
	Keywords     []model.KeywordGroup    `yaml:"keywords,omitempty"`
	Placeholders []model.PlaceholderRule `yaml:"placeholders,omitempty"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL       string   `yaml:"base_url"`
	Timeout       Duration `yaml:"timeout"`
	JobTimeout    Duration `yaml:"job_timeout"`
	RatePerSecond float64  `yaml:"rate_per_second"`
	Burst         int      `yaml:"burst"`
}

// PreviewConfig configures dataset previews.
type PreviewConfig struct {
	CachePages int `yaml:"cache_pages"`
}

// ReportConfig picks the report theme. TemplatesDir, when set, holds
// report.txt.tpl or report.html.tpl files that replace the built-in ones.
type ReportConfig struct {
	Theme        string `yaml:"theme"`
	Variant      string `yaml:"variant"`
	TemplatesDir string `yaml:"templates_dir,omitempty"`
}

// LogConfig configures the logger. An empty File logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Duration reads Go duration strings ("30s") or plain seconds from YAML.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// ParseDuration accepts "1m30s" style durations and bare seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if seconds, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:       DefaultBaseURL,
			Timeout:       Duration{30 * time.Second},
			JobTimeout:    Duration{api.DefaultJobTimeout},
			RatePerSecond: 10,
			Burst:         5,
		},
		Preview: PreviewConfig{CachePages: 32},
		Report:  ReportConfig{Theme: "tasador", Variant: "light"},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides. An
// empty path falls back to $TASADOR_CONFIG; with neither set only defaults
// and environment apply.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		if value, ok := lookup(EnvConfig); ok {
			path = strings.TrimSpace(value)
		}
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if value, ok := lookup(EnvAPIURL); ok && strings.TrimSpace(value) != "" {
		c.API.BaseURL = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvTimeout); ok && strings.TrimSpace(value) != "" {
		d, err := ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		c.API.Timeout = Duration{d}
	}
	if value, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Log.Level = strings.TrimSpace(value)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout.Duration <= 0 {
		return errors.New("config: api.timeout must be positive")
	}
	if c.API.JobTimeout.Duration <= 0 {
		return errors.New("config: api.job_timeout must be positive")
	}
	if c.API.RatePerSecond < 0 {
		return errors.New("config: api.rate_per_second must not be negative")
	}
	if c.API.RatePerSecond > 0 && c.API.Burst < 1 {
		return errors.New("config: api.burst must be at least 1 when rate limiting")
	}
	if c.Preview.CachePages < 1 {
		return errors.New("config: preview.cache_pages must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}
	for i, group := range c.Keywords {
		if strings.TrimSpace(group.Name) == "" || len(group.Keywords) == 0 {
			return fmt.Errorf("config: keywords[%d] needs a name and at least one keyword", i)
		}
		if group.Kind == model.FieldKindEnumerated && len(group.Options) == 0 {
			return fmt.Errorf("config: keywords[%d] (%s) is enumerated but has no options", i, group.Name)
		}
	}
	return nil
}
