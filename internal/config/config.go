// Package config loads and validates runtime configuration. Values resolve
// in the usual precedence order: explicit flags, environment variables with
// the PDFHOUND_ prefix, a config file, then defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdfhound/pdfhound/internal/detector"
)

// Config is the full runtime configuration of a crawl.
type Config struct {
	// Seed is the start URL. A bare hostname is promoted to https.
	Seed string `mapstructure:"seed"`
	// OutputDir receives downloaded PDFs.
	OutputDir string `mapstructure:"output_dir"`
	// MaxDepth bounds the breadth-first crawl; zero or negative is unbounded.
	MaxDepth int `mapstructure:"max_depth"`
	// UserAgent identifies the crawler to servers and robots.txt.
	UserAgent string `mapstructure:"user_agent"`
	// Timeout bounds each page fetch.
	Timeout time.Duration `mapstructure:"timeout"`
	// DownloadTimeout bounds each PDF download.
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	// MaxFileBytes caps a single download; zero means unlimited.
	MaxFileBytes int64 `mapstructure:"max_file_bytes"`
	// CrawlDelay is the minimum spacing between requests to one host.
	CrawlDelay time.Duration `mapstructure:"crawl_delay"`
	// MaxRedirects bounds redirect chains per request.
	MaxRedirects int `mapstructure:"max_redirects"`
	// RespectRobots toggles robots.txt enforcement.
	RespectRobots bool `mapstructure:"respect_robots"`
	// VerifyTLS toggles certificate validation.
	VerifyTLS bool `mapstructure:"verify_tls"`
	// Mode selects the detection mode: conservative, aggressive, or strict.
	Mode string `mapstructure:"mode"`
	// StatusAddr serves /healthz, /status, and /metrics when non-empty.
	StatusAddr string `mapstructure:"status_addr"`
	// ReportPath writes a markdown crawl report when non-empty.
	ReportPath string `mapstructure:"report_path"`
	// Development switches logging to colored console output.
	Development bool `mapstructure:"development"`
}

const envPrefix = "PDFHOUND"

// Load reads configuration from the optional file at path, the environment,
// and defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key. Viper's AutomaticEnv only surfaces keys it
// already knows about to Unmarshal, so even value-less keys like seed need a
// default for their PDFHOUND_ variables to land.
func setDefaults(v *viper.Viper) {
	v.SetDefault("seed", "")
	v.SetDefault("output_dir", "downloads")
	v.SetDefault("max_depth", 3)
	v.SetDefault("user_agent", "pdfhound/1.0 (+https://github.com/pdfhound/pdfhound)")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("download_timeout", 5*time.Minute)
	v.SetDefault("max_file_bytes", int64(100<<20))
	v.SetDefault("crawl_delay", 500*time.Millisecond)
	v.SetDefault("max_redirects", 10)
	v.SetDefault("respect_robots", true)
	v.SetDefault("verify_tls", true)
	v.SetDefault("mode", string(detector.ModeConservative))
	v.SetDefault("status_addr", "")
	v.SetDefault("report_path", "")
	v.SetDefault("development", false)
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Seed) == "" {
		return errors.New("seed url is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output directory is required")
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		return errors.New("user agent is required")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.DownloadTimeout <= 0 {
		return errors.New("download timeout must be positive")
	}
	if c.MaxFileBytes < 0 {
		return errors.New("max file bytes must be >= 0")
	}
	if c.CrawlDelay < 0 {
		return errors.New("crawl delay must be >= 0")
	}
	if c.MaxRedirects <= 0 {
		return errors.New("max redirects must be positive")
	}
	if _, err := detector.ParseMode(c.Mode); err != nil {
		return err
	}
	return nil
}

// DetectionMode returns the parsed detection mode. Call Validate first; an
// unknown value falls back to conservative here.
func (c Config) DetectionMode() detector.Mode {
	mode, err := detector.ParseMode(c.Mode)
	if err != nil {
		return detector.ModeConservative
	}
	return mode
}
