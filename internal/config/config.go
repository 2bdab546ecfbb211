package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the downloader.
type Config struct {
	Log      LogConfig
	HTTP     HTTPConfig
	Download DownloadConfig
	Merge    MergeConfig
	Batch    BatchConfig
	Metrics  MetricsConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string // console, json
}

// HTTPConfig controls every request issued to the broadcaster.
type HTTPConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
	// RateLimit is the number of requests per second; zero disables throttling.
	RateLimit float64
	RateBurst int
}

// DownloadConfig holds segment download configuration.
type DownloadConfig struct {
	// WorkDir receives the intermediate video-only and audio-only files.
	WorkDir string
	// OutputDir receives outputs whose name is derived from the video page.
	OutputDir string
	Progress  bool
}

// MergeConfig holds multiplexer configuration.
type MergeConfig struct {
	FFmpegPath string
}

// BatchConfig holds URL-list processing configuration.
type BatchConfig struct {
	ContinueOnError bool
}

// MetricsConfig holds the optional Prometheus endpoint configuration.
type MetricsConfig struct {
	ListenAddr string
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":         "log.level",
	"log-format":        "log.format",
	"user-agent":        "http.userAgent",
	"timeout":           "http.requestTimeout",
	"rate-limit":        "http.rateLimit",
	"work-dir":          "download.workDir",
	"output-dir":        "download.outputDir",
	"ffmpeg":            "merge.ffmpegPath",
	"continue-on-error": "batch.continueOnError",
	"metrics-addr":      "metrics.listenAddr",
}

// Load reads configuration from an optional file, ORFONDL_* environment
// variables and the given flags, in increasing order of precedence.
// An empty configPath skips the file.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ORFONDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
		// --no-progress is the inverse of download.progress.
		if f := flags.Lookup("no-progress"); f != nil && f.Changed {
			v.Set("download.progress", f.Value.String() != "true")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the downloader cannot work with.
func (c *Config) Validate() error {
	if c.HTTP.RequestTimeout <= 0 {
		return fmt.Errorf("http.requestTimeout must be positive, got %s", c.HTTP.RequestTimeout)
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rateLimit must not be negative, got %v", c.HTTP.RateLimit)
	}
	if c.Merge.FFmpegPath == "" {
		return fmt.Errorf("merge.ffmpegPath must not be empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("http.userAgent", "orfondl/1.0")
	v.SetDefault("http.requestTimeout", "30s")
	v.SetDefault("http.rateLimit", 0)
	v.SetDefault("http.rateBurst", 1)

	v.SetDefault("download.workDir", ".")
	v.SetDefault("download.outputDir", ".")
	v.SetDefault("download.progress", true)

	v.SetDefault("merge.ffmpegPath", "ffmpeg")

	v.SetDefault("batch.continueOnError", false)

	v.SetDefault("metrics.listenAddr", "")
}
