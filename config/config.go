// Package config loads the analyzer configuration from an optional YAML
// file. Every field has a usable default so the CLI runs with no config
// file at all; command-line flags override whatever is loaded here.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

// Config represents the configuration for the analyzer.
type Config struct {
	Condor   Condor   `koanf:"condor"`
	Analysis Analysis `koanf:"analysis"`
	Report   Report   `koanf:"report"`
	Serve    Serve    `koanf:"serve"`
	Log      Log      `koanf:"log"`
}

type Condor struct {
	Endpoint     string        `koanf:"endpoint"`
	Schedd       string        `koanf:"schedd"`
	Constraint   string        `koanf:"constraint"`
	MatchLimit   int           `koanf:"match_limit"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

type Analysis struct {
	MinJobs   int     `koanf:"min_jobs"`
	Threshold float64 `koanf:"threshold"`
}

type Report struct {
	// Limit caps how many per-cluster reports are printed.
	Limit          int `koanf:"limit"`
	HistogramBins  int `koanf:"histogram_bins"`
	HistogramWidth int `koanf:"histogram_width"`
}

type Serve struct {
	// Cron is the analysis schedule in serve mode.
	Cron        string `koanf:"cron"`
	TimeZone    string `koanf:"timezone"`
	MetricsPort string `koanf:"metrics_port"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

var (
	k      = koanf.New(".")
	parser = yaml.Parser()
)

// Load reads the config file at path, or falls back to the CONFIG_FILE
// env var, or to pure defaults when neither names a file.
func Load(path string) (*Config, error) {
	if path == "" {
		if v := os.Getenv("CONFIG_FILE"); v != "" {
			log.Debug().Str("path", v).Msg("using config file from CONFIG_FILE env var")
			path = v
		}
	}

	cfg := Config{}
	if path == "" {
		log.Debug().Msg("no config file given, using defaults")
		applyDefaults(&cfg)
		return &cfg, nil
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}
	applyDefaults(&cfg)

	log.Trace().Str("config", fmt.Sprintf("%+v", cfg)).Msg("loaded config")
	return &cfg, nil
}

// applyDefaults fills in any field the config file left unset.
func applyDefaults(cfg *Config) {
	if cfg.Condor.Constraint == "" {
		cfg.Condor.Constraint = "JobStatus == 4"
	}
	if cfg.Condor.MatchLimit == 0 {
		cfg.Condor.MatchLimit = 10000
	}
	if cfg.Condor.QueryTimeout == 0 {
		cfg.Condor.QueryTimeout = 30 * time.Second
	}
	if cfg.Analysis.MinJobs == 0 {
		cfg.Analysis.MinJobs = 20
	}
	if cfg.Analysis.Threshold == 0 {
		cfg.Analysis.Threshold = 0.5
	}
	if cfg.Report.Limit == 0 {
		cfg.Report.Limit = 100
	}
	if cfg.Report.HistogramBins == 0 {
		cfg.Report.HistogramBins = 10
	}
	if cfg.Report.HistogramWidth == 0 {
		cfg.Report.HistogramWidth = 50
	}
	if cfg.Serve.Cron == "" {
		cfg.Serve.Cron = "0 6 * * *"
	}
	if cfg.Serve.TimeZone == "" {
		cfg.Serve.TimeZone = "UTC"
	}
	if cfg.Serve.MetricsPort == "" {
		cfg.Serve.MetricsPort = "9091"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}
