package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Quota     QuotaConfig     `yaml:"quota" mapstructure:"quota"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SearchConfig holds the external web search API settings.
type SearchConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// QuotaConfig configures the monthly external search budget.
type QuotaConfig struct {
	MonthlyLimit int `yaml:"monthly_limit" mapstructure:"monthly_limit"`
}

// EnrichConfig configures page fetching and extraction.
type EnrichConfig struct {
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBytes      int64   `yaml:"max_bytes" mapstructure:"max_bytes"`
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	FetchesPerSec float64 `yaml:"fetches_per_sec" mapstructure:"fetches_per_sec"`
}

// DiscoveryConfig configures seed-driven discovery.
type DiscoveryConfig struct {
	ResultsPerSearch int `yaml:"results_per_search" mapstructure:"results_per_search"`
	Parallelism      int `yaml:"parallelism" mapstructure:"parallelism"`
}

// RateLimitConfig configures the per-owner request limiter on scan and
// discovery operations.
type RateLimitConfig struct {
	Requests   int `yaml:"requests" mapstructure:"requests"`
	WindowSecs int `yaml:"window_secs" mapstructure:"window_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "leadfinder.db")
	v.SetDefault("search.key", "")
	v.SetDefault("search.base_url", "https://serpapi.com")
	v.SetDefault("quota.monthly_limit", 250)
	v.SetDefault("enrich.timeout_secs", 10)
	v.SetDefault("enrich.max_bytes", 512*1024)
	v.SetDefault("enrich.fetches_per_sec", 1.0)
	v.SetDefault("discovery.results_per_search", 10)
	v.SetDefault("discovery.parallelism", 4)
	v.SetDefault("rate_limit.requests", 5)
	v.SetDefault("rate_limit.window_secs", 60)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
