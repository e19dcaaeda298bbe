// Package config loads application configuration from config.yaml and the
// environment, and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Scoring  ScoringConfig  `yaml:"scoring" mapstructure:"scoring"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// OverpassConfig configures the Overpass API client and fetch orchestrator.
type OverpassConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts       int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs  int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	RequestDelayMs    int     `yaml:"request_delay_ms" mapstructure:"request_delay_ms"`
	BreakerThreshold  int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownS  int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// Timeout returns the request timeout as a duration.
func (c OverpassConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RequestDelay returns the politeness spacing between API requests.
func (c OverpassConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMs) * time.Millisecond
}

// BreakerCooldown returns how long an opened breaker stays open.
func (c OverpassConfig) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownS) * time.Second
}

// ScoringConfig configures the contribution model and rule tables.
type ScoringConfig struct {
	MaxRadiusMeters int    `yaml:"max_radius_meters" mapstructure:"max_radius_meters"`
	NearbyLimit     int    `yaml:"nearby_limit" mapstructure:"nearby_limit"`
	RulesFile       string `yaml:"rules_file" mapstructure:"rules_file"`
}

// BatchConfig configures sequential batch processing.
type BatchConfig struct {
	LocationDelayMs int `yaml:"location_delay_ms" mapstructure:"location_delay_ms"`
}

// LocationDelay returns the pause between batch locations.
func (c BatchConfig) LocationDelay() time.Duration {
	return time.Duration(c.LocationDelayMs) * time.Millisecond
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional) and LIVABILITY_*
// environment variables, applying defaults for everything else.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LIVABILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("overpass.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.user_agent", "livability/1.0")
	v.SetDefault("overpass.timeout_secs", 30)
	v.SetDefault("overpass.concurrency", 2)
	v.SetDefault("overpass.max_attempts", 3)
	v.SetDefault("overpass.initial_backoff_ms", 500)
	v.SetDefault("overpass.max_backoff_ms", 30000)
	v.SetDefault("overpass.backoff_multiplier", 2.0)
	v.SetDefault("overpass.request_delay_ms", 500)
	v.SetDefault("overpass.breaker_threshold", 5)
	v.SetDefault("overpass.breaker_cooldown_secs", 30)
	v.SetDefault("scoring.max_radius_meters", 1000)
	v.SetDefault("scoring.nearby_limit", 10)
	v.SetDefault("batch.location_delay_ms", 1000)
	v.SetDefault("server.port", 3000)
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

// InitLogger builds the global zap logger from the log config.
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
