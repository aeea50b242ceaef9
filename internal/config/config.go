package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/streeteats/cleanup-cli/internal/match"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Cleanup CleanupConfig `yaml:"cleanup" mapstructure:"cleanup"`
	Match   MatchConfig   `yaml:"match" mapstructure:"match"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CleanupConfig configures the batch cleanup engine.
type CleanupConfig struct {
	BatchSize           int      `yaml:"batch_size" mapstructure:"batch_size"`
	CityCenterLat       float64  `yaml:"city_center_lat" mapstructure:"city_center_lat"`
	CityCenterLng       float64  `yaml:"city_center_lng" mapstructure:"city_center_lng"`
	WriteRatePerSec     float64  `yaml:"write_rate_per_sec" mapstructure:"write_rate_per_sec"`
	PlaceholderPatterns []string `yaml:"placeholder_patterns" mapstructure:"placeholder_patterns"`
}

// MatchConfig configures duplicate detection.
type MatchConfig struct {
	Weights        match.Weights `yaml:"weights" mapstructure:"weights"`
	MergeThreshold float64       `yaml:"merge_threshold" mapstructure:"merge_threshold"`
}

// Validate checks the fields a command mode needs before it starts. Modes
// are "cleanup" for the batch commands and "serve" for the admin server.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "cleanup":
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	case "serve":
		check(c.Store.DatabaseURL != "", "store.database_url is required")
		check(c.Server.Port > 0, "server.port must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	check(c.Cleanup.BatchSize >= 1 && c.Cleanup.BatchSize <= 1000,
		"cleanup.batch_size must be between 1 and 1000")
	check(c.Cleanup.WriteRatePerSec > 0, "cleanup.write_rate_per_sec must be > 0")
	check(c.Match.MergeThreshold > 0 && c.Match.MergeThreshold <= 1,
		"match.merge_threshold must be in (0, 1]")
	w := c.Match.Weights
	check(w.Name >= 0 && w.Location >= 0 && w.Contact >= 0 && w.Menu >= 0,
		"match.weights values must be >= 0")

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRUCKCLEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	// Registered so AutomaticEnv can surface TRUCKCLEAN_STORE_DATABASE_URL;
	// viper only unmarshals keys it knows about.
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("cleanup.batch_size", 50)
	// Marion Square, Charleston SC.
	v.SetDefault("cleanup.city_center_lat", 32.7946)
	v.SetDefault("cleanup.city_center_lng", -79.9392)
	v.SetDefault("cleanup.write_rate_per_sec", 25.0)
	weights := match.DefaultWeights()
	v.SetDefault("match.merge_threshold", match.DefaultMergeThreshold)
	v.SetDefault("match.weights.name", weights.Name)
	v.SetDefault("match.weights.location", weights.Location)
	v.SetDefault("match.weights.contact", weights.Contact)
	v.SetDefault("match.weights.menu", weights.Menu)

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
