// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// File paths
	StoragePath  string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Snapshot refresh settings
	RefreshIntervalSeconds int `mapstructure:"refreshintervalseconds"`
	RetentionDays          int `mapstructure:"retentiondays"`

	// Traffic quality settings
	QualityMinSessionSeconds float64 `mapstructure:"qualityminsessionseconds"`

	// Bot classification settings
	BotMinSessions        int     `mapstructure:"botminsessions"`
	BotMaxAvgDurationSecs float64 `mapstructure:"botmaxavgdurationsecs"`

	// Development seeding
	SeedOnEmpty bool `mapstructure:"seedonempty"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "webpulse")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("storagepath", "storage")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("refreshintervalseconds", 3600)
		v.SetDefault("retentiondays", 365)
		v.SetDefault("qualityminsessionseconds", 5.0)
		v.SetDefault("botminsessions", 5)
		v.SetDefault("botmaxavgdurationsecs", 5.0)
		v.SetDefault("seedonempty", false)

		v.BindEnv("appname", "WEBPULSE_APP_NAME")
		v.BindEnv("appport", "WEBPULSE_APP_PORT")
		v.BindEnv("environment", "WEBPULSE_ENV")
		v.BindEnv("loglevel", "WEBPULSE_LOG_LEVEL")
		v.BindEnv("storagepath", "WEBPULSE_STORAGE_PATH")
		v.BindEnv("logsdir", "WEBPULSE_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "WEBPULSE_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "WEBPULSE_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "WEBPULSE_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "WEBPULSE_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "WEBPULSE_DB_MAX_IDLE_CONNS")
		v.BindEnv("refreshintervalseconds", "WEBPULSE_REFRESH_INTERVAL_SECONDS")
		v.BindEnv("retentiondays", "WEBPULSE_RETENTION_DAYS")
		v.BindEnv("qualityminsessionseconds", "WEBPULSE_QUALITY_MIN_SESSION_SECONDS")
		v.BindEnv("botminsessions", "WEBPULSE_BOT_MIN_SESSIONS")
		v.BindEnv("botmaxavgdurationsecs", "WEBPULSE_BOT_MAX_AVG_DURATION_SECS")
		v.BindEnv("seedonempty", "WEBPULSE_SEED_ON_EMPTY")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.RetentionDays <= 0 {
		return fmt.Errorf("retentiondays must be positive, got %d", c.RetentionDays)
	}

	if c.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("refreshintervalseconds must be positive, got %d", c.RefreshIntervalSeconds)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.StoragePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment.
// If explicitly set via env var, uses that value. Tests run with a single
// connection for stability; everything else gets a small pool.
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
