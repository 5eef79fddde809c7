package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Server
	Port            int           `mapstructure:"PORT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`

	// Ingestion
	IngestSecret  string `mapstructure:"INGEST_SECRET"`
	DefaultRating int    `mapstructure:"DEFAULT_RATING"`

	// AWS
	AWSRegion     string `mapstructure:"AWS_REGION"`
	ArchiveBucket string `mapstructure:"ARCHIVE_BUCKET"`

	// Moderator alerts
	SMTPHost                string `mapstructure:"SMTP_HOST"`
	SMTPPort                int    `mapstructure:"SMTP_PORT"`
	SMTPUsername            string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword            string `mapstructure:"SMTP_PASSWORD"`
	AlertFrom               string `mapstructure:"ALERT_FROM"`
	AlertTo                 string `mapstructure:"ALERT_TO"`
	AlertViolationThreshold int    `mapstructure:"ALERT_VIOLATION_THRESHOLD"`
}

// keys lists every setting so AutomaticEnv can resolve them during Unmarshal.
var keys = []string{
	"ENVIRONMENT", "LOG_LEVEL", "PORT", "SHUTDOWN_TIMEOUT",
	"DATABASE_URL", "AUTO_MIGRATE", "INGEST_SECRET", "DEFAULT_RATING",
	"AWS_REGION", "ARCHIVE_BUCKET",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
	"ALERT_FROM", "ALERT_TO", "ALERT_VIOLATION_THRESHOLD",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables take precedence
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	// Set defaults
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 8080)
	v.SetDefault("SHUTDOWN_TIMEOUT", time.Second*30)
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("DEFAULT_RATING", 1000)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("ALERT_VIOLATION_THRESHOLD", 3)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK if we're using env vars
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate required fields
	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.IngestSecret == "" {
		return nil, fmt.Errorf("INGEST_SECRET is required")
	}
	if config.DefaultRating < 300 {
		return nil, fmt.Errorf("DEFAULT_RATING must be at least 300")
	}

	return config, nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AlertsEnabled reports whether moderator e-mails can be sent.
func (c *Config) AlertsEnabled() bool {
	return c.SMTPHost != "" && c.AlertFrom != "" && c.AlertTo != ""
}
