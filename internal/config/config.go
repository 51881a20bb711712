// Package config loads and validates the application configuration from a
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// IngestionConfig configures the two-phase ingestion client.
type IngestionConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	Phase1Timeout     time.Duration `mapstructure:"phase1_timeout" validate:"required"`
	Phase2Timeout     time.Duration `mapstructure:"phase2_timeout" validate:"required"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" validate:"gt=0"`
	Retry             RetryConfig   `mapstructure:"retry"`
}

// RetryConfig configures automatic retry of transport failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=0,max=10"`
	InitialWait time.Duration `mapstructure:"initial_wait" validate:"required"`
	MaxWait     time.Duration `mapstructure:"max_wait" validate:"required,gtefield=InitialWait"`
	Multiplier  float64       `mapstructure:"multiplier" validate:"gte=1"`
}

// OCRConfig configures the expiration recognition client.
type OCRConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}

// PermissionConfig configures the camera permission gate.
type PermissionConfig struct {
	DialogTimeout time.Duration `mapstructure:"dialog_timeout" validate:"required"`
}

// SnapshotConfig configures crash-resume behavior.
type SnapshotConfig struct {
	// StaleAfter is the age beyond which a persisted snapshot is discarded
	// instead of resumed.
	StaleAfter time.Duration `mapstructure:"stale_after" validate:"required"`
}

// Config is the top-level application configuration.
type Config struct {
	DeviceID   string           `mapstructure:"device_id" validate:"required"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Permission PermissionConfig `mapstructure:"permission"`
	Snapshot   SnapshotConfig   `mapstructure:"snapshot"`
}

// Load reads configuration from the given file (optional) and the
// environment, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("ingestion.phase1_timeout", 10*time.Second)
	v.SetDefault("ingestion.phase2_timeout", 10*time.Second)
	v.SetDefault("ingestion.requests_per_second", 5.0)
	v.SetDefault("ingestion.burst", 10)
	v.SetDefault("ingestion.retry.max_attempts", 3)
	v.SetDefault("ingestion.retry.initial_wait", 1*time.Second)
	v.SetDefault("ingestion.retry.max_wait", 30*time.Second)
	v.SetDefault("ingestion.retry.multiplier", 2.0)
	v.SetDefault("ocr.timeout", 15*time.Second)
	v.SetDefault("permission.dialog_timeout", 60*time.Second)
	v.SetDefault("snapshot.stale_after", 24*time.Hour)

	v.SetEnvPrefix("PANTRYSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
