package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for newslens-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Extractor configuration (external NLP entity extraction)
	Extractor ExtractorConfig `yaml:"extractor"`

	// Tracking configuration (resolution and aggregation behavior)
	Tracking TrackingConfig `yaml:"tracking"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"newslens"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"newslens_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// ExtractorConfig holds settings for the external NLP entity extractor.
// Provider selects the client implementation ("openai" or "anthropic").
type ExtractorConfig struct {
	Provider string `yaml:"provider" env:"EXTRACTOR_PROVIDER" env-default:"openai"`
	// Endpoint overrides the provider's default base URL; empty uses the
	// provider default.
	Endpoint string `yaml:"endpoint" env:"EXTRACTOR_ENDPOINT"`
	Model    string `yaml:"model" env:"EXTRACTOR_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `yaml:"-" env:"EXTRACTOR_API_KEY"` // Secret - not in YAML
	// MaxRetries bounds retry of failed extraction calls per article.
	MaxRetries int `yaml:"max_retries" env:"EXTRACTOR_MAX_RETRIES" env-default:"2"`
}

// TrackingConfig holds entity resolution and aggregation settings.
type TrackingConfig struct {
	// SimilarityThreshold is the minimum normalized name-similarity ratio
	// for a mention to resolve to an existing canonical entity. Inclusive:
	// a candidate exactly at the threshold is accepted.
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"TRACKING_SIMILARITY_THRESHOLD" env-default:"0.85"`
	// RelationshipWindowDays is the default lookback for co-occurrence queries.
	RelationshipWindowDays int `yaml:"relationship_window_days" env:"TRACKING_RELATIONSHIP_WINDOW_DAYS" env-default:"30"`
	// BatchStatusFilter selects which articles a batch run processes.
	BatchStatusFilter string `yaml:"batch_status_filter" env:"TRACKING_BATCH_STATUS_FILTER" env-default:"scraped"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// If config.yaml does not exist, configuration comes from the environment alone.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Tracking.SimilarityThreshold < 0 || c.Tracking.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in [0,1], got %v", c.Tracking.SimilarityThreshold)
	}
	if c.Tracking.RelationshipWindowDays <= 0 {
		return fmt.Errorf("relationship_window_days must be positive, got %d", c.Tracking.RelationshipWindowDays)
	}
	switch c.Extractor.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown extractor provider %q", c.Extractor.Provider)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
