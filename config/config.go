// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage selects and configures where rendered reports are uploaded.
type Storage struct {
	Type       string // "fs" (default) or "s3"
	BaseURL    string // public URL prefix for fs uploads
	S3Bucket   string
	S3Region   string
	S3Endpoint string // optional, for MinIO/LocalStack
	S3Prefix   string
}

// Metadata selects the report metadata database.
type Metadata struct {
	Driver string // "sqlite" (default) or "postgres"
	DSN    string
}

// Config holds server configuration.
type Config struct {
	Port              string
	GinMode           string
	DevMode           bool
	LogLevel          string
	DataDir           string
	ScoringPolicyFile string

	Storage  Storage
	Metadata Metadata

	SnapshotSourceURL string
	SnapshotTimeout   time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadEnv loads .env.development, falling back to .env. Missing files are
// not an error; the process environment is used as is.
func LoadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file found, using environment variables")
		}
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getenv("PORT", "8082"),
		GinMode:           getenv("GIN_MODE", "release"),
		DevMode:           os.Getenv("DEV_MODE") == "true",
		LogLevel:          getenv("LOG_LEVEL", "INFO"),
		DataDir:           getenv("DATA_DIR", "data"),
		ScoringPolicyFile: os.Getenv("SCORING_POLICY_FILE"),
		Storage: Storage{
			Type:       strings.ToLower(getenv("REPORT_STORAGE_TYPE", "fs")),
			BaseURL:    getenv("REPORT_BASE_URL", "/reports"),
			S3Bucket:   os.Getenv("REPORT_S3_BUCKET"),
			S3Region:   getenv("REPORT_S3_REGION", os.Getenv("AWS_REGION")),
			S3Endpoint: os.Getenv("REPORT_S3_ENDPOINT"),
			S3Prefix:   os.Getenv("REPORT_S3_PREFIX"),
		},
		Metadata: Metadata{
			Driver: strings.ToLower(getenv("METADATA_DRIVER", "sqlite")),
			DSN:    os.Getenv("METADATA_DSN"),
		},
		SnapshotSourceURL: os.Getenv("SNAPSHOT_SOURCE_URL"),
	}
	if cfg.Storage.S3Region == "" {
		cfg.Storage.S3Region = "us-east-1"
	}

	var err error
	if cfg.SnapshotTimeout, err = time.ParseDuration(getenv("SNAPSHOT_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_TIMEOUT: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getenv("RATE_LIMIT_RPS", "2"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getenv("RATE_LIMIT_BURST", "5")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	switch cfg.Storage.Type {
	case "fs":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			return nil, fmt.Errorf("REPORT_S3_BUCKET is required for S3 storage")
		}
	default:
		return nil, fmt.Errorf("unsupported report storage type: %s", cfg.Storage.Type)
	}
	switch cfg.Metadata.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported metadata driver: %s", cfg.Metadata.Driver)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
