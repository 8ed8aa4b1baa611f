package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seo-optimizer/report-engine/config"
)

// NewUploaderFromConfig creates the report uploader selected by
// REPORT_STORAGE_TYPE: "fs" writes under dataDir/reports, "s3" uploads to a bucket.
func NewUploaderFromConfig(ctx context.Context, cfg config.Storage, dataDir string) (Uploader, error) {
	switch cfg.Type {
	case "", "fs":
		return NewFileUploader(filepath.Join(dataDir, "reports"), cfg.BaseURL)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("REPORT_S3_BUCKET is required for S3 storage")
		}
		return NewS3Uploader(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Prefix:   cfg.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported report storage type: %s", cfg.Type)
	}
}

// NewMetadataStoreFromConfig opens the metadata database. SQLite defaults to
// dataDir/reports.db.
func NewMetadataStoreFromConfig(ctx context.Context, cfg config.Metadata, dataDir string) (*SQLStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to ensure data dir: %w", err)
			}
			dsn = filepath.Join(dataDir, "reports.db")
		}
		return OpenSQLStore(ctx, DialectSQLite, dsn)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("METADATA_DSN is required for postgres")
		}
		return OpenSQLStore(ctx, DialectPostgres, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported metadata driver: %s", cfg.Driver)
	}
}
