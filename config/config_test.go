package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "REPORT_STORAGE_TYPE", "METADATA_DRIVER", "SNAPSHOT_TIMEOUT",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "DATA_DIR", "REPORT_S3_REGION", "AWS_REGION"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8082" {
		t.Errorf("Expected port 8082, got %s", cfg.Port)
	}
	if cfg.Storage.Type != "fs" || cfg.Metadata.Driver != "sqlite" {
		t.Errorf("Expected fs/sqlite defaults, got %s/%s", cfg.Storage.Type, cfg.Metadata.Driver)
	}
	if cfg.SnapshotTimeout != 15*time.Second {
		t.Errorf("Expected 15s timeout, got %v", cfg.SnapshotTimeout)
	}
	if cfg.RateLimitRPS != 2 || cfg.RateLimitBurst != 5 {
		t.Errorf("Expected 2 rps / burst 5, got %v / %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.Storage.S3Region != "us-east-1" {
		t.Errorf("Expected default region, got %s", cfg.Storage.S3Region)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REPORT_STORAGE_TYPE", "S3")
	t.Setenv("REPORT_S3_BUCKET", "reports")
	t.Setenv("REPORT_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("METADATA_DRIVER", "postgres")
	t.Setenv("METADATA_DSN", "postgres://localhost/reports")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("SNAPSHOT_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9000" || cfg.Storage.Type != "s3" || cfg.Storage.S3Bucket != "reports" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.DevMode {
		t.Error("Expected dev mode")
	}
	if cfg.SnapshotTimeout != 3*time.Second {
		t.Errorf("Expected 3s, got %v", cfg.SnapshotTimeout)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"s3 without bucket", map[string]string{"REPORT_STORAGE_TYPE": "s3", "REPORT_S3_BUCKET": ""}},
		{"unknown storage", map[string]string{"REPORT_STORAGE_TYPE": "ftp"}},
		{"unknown driver", map[string]string{"METADATA_DRIVER": "mysql"}},
		{"bad timeout", map[string]string{"SNAPSHOT_TIMEOUT": "soon"}},
		{"bad burst", map[string]string{"RATE_LIMIT_BURST": "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
