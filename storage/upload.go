// Package storage persists rendered reports: the document goes to an
// Uploader and its metadata row to a MetadataStore.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores a document and returns the URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

var errBadFilename = errors.New("invalid report filename")

func checkFilename(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", errBadFilename, name)
	}
	return nil
}

// FileUploader writes documents to a local directory served under baseURL.
type FileUploader struct {
	dir     string
	baseURL string
	mu      sync.Mutex
}

func NewFileUploader(dir, baseURL string) (*FileUploader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure report dir: %w", err)
	}
	return &FileUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory documents are written to.
func (u *FileUploader) Dir() string { return u.dir }

func (u *FileUploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if err := checkFilename(filename); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	path := filepath.Join(u.dir, filename)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to commit report: %w", err)
	}
	return u.baseURL + "/" + url.PathEscape(filename), nil
}

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds configuration for S3Uploader.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // Optional custom endpoint (for MinIO, LocalStack, etc.)
	Prefix   string // Optional key prefix
}

// S3Uploader stores documents in an S3 bucket.
type S3Uploader struct {
	client PutObjectAPI
	cfg    S3Config
}

// NewS3Uploader creates an uploader using the default AWS credential chain.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO/LocalStack
		}
	})
	return NewS3UploaderWithClient(client, cfg), nil
}

func NewS3UploaderWithClient(client PutObjectAPI, cfg S3Config) *S3Uploader {
	return &S3Uploader{client: client, cfg: cfg}
}

func (u *S3Uploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if err := checkFilename(filename); err != nil {
		return "", err
	}
	key := u.cfg.Prefix + filename
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put failed: %w", err)
	}
	return u.objectURL(key), nil
}

func (u *S3Uploader) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if u.cfg.Endpoint != "" {
		return strings.TrimRight(u.cfg.Endpoint, "/") + "/" + u.cfg.Bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, escaped)
}
