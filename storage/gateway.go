package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUploadFailed   = errors.New("report upload failed")
	ErrMetadataFailed = errors.New("report metadata write failed")
)

// Stage names the persistence step that failed.
type Stage string

const (
	StageUpload   Stage = "upload"
	StageMetadata Stage = "metadata"
)

// PersistenceError reports which half of Persist failed. After a metadata
// failure DocumentURL points at the already-uploaded, unrecorded document.
type PersistenceError struct {
	Stage       Stage
	DocumentURL string
	Err         error
}

func (e *PersistenceError) Error() string {
	if e.DocumentURL != "" {
		return fmt.Sprintf("persist report: %s failed (document at %s): %v", e.Stage, e.DocumentURL, e.Err)
	}
	return fmt.Sprintf("persist report: %s failed: %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	sentinel := ErrUploadFailed
	if e.Stage == StageMetadata {
		sentinel = ErrMetadataFailed
	}
	return []error{sentinel, e.Err}
}

// Gateway uploads a document and then records its metadata. The two steps
// are not retried or rolled back.
type Gateway struct {
	uploader Uploader
	metadata MetadataStore
	newID    func() string
	now      func() time.Time
}

func NewGateway(u Uploader, m MetadataStore) *Gateway {
	return &Gateway{
		uploader: u,
		metadata: m,
		newID:    func() string { return uuid.New().String() },
		now:      time.Now,
	}
}

// Persist stores data under filename and writes rec with the resulting
// document URL. The completed record is returned.
func (g *Gateway) Persist(ctx context.Context, filename string, data []byte, rec Record) (Record, error) {
	docURL, err := g.uploader.Upload(ctx, filename, data)
	if err != nil {
		return Record{}, &PersistenceError{Stage: StageUpload, Err: err}
	}

	if rec.ID == "" {
		rec.ID = g.newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = g.now().UTC()
	}
	rec.DocumentURL = docURL

	if err := g.metadata.Record(ctx, rec); err != nil {
		return Record{}, &PersistenceError{Stage: StageMetadata, DocumentURL: docURL, Err: err}
	}
	return rec, nil
}
