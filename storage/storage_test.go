package storage

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/report-engine/config"
)

func TestFileUploader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	u, err := NewFileUploader(dir, "https://cdn.example.com/reports/")
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), "report 1.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/reports/report%201.pdf", url)

	data, err := os.ReadFile(filepath.Join(dir, "report 1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = os.Stat(filepath.Join(dir, "report 1.pdf.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	for _, bad := range []string{"", "../escape.pdf", "a/b.pdf", ".."} {
		_, err := u.Upload(context.Background(), bad, []byte("x"))
		assert.ErrorIs(t, err, errBadFilename, "filename %q", bad)
	}
}

func TestFileUploaderCancelled(t *testing.T) {
	u, err := NewFileUploader(t.TempDir(), "/reports")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = u.Upload(ctx, "r.pdf", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader(t *testing.T) {
	client := &fakeS3{}
	u := NewS3UploaderWithClient(client, S3Config{Bucket: "reports", Region: "eu-west-1", Prefix: "seo/"})

	url, err := u.Upload(context.Background(), "r.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "https://reports.s3.eu-west-1.amazonaws.com/seo/r.pdf", url)
	assert.Equal(t, "reports", *client.input.Bucket)
	assert.Equal(t, "seo/r.pdf", *client.input.Key)
	assert.Equal(t, "application/pdf", *client.input.ContentType)
	assert.Equal(t, "pdf", string(client.body))

	custom := NewS3UploaderWithClient(client, S3Config{Bucket: "reports", Endpoint: "http://localhost:9000/"})
	url, err = custom.Upload(context.Background(), "r.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/reports/r.pdf", url)

	client.err = errors.New("access denied")
	_, err = u.Upload(context.Background(), "r.pdf", []byte("pdf"))
	assert.ErrorContains(t, err, "access denied")
}

func sampleRecord() Record {
	return Record{
		ID:           "rec-1",
		OwnerID:      "user-1",
		Kind:         KindSEOCompliance,
		URL:          "https://example.com",
		DocumentURL:  "/reports/r.pdf",
		Score:        82,
		Grade:        "Good",
		TableVersion: "1.0.0",
		CreatedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLStorePostgresRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, DialectPostgres)
	rec := sampleRecord()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports (id, owner_id, report_kind, url, document_url, score, grade, table_version, created_at)")).
		WithArgs("rec-1", "user-1", "seo_compliance", "https://example.com", "/reports/r.pdf", 82, "Good", "1.0.0", "2024-03-01T12:00:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, store.Record(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorePostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSQLStore(db, DialectPostgres)
	cols := []string{"id", "owner_id", "report_kind", "url", "document_url", "score", "grade", "table_version", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns + " WHERE id = $1")).
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("rec-1", "user-1", "seo_compliance", "https://example.com", "/reports/r.pdf", 82, "Good", "1.0.0", "2024-03-01T12:00:00.000000000Z"))

	got, err := store.Get(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), *got)

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns + " WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cols))

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreRecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).WillReturnError(sql.ErrConnDone)

	err = NewSQLStore(db, DialectPostgres).Record(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestBind(t *testing.T) {
	pg := &SQLStore{dialect: DialectPostgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.bind("a = ? AND b = ?"))
	lite := &SQLStore{dialect: DialectSQLite}
	assert.Equal(t, "a = ? AND b = ?", lite.bind("a = ? AND b = ?"))
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewMetadataStoreFromConfig(ctx, config.Metadata{Driver: "sqlite"}, t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	older := sampleRecord()
	newer := sampleRecord()
	newer.ID = "rec-2"
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	other := sampleRecord()
	other.ID = "rec-3"
	other.OwnerID = "user-2"

	for _, r := range []Record{older, newer, other} {
		require.NoError(t, store.Record(ctx, r))
	}
	assert.Error(t, store.Record(ctx, older), "duplicate id must be rejected")

	got, err := store.Get(ctx, "rec-2")
	require.NoError(t, err)
	assert.Equal(t, newer, *got)

	assert.Equal(t, KindSEOCompliance, got.Kind)

	list, err := store.ListByOwner(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "rec-2", list[0].ID)
	for _, r := range list {
		assert.Equal(t, KindSEOCompliance, r.Kind)
	}

	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreSubsecondOrder(t *testing.T) {
	ctx := context.Background()
	store, err := NewMetadataStoreFromConfig(ctx, config.Metadata{Driver: "sqlite"}, t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	offsets := map[string]time.Duration{
		"whole":   0,
		"half":    500 * time.Millisecond,
		"twelfth": 120 * time.Millisecond,
	}
	for id, off := range offsets {
		r := sampleRecord()
		r.ID = id
		r.CreatedAt = base.Add(off)
		require.NoError(t, store.Record(ctx, r))
	}

	list, err := store.ListByOwner(ctx, "user-1", 10)
	require.NoError(t, err)
	var ids []string
	for _, r := range list {
		ids = append(ids, r.ID)
		assert.Equal(t, base.Add(offsets[r.ID]), r.CreatedAt)
	}
	assert.Equal(t, []string{"half", "twelfth", "whole"}, ids)
}

func TestCreatedAtLayout(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"whole second", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01T00:00:00.000000000Z"},
		{"fraction", time.Date(2024, 3, 1, 0, 0, 0, 120_000_000, time.UTC), "2024-03-01T00:00:00.120000000Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.at.Format(createdAtLayout))
		})
	}
}

func TestOpenSQLStoreErrors(t *testing.T) {
	_, err := OpenSQLStore(context.Background(), "oracle", "")
	assert.Error(t, err)

	orig := openDB
	defer func() { openDB = orig }()
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("boom") }

	_, err = OpenSQLStore(context.Background(), DialectSQLite, "x.db")
	assert.ErrorContains(t, err, "boom")
}

type stubUploader struct {
	url string
	err error
}

func (s stubUploader) Upload(context.Context, string, []byte) (string, error) { return s.url, s.err }

type stubMetadata struct {
	got []Record
	err error
}

func (s *stubMetadata) Record(_ context.Context, r Record) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, r)
	return nil
}

func TestGatewayPersist(t *testing.T) {
	meta := &stubMetadata{}
	g := NewGateway(stubUploader{url: "/reports/a.pdf"}, meta)
	g.newID = func() string { return "fixed-id" }
	g.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec, err := g.Persist(context.Background(), "a.pdf", []byte("x"), Record{URL: "https://example.com", Kind: KindSEOCompliance, Score: 90})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", rec.ID)
	assert.Equal(t, KindSEOCompliance, rec.Kind)
	assert.Equal(t, "/reports/a.pdf", rec.DocumentURL)
	assert.Equal(t, g.now(), rec.CreatedAt)
	require.Len(t, meta.got, 1)
	assert.Equal(t, rec, meta.got[0])
}

func TestGatewayUploadFailure(t *testing.T) {
	meta := &stubMetadata{}
	g := NewGateway(stubUploader{err: errors.New("disk full")}, meta)

	_, err := g.Persist(context.Background(), "a.pdf", []byte("x"), Record{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.NotErrorIs(t, err, ErrMetadataFailed)

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageUpload, pe.Stage)
	assert.Empty(t, pe.DocumentURL)
	assert.Empty(t, meta.got, "metadata must not be written after a failed upload")
}

func TestGatewayMetadataFailure(t *testing.T) {
	cause := errors.New("db down")
	g := NewGateway(stubUploader{url: "/reports/a.pdf"}, &stubMetadata{err: cause})

	_, err := g.Persist(context.Background(), "a.pdf", []byte("x"), Record{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMetadataFailed)
	assert.ErrorIs(t, err, cause)

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageMetadata, pe.Stage)
	assert.Equal(t, "/reports/a.pdf", pe.DocumentURL, "orphaned document must be reported")
	assert.Contains(t, err.Error(), "/reports/a.pdf")
}

func TestNewUploaderFromConfig(t *testing.T) {
	dir := t.TempDir()
	u, err := NewUploaderFromConfig(context.Background(), config.Storage{Type: "fs", BaseURL: "/reports"}, dir)
	require.NoError(t, err)
	fu, ok := u.(*FileUploader)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "reports"), fu.Dir())

	_, err = NewUploaderFromConfig(context.Background(), config.Storage{Type: "s3"}, dir)
	assert.Error(t, err)
	_, err = NewUploaderFromConfig(context.Background(), config.Storage{Type: "gcs"}, dir)
	assert.Error(t, err)
	_, err = NewMetadataStoreFromConfig(context.Background(), config.Metadata{Driver: "postgres"}, dir)
	assert.Error(t, err)
}
