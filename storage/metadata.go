package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no report metadata matches.
var ErrNotFound = errors.New("report not found")

// KindSEOCompliance tags rows written for SEO compliance reports.
const KindSEOCompliance = "seo_compliance"

// Record is the metadata row written for every persisted report.
type Record struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId,omitempty"`
	Kind         string    `json:"kind"`
	URL          string    `json:"url"`
	DocumentURL  string    `json:"documentUrl"`
	Score        int       `json:"score"`
	Grade        string    `json:"grade"`
	TableVersion string    `json:"tableVersion"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MetadataStore records report metadata.
type MetadataStore interface {
	Record(ctx context.Context, r Record) error
}

// Dialect selects placeholder syntax.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// createdAtLayout is fixed width so that text ordering of created_at
// matches time ordering. RFC3339Nano drops trailing zeros and does not.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLStore keeps report metadata in SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// OpenSQLStore opens the database and creates the schema.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
	case DialectPostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported metadata dialect: %s", dialect)
	}

	db, err := openDB(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("metadata: open database: %w", err)
	}
	if dialect == DialectSQLite {
		for _, p := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
			if _, err := db.ExecContext(ctx, p); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("metadata: pragma %q: %w", p, err)
			}
		}
	}

	s := NewSQLStore(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the reports table if needed.
func (s *SQLStore) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id            TEXT PRIMARY KEY,
			owner_id      TEXT NOT NULL DEFAULT '',
			report_kind   TEXT NOT NULL DEFAULT '',
			url           TEXT NOT NULL,
			document_url  TEXT NOT NULL,
			score         INTEGER NOT NULL,
			grade         TEXT NOT NULL,
			table_version TEXT NOT NULL,
			created_at    TEXT NOT NULL
		)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("metadata: migration: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS reports_owner_idx ON reports (owner_id, created_at)"); err != nil {
		return fmt.Errorf("metadata: migration: %w", err)
	}
	return nil
}

// bind rewrites ? placeholders for the store's dialect.
func (s *SQLStore) bind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Record(ctx context.Context, r Record) error {
	query := s.bind(`INSERT INTO reports (id, owner_id, report_kind, url, document_url, score, grade, table_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.OwnerID, r.Kind, r.URL, r.DocumentURL, r.Score, r.Grade, r.TableVersion,
		r.CreatedAt.UTC().Format(createdAtLayout))
	if err != nil {
		return fmt.Errorf("failed to record report: %w", err)
	}
	return nil
}

const selectColumns = "SELECT id, owner_id, report_kind, url, document_url, score, grade, table_version, created_at FROM reports"

func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, s.bind(selectColumns+" WHERE id = ?"), id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return r, nil
}

// ListByOwner returns an owner's reports, newest first.
func (s *SQLStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		s.bind(selectColumns+" WHERE owner_id = ? ORDER BY created_at DESC LIMIT ?"), ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var r Record
	var created string
	if err := sc.Scan(&r.ID, &r.OwnerID, &r.Kind, &r.URL, &r.DocumentURL, &r.Score, &r.Grade, &r.TableVersion, &created); err != nil {
		return nil, err
	}
	// RFC3339Nano parsing accepts any fraction width, including rows
	// written before the fixed layout.
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	r.CreatedAt = t
	return &r, nil
}
