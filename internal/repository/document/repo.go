// Package document implements domain.DocumentSource over a read-only SQLite database.
//
// The database holds one table, documents(id TEXT PRIMARY KEY, text TEXT, metadata TEXT),
// where metadata is a JSON object. Identifiers are normalized before every lookup.
package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/docrank/internal/domain"
)

// Compile-time check: Repo implements domain.DocumentSource.
var _ domain.DocumentSource = (*Repo)(nil)

// Config describes the SQLite document database.
type Config struct {
	Path     string
	FoldCase bool
}

// Repo is a read-only document store. Safe for concurrent use.
type Repo struct {
	db     *sql.DB
	norm   domain.IDNormalizer
	closed atomic.Bool
}

// Open opens the database read-only and verifies that the documents table exists.
func Open(ctx context.Context, cfg Config) (*Repo, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("documents path is required: %w", domain.ErrBackendUnavailable)
	}

	dsn, err := readOnlyDSN(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w: %w", cfg.Path, domain.ErrBackendUnavailable, err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", cfg.Path, domain.ErrBackendUnavailable, err)
	}

	r := &Repo{db: db, norm: domain.IDNormalizer{FoldCase: cfg.FoldCase}}
	if err := r.checkSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// readOnlyDSN builds a file: URI for path. The path is escaped, so '#', '?' and '%'
// in directory or file names reach SQLite verbatim.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "mode=ro&_pragma=busy_timeout(5000)",
	}
	return u.String(), nil
}

func (r *Repo) checkSchema(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", domain.ErrBackendUnavailable, err)
	}

	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'documents'`,
	).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("documents table missing: %w", domain.ErrBackendUnavailable)
	case err != nil:
		return fmt.Errorf("inspect schema: %w: %w", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// Ping checks that the database is still readable.
func (r *Repo) Ping(ctx context.Context) error {
	if r.closed.Load() {
		return domain.ErrConnectionClosed
	}
	if err := r.db.PingContext(ctx); err != nil {
		return r.wrapErr("ping", err)
	}
	return nil
}

// DocIDs returns every identifier in ascending order.
func (r *Repo) DocIDs(ctx context.Context) ([]string, error) {
	if r.closed.Load() {
		return nil, domain.ErrConnectionClosed
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY id`)
	if err != nil {
		return nil, r.wrapErr("list ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.wrapErr("scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapErr("list ids", err)
	}
	return ids, nil
}

// DocText returns the stored text of a document. ok is false for an unknown
// identifier or a NULL text column.
func (r *Repo) DocText(ctx context.Context, id string) (string, bool, error) {
	if r.closed.Load() {
		return "", false, domain.ErrConnectionClosed
	}

	var text sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT text FROM documents WHERE id = ?`, r.norm.Normalize(id),
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, r.wrapErr("get text "+id, err)
	}
	return text.String, text.Valid, nil
}

// DocMetadata returns the metadata of a document, or an empty mapping for an unknown identifier.
func (r *Repo) DocMetadata(ctx context.Context, id string) (domain.Metadata, error) {
	if r.closed.Load() {
		return nil, domain.ErrConnectionClosed
	}

	var raw sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT metadata FROM documents WHERE id = ?`, r.norm.Normalize(id),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Metadata{}, nil
	}
	if err != nil {
		return nil, r.wrapErr("get metadata "+id, err)
	}

	meta, err := decodeMetadata(raw)
	if err != nil {
		return nil, fmt.Errorf("metadata of %q: %w", id, err)
	}
	return meta, nil
}

// Close closes the database. Calling Close more than once is a no-op.
func (r *Repo) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close documents db: %w", err)
	}
	return nil
}

// wrapErr maps driver failures to domain errors. A query that lost a race with
// Close reports ErrConnectionClosed.
func (r *Repo) wrapErr(op string, err error) error {
	if r.closed.Load() || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w", op, domain.ErrConnectionClosed)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrBackendUnavailable, err)
}
