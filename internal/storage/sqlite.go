package storage

import (
	"context"
	"crypto/sha1" //nolint:gosec // git blob ids, not a security boundary
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"newsroom/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Revision is one entry in a document's history.
type Revision struct {
	SHA       string
	Message   string
	CreatedAt time.Time
}

// SQLite implements Store on a local SQLite database. Every write is kept in
// the revisions table so the history mirrors a git-backed store.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get returns the current content and revision of path.
func (s *SQLite) Get(ctx context.Context, path string) (*Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx,
		`SELECT content, sha FROM documents WHERE path = ?`, path,
	).Scan(&doc.Content, &doc.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return &doc, nil
}

// Create stores a new document. It fails with ErrConflict if path exists.
func (s *SQLite) Create(ctx context.Context, path string, content []byte, message string) error {
	return s.write(ctx, path, content, message, func(tx *sql.Tx, sha, now string) (sql.Result, error) {
		return tx.ExecContext(ctx,
			`INSERT INTO documents (path, sha, content, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (path) DO NOTHING`,
			path, sha, content, now,
		)
	})
}

// Update replaces the document at path if revision is still current.
func (s *SQLite) Update(ctx context.Context, path string, content []byte, message, revision string) error {
	err := s.write(ctx, path, content, message, func(tx *sql.Tx, sha, now string) (sql.Result, error) {
		return tx.ExecContext(ctx,
			`UPDATE documents SET sha = ?, content = ?, updated_at = ? WHERE path = ? AND sha = ?`,
			sha, content, now, path, revision,
		)
	})
	if errors.Is(err, ErrConflict) {
		if _, getErr := s.Get(ctx, path); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
	}
	return err
}

// History returns up to limit revisions of path, newest first.
func (s *SQLite) History(ctx context.Context, path string, limit int) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sha, message, created_at FROM revisions WHERE path = ? ORDER BY id DESC LIMIT ?`,
		path, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var revs []Revision
	for rows.Next() {
		var r Revision
		var created string
		if err := rows.Scan(&r.SHA, &r.Message, &created); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		r.CreatedAt, _ = time.Parse(timeLayout, created)
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

type writeFunc func(tx *sql.Tx, sha, now string) (sql.Result, error)

func (s *SQLite) write(ctx context.Context, path string, content []byte, message string, fn writeFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sha := BlobSHA(content)
	now := time.Now().UTC().Format(timeLayout)

	res, err := fn(tx, sha, now)
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO revisions (path, sha, message, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		path, sha, message, content, now,
	); err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return tx.Commit()
}

// BlobSHA returns the git blob id of content.
func BlobSHA(content []byte) string {
	h := sha1.New() //nolint:gosec // see import
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return fmt.Sprintf("%x", h.Sum(nil))
}
