// Package storage is the document persistence collaborator: a SQLite
// table of template documents with optimistic version increments. The
// autosave coordinator persists through it and the server reads documents
// out of it.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"doccanvas/internal/shape"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned when a template id does not exist.
	ErrNotFound = errors.New("template not found")
	// ErrVersionConflict is returned when a Save carries a stale version:
	// someone else updated the template since it was read.
	ErrVersionConflict = errors.New("template version conflict")
)

// Template is one stored document with its version counter.
type Template struct {
	ID        string
	Name      string
	Version   int64
	Document  shape.Document
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a SQLite-backed template store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
// SQLite allows one writer at a time, so the pool is pinned to a single
// connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new template at version 1 and returns its id.
func (s *Store) Create(ctx context.Context, name string, doc shape.Document) (string, error) {
	payload, err := doc.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, version, payload, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?, ?)`,
		id, name, string(payload), now, now)
	if err != nil {
		return "", fmt.Errorf("insert template: %w", err)
	}
	return id, nil
}

// Get reads one template by id.
func (s *Store) Get(ctx context.Context, id string) (Template, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, version, payload, created_at, updated_at
		 FROM templates WHERE id = ?`, id)

	var t Template
	var payload, created, updated string
	if err := row.Scan(&t.ID, &t.Name, &t.Version, &payload, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, fmt.Errorf("read template: %w", err)
	}
	doc, err := shape.UnmarshalDocument([]byte(payload))
	if err != nil {
		return Template{}, fmt.Errorf("decode template %s: %w", id, err)
	}
	t.Document = doc
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	t.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return t, nil
}

// Save updates a template, bumping its version by one. The caller passes
// the version it read; a mismatch means the row moved underneath it and
// yields ErrVersionConflict without writing anything.
func (s *Store) Save(ctx context.Context, id string, version int64, doc shape.Document) (int64, error) {
	payload, err := doc.Marshal()
	if err != nil {
		return 0, fmt.Errorf("marshal document: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE templates SET payload = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(payload), now, id, version)
	if err != nil {
		return 0, fmt.Errorf("update template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update template: %w", err)
	}
	if n == 0 {
		// Distinguish a missing row from a stale version.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM templates WHERE id = ?`, id).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check template: %w", err)
		}
		if exists == 0 {
			return 0, ErrNotFound
		}
		return 0, ErrVersionConflict
	}
	return version + 1, nil
}

// List returns every stored template without payloads, newest first.
func (s *Store) List(ctx context.Context) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, version, created_at, updated_at
		 FROM templates ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		var created, updated string
		if err := rows.Scan(&t.ID, &t.Name, &t.Version, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		t.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes a template. Deleting a missing id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
