// Package history keeps a SQLite journal of procedure runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Status is the result of a run.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Record is one journal row. Models themselves are never stored.
type Record struct {
	ID          string
	Procedure   string
	Dataset     string
	Fingerprint uint64
	Features    []string
	Target      string
	// Params is the JSON encoding of the run parameters.
	Params    string
	Status    Status
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    procedure   TEXT NOT NULL,
    dataset     TEXT NOT NULL DEFAULT '',
    fingerprint TEXT NOT NULL DEFAULT '',
    features    TEXT NOT NULL DEFAULT '[]',
    target      TEXT NOT NULL DEFAULT '',
    params      TEXT NOT NULL DEFAULT '{}',
    status      TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    duration_ns INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`

// Store is a run journal backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path. ":memory:" keeps it in memory.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Record appends r, assigning its ID and timestamp when unset.
func (s *Store) Record(ctx context.Context, r Record) (Record, error) {
	if r.Procedure == "" {
		return r, errors.New("history: record has no procedure")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusOK
	}
	if r.Params == "" {
		r.Params = "{}"
	}
	features, err := json.Marshal(r.Features)
	if err != nil {
		return r, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, procedure, dataset, fingerprint, features, target, params, status, error, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Procedure, r.Dataset, strconv.FormatUint(r.Fingerprint, 16), string(features),
		r.Target, r.Params, string(r.Status), r.Error, int64(r.Duration), r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return r, fmt.Errorf("history: insert: %w", err)
	}
	return r, nil
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, procedure, dataset, fingerprint, features, target, params, status, error, duration_ns, created_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var (
			r              Record
			fp, features   string
			status         string
			dur, createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.Procedure, &r.Dataset, &fp, &features, &r.Target, &r.Params,
			&status, &r.Error, &dur, &createdAt); err != nil {
			return nil, err
		}
		if fp != "" {
			if r.Fingerprint, err = strconv.ParseUint(fp, 16, 64); err != nil {
				return nil, fmt.Errorf("history: fingerprint of %s: %w", r.ID, err)
			}
		}
		if err := json.Unmarshal([]byte(features), &r.Features); err != nil {
			return nil, fmt.Errorf("history: features of %s: %w", r.ID, err)
		}
		r.Status = Status(status)
		r.Duration = time.Duration(dur)
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of stored runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}
