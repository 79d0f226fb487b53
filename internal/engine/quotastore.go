package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteQuotaStore persists the quota ledger in a local SQLite file so a
// restart does not reset an exhausted budget early.
type sqliteQuotaStore struct {
	db *sql.DB
}

// NewSQLiteQuotaStore opens (or creates) the ledger database at path.
// An empty path defaults to ~/.go_trending/quota.db.
func NewSQLiteQuotaStore(path string) (QuotaStore, error) {
	if path == "" {
		dir := filepath.Join(os.Getenv("HOME"), ".go_trending")
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("quota store: mkdir %s: %w", dir, err)
		}
		path = filepath.Join(dir, "quota.db")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("quota store: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS quota (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		used       INTEGER NOT NULL,
		last_reset TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("quota store: init schema: %w", err)
	}
	return &sqliteQuotaStore{db: db}, nil
}

func (s *sqliteQuotaStore) Load(ctx context.Context) (int64, time.Time, error) {
	var used int64
	var lastReset string
	err := s.db.QueryRowContext(ctx, `SELECT used, last_reset FROM quota WHERE id = 1`).Scan(&used, &lastReset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("quota store: load: %w", err)
	}
	t, err := time.Parse(time.RFC3339, lastReset)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("quota store: bad last_reset %q: %w", lastReset, err)
	}
	return used, t, nil
}

func (s *sqliteQuotaStore) Save(ctx context.Context, used int64, lastReset time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quota (id, used, last_reset) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET used = excluded.used, last_reset = excluded.last_reset`,
		used, lastReset.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("quota store: save: %w", err)
	}
	return nil
}

func (s *sqliteQuotaStore) Close() error { return s.db.Close() }
