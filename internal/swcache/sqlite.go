package swcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStorage persists caches so the app shell survives restarts offline.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the cache database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	queries := []string{
		`CREATE TABLE IF NOT EXISTS caches (
			name TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			cache TEXT NOT NULL,
			key TEXT NOT NULL,
			status INTEGER NOT NULL,
			header TEXT NOT NULL,
			body BLOB,
			stored_at INTEGER NOT NULL,
			PRIMARY KEY (cache, key)
		)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close() //nolint:errcheck
			return nil, fmt.Errorf("failed to init cache schema: %w", err)
		}
	}
	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Open(ctx context.Context, name string) (Cache, error) {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO caches (name) VALUES (?)`, name); err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", name, err)
	}
	return &sqliteCache{db: s.db, name: name}, nil
}

func (s *SQLiteStorage) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM caches ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan cache name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *SQLiteStorage) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache delete: %w", err)
	}
	for _, q := range []string{
		`DELETE FROM entries WHERE cache = ?`,
		`DELETE FROM caches WHERE name = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, name); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("failed to delete cache %s: %w", name, err)
		}
	}
	return tx.Commit()
}

type sqliteCache struct {
	db   *sql.DB
	name string
}

func (c *sqliteCache) Match(ctx context.Context, key string) (*Entry, bool, error) {
	var (
		e        Entry
		header   string
		storedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT status, header, body, stored_at FROM entries WHERE cache = ? AND key = ?`,
		c.name, key).Scan(&e.Status, &header, &e.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to match %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return nil, false, fmt.Errorf("failed to decode header for %s: %w", key, err)
	}
	e.StoredAt = time.UnixMilli(storedAt)
	return &e, true, nil
}

func (c *sqliteCache) Put(ctx context.Context, key string, e *Entry) error {
	header, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO entries (cache, key, status, header, body, stored_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cache, key) DO UPDATE SET status = excluded.status, header = excluded.header,
		 body = excluded.body, stored_at = excluded.stored_at`,
		c.name, key, e.Status, string(header), e.Body, e.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}
