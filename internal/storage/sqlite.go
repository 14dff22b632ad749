package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const sqliteBusyTimeout = 5000

// sqliteSchema creates the single-row-per-key document table
const sqliteSchema = `CREATE TABLE IF NOT EXISTS settings (
	key        TEXT    PRIMARY KEY,
	version    INTEGER NOT NULL,
	value      TEXT    NOT NULL,
	updated_at TEXT    NOT NULL
)`

// SQLiteBackend stores the document as one row keyed by the namespaced key.
// Compare-and-swap is an UPDATE guarded by the expected version.
type SQLiteBackend struct {
	db  *sql.DB
	key string
}

// OpenSQLite opens (and migrates) a SQLite database at path
func OpenSQLite(ctx context.Context, path, key string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	// SQLite serialises writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", sqliteBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	if key == "" {
		key = DefaultKey
	}
	return &SQLiteBackend{db: db, key: key}, nil
}

// Load implements Backend
func (b *SQLiteBackend) Load(ctx context.Context) ([]byte, int64, error) {
	var (
		value   string
		version int64
	)
	err := b.db.QueryRowContext(ctx,
		"SELECT value, version FROM settings WHERE key = ?", b.key,
	).Scan(&value, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: load settings: %w", err)
	}
	return []byte(value), version, nil
}

// Save implements Backend
func (b *SQLiteBackend) Save(ctx context.Context, data []byte, expected int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var (
		result sql.Result
		err    error
	)
	if expected == 0 {
		result, err = b.db.ExecContext(ctx, `
			INSERT INTO settings (key, version, value, updated_at)
			VALUES (?, 1, ?, ?)
			ON CONFLICT(key) DO NOTHING`,
			b.key, string(data), now,
		)
	} else {
		result, err = b.db.ExecContext(ctx, `
			UPDATE settings SET version = version + 1, value = ?, updated_at = ?
			WHERE key = ? AND version = ?`,
			string(data), now, b.key, expected,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: save settings: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return 0, ErrVersionConflict
	}
	return expected + 1, nil
}

// Close implements Backend
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

var _ Backend = (*SQLiteBackend)(nil)
