// Package store handles SQLite persistence for personal word frequencies.
//
// The engine itself ranks against an in-memory frequency store; this package
// is the durable copy behind it. The server loads it once at startup and
// writes through on every learned selection, so scoring never waits on disk.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for personal frequency data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS personal_freq (
			word TEXT PRIMARY KEY,
			count INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_personal_freq_count ON personal_freq(count);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Increment adds delta to a word's selection count and returns the new
// count. Counts never go below zero.
func (s *Store) Increment(ctx context.Context, word string, delta int) (int, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO personal_freq (word, count, updated_at)
		 VALUES (?, MAX(0, ?), ?)
		 ON CONFLICT(word) DO UPDATE SET
			count = MAX(0, count + ?),
			updated_at = excluded.updated_at`,
		word, delta, time.Now().Format(time.RFC3339Nano), delta,
	)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx,
		`SELECT count FROM personal_freq WHERE word = ?`, word,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LoadAll returns every stored word with its selection count.
func (s *Store) LoadAll(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, count FROM personal_freq`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	counts := make(map[string]int)
	for rows.Next() {
		var word string
		var count int
		if err := rows.Scan(&word, &count); err != nil {
			return nil, err
		}
		counts[word] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// Reset deletes all stored frequencies.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM personal_freq`)
	return err
}
