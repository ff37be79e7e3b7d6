// internal/localstore/sqlite.go
//
// SQLite-backed Backend: durable saved games that survive restarts. The
// table is created on open so the backend is self-contained and does not
// participate in the server's migration set.

package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type sqliteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend wraps an open database handle as a Backend.
func NewSQLiteBackend(db *sql.DB) (Backend, error) {
	const schema = `
        CREATE TABLE IF NOT EXISTS saved_games (
            namespace  TEXT NOT NULL,
            puzzle_id  TEXT NOT NULL,
            payload    BLOB NOT NULL,
            updated_at TEXT NOT NULL,
            PRIMARY KEY (namespace, puzzle_id)
        );`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create saved_games: %w", err)
	}
	return &sqliteBackend{db: db}, nil
}

func (s *sqliteBackend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM saved_games WHERE namespace=? AND puzzle_id=?`,
		namespace, key,
	).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *sqliteBackend) Put(ctx context.Context, namespace, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO saved_games (namespace, puzzle_id, payload, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(namespace, puzzle_id) DO UPDATE SET
            payload=excluded.payload, updated_at=excluded.updated_at`,
		namespace, key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqliteBackend) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_games WHERE namespace=? AND puzzle_id=?`, namespace, key)
	return err
}

func (s *sqliteBackend) List(ctx context.Context, namespace string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT puzzle_id, payload FROM saved_games WHERE namespace=?`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]byte{}
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
