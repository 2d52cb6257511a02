// Package sqlite implements the repository interfaces on an embedded
// SQLite database (modernc.org/sqlite, pure Go, no cgo). It backs local
// development and single-node deployments; production uses postgres.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sakif/repo-explainer/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB owns the SQLite connection.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath. ":memory:" gives a
// private in-memory database, which the tests use.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite serializes writers anyway, and every new connection to
	// ":memory:" would see an empty database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) History() repository.HistoryRepository {
	return &HistoryDB{conn: db.conn}
}

func (db *DB) Users() repository.UserRepository {
	return &UserDB{conn: db.conn}
}

// Migrate creates the tables and indexes. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("sqlite: creating users table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_search_history (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			repo_url    TEXT NOT NULL,
			repo_name   TEXT NOT NULL,
			repo_owner  TEXT NOT NULL,
			search_date DATETIME NOT NULL,
			explanation TEXT NOT NULL,
			metadata    TEXT NOT NULL DEFAULT '{}',
			UNIQUE (user_id, repo_url)
		);
		CREATE INDEX IF NOT EXISTS idx_user_search_history_user_id ON user_search_history(user_id);
		CREATE INDEX IF NOT EXISTS idx_user_search_history_search_date ON user_search_history(search_date);
	`)
	if err != nil {
		return fmt.Errorf("sqlite: creating user_search_history table: %w", err)
	}

	return nil
}
