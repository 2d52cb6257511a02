// Package postgres implements the repository interfaces on a managed
// PostgreSQL database through sqlx and lib/pq.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sakif/repo-explainer/internal/repository"
)

var _ repository.Store = (*DB)(nil)

type DB struct {
	conn *sqlx.DB
}

// PoolConfig sizes the per-process connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    25,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// New opens a pool for dsn without connecting; call Ping to verify.
func New(dsn string, pool PoolConfig) (*DB, error) {
	conn, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	conn.SetMaxOpenConns(pool.MaxOpenConns)
	conn.SetMaxIdleConns(pool.MaxIdleConns)
	conn.SetConnMaxLifetime(pool.ConnMaxLifetime)

	return &DB{conn: conn}, nil
}

// NewFromConn wraps an existing sqlx handle. Tests pass a sqlmock one.
func NewFromConn(conn *sqlx.DB) *DB {
	return &DB{conn: conn}
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

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID DEFAULT gen_random_uuid() PRIMARY KEY,
		email         TEXT UNIQUE NOT NULL,
		password_hash TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_search_history (
		id          UUID DEFAULT gen_random_uuid() PRIMARY KEY,
		user_id     VARCHAR(255) NOT NULL,
		repo_url    TEXT NOT NULL,
		repo_name   VARCHAR(255) NOT NULL,
		repo_owner  VARCHAR(255) NOT NULL,
		search_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		explanation TEXT NOT NULL,
		metadata    JSONB,
		UNIQUE (user_id, repo_url)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_search_history_user_id ON user_search_history(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_search_history_search_date ON user_search_history(search_date)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migration %d: %w", i, err)
		}
	}
	return nil
}
