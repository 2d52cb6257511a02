package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/repository"
	"github.com/sakif/repo-explainer/internal/repository/postgres"
	"github.com/sakif/repo-explainer/internal/repository/sqlite"
)

// connectTimeout bounds the whole ping-with-retry loop at startup.
const connectTimeout = 30 * time.Second

// OpenStore picks the repository implementation from the URL scheme:
//
//	postgres://… or postgresql://…  → PostgreSQL
//	sqlite://<path> or a bare path  → SQLite (parent directory created)
//
// The connection is pinged with exponential backoff so a database that is
// still starting does not fail the process.
func OpenStore(ctx context.Context, databaseURL string, logger *zap.Logger) (repository.Store, error) {
	store, kind, err := openByScheme(databaseURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	ping := func() error { return store.Ping(ctx) }
	notify := func(err error, wait time.Duration) {
		logger.Warn("database not reachable yet, retrying",
			zap.String("driver", kind),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(backoff.NewExponentialBackOff(), ctx), notify); err != nil {
		store.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", kind, err)
	}

	logger.Info("database connected", zap.String("driver", kind))
	return store, nil
}

func openByScheme(databaseURL string) (repository.Store, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		db, err := postgres.New(databaseURL, postgres.DefaultPoolConfig())
		if err != nil {
			return nil, "", err
		}
		return db, "postgres", nil

	case databaseURL == "":
		return nil, "", fmt.Errorf("DATABASE_URL is empty")

	default:
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, "", fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(path)
		if err != nil {
			return nil, "", err
		}
		return db, "sqlite", nil
	}
}
