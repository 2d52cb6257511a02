// Package repository declares the persistence contracts. Implementations
// live in the postgres and sqlite subpackages; services depend only on
// these interfaces.
package repository

import (
	"context"

	"github.com/sakif/repo-explainer/internal/model"
)

// HistoryLimit caps how many entries ListByUser returns.
const HistoryLimit = 50

// HistoryRepository stores search history keyed by (userID, repoURL).
type HistoryRepository interface {
	// Upsert inserts the entry or, when (UserID, RepoURL) already exists,
	// overwrites its explanation, metadata and search date. It fills in
	// entry.ID and entry.SearchDate.
	Upsert(ctx context.Context, entry *model.SearchHistoryEntry) error
	// ListByUser returns at most HistoryLimit entries, newest first.
	ListByUser(ctx context.Context, userID string) ([]model.SearchHistoryEntry, error)
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
	DeleteByRepoURL(ctx context.Context, userID, repoURL string) (int64, error)
	// DeleteByID returns apperror.ErrNotFound when no entry with that id
	// belongs to userID.
	DeleteByID(ctx context.Context, userID, id string) error
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	// SetPassword creates the account or sets the password of an existing
	// password-less account. It returns apperror.ErrConflict when the
	// account already has a password; the stored hash is left untouched.
	SetPassword(ctx context.Context, email, passwordHash string) (*model.User, error)
	// Ensure returns the account for email, creating a password-less one
	// on first sight (OAuth logins).
	Ensure(ctx context.Context, email string) (*model.User, error)
}

// Store bundles both repositories behind one connection.
type Store interface {
	History() HistoryRepository
	Users() UserRepository
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
