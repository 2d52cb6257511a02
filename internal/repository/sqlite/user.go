package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, email, password_hash, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u    model.User
		hash sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &hash, &u.CreatedAt); err != nil {
		return nil, err
	}
	if hash.Valid {
		u.PasswordHash = &hash.String
	}
	return &u, nil
}

func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

func (u *UserDB) SetPassword(ctx context.Context, email, passwordHash string) (*model.User, error) {
	// The WHERE on DO UPDATE leaves an existing password alone; in that
	// case no row comes back.
	user, err := scanUser(u.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (email) DO UPDATE SET password_hash = excluded.password_hash
		 WHERE users.password_hash IS NULL OR users.password_hash = ''
		 RETURNING `+userColumns,
		uuid.New().String(), email, passwordHash, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.Conflict("User already exists")
		}
		return nil, fmt.Errorf("sqlite: setting password: %w", err)
	}
	return user, nil
}

func (u *UserDB) Ensure(ctx context.Context, email string) (*model.User, error) {
	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (email) DO NOTHING`,
		uuid.New().String(), email, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: ensuring user: %w", err)
	}
	return u.GetByEmail(ctx, email)
}
