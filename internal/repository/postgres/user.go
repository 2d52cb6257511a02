package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

type UserDB struct {
	conn *sqlx.DB
}

func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := u.conn.GetContext(ctx, &user,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1 LIMIT 1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return &user, nil
}

func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("user", id)
	}

	var user model.User
	err := u.conn.GetContext(ctx, &user,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return &user, nil
}

const setPasswordQuery = `
	INSERT INTO users (email, password_hash)
	VALUES ($1, $2)
	ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
	WHERE users.password_hash IS NULL OR users.password_hash = ''
	RETURNING id, email, password_hash, created_at`

func (u *UserDB) SetPassword(ctx context.Context, email, passwordHash string) (*model.User, error) {
	var user model.User
	err := u.conn.GetContext(ctx, &user, setPasswordQuery, email, passwordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.Conflict("User already exists")
		}
		return nil, fmt.Errorf("postgres: setting password: %w", err)
	}
	return &user, nil
}

func (u *UserDB) Ensure(ctx context.Context, email string) (*model.User, error) {
	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (email) VALUES ($1) ON CONFLICT (email) DO NOTHING`, email)
	if err != nil {
		return nil, fmt.Errorf("postgres: ensuring user: %w", err)
	}
	return u.GetByEmail(ctx, email)
}
