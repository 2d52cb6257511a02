// Package service holds the business rules between the HTTP handlers and
// the repositories, external clients and auth utilities:
//
//	handler → service → repository / github / llm
//	                  ↘ auth (tokens, passwords)
//
// Services never see HTTP types. They return apperror values which the
// handler layer maps to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
	"github.com/sakif/repo-explainer/internal/auth"
	"github.com/sakif/repo-explainer/internal/repository"
)

var errBadCredentials = apperror.Unauthorized("Invalid email or password")

type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is what a handler needs to start a session.
type AuthResult struct {
	Identity auth.Identity
	Token    string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a credentials account, or adds a password to an
// account first seen through OAuth. An account that already has a
// password yields apperror.ErrConflict and keeps its hash.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Email and password are required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user, err := s.users.SetPassword(ctx, email, hash)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("registration failed", zap.Error(err))
		return nil, apperror.Internal("Registration failed")
	}

	s.logger.Info("account registered", zap.String("userID", user.ID))
	return s.issue(auth.Identity{UserID: user.ID, Email: user.Email})
}

// Login checks credentials. Unknown email, OAuth-only account and wrong
// password all answer the same 401.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}
	if !user.HasPassword() {
		return nil, errBadCredentials
	}
	if err := s.passwords.Verify(*user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	return s.issue(auth.Identity{UserID: user.ID, Email: user.Email})
}

// OAuthLogin signs in a provider user. With an email the local account is
// created on first sight; without one the provider id is the identity.
func (s *AuthService) OAuthLogin(ctx context.Context, pu *auth.ProviderUser) (*AuthResult, error) {
	if pu == nil || pu.ID == "" {
		return nil, fmt.Errorf("service/auth: provider user must not be empty")
	}

	email := normalizeEmail(pu.Email)
	if email == "" {
		return s.issue(auth.Identity{UserID: pu.ID})
	}

	user, err := s.users.Ensure(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: ensuring account for %s: %w", pu.ID, err)
	}
	s.logger.Info("user authenticated via OAuth", zap.String("userID", user.ID), zap.String("provider", pu.ID))
	return s.issue(auth.Identity{UserID: user.ID, Email: user.Email})
}

func (s *AuthService) issue(id auth.Identity) (*AuthResult, error) {
	token, err := s.tokens.Generate(id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token: %w", err)
	}
	return &AuthResult{Identity: id, Token: token}, nil
}
