package model

import "time"

type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash *string   `json:"-"         db:"password_hash"` // nil for OAuth-only accounts
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// HasPassword reports whether the account was created with credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
