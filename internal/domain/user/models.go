package user

import (
	"errors"
	"net/mail"
	"time"
)

// Domain errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidEmail    = errors.New("valid email is required")
	ErrTokenNotFound   = errors.New("refresh token not found")
	ErrTokenExpired    = errors.New("refresh token expired")
	ErrTokenRevoked    = errors.New("refresh token revoked")
	ErrTokenUsed       = errors.New("refresh token already used")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
	ErrInvalidPassword = errors.New("invalid email or password")
)

// User represents a registered user
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken is an opaque, single-use token persisted server-side. Rotation
// marks the presented token used and issues a replacement; logout revokes the
// whole chain for the user.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Valid reports whether the token can still be exchanged at the given moment.
func (t *RefreshToken) Valid(now time.Time) error {
	switch {
	case t.RevokedAt != nil:
		return ErrTokenRevoked
	case t.UsedAt != nil:
		return ErrTokenUsed
	case now.After(t.ExpiresAt):
		return ErrTokenExpired
	}
	return nil
}

// CreateParams contains parameters for registering a new user
type CreateParams struct {
	Email        string
	Name         string
	PasswordHash string
}

// Validate validates the registration parameters
func (p CreateParams) Validate() error {
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return ErrInvalidEmail
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
