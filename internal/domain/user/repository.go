package user

import (
	"context"
	"time"
)

// Repository defines the interface for user data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Create registers a new user
	Create(ctx context.Context, params CreateParams) (*User, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// TokenRepository persists refresh tokens. Tokens are stored hashed; the raw
// value only ever lives in the client.
type TokenRepository interface {
	// CreateToken stores a new refresh token for a user
	CreateToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) (*RefreshToken, error)

	// GetToken retrieves a refresh token by its hash
	GetToken(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// MarkUsed marks a token as consumed by a rotation
	MarkUsed(ctx context.Context, id int64) error

	// RevokeAllForUser revokes every outstanding token for a user
	RevokeAllForUser(ctx context.Context, userID int64) error

	// DeleteExpired removes tokens that expired before the cutoff
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
