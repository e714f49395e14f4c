package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"saldo/internal/domain/user"
)

// RefreshTokenRepository implements the user.TokenRepository interface for PostgreSQL
type RefreshTokenRepository struct {
	db *DB
}

// NewRefreshTokenRepository creates a new PostgreSQL refresh token repository
func NewRefreshTokenRepository(db *DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// CreateToken stores a new refresh token for a user
func (r *RefreshTokenRepository) CreateToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) (*user.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token_hash, expires_at, used_at, revoked_at, created_at
	`

	var t user.RefreshToken
	var usedAt, revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, tokenHash, expiresAt).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &usedAt, &revokedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}
	applyNullTimes(&t, usedAt, revokedAt)

	return &t, nil
}

// GetToken retrieves a refresh token by its hash
func (r *RefreshTokenRepository) GetToken(ctx context.Context, tokenHash string) (*user.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, used_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	var t user.RefreshToken
	var usedAt, revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &usedAt, &revokedAt, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, user.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	applyNullTimes(&t, usedAt, revokedAt)

	return &t, nil
}

// MarkUsed marks a token as consumed by a rotation
func (r *RefreshTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark refresh token used: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check token update: %w", err)
	}
	if affected == 0 {
		return user.ErrTokenNotFound
	}
	return nil
}

// RevokeAllForUser revokes every outstanding token for a user
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens that expired before the cutoff
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted tokens: %w", err)
	}
	return affected, nil
}

func applyNullTimes(t *user.RefreshToken, usedAt, revokedAt sql.NullTime) {
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
}
