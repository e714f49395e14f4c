package postgres

import (
	"context"
	"fmt"

	"saldo/internal/domain/notification"
)

// DeviceTokenRepository implements the notification.Repository interface for PostgreSQL
type DeviceTokenRepository struct {
	db *DB
}

// NewDeviceTokenRepository creates a new PostgreSQL device token repository
func NewDeviceTokenRepository(db *DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

// UpsertDeviceToken registers a token. A token re-registered by a different
// user moves to the new user, since a physical device changed hands.
func (r *DeviceTokenRepository) UpsertDeviceToken(ctx context.Context, params notification.CreateDeviceTokenParams) (*notification.DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO device_tokens (user_id, token, platform, active)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    platform = EXCLUDED.platform,
		    active = TRUE,
		    updated_at = NOW()
		RETURNING id, user_id, token, platform, active, created_at, updated_at
	`

	var t notification.DeviceToken
	err := r.db.QueryRowContext(ctx, query, params.UserID, params.Token, params.Platform).Scan(
		&t.ID, &t.UserID, &t.Token, &t.Platform, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device token: %w", err)
	}

	return &t, nil
}

// ListActiveTokens returns the active push tokens of a user
func (r *DeviceTokenRepository) ListActiveTokens(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT token FROM device_tokens WHERE user_id = $1 AND active = TRUE`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

// DeactivateToken marks a token inactive
func (r *DeviceTokenRepository) DeactivateToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE device_tokens SET active = FALSE, updated_at = NOW() WHERE token = $1`, token,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate device token: %w", err)
	}
	return nil
}
