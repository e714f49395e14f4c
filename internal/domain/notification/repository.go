package notification

import "context"

// Repository defines the interface for device token data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// UpsertDeviceToken registers a token, reassigning it if it already
	// belongs to another user
	UpsertDeviceToken(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error)

	// ListActiveTokens returns the active push tokens of a user
	ListActiveTokens(ctx context.Context, userID int64) ([]string, error)

	// DeactivateToken marks a token inactive (e.g. after FCM reports it
	// unregistered)
	DeactivateToken(ctx context.Context, token string) error
}
