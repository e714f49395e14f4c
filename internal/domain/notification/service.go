package notification

import (
	"context"
	"fmt"
	"log"
)

// Service contains the business logic for push notification operations.
// When messenger is nil (no Firebase credentials configured) every send
// becomes a silent no-op; registration still works so tokens are ready once
// push is enabled.
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a new notification service
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// RegisterDevice registers a device token for the authenticated user.
// If the token already belongs to another user, it is reassigned.
func (s *Service) RegisterDevice(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return s.repo.UpsertDeviceToken(ctx, params)
}

// ImportCompleted pushes an import summary to the importing user's devices.
// Failures are logged and swallowed: a lost push never fails an import.
func (s *Service) ImportCompleted(ctx context.Context, userID int64, accountName string, imported, snapshotDays int) {
	if s.messenger == nil {
		return
	}

	tokens, err := s.repo.ListActiveTokens(ctx, userID)
	if err != nil {
		log.Printf("Failed to list device tokens for user %d: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := "Statement imported"
	body := fmt.Sprintf("%s: %d transactions imported, %d days of balance history updated", accountName, imported, snapshotDays)
	data := map[string]string{"type": "import_completed"}

	if err := s.messenger.SendMulticast(ctx, tokens, title, body, data); err != nil {
		log.Printf("Failed to push import notification to user %d: %v", userID, err)
	}
}
