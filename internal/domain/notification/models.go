package notification

import (
	"errors"
	"time"
)

// DeviceToken links a user's device to its FCM push token.
type DeviceToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"` // "ios", "android" or "web"
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateDeviceTokenParams contains parameters for registering a device token
type CreateDeviceTokenParams struct {
	UserID   int64
	Token    string
	Platform string
}

// Validate validates the device token parameters
func (p CreateDeviceTokenParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if p.Token == "" {
		return errors.New("device token is required")
	}
	switch p.Platform {
	case "ios", "android", "web":
		return nil
	}
	return errors.New("platform must be ios, android or web")
}
