package push

import (
	"time"

	"github.com/google/uuid"
)

// Platform is the device class a token belongs to.
type Platform string

const (
	PlatformIOS     Platform = "IOS"
	PlatformAndroid Platform = "ANDROID"
	PlatformWeb     Platform = "WEB"
)

// ProviderName identifies the push provider a token is routed through.
type ProviderName string

const (
	ProviderFCM     ProviderName = "FCM"
	ProviderAPNS    ProviderName = "APNS"
	ProviderWebPush ProviderName = "WEB_PUSH"
)

// DeviceToken is one push-capable endpoint for a user. Tokens are upserted
// on registration and soft-deactivated on unregister, never hard-deleted.
type DeviceToken struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	Token      string       `json:"token"`
	Platform   Platform     `json:"platform"`
	Provider   ProviderName `json:"provider"`
	DeviceInfo string       `json:"device_info,omitempty"`
	IsActive   bool         `json:"is_active"`
	LastUsedAt *time.Time   `json:"last_used_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
