package models

import "time"

type PushPlatform string

const (
	PushPlatformIOS     PushPlatform = "ios"
	PushPlatformAndroid PushPlatform = "android"
	PushPlatformWeb     PushPlatform = "web"
)

// ValidPushPlatform reports whether platform is a supported value.
func ValidPushPlatform(platform PushPlatform) bool {
	switch platform {
	case PushPlatformIOS, PushPlatformAndroid, PushPlatformWeb:
		return true
	default:
		return false
	}
}

// PushToken is one registered device. A device re-registering with the
// same DeviceID supersedes its previous row instead of duplicating it.
type PushToken struct {
	ID        string       `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string       `gorm:"type:uuid;index;not null" json:"user_id"`
	Platform  PushPlatform `gorm:"type:varchar(10);not null" json:"platform"`
	DeviceID  string       `gorm:"index" json:"device_id,omitempty"`
	Token     string       `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
