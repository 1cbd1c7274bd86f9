package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationTypeNewMessage    = "new_message"
	NotificationTypeProjectUpdate = "project_update"
	NotificationTypeSystem        = "system"
)

// Notification is a durable dashboard feed entry. An empty UserID means
// the entry targets the whole staff feed rather than a single user.
type Notification struct {
	ID        string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Type      string         `gorm:"type:varchar(50);not null;index" json:"type"`
	Title     string         `gorm:"not null" json:"title"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Link      string         `json:"link,omitempty"`
	Data      datatypes.JSON `json:"data,omitempty"`
	IsRead    bool           `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
