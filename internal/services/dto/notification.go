package dto

import "homepro_backend/internal/models"

// RecordNotificationInput is one durable feed entry to append.
type RecordNotificationInput struct {
	UserID  string                 `json:"user_id,omitempty"` // empty = staff-wide
	Type    string                 `json:"type" binding:"required"`
	Title   string                 `json:"title" binding:"required"`
	Message string                 `json:"message" binding:"required"`
	Link    string                 `json:"link,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"page_size"`
}
