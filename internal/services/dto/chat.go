package dto

import (
	"time"

	"homepro_backend/internal/models"
)

// ChatFrame is the wire format exchanged over the live channel, both
// inbound and outbound.
type ChatFrame struct {
	Type      models.MessageKind `json:"type"`
	RoomID    string             `json:"roomId"`
	UserID    string             `json:"userId"`
	UserName  string             `json:"userName"`
	UserRole  string             `json:"userRole"`
	Content   string             `json:"content,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// HistoryRequest holds the cursor pagination parameters.
type HistoryRequest struct {
	Before time.Time `form:"before"`
	Limit  int       `form:"limit"`
}

type HistoryResponse struct {
	Messages []models.ChatMessage `json:"messages"`
	HasMore  bool                 `json:"has_more"`
}

type JoinRoomResponse struct {
	RoomID string `json:"room_id"`
	Joined bool   `json:"joined"` // false when the caller was already a member
}

type RoomResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}
