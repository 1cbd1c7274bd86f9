package models

import "time"

type MessageKind string

const (
	MessageKindMessage MessageKind = "message"
	MessageKindJoin    MessageKind = "join"
	MessageKindLeave   MessageKind = "leave"
	MessageKindTyping  MessageKind = "typing"
	MessageKindSystem  MessageKind = "system"
)

// ValidMessageKind reports whether kind is one of the known frame kinds.
func ValidMessageKind(kind MessageKind) bool {
	switch kind {
	case MessageKindMessage, MessageKindJoin, MessageKindLeave, MessageKindTyping, MessageKindSystem:
		return true
	default:
		return false
	}
}

// ChatRoom is bound one-to-one with a project. It is created when the
// project first needs staff/customer communication and lives as long as
// the project does.
type ChatRoom struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ProjectID string    `gorm:"type:uuid;uniqueIndex;not null" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`

	Project  *Project     `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Members  []ChatMember `gorm:"foreignKey:RoomID" json:"members,omitempty"`
}

// ChatMember records room membership. The customer is an implicit member
// of their own project's room; staff join on demand.
type ChatMember struct {
	ID         string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RoomID     string    `gorm:"type:uuid;index:idx_room_user,unique;not null" json:"room_id"`
	UserID     string    `gorm:"type:uuid;index:idx_room_user,unique;not null" json:"user_id"`
	JoinedAt   time.Time `json:"joined_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// ChatMessage is append-only; rows are never mutated after creation.
type ChatMessage struct {
	ID         string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	RoomID     string      `gorm:"type:uuid;index;not null" json:"room_id"`
	SenderID   string      `gorm:"type:uuid;index;not null" json:"sender_id"`
	SenderName string      `gorm:"not null" json:"sender_name"`
	SenderRole UserRole    `gorm:"type:varchar(20)" json:"sender_role"`
	Kind       MessageKind `gorm:"type:varchar(20);default:'message'" json:"kind"`
	Content    string      `gorm:"type:text" json:"content"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
}
