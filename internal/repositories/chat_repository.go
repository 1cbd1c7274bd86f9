package repositories

import (
	"errors"
	"time"

	"homepro_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRoomNotFound = errors.New("chat room not found")

type ChatRepository interface {
	// EnsureRoom returns the project's room, creating it if absent.
	EnsureRoom(projectID string) (*models.ChatRoom, error)
	FindRoomByID(id string) (*models.ChatRoom, error)
	FindRoomByProjectID(projectID string) (*models.ChatRoom, error)

	// EnsureMember idempotently adds a member; created reports whether
	// the membership row was newly inserted.
	EnsureMember(roomID, userID string) (created bool, err error)
	IsMember(roomID, userID string) (bool, error)
	TouchLastSeen(roomID, userID string, at time.Time) error

	CreateMessage(message *models.ChatMessage) error
	// FindMessagesBefore returns up to limit messages created strictly
	// before the cursor, in chronological order, plus a flag indicating
	// that older history remains.
	FindMessagesBefore(roomID string, before time.Time, limit int) ([]models.ChatMessage, bool, error)
	CountMessages(roomID string) (int64, error)
}

type ChatRepositoryImpl struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &ChatRepositoryImpl{db: db}
}

func (r *ChatRepositoryImpl) EnsureRoom(projectID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.Where(models.ChatRoom{ProjectID: projectID}).
		FirstOrCreate(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *ChatRepositoryImpl) FindRoomByID(id string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.Preload("Project").First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *ChatRepositoryImpl) FindRoomByProjectID(projectID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.Preload("Project").First(&room, "project_id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *ChatRepositoryImpl) EnsureMember(roomID, userID string) (bool, error) {
	now := time.Now()
	member := models.ChatMember{
		RoomID:     roomID,
		UserID:     userID,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	// ON CONFLICT DO NOTHING on the (room_id, user_id) unique index.
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&member)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ChatRepositoryImpl) IsMember(roomID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ChatMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ChatRepositoryImpl) TouchLastSeen(roomID, userID string, at time.Time) error {
	return r.db.Model(&models.ChatMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("last_seen_at", at).Error
}

func (r *ChatRepositoryImpl) CreateMessage(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *ChatRepositoryImpl) FindMessagesBefore(roomID string, before time.Time, limit int) ([]models.ChatMessage, bool, error) {
	var messages []models.ChatMessage
	// Fetch one extra row to detect remaining history.
	err := r.db.Where("room_id = ? AND created_at < ?", roomID, before).
		Order("created_at DESC").
		Limit(limit + 1).
		Find(&messages).Error
	if err != nil {
		return nil, false, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, hasMore, nil
}

func (r *ChatRepositoryImpl) CountMessages(roomID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChatMessage{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}
