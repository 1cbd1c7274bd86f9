package database

import (
	"homepro_backend/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the chat core touches.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ChatRoom{},
		&models.ChatMember{},
		&models.ChatMessage{},
		&models.PushToken{},
		&models.Notification{},
	)
}
