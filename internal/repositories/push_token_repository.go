package repositories

import (
	"errors"
	"time"

	"homepro_backend/internal/models"

	"gorm.io/gorm"
)

var ErrPushTokenNotFound = errors.New("push token not found")

type PushTokenRepository interface {
	// Register stores a device token. A device re-registering (same
	// user and device id, or same token value) supersedes its old row.
	Register(token *models.PushToken) error
	FindByUserIDs(userIDs []string) ([]models.PushToken, error)
	DeleteByToken(token string) error
}

type PushTokenRepositoryImpl struct {
	db *gorm.DB
}

func NewPushTokenRepository(db *gorm.DB) PushTokenRepository {
	return &PushTokenRepositoryImpl{db: db}
}

func (r *PushTokenRepositoryImpl) Register(token *models.PushToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Drop rows this registration supersedes.
		if token.DeviceID != "" {
			if err := tx.Where("user_id = ? AND device_id = ?", token.UserID, token.DeviceID).
				Delete(&models.PushToken{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("token = ?", token.Token).
			Delete(&models.PushToken{}).Error; err != nil {
			return err
		}

		token.CreatedAt = time.Now()
		token.UpdatedAt = token.CreatedAt
		return tx.Create(token).Error
	})
}

func (r *PushTokenRepositoryImpl) FindByUserIDs(userIDs []string) ([]models.PushToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var tokens []models.PushToken
	err := r.db.Where("user_id IN ?", userIDs).Find(&tokens).Error
	return tokens, err
}

func (r *PushTokenRepositoryImpl) DeleteByToken(token string) error {
	res := r.db.Where("token = ?", token).Delete(&models.PushToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPushTokenNotFound
	}
	return nil
}
