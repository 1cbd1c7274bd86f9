package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"homepro_backend/internal/models"
	"homepro_backend/internal/repositories"
	"homepro_backend/internal/services/dto"
	"homepro_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

type NotificationService interface {
	// Record appends a durable feed entry. It either succeeds or
	// returns an explicit persistence error for the caller to log.
	Record(input *dto.RecordNotificationInput) (*models.Notification, error)

	GetFeed(userID string, criteria repositories.NotificationCriteria) (*dto.NotificationListResponse, error)
	MarkAsRead(userID, notificationID string) error
	GetUnreadCount(userID string) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
	}
}

func (s *notificationService) Record(input *dto.RecordNotificationInput) (*models.Notification, error) {
	if input.Type == "" || input.Title == "" || input.Message == "" {
		return nil, apperrors.NewBadRequestError("notification type, title and message are required")
	}

	var dataJSON datatypes.JSON
	if input.Data != nil {
		raw, err := json.Marshal(input.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal notification data: %w", err)
		}
		dataJSON = datatypes.JSON(raw)
	}

	notification := &models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   input.Title,
		Message: input.Message,
		Link:    input.Link,
		Data:    dataJSON,
		IsRead:  false,
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}
	return notification, nil
}

func (s *notificationService) GetFeed(userID string, criteria repositories.NotificationCriteria) (*dto.NotificationListResponse, error) {
	notifications, total, err := s.notificationRepo.FindFeed(userID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.NotificationListResponse{
		Notifications: notifications,
		Total:         total,
		Page:          criteria.Page,
		PageSize:      criteria.PageSize,
	}, nil
}

func (s *notificationService) MarkAsRead(userID, notificationID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	// Staff-wide entries (empty UserID) are readable by any staff user;
	// personal entries only by their owner.
	if notification.UserID != "" && notification.UserID != userID {
		return apperrors.New(apperrors.CodeForbidden, "notification", "Access denied", http.StatusForbidden)
	}

	if err := s.notificationRepo.MarkAsRead(notificationID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	count, err := s.notificationRepo.GetUnreadCount(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}
