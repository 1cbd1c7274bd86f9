package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"homepro_backend/internal/logger"
	"homepro_backend/internal/models"
	"homepro_backend/internal/repositories"
	"homepro_backend/internal/services/dto"
	"homepro_backend/pkg/apperrors"

	"github.com/samber/lo"
)

// Broadcaster fans an outbound frame out to every live subscriber of a
// room. The websocket hub implements it.
type Broadcaster interface {
	BroadcastToRoom(roomID string, frame *dto.ChatFrame)
}

type ChatService interface {
	// EnsureRoomForProject returns the project's room, creating it (and
	// the customer's implicit membership) on first use.
	EnsureRoomForProject(projectID, callerID string, callerRole models.UserRole) (*dto.RoomResponse, error)

	// Join idempotently adds a staff member to a room. The first join
	// persists a join system message; every join broadcasts a join
	// frame to live subscribers.
	Join(roomID, userID, userName string, role models.UserRole) (*dto.JoinRoomResponse, error)

	// GetHistory pages through a room's messages, oldest first.
	GetHistory(roomID, callerID string, callerRole models.UserRole, req dto.HistoryRequest) (*dto.HistoryResponse, error)

	// HandleMessage runs the message pipeline for one inbound chat
	// frame: persist, compute fan-out targets, push, record a feed
	// entry, broadcast. Downstream failures are logged, never
	// propagated; the live broadcast happens regardless, except when
	// the room no longer exists.
	HandleMessage(ctx context.Context, frame *dto.ChatFrame)

	// TouchLastSeen stamps a member's last-seen time, best-effort.
	TouchLastSeen(roomID, userID string)
}

type chatService struct {
	chatRepo        repositories.ChatRepository
	projectRepo     repositories.ProjectRepository
	userRepo        repositories.UserRepository
	notificationSvc NotificationService
	pushSvc         PushService
	presence        *PresenceTracker
	broadcaster     Broadcaster
	historyPageSize int
}

func NewChatService(
	chatRepo repositories.ChatRepository,
	projectRepo repositories.ProjectRepository,
	userRepo repositories.UserRepository,
	notificationSvc NotificationService,
	pushSvc PushService,
	presence *PresenceTracker,
	broadcaster Broadcaster,
	historyPageSize int,
) ChatService {
	return &chatService{
		chatRepo:        chatRepo,
		projectRepo:     projectRepo,
		userRepo:        userRepo,
		notificationSvc: notificationSvc,
		pushSvc:         pushSvc,
		presence:        presence,
		broadcaster:     broadcaster,
		historyPageSize: historyPageSize,
	}
}

func (s *chatService) EnsureRoomForProject(projectID, callerID string, callerRole models.UserRole) (*dto.RoomResponse, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrProjectNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if !models.IsStaffRole(callerRole) && project.CustomerID != callerID {
		return nil, apperrors.NewForbiddenError("Not a participant of this project")
	}

	room, err := s.chatRepo.EnsureRoom(projectID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// The project owner is an implicit, constant member of the room.
	if _, err := s.chatRepo.EnsureMember(room.ID, project.CustomerID); err != nil {
		logger.Error("failed to ensure customer membership", "room_id", room.ID, "error", err)
	}

	return &dto.RoomResponse{
		ID:        room.ID,
		ProjectID: room.ProjectID,
		CreatedAt: room.CreatedAt,
	}, nil
}

func (s *chatService) Join(roomID, userID, userName string, role models.UserRole) (*dto.JoinRoomResponse, error) {
	if !models.IsStaffRole(role) {
		return nil, apperrors.NewForbiddenError("Only staff may join rooms on demand")
	}

	if _, err := s.chatRepo.FindRoomByID(roomID); err != nil {
		if apperrors.Is(err, repositories.ErrRoomNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	created, err := s.chatRepo.EnsureMember(roomID, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	frame := &dto.ChatFrame{
		Type:      models.MessageKindJoin,
		RoomID:    roomID,
		UserID:    userID,
		UserName:  userName,
		UserRole:  string(role),
		Timestamp: time.Now(),
	}

	// Only the first join lands in history; reconnects would flood it.
	if created {
		msg := &models.ChatMessage{
			RoomID:     roomID,
			SenderID:   userID,
			SenderName: userName,
			SenderRole: role,
			Kind:       models.MessageKindJoin,
			Content:    fmt.Sprintf("%s joined the conversation", userName),
			CreatedAt:  frame.Timestamp,
		}
		if err := s.chatRepo.CreateMessage(msg); err != nil {
			logger.Error("failed to persist join message", "room_id", roomID, "user_id", userID, "error", err)
		}
	}

	s.broadcaster.BroadcastToRoom(roomID, frame)

	return &dto.JoinRoomResponse{
		RoomID: roomID,
		Joined: created,
	}, nil
}

func (s *chatService) GetHistory(roomID, callerID string, callerRole models.UserRole, req dto.HistoryRequest) (*dto.HistoryResponse, error) {
	room, err := s.chatRepo.FindRoomByID(roomID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrRoomNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.authorizeRead(room, callerID, callerRole); err != nil {
		return nil, err
	}

	before := req.Before
	if before.IsZero() {
		before = time.Now()
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = s.historyPageSize
	}

	messages, hasMore, err := s.chatRepo.FindMessagesBefore(roomID, before, limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.HistoryResponse{
		Messages: messages,
		HasMore:  hasMore,
	}, nil
}

// authorizeRead allows staff, room members and the project owner.
func (s *chatService) authorizeRead(room *models.ChatRoom, callerID string, callerRole models.UserRole) error {
	if models.IsStaffRole(callerRole) {
		return nil
	}
	if room.Project != nil && room.Project.CustomerID == callerID {
		return nil
	}
	member, err := s.chatRepo.IsMember(room.ID, callerID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if !member {
		return apperrors.NewForbiddenError("Not a member of this room")
	}
	return nil
}

func (s *chatService) HandleMessage(ctx context.Context, frame *dto.ChatFrame) {
	if frame.Type != models.MessageKindMessage || strings.TrimSpace(frame.Content) == "" {
		return
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}

	// Step 1: the room may have been deleted concurrently; if it is
	// gone the whole pipeline is suppressed, broadcast included.
	room, err := s.chatRepo.FindRoomByID(frame.RoomID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrRoomNotFound) {
			logger.CtxDebug(ctx, "dropping message for unknown room", "room_id", frame.RoomID)
			return
		}
		// Store outage: the live broadcast still has to happen, but
		// nothing downstream can run without the room record.
		logger.CtxWithError(ctx, "room lookup failed, broadcasting only", err, "room_id", frame.RoomID)
		s.broadcaster.BroadcastToRoom(frame.RoomID, frame)
		return
	}

	// Step 2: persist before broadcast so per-sender order is the same
	// on both paths.
	msg := &models.ChatMessage{
		RoomID:     frame.RoomID,
		SenderID:   frame.UserID,
		SenderName: frame.UserName,
		SenderRole: models.UserRole(frame.UserRole),
		Kind:       models.MessageKindMessage,
		Content:    frame.Content,
		CreatedAt:  frame.Timestamp,
	}
	if err := s.chatRepo.CreateMessage(msg); err != nil {
		logger.CtxWithError(ctx, "failed to persist chat message", err, "room_id", frame.RoomID)
	}

	// Step 6 first in code, steps 3-5 follow asynchronously: slow
	// push/store calls must not delay live delivery.
	s.broadcaster.BroadcastToRoom(frame.RoomID, frame)

	go s.notifyOffline(context.WithoutCancel(ctx), room, frame)
}

// notifyOffline runs pipeline steps 3-5: compute the offline staff
// target set, dispatch pushes, and append the dashboard feed entry.
func (s *chatService) notifyOffline(ctx context.Context, room *models.ChatRoom, frame *dto.ChatFrame) {
	serviceName := "your project"
	projectID := room.ProjectID
	if room.Project != nil && room.Project.ServiceName != "" {
		serviceName = room.Project.ServiceName
	}

	// Step 3: staff roster minus whoever is watching the room right
	// now. Staff who never joined the room are still informed.
	staff, err := s.userRepo.FindStaff()
	if err != nil {
		logger.CtxWithError(ctx, "failed to load staff roster for push fan-out", err, "room_id", frame.RoomID)
		staff = nil
	}

	targets := lo.FilterMap(staff, func(u models.User, _ int) (string, bool) {
		if u.ID == frame.UserID {
			return "", false
		}
		if s.presence.IsActive(frame.RoomID, u.ID) {
			return "", false
		}
		return u.ID, true
	})

	// Step 4: best-effort push to everyone not watching.
	if len(targets) > 0 {
		err := s.pushSvc.DispatchToUsers(ctx, targets,
			serviceName,
			fmt.Sprintf("%s: %s", frame.UserName, frame.Content),
			map[string]string{
				"type":      models.NotificationTypeNewMessage,
				"roomId":    frame.RoomID,
				"projectId": projectID,
			},
		)
		if err != nil {
			logger.CtxWithError(ctx, "push dispatch failed", err, "room_id", frame.RoomID)
		}
	}

	// Step 5: the durable dashboard entry is written regardless of
	// presence; it is the fallback when push never arrives.
	_, err = s.notificationSvc.Record(&dto.RecordNotificationInput{
		Type:    models.NotificationTypeNewMessage,
		Title:   fmt.Sprintf("New message on %s", serviceName),
		Message: fmt.Sprintf("%s: %s", frame.UserName, frame.Content),
		Link:    fmt.Sprintf("/projects/%s/chat", projectID),
		Data: map[string]interface{}{
			"room_id":    frame.RoomID,
			"project_id": projectID,
			"sender_id":  frame.UserID,
		},
	})
	if err != nil {
		logger.CtxWithError(ctx, "failed to record chat notification", err, "room_id", frame.RoomID)
	}
}

func (s *chatService) TouchLastSeen(roomID, userID string) {
	if err := s.chatRepo.TouchLastSeen(roomID, userID, time.Now()); err != nil {
		logger.Warn("failed to update last seen", "room_id", roomID, "user_id", userID, "error", err)
	}
}
