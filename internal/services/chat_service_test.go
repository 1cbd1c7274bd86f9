package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"homepro_backend/internal/models"
	"homepro_backend/internal/repositories"
	"homepro_backend/internal/services/dto"
	"homepro_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------

type fakeChatRepo struct {
	mu       sync.Mutex
	rooms    map[string]*models.ChatRoom
	members  map[string]map[string]bool
	messages []models.ChatMessage
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		rooms:   make(map[string]*models.ChatRoom),
		members: make(map[string]map[string]bool),
	}
}

func (f *fakeChatRepo) addRoom(room *models.ChatRoom) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = room
}

func (f *fakeChatRepo) EnsureRoom(projectID string) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, room := range f.rooms {
		if room.ProjectID == projectID {
			return room, nil
		}
	}
	room := &models.ChatRoom{ID: "room-" + projectID, ProjectID: projectID, CreatedAt: time.Now()}
	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeChatRepo) FindRoomByID(id string) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, repositories.ErrRoomNotFound
	}
	return room, nil
}

func (f *fakeChatRepo) FindRoomByProjectID(projectID string) (*models.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, room := range f.rooms {
		if room.ProjectID == projectID {
			return room, nil
		}
	}
	return nil, repositories.ErrRoomNotFound
}

func (f *fakeChatRepo) EnsureMember(roomID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[roomID] == nil {
		f.members[roomID] = make(map[string]bool)
	}
	if f.members[roomID][userID] {
		return false, nil
	}
	f.members[roomID][userID] = true
	return true, nil
}

func (f *fakeChatRepo) IsMember(roomID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[roomID][userID], nil
}

func (f *fakeChatRepo) TouchLastSeen(roomID, userID string, at time.Time) error {
	return nil
}

func (f *fakeChatRepo) CreateMessage(message *models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *message)
	return nil
}

func (f *fakeChatRepo) FindMessagesBefore(roomID string, before time.Time, limit int) ([]models.ChatMessage, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matching []models.ChatMessage
	for _, m := range f.messages {
		if m.RoomID == roomID && m.CreatedAt.Before(before) {
			matching = append(matching, m)
		}
	}
	hasMore := len(matching) > limit
	if hasMore {
		matching = matching[len(matching)-limit:]
	}
	return matching, hasMore, nil
}

func (f *fakeChatRepo) CountMessages(roomID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, m := range f.messages {
		if m.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

func (f *fakeChatRepo) messagesOfKind(roomID string, kind models.MessageKind) []models.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range f.messages {
		if m.RoomID == roomID && m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

type fakeProjectRepo struct {
	projects map[string]*models.Project
}

func (f *fakeProjectRepo) Create(project *models.Project) error {
	f.projects[project.ID] = project
	return nil
}

func (f *fakeProjectRepo) FindByID(id string) (*models.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return nil, repositories.ErrProjectNotFound
	}
	return project, nil
}

type fakeUserRepo struct {
	staff []models.User
}

func (f *fakeUserRepo) Create(user *models.User) error          { return nil }
func (f *fakeUserRepo) FindByID(string) (*models.User, error)   { return nil, repositories.ErrUserNotFound }
func (f *fakeUserRepo) FindByEmail(string) (*models.User, error) { return nil, repositories.ErrUserNotFound }
func (f *fakeUserRepo) FindStaff() ([]models.User, error)       { return f.staff, nil }

type fakeNotificationSvc struct {
	mu      sync.Mutex
	entries []dto.RecordNotificationInput
}

func (f *fakeNotificationSvc) Record(input *dto.RecordNotificationInput) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *input)
	return &models.Notification{}, nil
}

func (f *fakeNotificationSvc) GetFeed(string, repositories.NotificationCriteria) (*dto.NotificationListResponse, error) {
	return &dto.NotificationListResponse{}, nil
}
func (f *fakeNotificationSvc) MarkAsRead(string, string) error        { return nil }
func (f *fakeNotificationSvc) GetUnreadCount(string) (int64, error)   { return 0, nil }

func (f *fakeNotificationSvc) recorded() []dto.RecordNotificationInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.RecordNotificationInput(nil), f.entries...)
}

type pushCall struct {
	userIDs []string
	title   string
	body    string
}

type fakePushSvc struct {
	mu    sync.Mutex
	calls []pushCall
}

func (f *fakePushSvc) DispatchToUsers(_ context.Context, userIDs []string, title, body string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pushCall{userIDs: userIDs, title: title, body: body})
	return nil
}

func (f *fakePushSvc) dispatched() []pushCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pushCall(nil), f.calls...)
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	frames []dto.ChatFrame
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID string, frame *dto.ChatFrame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, *frame)
}

func (f *fakeBroadcaster) broadcasts() []dto.ChatFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.ChatFrame(nil), f.frames...)
}

// ---------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------

type chatHarness struct {
	svc         ChatService
	chatRepo    *fakeChatRepo
	projectRepo *fakeProjectRepo
	userRepo    *fakeUserRepo
	notifSvc    *fakeNotificationSvc
	pushSvc     *fakePushSvc
	broadcaster *fakeBroadcaster
	presence    *PresenceTracker
}

func newChatHarness() *chatHarness {
	h := &chatHarness{
		chatRepo:    newFakeChatRepo(),
		projectRepo: &fakeProjectRepo{projects: make(map[string]*models.Project)},
		userRepo:    &fakeUserRepo{},
		notifSvc:    &fakeNotificationSvc{},
		pushSvc:     &fakePushSvc{},
		broadcaster: &fakeBroadcaster{},
		presence:    NewPresenceTracker(),
	}
	h.svc = NewChatService(
		h.chatRepo, h.projectRepo, h.userRepo,
		h.notifSvc, h.pushSvc, h.presence, h.broadcaster, 50,
	)
	return h
}

func (h *chatHarness) seedRoom() *models.ChatRoom {
	project := &models.Project{
		ID:          "project-1",
		CustomerID:  "customer-1",
		ServiceName: "Kitchen remodel",
	}
	h.projectRepo.projects[project.ID] = project

	room := &models.ChatRoom{ID: "room-1", ProjectID: project.ID, Project: project, CreatedAt: time.Now()}
	h.chatRepo.addRoom(room)
	return room
}

func messageFrame(roomID, userID, userName, content string) *dto.ChatFrame {
	return &dto.ChatFrame{
		Type:      models.MessageKindMessage,
		RoomID:    roomID,
		UserID:    userID,
		UserName:  userName,
		UserRole:  string(models.UserRoleCustomer),
		Content:   content,
		Timestamp: time.Now(),
	}
}

// ---------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------

func TestHandleMessage_PersistsAndBroadcastsOnce(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()

	h.svc.HandleMessage(context.Background(), messageFrame(room.ID, "customer-1", "Alice", "hello"))

	count, err := h.chatRepo.CountMessages(room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "exactly one message persisted")

	frames := h.broadcaster.broadcasts()
	require.Len(t, frames, 1, "exactly one broadcast")
	assert.Equal(t, "hello", frames[0].Content)
	assert.Equal(t, room.ID, frames[0].RoomID)
}

func TestHandleMessage_OfflineStaffGetPushed(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()
	h.userRepo.staff = []models.User{
		{ID: "staff-watching", Role: models.UserRoleStaff},
		{ID: "staff-away", Role: models.UserRoleStaff},
		{ID: "staff-never-joined", Role: models.UserRoleAdmin},
	}
	h.presence.AddUser(room.ID, "staff-watching")

	h.svc.HandleMessage(context.Background(), messageFrame(room.ID, "customer-1", "Alice", "hello"))

	assert.Eventually(t, func() bool {
		return len(h.pushSvc.dispatched()) == 1
	}, time.Second, 10*time.Millisecond)

	calls := h.pushSvc.dispatched()
	require.Len(t, calls, 1)
	assert.ElementsMatch(t, []string{"staff-away", "staff-never-joined"}, calls[0].userIDs,
		"staff watching the room must not be pushed; everyone else must be")
	assert.Equal(t, "Kitchen remodel", calls[0].title)
	assert.Contains(t, calls[0].body, "Alice")
	assert.Contains(t, calls[0].body, "hello")
}

func TestHandleMessage_SenderNeverPushed(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()
	h.userRepo.staff = []models.User{
		{ID: "staff-sender", Role: models.UserRoleStaff},
		{ID: "staff-away", Role: models.UserRoleStaff},
	}

	frame := messageFrame(room.ID, "staff-sender", "Bob", "status update")
	frame.UserRole = string(models.UserRoleStaff)
	h.svc.HandleMessage(context.Background(), frame)

	assert.Eventually(t, func() bool {
		return len(h.pushSvc.dispatched()) == 1
	}, time.Second, 10*time.Millisecond)

	calls := h.pushSvc.dispatched()
	assert.Equal(t, []string{"staff-away"}, calls[0].userIDs)
}

func TestHandleMessage_RecordsDashboardEntryRegardlessOfPresence(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()
	h.userRepo.staff = []models.User{{ID: "staff-watching", Role: models.UserRoleStaff}}
	h.presence.AddUser(room.ID, "staff-watching")

	h.svc.HandleMessage(context.Background(), messageFrame(room.ID, "customer-1", "Alice", "hello"))

	assert.Eventually(t, func() bool {
		return len(h.notifSvc.recorded()) == 1
	}, time.Second, 10*time.Millisecond)

	entries := h.notifSvc.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, models.NotificationTypeNewMessage, entries[0].Type)
	assert.Contains(t, entries[0].Title, "Kitchen remodel")
	assert.Contains(t, entries[0].Message, "Alice")

	// Everyone was watching: push is skipped, the feed entry is not.
	assert.Empty(t, h.pushSvc.dispatched())
}

func TestHandleMessage_UnknownRoomSuppressesEverything(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	h.userRepo.staff = []models.User{{ID: "staff-away", Role: models.UserRoleStaff}}

	h.svc.HandleMessage(context.Background(), messageFrame("ghost-room", "customer-1", "Alice", "hello"))

	// Give the (suppressed) async path a moment to prove it stays idle.
	time.Sleep(50 * time.Millisecond)

	count, err := h.chatRepo.CountMessages("ghost-room")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, h.broadcaster.broadcasts(), "no broadcast for a deleted room")
	assert.Empty(t, h.pushSvc.dispatched())
	assert.Empty(t, h.notifSvc.recorded())
}

func TestHandleMessage_IgnoresNonMessageKinds(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()

	frame := messageFrame(room.ID, "customer-1", "Alice", "")
	frame.Type = models.MessageKindTyping
	h.svc.HandleMessage(context.Background(), frame)

	count, _ := h.chatRepo.CountMessages(room.ID)
	assert.Zero(t, count)
	assert.Empty(t, h.broadcaster.broadcasts())
}

// ---------------------------------------------------------------------
// Join
// ---------------------------------------------------------------------

func TestJoin_FirstJoinPersistsOneJoinMessage(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()

	result, err := h.svc.Join(room.ID, "staff-1", "Bob", models.UserRoleStaff)
	require.NoError(t, err)
	assert.True(t, result.Joined)

	joins := h.chatRepo.messagesOfKind(room.ID, models.MessageKindJoin)
	assert.Len(t, joins, 1, "first join persists exactly one join message")

	frames := h.broadcaster.broadcasts()
	require.Len(t, frames, 1)
	assert.Equal(t, models.MessageKindJoin, frames[0].Type)
}

func TestJoin_RepeatJoinIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()

	_, err := h.svc.Join(room.ID, "staff-1", "Bob", models.UserRoleStaff)
	require.NoError(t, err)
	result, err := h.svc.Join(room.ID, "staff-1", "Bob", models.UserRoleStaff)
	require.NoError(t, err)

	assert.False(t, result.Joined, "membership must not be duplicated")
	joins := h.chatRepo.messagesOfKind(room.ID, models.MessageKindJoin)
	assert.Len(t, joins, 1, "repeat joins must not flood history")
	assert.Len(t, h.broadcaster.broadcasts(), 2, "every join still broadcasts a live frame")
}

func TestJoin_CustomerRoleRejected(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()

	_, err := h.svc.Join(room.ID, "customer-1", "Alice", models.UserRoleCustomer)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code)
}

func TestJoin_UnknownRoom(t *testing.T) {
	t.Parallel()

	h := newChatHarness()

	_, err := h.svc.Join("ghost-room", "staff-1", "Bob", models.UserRoleStaff)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

// ---------------------------------------------------------------------
// History & rooms
// ---------------------------------------------------------------------

func TestGetHistory_PaginatesChronologically(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, h.chatRepo.CreateMessage(&models.ChatMessage{
			RoomID:    room.ID,
			SenderID:  "customer-1",
			Kind:      models.MessageKindMessage,
			Content:   string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	history, err := h.svc.GetHistory(room.ID, "customer-1", models.UserRoleCustomer, dto.HistoryRequest{Limit: 3})
	require.NoError(t, err)

	assert.True(t, history.HasMore)
	require.Len(t, history.Messages, 3)
	assert.Equal(t, "c", history.Messages[0].Content)
	assert.Equal(t, "e", history.Messages[2].Content)
}

func TestGetHistory_StrangerForbidden(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	room := h.seedRoom()

	_, err := h.svc.GetHistory(room.ID, "some-other-customer", models.UserRoleCustomer, dto.HistoryRequest{})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code)
}

func TestEnsureRoomForProject_CreatesRoomAndCustomerMembership(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	project := &models.Project{ID: "project-9", CustomerID: "customer-9", ServiceName: "Roofing"}
	h.projectRepo.projects[project.ID] = project

	room, err := h.svc.EnsureRoomForProject(project.ID, "customer-9", models.UserRoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, project.ID, room.ProjectID)

	member, err := h.chatRepo.IsMember(room.ID, "customer-9")
	require.NoError(t, err)
	assert.True(t, member, "project owner is an implicit member")

	// Second call resolves the same room.
	again, err := h.svc.EnsureRoomForProject(project.ID, "customer-9", models.UserRoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)
}

func TestEnsureRoomForProject_StrangerForbidden(t *testing.T) {
	t.Parallel()

	h := newChatHarness()
	project := &models.Project{ID: "project-9", CustomerID: "customer-9", ServiceName: "Roofing"}
	h.projectRepo.projects[project.ID] = project

	_, err := h.svc.EnsureRoomForProject(project.ID, "intruder", models.UserRoleCustomer)
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code)
}
