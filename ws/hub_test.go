package ws

import (
	"testing"
	"time"

	"homepro_backend/internal/models"
	"homepro_backend/internal/services"
	"homepro_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(roomID, userID string, buffer int) *Client {
	return &Client{
		RoomID:   roomID,
		UserID:   userID,
		UserName: userID,
		UserRole: models.UserRoleStaff,
		Send:     make(chan *dto.ChatFrame, buffer),
	}
}

func startHub(t *testing.T) (*Hub, *services.PresenceTracker) {
	t.Helper()
	presence := services.NewPresenceTracker()
	hub := NewHub(presence)
	go hub.Run()
	return hub, presence
}

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	t.Parallel()

	hub, presence := startHub(t)
	alice := newTestClient("room-1", "alice", 8)
	bob := newTestClient("room-1", "bob", 8)
	other := newTestClient("room-2", "carol", 8)

	hub.register <- alice
	hub.register <- bob
	hub.register <- other

	assert.Eventually(t, func() bool {
		return hub.SubscriberCount("room-1") == 2 && hub.SubscriberCount("room-2") == 1
	}, time.Second, 10*time.Millisecond)

	assert.True(t, presence.IsActive("room-1", "alice"))
	assert.True(t, presence.IsActive("room-2", "carol"))

	frame := &dto.ChatFrame{Type: models.MessageKindMessage, RoomID: "room-1", UserID: "alice", Content: "hi"}
	hub.BroadcastToRoom("room-1", frame)

	for _, c := range []*Client{alice, bob} {
		select {
		case got := <-c.Send:
			assert.Equal(t, "hi", got.Content)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s did not receive the broadcast", c.UserID)
		}
	}
	select {
	case got := <-other.Send:
		t.Fatalf("room-2 subscriber received a room-1 frame: %+v", got)
	default:
	}
}

func TestHub_UnregisterReleasesPresenceAndChannel(t *testing.T) {
	t.Parallel()

	hub, presence := startHub(t)
	alice := newTestClient("room-1", "alice", 8)

	hub.register <- alice
	assert.Eventually(t, func() bool {
		return presence.IsActive("room-1", "alice")
	}, time.Second, 10*time.Millisecond)

	hub.unregister <- alice
	assert.Eventually(t, func() bool {
		return hub.SubscriberCount("room-1") == 0 && !presence.IsActive("room-1", "alice")
	}, time.Second, 10*time.Millisecond)

	_, open := <-alice.Send
	assert.False(t, open, "send channel must be closed on unregister")
}

func TestHub_DoubleUnregisterIsHarmless(t *testing.T) {
	t.Parallel()

	hub, _ := startHub(t)
	alice := newTestClient("room-1", "alice", 8)

	hub.register <- alice
	hub.unregister <- alice
	hub.unregister <- alice

	assert.Eventually(t, func() bool {
		return hub.SubscriberCount("room-1") == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHub_SlowSubscriberIsDropped(t *testing.T) {
	t.Parallel()

	hub, presence := startHub(t)
	slow := newTestClient("room-1", "slowpoke", 1)

	hub.register <- slow
	require.Eventually(t, func() bool {
		return hub.SubscriberCount("room-1") == 1
	}, time.Second, 10*time.Millisecond)

	frame := &dto.ChatFrame{Type: models.MessageKindTyping, RoomID: "room-1", UserID: "alice"}
	hub.BroadcastToRoom("room-1", frame) // fills the buffer
	hub.BroadcastToRoom("room-1", frame) // overflows, triggers the drop

	assert.Eventually(t, func() bool {
		return hub.SubscriberCount("room-1") == 0 && !presence.IsActive("room-1", "slowpoke")
	}, time.Second, 10*time.Millisecond)
}

func TestHub_MultiDevicePresenceSurvivesOneDisconnect(t *testing.T) {
	t.Parallel()

	hub, presence := startHub(t)
	phone := newTestClient("room-1", "alice", 8)
	laptop := newTestClient("room-1", "alice", 8)

	hub.register <- phone
	hub.register <- laptop
	assert.Eventually(t, func() bool {
		return hub.SubscriberCount("room-1") == 2
	}, time.Second, 10*time.Millisecond)

	hub.unregister <- phone
	assert.Eventually(t, func() bool {
		return hub.SubscriberCount("room-1") == 1
	}, time.Second, 10*time.Millisecond)

	assert.True(t, presence.IsActive("room-1", "alice"), "still active on the second device")

	hub.unregister <- laptop
	assert.Eventually(t, func() bool {
		return !presence.IsActive("room-1", "alice")
	}, time.Second, 10*time.Millisecond)
}
