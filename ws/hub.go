package ws

import (
	"sync"

	"homepro_backend/internal/logger"
	"homepro_backend/internal/services"
	"homepro_backend/internal/services/dto"
)

// Hub owns the room -> subscribers topology and the presence tracker
// updates tied to it. One hub serves every room in the process.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	presence *services.PresenceTracker
}

func NewHub(presence *services.PresenceTracker) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		presence:   presence,
	}
}

// Run processes connection lifecycle events. Start it once, in its own
// goroutine, before serving connections.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, ok := h.rooms[client.RoomID]
	if !ok {
		subscribers = make(map[*Client]bool)
		h.rooms[client.RoomID] = subscribers
	}
	subscribers[client] = true
	h.presence.AddUser(client.RoomID, client.UserID)
	logger.Debug("client subscribed", "room_id", client.RoomID, "user_id", client.UserID, "subscribers", len(subscribers))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, ok := h.rooms[client.RoomID]
	if !ok || !subscribers[client] {
		return
	}

	delete(subscribers, client)
	close(client.Send)
	if len(subscribers) == 0 {
		delete(h.rooms, client.RoomID)
	}
	h.presence.RemoveUser(client.RoomID, client.UserID)
	logger.Debug("client unsubscribed", "room_id", client.RoomID, "user_id", client.UserID)
}

// BroadcastToRoom delivers the frame to every current subscriber of the
// room. Subscribers that cannot keep up are disconnected rather than
// allowed to block the fan-out.
func (h *Hub) BroadcastToRoom(roomID string, frame *dto.ChatFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		select {
		case client.Send <- frame:
		default:
			logger.Warn("dropping slow subscriber", "room_id", roomID, "user_id", client.UserID)
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// SubscriberCount reports the live subscribers of a room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
