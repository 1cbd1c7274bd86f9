package ws

import (
	"context"
	"encoding/json"
	"time"

	"homepro_backend/internal/logger"
	"homepro_backend/internal/models"
	"homepro_backend/internal/services"
	"homepro_backend/internal/services/dto"

	"github.com/gorilla/websocket"
)

// Client is one live connection, bound at handshake time to a room and
// a verified identity.
type Client struct {
	RoomID   string
	UserID   string
	UserName string
	UserRole models.UserRole

	Conn *websocket.Conn
	Send chan *dto.ChatFrame
	Ctx  context.Context

	hub     *Hub
	chatSvc services.ChatService
}

// readPump consumes inbound frames until the connection dies. Cleanup
// runs on every exit path: presence and subscription are released, a
// leave event is broadcast (not persisted), and last-seen is stamped.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.Conn.Close()
		c.hub.BroadcastToRoom(c.RoomID, &dto.ChatFrame{
			Type:      models.MessageKindLeave,
			RoomID:    c.RoomID,
			UserID:    c.UserID,
			UserName:  c.UserName,
			UserRole:  string(c.UserRole),
			Timestamp: time.Now(),
		})
		go c.chatSvc.TouchLastSeen(c.RoomID, c.UserID)
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.CtxWarn(c.Ctx, "websocket read error", "room_id", c.RoomID, "user_id", c.UserID, "error", err.Error())
			}
			break
		}
		c.handleFrame(raw)
	}
}

func (c *Client) writePump() {
	for frame := range c.Send {
		if err := c.Conn.WriteJSON(frame); err != nil {
			logger.CtxWarn(c.Ctx, "websocket write error", "user_id", c.UserID, "error", err.Error())
			break
		}
	}
	c.Conn.Close()
}

// handleFrame parses and validates one inbound frame. Bad frames are
// logged and dropped; the connection stays open.
func (c *Client) handleFrame(raw []byte) {
	var frame dto.ChatFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.CtxWarn(c.Ctx, "failed to parse frame", "user_id", c.UserID, "error", err.Error())
		return
	}

	if err := validateFrame(&frame, c.RoomID, c.UserID); err != nil {
		logger.CtxWarn(c.Ctx, "dropping invalid frame", "user_id", c.UserID, "reason", err.Error())
		return
	}

	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}

	switch frame.Type {
	case models.MessageKindMessage:
		// Full pipeline: persist, notify, broadcast.
		c.chatSvc.HandleMessage(c.Ctx, &frame)
	default:
		// Typing indicators and the like are ephemeral: broadcast
		// only, no persistence, no notification side effects.
		c.hub.BroadcastToRoom(frame.RoomID, &frame)
	}
}
