package ws

import (
	"context"
	"net/http"

	"homepro_backend/internal/logger"
	"homepro_backend/internal/models"
	"homepro_backend/internal/services"
	"homepro_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the reverse proxy
	},
}

type WSHandler struct {
	hub            *Hub
	chatSvc        services.ChatService
	sendBufferSize int
}

func NewWSHandler(hub *Hub, chatSvc services.ChatService, sendBufferSize int) *WSHandler {
	if sendBufferSize <= 0 {
		sendBufferSize = 256
	}
	return &WSHandler{
		hub:            hub,
		chatSvc:        chatSvc,
		sendBufferSize: sendBufferSize,
	}
}

// ServeWS performs the handshake for one live connection. All four
// identity parameters are hard preconditions: missing any of them
// fails the request before the upgrade happens.
func (h *WSHandler) ServeWS(c *gin.Context) {
	roomID := c.Query("room_id")
	userID := c.Query("user_id")
	userName := c.Query("user_name")
	userRole := c.Query("user_role")

	if roomID == "" || userID == "" || userName == "" || userRole == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "room_id, user_id, user_name and user_role query parameters are required",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	client := &Client{
		RoomID:   roomID,
		UserID:   userID,
		UserName: userName,
		UserRole: models.UserRole(userRole),
		Conn:     conn,
		Send:     make(chan *dto.ChatFrame, h.sendBufferSize),
		Ctx:      logger.WithUserID(context.Background(), userID),
		hub:      h.hub,
		chatSvc:  h.chatSvc,
	}

	h.hub.register <- client

	go client.readPump()
	go client.writePump()

	// Staff joining a room is a recorded event; customer membership is
	// implicit, so customer connects stay silent.
	if models.IsStaffRole(client.UserRole) {
		go func() {
			if _, err := h.chatSvc.Join(roomID, userID, userName, client.UserRole); err != nil {
				logger.Warn("staff join on connect failed", "room_id", roomID, "user_id", userID, "error", err.Error())
			}
		}()
	}

	logger.Info("websocket client connected", "room_id", roomID, "user_id", userID, "role", userRole)
}
