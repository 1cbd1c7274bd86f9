package handlers

import (
	"net/http"

	"homepro_backend/internal/middleware"
	"homepro_backend/internal/services"
	"homepro_backend/internal/services/dto"
	"homepro_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	*BaseHandler
	chatService services.ChatService
}

func NewChatHandler(base *BaseHandler, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		BaseHandler: base,
		chatService: chatService,
	}
}

func (h *ChatHandler) RegisterRoutes(r *gin.RouterGroup) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware())
	{
		chat.GET("/projects/:projectID/room", h.GetProjectRoom)
		chat.GET("/rooms/:roomID/messages", h.GetHistory)
		chat.POST("/rooms/:roomID/join", middleware.RequireStaff(), h.JoinRoom)
	}
}

// GetProjectRoom resolves (and lazily creates) the chat room for a
// project.
func (h *ChatHandler) GetProjectRoom(c *gin.Context) {
	projectID := c.Param("projectID")
	callerID := middleware.GetUserID(c)
	callerRole := middleware.GetUserRole(c)

	room, err := h.chatService.EnsureRoomForProject(projectID, callerID, callerRole)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// GetHistory pages chat history older than the `before` cursor, in
// chronological order.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	roomID := c.Param("roomID")
	callerID := middleware.GetUserID(c)
	callerRole := middleware.GetUserRole(c)

	var req dto.HistoryRequest
	if !h.BindQuery(c, &req) {
		return
	}

	history, err := h.chatService.GetHistory(roomID, callerID, callerRole, req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// JoinRoom idempotently adds the calling staff member to the room.
func (h *ChatHandler) JoinRoom(c *gin.Context) {
	roomID := c.Param("roomID")
	callerID := middleware.GetUserID(c)
	callerName := middleware.GetUserName(c)
	callerRole := middleware.GetUserRole(c)

	result, err := h.chatService.Join(roomID, callerID, callerName, callerRole)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
