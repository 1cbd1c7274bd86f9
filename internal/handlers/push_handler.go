package handlers

import (
	"net/http"

	"homepro_backend/internal/middleware"
	"homepro_backend/internal/models"
	"homepro_backend/internal/repositories"
	"homepro_backend/internal/services/dto"
	"homepro_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type PushHandler struct {
	*BaseHandler
	tokenRepo repositories.PushTokenRepository
}

func NewPushHandler(base *BaseHandler, tokenRepo repositories.PushTokenRepository) *PushHandler {
	return &PushHandler{
		BaseHandler: base,
		tokenRepo:   tokenRepo,
	}
}

func (h *PushHandler) RegisterRoutes(r *gin.RouterGroup) {
	push := r.Group("/push")
	push.Use(middleware.AuthMiddleware())
	{
		push.POST("/tokens", h.RegisterToken)
		push.DELETE("/tokens/:token", h.UnregisterToken)
	}
}

// RegisterToken associates a device token with the caller. A device
// re-registering supersedes its previous token row.
func (h *PushHandler) RegisterToken(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req dto.RegisterPushTokenRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	token := &models.PushToken{
		UserID:   userID,
		Platform: models.PushPlatform(req.Platform),
		DeviceID: req.DeviceID,
		Token:    req.Token,
	}
	if err := h.tokenRepo.Register(token); err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

// UnregisterToken removes a token by value. Unknown tokens are a
// normal negative case.
func (h *PushHandler) UnregisterToken(c *gin.Context) {
	token := c.Param("token")

	if err := h.tokenRepo.DeleteByToken(token); err != nil {
		if apperrors.Is(err, repositories.ErrPushTokenNotFound) {
			apperrors.HandleError(c, apperrors.ErrNotFound(err))
			return
		}
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unregistered"})
}
