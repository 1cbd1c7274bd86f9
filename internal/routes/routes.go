package routes

import (
	"net/http"

	"homepro_backend/internal/handlers"
	"homepro_backend/internal/logger"
	"homepro_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every HTTP and WebSocket route.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WSHandler,
) {
	ginRouter.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.ChatHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
		appHandlers.PushHandler.RegisterRoutes(api)
	}

	// The live channel authenticates through its handshake parameters;
	// identity verification is the upstream proxy's concern.
	ginRouter.GET("/ws", wsHandler.ServeWS)

	logger.Info("routes registered")
}
