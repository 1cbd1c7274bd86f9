package app

import (
	"errors"
	"fmt"
	"time"

	"homepro_backend/database"
	"homepro_backend/internal/auth"
	"homepro_backend/internal/config"
	"homepro_backend/internal/handlers"
	"homepro_backend/internal/logger"
	"homepro_backend/internal/middleware"
	"homepro_backend/internal/models"
	"homepro_backend/internal/push"
	"homepro_backend/internal/repositories"
	"homepro_backend/internal/routes"
	"homepro_backend/internal/services"
	"homepro_backend/internal/validator"
	"homepro_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter builds the full dependency graph and returns the gin
// engine. Tests reuse it against their own database handle.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	// Repositories
	userRepo := repositories.NewUserRepository(gormDB)
	projectRepo := repositories.NewProjectRepository(gormDB)
	chatRepo := repositories.NewChatRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	pushTokenRepo := repositories.NewPushTokenRepository(gormDB)

	// Collaborators
	var gateway push.Gateway = push.NewExpoClient(
		cfg.Push.GatewayURL,
		time.Duration(cfg.Push.TimeoutSec)*time.Second,
	)
	if !cfg.Push.Enabled {
		logger.Warn("Push delivery disabled; using no-op gateway")
		gateway = noopGateway{}
	}

	// Services
	presence := services.NewPresenceTracker()
	notificationSvc := services.NewNotificationService(notificationRepo)
	pushSvc := services.NewPushService(pushTokenRepo, gateway)

	hub := ws.NewHub(presence)
	go hub.Run()

	chatSvc := services.NewChatService(
		chatRepo,
		projectRepo,
		userRepo,
		notificationSvc,
		pushSvc,
		presence,
		hub,
		cfg.Chat.HistoryPageSize,
	)

	// Handlers
	v := validator.New()
	base := handlers.NewBaseHandler(v)
	appHandlers := &handlers.AppHandlers{
		ChatHandler:         handlers.NewChatHandler(base, chatSvc),
		NotificationHandler: handlers.NewNotificationHandler(base, notificationSvc),
		PushHandler:         handlers.NewPushHandler(base, pushTokenRepo),
	}
	wsHandler := ws.NewWSHandler(hub, chatSvc, cfg.Chat.SendBufferSize)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginRouter := gin.New()
	ginRouter.Use(
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(),
		gin.Recovery(),
	)

	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)
	return ginRouter
}

// seedFirstAdmin guarantees a staff identity exists on a fresh
// deployment.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return nil
	}

	var existing models.User
	err := db.First(&existing, "email = ?", cfg.Admin.Email).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		return err
	}

	name := cfg.Admin.Name
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{
		Name:         name,
		Email:        cfg.Admin.Email,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	logger.Info("Seeded first admin user", "email", cfg.Admin.Email)
	return nil
}
