package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/supportchat/internal/api"
	"github.com/lalith-99/supportchat/internal/config"
	"github.com/lalith-99/supportchat/internal/db"
	"github.com/lalith-99/supportchat/internal/middleware"
	"github.com/lalith-99/supportchat/internal/observ"
	"github.com/lalith-99/supportchat/internal/repository/postgres"
	"github.com/lalith-99/supportchat/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Background() at startup: there is no parent request or deadline
	// yet. Each request gets its own context once the server is running.
	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	messageRepo := postgres.NewMessageStore(pool)

	// Redis fans receive_message deliveries across server instances; a
	// single node still loops its own publishes back through it.
	broker, err := ws.NewRedisBroker(ctx, cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer broker.Close()

	hub := ws.NewHub(broker, logger)
	go hub.Run(ctx)

	authHandler := api.NewAuthHandler(userRepo, cfg.JWTSecret, logger)
	sessionHandler := api.NewSessionHandler()
	userHandler := api.NewUserHandler(userRepo, logger)
	messageHandler := api.NewMessageHandler(messageRepo, logger)
	wsHandler := ws.NewHandler(hub, messageRepo, logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Health check is PUBLIC: load balancers hit it without credentials.
	srv.GET("/api/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public: these produce the token everything else requires.
	srv.POST("/api/register", authHandler.Register)
	srv.POST("/api/login", authHandler.Login)

	// The session probe is deliberately optional-auth: an anonymous
	// caller is told "guest", not rejected.
	srv.GET("/api/session", middleware.OptionalAuth(cfg.JWTSecret), sessionHandler.Get)

	authed := srv.Group("/api")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	authed.GET("/users", userHandler.List)
	authed.GET("/messages", messageHandler.List)
	authed.GET("/ws", wsHandler.Serve)

	logger.Info("starting supportchat server",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	return srv.Run(":" + cfg.Port)
}
