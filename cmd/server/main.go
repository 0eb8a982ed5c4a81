package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	_ "mediashare/docs" // swagger docs

	"mediashare/internal/auth"
	"mediashare/internal/cache"
	"mediashare/internal/config"
	"mediashare/internal/db"
	"mediashare/internal/events"
	"mediashare/internal/handler"
	"mediashare/internal/middleware"
	"mediashare/internal/repository"
	"mediashare/internal/router"
	"mediashare/internal/service"
	"mediashare/internal/storage"
)

// @title Media Sharing API
// @version 1.0
// @description Image upload and browsing API for creators and consumers, with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	e := echo.New()
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	log.SetLevel(logLevel(cfg.LogLevel))

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if cacheClient != nil {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := cacheClient.Ping(pingCtx); err != nil {
			log.Warnf("redis unavailable, role lookups go to the database: %v", err)
		}
		cancel()
	}

	storageCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	backend, err := storage.Open(storageCtx, cfg.Storage)
	cancel()
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}
	gateway := storage.NewGateway(backend, cfg.Storage.PublicURL)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Warnf("amqp unavailable, events disabled: %v", err)
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	imageRepo := repository.NewImageRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	roleCache := auth.NewRoleCache(cacheClient)
	accessControl := middleware.NewAccessControl(jwtService, roleCache, userRepo)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, roleCache)
	imageService := service.NewImageService(imageRepo, gateway, publisher, cfg.MaxUploadBytes)
	likeService := service.NewLikeService(imageRepo, publisher, cfg.LikeMaxAttempts)

	// Register routes
	router.Register(
		e,
		cfg,
		accessControl,
		handler.NewAuthHandler(authService),
		handler.NewCreatorHandler(imageService),
		handler.NewConsumerHandler(imageService, likeService),
	)

	swaggerHost := cfg.SwaggerHost
	if swaggerHost == "" {
		swaggerHost = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(swaggerHost, "http://") && !strings.HasPrefix(swaggerHost, "https://") {
		swaggerHost = "http://" + swaggerHost
	}
	log.Infof("Swagger documentation available at: %s/swagger/index.html", swaggerHost)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}

func logLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
