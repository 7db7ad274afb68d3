package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"referral-campaign/internal/api"
	"referral-campaign/internal/middleware"
	"referral-campaign/internal/repository"
	"referral-campaign/internal/service"
	"referral-campaign/pkg/auth"
	"referral-campaign/pkg/logger"
	"referral-campaign/pkg/password"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	err = repository.Migrate(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	hasher := password.NewHasher()
	services := service.NewService(
		service.NewUserService(repo, hasher, cfg.Auth.Salt, cfg.Referral.BonusPercent),
		service.NewTaskService(repo),
	)
	sessionAuth := auth.NewSessionAuth(cfg.Auth.JWTSecret)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	rateLimiter := middleware.NewRateLimiter(rdb,
		cfg.RateLimit.Requests,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	router.Use(rateLimiter.Handler())

	a := router.Group("/api/v1")
	a.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	api.NewUserRoutes(a, services, sessionAuth, cfg.Auth.SecurityHash, cfg.Auth.DevSecret)
	api.NewTaskRoutes(a, services, cfg.Auth.SecurityHash, cfg.Auth.DevSecret)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
