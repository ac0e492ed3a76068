package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/khabaroff/roster-console/src/catalog"
	"github.com/khabaroff/roster-console/src/config"
	"github.com/khabaroff/roster-console/src/database"
	"github.com/khabaroff/roster-console/src/gateway"
	"github.com/khabaroff/roster-console/src/handlers"
	"github.com/khabaroff/roster-console/src/logging"
	"github.com/khabaroff/roster-console/src/metrics"
	"github.com/khabaroff/roster-console/src/middleware"
	"github.com/khabaroff/roster-console/src/repositories/memory"
	redisrepo "github.com/khabaroff/roster-console/src/repositories/redis"
	"github.com/khabaroff/roster-console/src/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	log.Info().
		Int("port", cfg.Port).
		Str("backend", cfg.BackendURL).
		Str("log_level", cfg.LogLevel).
		Msg("starting console")

	m := metrics.New()

	// Notification log: PostgreSQL, Redis or memory
	var db *database.Database
	var notificationService *services.NotificationService
	switch {
	case cfg.DatabaseURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		var err error
		db, err = database.New(ctx, cfg.DatabaseURL, database.PoolOptions{MaxConns: cfg.DatabaseMaxConns})
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize database")
		}
		defer db.Close()
		notificationService = services.NewNotificationService(db.GetPool())
		log.Info().Msg("database connected")
	case cfg.RedisURL != "":
		client, err := redisrepo.NewClientFromURL(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer client.Close()
		notificationService = services.NewNotificationServiceWithRepo(redisrepo.NewNotificationRepository(client, "console"))
		log.Info().Msg("Redis connected - notifications kept in Redis")
	default:
		notificationService = services.NewNotificationServiceWithRepo(memory.NewNotificationRepository())
		log.Warn().Msg("DATABASE_URL and REDIS_URL not set - notifications kept in memory")
	}

	// Initialize JWT secret in middleware
	if err := middleware.SetJWTSecret(cfg.JWTSecret); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize JWT secret")
	}

	sealer, err := services.NewSealer(cfg.SealKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize credential sealing")
	}
	if cfg.SealKey == "" {
		log.Warn().Msg("SEAL_KEY not set - console sessions will not survive a restart")
	}

	actions, err := catalog.Load(cfg.ActionCatalog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load action catalog")
	}

	routes, err := gateway.LoadRoutes(cfg.BackendRoutes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load backend routes")
	}

	backend := gateway.NewClient(cfg.BackendURL,
		gateway.WithRoutes(routes),
		gateway.WithTimeout(cfg.BackendTimeout),
		gateway.WithMetrics(m),
	)

	consoleService := services.NewConsoleService(backend, notificationService, sealer, actions,
		services.ConsoleConfig{Feed: cfg.FeedConfig()}, m)
	cleanupService := services.NewCleanupService(consoleService, notificationService, cfg.IdleTimeout, cfg.NotificationRetention)

	// Start background services
	go cleanupService.Start(context.Background())

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware("/health", "/ready", "/metrics"))
	router.Use(metrics.GinMiddleware(m))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	// Setup routes
	setupRoutes(router, db, backend, consoleService, m, cfg)

	// Create HTTP server with timeouts (G112: protect from Slowloris attack)
	srv := &http.Server{
		Addr:              ":" + formatPort(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.BackendTimeout*3 + 10*time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Stop cleanup service
	cleanupService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shut down successfully")
}

func setupRoutes(router *gin.Engine, db *database.Database, backend *gateway.Client, consoleService *services.ConsoleService, m *metrics.Metrics, cfg *config.Config) {
	healthHandler := handlers.NewHealthHandler(db, backend, consoleService)
	consoleHandler := handlers.NewConsoleHandler(consoleService, cfg.SessionTTL, cfg.SecureCookie)

	// Health check endpoints
	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)
	router.GET("/info", healthHandler.HandleInfo)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	handlers.RegisterConsoleRoutes(router, consoleHandler, handlers.RouteConfig{
		Login: middleware.RateLimitConfig{
			RequestsPerMinute: cfg.LoginRatePerMinute,
			Burst:             3,
			Metrics:           m,
		},
		Mutations: middleware.RateLimitConfig{
			RequestsPerMinute: cfg.MutationRatePerMinute,
			Burst:             20,
			Metrics:           m,
		},
	})
}

// corsConfig allows the configured console origins, plus localhost for development
func corsConfig(allowedOrigins string) cors.Config {
	allowed := make(map[string]bool)
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}

	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if allowed[origin] {
				return true
			}
			// Allow localhost for development
			return strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1")
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func formatPort(port int) string {
	return fmt.Sprintf("%d", port)
}
