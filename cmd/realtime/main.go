package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pulsegram/internal/core/services"
	httphandlers "pulsegram/internal/handlers/http"
	"pulsegram/internal/infrastructure/middleware"
	"pulsegram/internal/infrastructure/monitoring"
	"pulsegram/internal/infrastructure/realtime"
	repositories "pulsegram/internal/infrastructure/repositories"
	"pulsegram/pkg/config"
	"pulsegram/pkg/logger"
	"pulsegram/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "pulsegram",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}

	// Initialize repositories
	users := repoFactory.CreateUserDirectory()
	rooms := repoFactory.CreateRoomRepository(users)
	live := repoFactory.CreateLiveRepository()
	notifications := repoFactory.CreateNotificationRepository()

	// Initialize monitoring
	collector := monitoring.NewPrometheusCollector()

	// Initialize the fan-out core
	broker := realtime.NewBroker(collector, log)
	registry := realtime.NewRegistry(
		broker,
		collector,
		log,
		cfg.Realtime.SendQueueSize,
		cfg.Realtime.WriteTimeout,
		cfg.Realtime.PingInterval,
	)

	// Initialize services
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	notifier := services.NewNotificationService(notifications, users, broker, collector, log)
	presence := services.NewPresenceService(live, broker, collector, log)

	// Initialize WebSocket handlers
	chatHandler := realtime.NewChatHandler(broker, rooms, users, notifier, collector, log)
	liveHandler := realtime.NewLiveHandler(broker, live, users, presence, collector, log)
	notificationHandler := realtime.NewNotificationHandler(broker, notifications, log)

	wsServer := realtime.NewServer(
		realtime.Config{
			ReadTimeout:       cfg.Realtime.PongTimeout,
			WriteTimeout:      cfg.Realtime.WriteTimeout,
			PingInterval:      cfg.Realtime.PingInterval,
			SendQueueSize:     cfg.Realtime.SendQueueSize,
			MaxMessageSize:    cfg.Realtime.MaxMessageSize,
			MessagesPerSecond: cfg.Realtime.MessagesPerSecond,
			MessageBurst:      cfg.Realtime.MessageBurst,
		},
		registry,
		authService,
		users,
		live,
		chatHandler,
		liveHandler,
		notificationHandler,
		log,
	)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.LoggingMiddleware(logger.NewContextLogger(zapLogger)))

	// WebSocket endpoints
	wsServer.SetupRoutes(router)

	// HTTP API
	apiHandler := httphandlers.NewRealtimeHandler(
		broker,
		registry,
		live,
		users,
		rooms,
		notifications,
		notifier,
		presence,
	)
	apiHandler.SetupRoutes(router, middleware.AuthMiddleware(authService))

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Pulsegram realtime server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down Pulsegram realtime server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("Pulsegram realtime server stopped")
}
