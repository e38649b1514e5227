// Package main is the entry point for the CoCo completion service.
// @title CoCo Completion Service API
// @version 3.0.0
// @description RESTful API that provides code completion services to the CoCo IDE plugin.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/coco-ide/completion-service

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v3
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/coco-ide/completion-service/docs"
	"github.com/coco-ide/completion-service/internal/api/handlers"
	"github.com/coco-ide/completion-service/internal/api/middleware"
	"github.com/coco-ide/completion-service/internal/api/routes"
	"github.com/coco-ide/completion-service/internal/config"
	"github.com/coco-ide/completion-service/internal/core/cache"
	"github.com/coco-ide/completion-service/internal/core/store"
	rediscache "github.com/coco-ide/completion-service/internal/infrastructure/cache/redis"
	"github.com/coco-ide/completion-service/internal/infrastructure/store/mongodb"
	"github.com/coco-ide/completion-service/internal/pkg/encryption"
	"github.com/coco-ide/completion-service/internal/services/blacklist"
	"github.com/coco-ide/completion-service/internal/services/completion"
	"github.com/coco-ide/completion-service/internal/services/ratelimit"
	"github.com/coco-ide/completion-service/internal/services/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogger(cfg.Log)

	ctx := context.Background()

	// Initialize cache client
	cacheClient, err := rediscache.NewCache(rediscache.Config{
		Host:       cfg.Cache.Host,
		Port:       cfg.Cache.Port,
		Password:   cfg.Cache.Password,
		DB:         cfg.Cache.DB,
		DefaultTTL: cfg.Cache.TTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache client")
	}
	defer cacheClient.Close()

	// Initialize store client
	storeClient, err := mongodb.NewClient(ctx, &mongodb.ClientConfig{
		URI:          cfg.Store.URI,
		DatabaseName: cfg.Store.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store client")
	}
	defer storeClient.Close(ctx)

	if err := storeClient.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	// Initialize encryptor for code text at rest
	encryptor, err := createEncryptor(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryptor")
	}

	// Initialize completion engine
	engine, err := completion.NewMultiModelEngine(cfg.Completion, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize completion engine")
	}

	// Initialize session manager and sweeper
	manager := session.NewManager(session.ManagerConfig{
		DefaultDuration: cfg.Session.DefaultDuration,
		Logger:          log.Logger,
	})
	sweeper := session.NewSweeper(manager, cfg.Session.SweepInterval, log.Logger)
	sweeper.Start()

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Setup router
	router := setupRouter(cfg, cacheClient, storeClient, encryptor, engine, manager)

	// Create HTTP server
	srv := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("address", cfg.Server.Address()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Stop the sweeper before flushing so it cannot race the final flush
	sweeper.Stop()
	manager.Shutdown(shutdownCtx)

	log.Info().Msg("server exited")
}

// setupLogger configures the global zerolog logger.
func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// createEncryptor creates the at-rest encryptor from the store configuration.
func createEncryptor(cfg config.StoreConfig) (encryption.Encryptor, error) {
	if cfg.EncryptionKey == "" {
		log.Warn().Msg("STORE_ENCRYPTION_KEY not set, storing code text unencrypted")
		return encryption.NewNoOpEncryptor(), nil
	}
	return encryption.NewAESEncryptor(cfg.EncryptionKey)
}

// setupRouter creates and configures the Gin router.
func setupRouter(cfg *config.Config, cacheClient cache.Client, storeClient store.Client, encryptor encryption.Encryptor, engine completion.Engine, manager *session.Manager) *gin.Engine {
	router := gin.New()

	// Create middleware
	loggingMw := middleware.NewLoggingMiddleware(log.Logger)
	errorMw := middleware.NewErrorMiddleware()

	// Create services
	bl := blacklist.New(cacheClient, cfg.Session.MaxFailedAttempts, log.Logger)
	limiter := ratelimit.New(cfg.Session.MaxRequestRate, log.Logger)

	// Create handlers
	healthHandler := handlers.NewHealthHandler(cacheClient, storeClient)
	sessionsHandler := handlers.NewSessionsHandler(manager, storeClient, bl, encryptor, log.Logger)
	completionsHandler := handlers.NewCompletionsHandler(manager, engine, limiter, log.Logger)
	surveyHandler := handlers.NewSurveyHandler(cfg.Survey.Link)

	// Setup routes
	routesCfg := &routes.Config{
		HealthHandler:       healthHandler,
		SessionsHandler:     sessionsHandler,
		CompletionsHandler:  completionsHandler,
		SurveyHandler:       surveyHandler,
		BlacklistMiddleware: middleware.NewBlacklistMiddleware(bl),
	}

	routes.SetupWithMiddleware(router, routesCfg, loggingMw, errorMw)

	// Swagger documentation endpoint
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
