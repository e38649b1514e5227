// Package routes defines the HTTP routes for the CoCo completion service.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/coco-ide/completion-service/internal/api/handlers"
	"github.com/coco-ide/completion-service/internal/api/middleware"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler       *handlers.HealthHandler
	SessionsHandler     *handlers.SessionsHandler
	CompletionsHandler  *handlers.CompletionsHandler
	SurveyHandler       *handlers.SurveyHandler
	BlacklistMiddleware *middleware.BlacklistMiddleware
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	// API v3 routes - all routes under /api/v3
	v3 := r.Group("/api/v3")
	{
		// Health check routes (never blacklisted)
		v3.GET("/health", cfg.HealthHandler.Health)
		v3.GET("/ready", cfg.HealthHandler.Ready)
		v3.GET("/live", cfg.HealthHandler.Live)

		// Blacklisted source IPs are refused on every plugin-facing route
		protected := v3.Group("")
		protected.Use(cfg.BlacklistMiddleware.Check())

		session := protected.Group("/session")
		{
			session.POST("/new", cfg.SessionsHandler.New)
			session.POST("/end", cfg.SessionsHandler.End)
		}

		protected.POST("/complete", cfg.CompletionsHandler.Complete)
		protected.POST("/verify", cfg.CompletionsHandler.Verify)
		protected.POST("/survey", cfg.SurveyHandler.Survey)
	}
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware) {
	// Apply global middleware
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	r.Use(gin.Recovery())
	r.Use(middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()))

	r.HandleMethodNotAllowed = true
	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())

	// Setup routes
	Setup(r, cfg)
}
