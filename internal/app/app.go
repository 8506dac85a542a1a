package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/config"
	"github.com/stemlight/compass/internal/database"
	"github.com/stemlight/compass/internal/handlers"
	"github.com/stemlight/compass/internal/middleware"
	"github.com/stemlight/compass/internal/services"
	"github.com/stemlight/compass/internal/validation"
	"github.com/stemlight/compass/pkg/models"
)

type App struct {
	config     *config.Config
	logger     *logrus.Logger
	db         *database.Database
	services   *services.Services
	handlers   *handlers.Handlers
	validation *middleware.ValidationMiddleware
	router     *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	// Initialize database connections
	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	// Initialize services
	svc, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svc

	// Load model artifacts. A failed load is not fatal: the server comes up
	// unready, the readiness probe holds traffic, and an admin reload (or a
	// restart with fixed artifacts) repairs it.
	if err := svc.Engine.LoadAllModels(cfg.Artifacts.CatalogPath, cfg.Artifacts.Dir); err != nil {
		app.logger.WithError(err).Error("Failed to load model artifacts; recommendations unavailable until reload")
	}

	validator, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to load request schemas: %w", err)
	}
	app.validation = middleware.NewValidationMiddleware(validator)

	// Initialize handlers
	app.handlers = handlers.New(app.logger, cfg, svc)

	// Setup router
	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if err := a.services.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing services")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))
	router.Use(middleware.Security())
	router.Use(middleware.Compression())
	// Validation middleware is applied per route as needed

	// Health and readiness probes (no auth required)
	router.GET("/health", a.handlers.Health.Check)
	router.GET("/health/ready", a.handlers.Health.Ready)

	// Prometheus metrics endpoint (no auth required)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.Use(middleware.RateLimit(a.services.RateLimit, a.logger))
		api.Use(a.validation.ValidateHeaders())

		// Student-facing routes are anonymous: the catalog UI runs without
		// accounts, so there is nothing to authenticate.
		api.POST("/recommendations",
			a.validation.ValidateRecommendationRequest(),
			a.handlers.Recommendation.Recommend)
		api.POST("/feedback",
			a.validation.ValidateFeedbackEvent(),
			a.handlers.Feedback.RecordFeedback)
		api.POST("/usage",
			a.validation.ValidateUsageEvent(),
			a.handlers.Feedback.RecordUsage)

		// Token exchange for the admin surface
		api.POST("/auth/token", a.handlers.Auth.IssueToken)

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.Use(middleware.Auth(a.services.Auth, a.logger))
			admin.Use(middleware.RequireRole(models.RoleAdmin, a.logger))

			admin.GET("/artifacts", a.handlers.Admin.GetArtifacts)
			admin.POST("/reload", a.handlers.Admin.ReloadArtifacts)
			admin.DELETE("/auth/token", a.handlers.Auth.RevokeToken)
		}
	}

	a.router = router
}
