package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/effortlens/effortlens-api/internal/config"
	"github.com/effortlens/effortlens-api/internal/handler"
	"github.com/effortlens/effortlens-api/internal/middleware"
	"github.com/effortlens/effortlens-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	DatasetHandler        *handler.DatasetHandler
	PredictionHandler     *handler.PredictionHandler
	RecommendationHandler *handler.RecommendationHandler
	ProjectHandler        *handler.ProjectHandler
	AnalyticsHandler      *handler.AnalyticsHandler
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.RegisterPublic(auth)
		deps.AuthHandler.RegisterProtected(auth, jwtMiddleware)
	}

	if deps.DatasetHandler != nil {
		datasets := api.Group("/datasets", jwtMiddleware)
		deps.DatasetHandler.Register(datasets)
	}

	if deps.PredictionHandler != nil {
		predictions := api.Group("/predictions", jwtMiddleware, middleware.RateLimit("predictions", 30, time.Minute))
		deps.PredictionHandler.Register(predictions)
	}

	if deps.RecommendationHandler != nil {
		recommendations := api.Group("/recommendations", jwtMiddleware)
		deps.RecommendationHandler.Register(recommendations)
	}

	if deps.ProjectHandler != nil {
		projects := api.Group("/projects", jwtMiddleware)
		deps.ProjectHandler.Register(projects)
	}

	if deps.AnalyticsHandler != nil {
		analytics := api.Group("/analytics", jwtMiddleware)
		deps.AnalyticsHandler.Register(analytics)
	}
}
