package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-insights-api/internal/config"
	"github.com/noah-isme/classroom-insights-api/internal/handler"
	"github.com/noah-isme/classroom-insights-api/internal/middleware"
	"github.com/noah-isme/classroom-insights-api/internal/models"
	"github.com/noah-isme/classroom-insights-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TeacherAnalyticsHandler *handler.TeacherAnalyticsHandler
	SeedHandler             *handler.SeedHandler
	JWTMiddleware           fiber.Handler
	TeacherResolver         fiber.Handler
	HealthProbes            map[string]handler.HealthProbe
	Logger                  zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	app.Get("/metrics", observability.MetricsHandler(deps.Logger))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	// Teacher dashboard
	if deps.TeacherAnalyticsHandler != nil && deps.TeacherResolver != nil {
		teacher := app.Group("/api/teacher",
			jwtMiddleware,
			middleware.RequireRole(models.UserRoleTeacher),
			deps.TeacherResolver,
			middleware.RateLimit("teacher-analytics", cfg.RateLimitMax, cfg.RateLimitWindow),
		)
		deps.TeacherAnalyticsHandler.Register(teacher)
	}

	// Tooling
	if deps.SeedHandler != nil {
		seed := app.Group("/api/seed", middleware.RateLimit("seed", cfg.RateLimitMax, cfg.RateLimitWindow))
		deps.SeedHandler.Register(seed)
	}
}
