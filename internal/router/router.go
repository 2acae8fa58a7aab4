package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/fablab-print-api/internal/config"
	"github.com/noah-isme/fablab-print-api/internal/handler"
	"github.com/noah-isme/fablab-print-api/internal/middleware"
	"github.com/noah-isme/fablab-print-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	SubmitHandler    *handler.SubmitHandler
	JobHandler       *handler.JobHandler
	StaffHandler     *handler.StaffHandler
	AuditHandler     *handler.AuditHandler
	AnalyticsHandler *handler.AnalyticsHandler
	HealthProbes     map[string]handler.HealthProbe
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public routes
	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}
	if deps.SubmitHandler != nil {
		deps.SubmitHandler.Register(api.Group("/submit"), middleware.RateLimit("submit", cfg.SubmitRateLimit, time.Minute))
	}

	// Workstation routes
	if deps.JobHandler != nil {
		deps.JobHandler.Register(api.Group("/jobs", jwtMiddleware))
	}
	if deps.StaffHandler != nil {
		deps.StaffHandler.Register(api.Group("/staff", jwtMiddleware))
	}
	if deps.AuditHandler != nil {
		deps.AuditHandler.Register(api.Group("/admin/audit", jwtMiddleware))
	}
	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(api.Group("/analytics", jwtMiddleware))
		api.Get("/_diag", jwtMiddleware, deps.AnalyticsHandler.Diagnostics)
	}
}
