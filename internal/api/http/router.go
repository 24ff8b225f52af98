package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Users          *handlers.UsersHandler
	Statistics     *handlers.StatisticsHandler
	Live           *handlers.LiveHandler
	AuthMiddleware *auth.AuthMiddleware
	// RateLimiter guards the unauthenticated auth endpoints. Nil disables it.
	RateLimiter *IPRateLimiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get("/ws", cfg.Live.Upgrade, cfg.Live.Serve())

	api := app.Group("/api")

	limit := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.RateLimiter != nil {
		limit = cfg.RateLimiter.Handler()
	}
	public := api.Group("/auth")
	public.Post("/login", limit, cfg.Auth.Login)
	public.Post("/send-verification-code", limit, cfg.Auth.SendVerificationCode)
	public.Post("/verify-code", limit, cfg.Auth.VerifyCode)
	public.Post("/change-password", limit, cfg.Auth.ChangePassword)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Get("/auth/me", cfg.Auth.Me)

	protected.Get("/tickets", cfg.Tickets.ListTickets)
	protected.Post("/tickets", cfg.Tickets.CreateTicket)
	protected.Get("/tickets/:id", cfg.Tickets.GetTicket)
	protected.Put("/tickets/:id", cfg.Tickets.UpdateTicket)
	protected.Delete("/tickets/:id", cfg.Tickets.DeleteTicket)
	protected.Post("/tickets/:id/comments", cfg.Tickets.AddComment)

	protected.Get("/users/it", cfg.Users.ListITUsers)

	itOnly := protected.Group("", auth.RequireRole(domain.RoleIT))
	itOnly.Get("/statistics", cfg.Statistics.Get)
	itOnly.Get("/users", cfg.Users.ListUsers)
	itOnly.Post("/users", cfg.Users.CreateUser)
	itOnly.Post("/users/import", cfg.Users.ImportUsers)
	itOnly.Put("/users/:id", cfg.Users.UpdateUser)
}
