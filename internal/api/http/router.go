package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/ticket-assigner/internal/api/http/handlers"
	"github.com/spec-kit/ticket-assigner/internal/auth"
	"github.com/spec-kit/ticket-assigner/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	History        *handlers.HistoryHandler
	Assignment     *handlers.AssignmentHandler
	Skills         *handlers.SkillsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Users.Signup)
	authGroup.Post("/login", cfg.Users.Login)

	authed := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authed.Post("/logout", cfg.Users.Logout)
	authed.Get("/moderators", cfg.Users.ListModerators)
	authed.Post("/update-user", auth.RequireAdmin(), cfg.Users.UpdateUser)
	authed.Get("/users", auth.RequireAdmin(), cfg.Users.ListUsers)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("/auto-assign", auth.RequireAdmin(), cfg.Assignment.BulkAutoAssign)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	if cfg.History != nil {
		tickets.Get("/:id/history", cfg.History.List)
	}
	tickets.Patch("/:id/status", auth.RequireRole(domain.UserRoleModerator, domain.UserRoleAdmin), cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/auto-assign", auth.RequireAdmin(), cfg.Assignment.AutoAssign)
	tickets.Get("/:id/recommendations", auth.RequireRole(domain.UserRoleModerator, domain.UserRoleAdmin), cfg.Assignment.Recommendations)

	skills := app.Group("/skills")
	skills.Post("/extract", cfg.Skills.Extract)
	skills.Get("/catalog", cfg.Skills.Catalog)
}
