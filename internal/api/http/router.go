package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/servicedeskpro/servicedesk/internal/api/http/handlers"
	"github.com/servicedeskpro/servicedesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Admin          *handlers.AdminHandler
	Payments       *handlers.PaymentHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/federated", cfg.Auth.Federated)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	app.Get("/plans", cfg.Payments.ListPlans)

	ticketGroup := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	ticketGroup.Get("", cfg.Tickets.List)
	ticketGroup.Post("", cfg.Tickets.Create)
	ticketGroup.Get("/:id", cfg.Tickets.Get)
	ticketGroup.Patch("/:id", cfg.Tickets.Update)
	ticketGroup.Post("/:id/comments", cfg.Tickets.AddComment)

	app.Get("/users/:id/tickets", cfg.AuthMiddleware.Handle, cfg.Tickets.ListForUser)

	paymentGroup := app.Group("/payments", cfg.AuthMiddleware.Handle)
	paymentGroup.Post("/orders", cfg.Payments.CreateOrder)
	paymentGroup.Post("/confirm", cfg.Payments.Confirm)

	adminGroup := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	adminGroup.Get("/stats", cfg.Admin.Stats)
}
