package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MathijsBok/ticket-system-sub002/internal/api/http/handlers"
	"github.com/MathijsBok/ticket-system-sub002/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	AgentTickets   *handlers.AgentTicketsHandler
	Feedback       *handlers.FeedbackHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// Feedback tokens carry their own credential.
	app.Post("/feedback", cfg.Feedback.SubmitFeedback)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/number/:number", cfg.Tickets.GetTicketByNumber)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/replies", cfg.Tickets.AddReply)

	agent := app.Group("/agent/tickets", cfg.AuthMiddleware.Handle, auth.RequireAgent())
	agent.Post("/merge", cfg.AgentTickets.Merge)
	agent.Post("/:id/status", cfg.AgentTickets.Transition)
	agent.Patch("/:id", cfg.AgentTickets.UpdateTicket)
	agent.Put("/:id/problem", cfg.AgentTickets.LinkProblem)
}
