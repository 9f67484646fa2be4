package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/glpi-bridge/internal/api/http/handlers"
	"github.com/spec-kit/glpi-bridge/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Categories     *handlers.CategoriesHandler
	Agent          *handlers.AgentHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Everything except the health probe
// sits behind the (possibly pass-through) auth middleware.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", cfg.Health.Health)

	api := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.SearchTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/followups", cfg.Tickets.AddFollowup)
	tickets.Post("/:id/solutions", cfg.Tickets.AddSolution)
	tickets.Get("/:id/similar", cfg.Agent.SimilarTickets)

	categories := api.Group("/categories")
	categories.Get("/", cfg.Categories.ListCategories)
	categories.Get("/:id", cfg.Categories.GetCategory)

	agentGroup := api.Group("/agent")
	agentGroup.Post("/analyze", cfg.Agent.Analyze)
	agentGroup.Post("/category", cfg.Agent.SuggestCategory)
	agentGroup.Post("/priority", cfg.Agent.EvaluatePriority)
	agentGroup.Post("/decision", cfg.Agent.DetermineAction)
	agentGroup.Post("/execute", cfg.Agent.ExecuteAction)

	api.Get("/solutions", cfg.Agent.SearchSolutions)
}
