package routes

import (
	"github.com/gofiber/fiber/v2"

	"servicehub/broker"
	"servicehub/config"
	"servicehub/controllers"
	"servicehub/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, status *controllers.Status, auth *controllers.Auth, secret []byte) {
	// Public
	app.Get("/healthz", status.Health)

	api := app.Group("/api")
	api.Post("/login", auth.Login)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader(secret))

	protected.Get("/requests/:id", status.GetRequest)
}

// Consumers binds each hub queue to its handler.
func Consumers(cfg *config.Config, hub *controllers.Hub) []broker.Route {
	return []broker.Route{
		{Name: "client-requests", Queue: cfg.RequestQueue, Handler: hub.OnClientMessage},
		{Name: "service-responses", Queue: cfg.ServiceResponseQueue, Handler: hub.OnServiceMessage},
		{Name: "timeouts", Queue: cfg.TimeoutQueue, Handler: hub.OnTimeoutMessage},
		{Name: "fail-table", Queue: cfg.FailTableQueue, Handler: hub.OnFailMessage},
	}
}
