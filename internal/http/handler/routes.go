package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"userapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// /metrics is only served when gatherer is non-nil.
func RegisterRoutes(app *fiber.App, store Pinger, users service.UserService, gatherer prometheus.Gatherer) {
	app.Get("/health", HealthCheck(store))
	app.Get("/healthz", LivenessProbe())

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	app.Get("/users", ListUsers(users))
	app.Post("/users", CreateUser(users))
	app.Get("/users/:id", GetUser(users))
	app.Patch("/users/:id", UpdateUser(users))
	app.Put("/users/:id", UpdateUser(users))
	app.Delete("/users/:id", DeleteUser(users))
}
