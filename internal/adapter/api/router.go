package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Version  string
	Env      string
	Registry *prometheus.Registry
}

func SetupRouter(app *fiber.App, handler *GenerateHandler, cfg RouterConfig) {
	// Middleware
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"version": cfg.Version,
			"env":     cfg.Env,
		})
	})

	if cfg.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	// API Versioning
	v1 := app.Group("/v1")
	// Endpoints
	v1.Post("/generate", handler.HandleGenerate)
}
