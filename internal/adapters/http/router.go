package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
)

// NewApp builds the dev UI server around service.
func NewApp(service ports.DevService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "code-server-devservice",
		DisableStartupMessage: true,
	})

	devservice := NewDevServiceHandler(service)
	proxy := NewProxyHandler(service)

	v1 := app.Group("/api").Group("/v1")

	routes := v1.Group("/devservice")
	routes.Get("/", devservice.Status)
	routes.Post("/reconcile", devservice.Reconcile)
	routes.Delete("/", devservice.Stop)
	routes.Get("/logs", devservice.Logs)
	routes.Get("/pages", devservice.Pages)

	app.All(IDEPrefix, proxy.ProxyRequest)
	app.All(IDEPrefix+"/*", proxy.ProxyRequest)

	return app
}
