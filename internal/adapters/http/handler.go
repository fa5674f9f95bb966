package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
	"github.com/quarkiverse/code-server-devservice/internal/core/service"
)

// FallbackURL is what the IDE pages point at while no service runs.
const FallbackURL = "http://localhost:8080"

// Page is one dev UI card page.
type Page struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Icon  string `json:"icon,omitempty"`
	Embed bool   `json:"embed"`
}

// DevServiceHandler exposes the dev service over the dev UI API.
type DevServiceHandler struct {
	service ports.DevService
}

func NewDevServiceHandler(service ports.DevService) *DevServiceHandler {
	return &DevServiceHandler{service: service}
}

// Status returns the result of the last reconciliation pass.
func (h *DevServiceHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.service.Current())
}

// Reconcile runs a pass against freshly loaded configuration.
func (h *DevServiceHandler) Reconcile(c *fiber.Ctx) error {
	result, err := h.service.Reconcile(c.UserContext())
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, domain.ErrStartFailure) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(result)
}

// Stop releases the running service.
func (h *DevServiceHandler) Stop(c *fiber.Ctx) error {
	h.service.Stop(c.UserContext())
	return c.JSON(h.service.Current())
}

// Logs streams the logs of the running container as plain text.
func (h *DevServiceHandler) Logs(c *fiber.Ctx) error {
	logs, err := h.service.Logs(c.UserContext())
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrNotRunning) {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	// Fiber closes the stream once the body is written.
	return c.SendStream(logs)
}

// Pages lists the IDE pages of the dev UI card.
func (h *DevServiceHandler) Pages(c *fiber.Ctx) error {
	return c.JSON(Pages(h.service.Current()))
}

// Pages returns the embedded and external IDE pages for result.
func Pages(result *domain.ServiceResult) []Page {
	url := IDEURL(result)
	return []Page{
		{Title: "IDE", URL: url, Icon: "font-awesome-solid:file-lines", Embed: true},
		{Title: "IDE (External)", URL: url},
	}
}

// IDEURL returns the connection URL of a running service, or FallbackURL.
func IDEURL(result *domain.ServiceResult) string {
	if result.Running() {
		if url := result.Config[service.URLConfigKey]; url != "" {
			return url
		}
	}
	return FallbackURL
}
