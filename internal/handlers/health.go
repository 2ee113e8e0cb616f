package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tecnochat/tenolatina-sub000/internal/conversation"
)

// HealthHandler reports service liveness and a few runtime gauges.
type HealthHandler struct {
	Version  string
	sessions *conversation.Manager
	pingers  []func() error
}

// NewHealthHandler creates a health handler. pingers are backend
// checks (database, cache) run on the readiness probe.
func NewHealthHandler(version string, sessions *conversation.Manager, pingers ...func() error) *HealthHandler {
	return &HealthHandler{
		Version:  version,
		sessions: sessions,
		pingers:  pingers,
	}
}

// Check is the liveness probe.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "OK",
		"service":         "TenoLatina Routing Engine",
		"version":         h.Version,
		"active_sessions": h.sessions.ActiveCount(),
	})
}

// Ready is the readiness probe; it fails when a backend is down.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	for _, ping := range h.pingers {
		if err := ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
