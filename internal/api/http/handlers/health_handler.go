package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/glpi-bridge/internal/glpi"
	"github.com/spec-kit/glpi-bridge/internal/persistence"
)

// HealthHandler reports service health and upstream reachability.
type HealthHandler struct {
	serviceName string
	version     string
	session     *glpi.SessionManager
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance. redis may be nil when
// no shared cache is configured.
func NewHealthHandler(serviceName, version string, session *glpi.SessionManager, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, session: session, redis: redis}
}

// Health reports service status and dependency reachability.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	healthy := true

	if _, err := h.session.Acquire(ctx); err != nil {
		depStatus["glpi"] = err.Error()
		healthy = false
	} else {
		depStatus["glpi"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			depStatus["redis"] = err.Error()
			healthy = false
		} else {
			depStatus["redis"] = "ok"
		}
	}

	if healthy {
		return c.JSON(fiber.Map{
			"status":       "success",
			"service":      h.serviceName,
			"version":      h.version,
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"status":       "error",
		"message":      "one or more dependencies unavailable",
		"service":      h.serviceName,
		"version":      h.version,
		"dependencies": depStatus,
	})
}
