package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const healthProbeTimeout = 2 * time.Second

// HealthProbe reports whether a dependency is usable.
type HealthProbe func(ctx context.Context) error

type healthHandler struct {
	logger *logrus.Logger
	probes map[string]HealthProbe
}

func NewHealthHandler(logger *logrus.Logger, probes map[string]HealthProbe) Handler {
	return &healthHandler{
		logger: logger,
		probes: probes,
	}
}

// Handle @Summary Health check
// @Description Reports the state of the service and its backing stores
// @Tags Service
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Failure 503 {object} map[string]interface{} "A dependency is down"
// @Router /health [get]
func (h *healthHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
	defer cancel()

	status := "healthy"
	code := fiber.StatusOK
	components := make(fiber.Map, len(h.probes))
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			h.logger.WithError(err).WithField("component", name).Warn("health probe failed")
			components[name] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":     status,
		"time":       time.Now().Format(time.RFC3339),
		"components": components,
	})
}
