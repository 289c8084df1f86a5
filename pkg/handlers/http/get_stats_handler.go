package http

import (
	"errors"

	"github.com/25thblame/prompt-shield/pkg/app/shield"
	"github.com/25thblame/prompt-shield/pkg/common"
	"github.com/25thblame/prompt-shield/pkg/domain"
	"github.com/25thblame/prompt-shield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getStatsHandler struct {
	logger *logrus.Logger
	engine shield.Engine
}

func NewGetStatsHandler(logger *logrus.Logger, engine shield.Engine) Handler {
	return &getStatsHandler{
		logger: logger,
		engine: engine,
	}
}

// Handle @Summary Attack statistics
// @Description Counts recorded attacks by type over the last days
// @Tags Analytics
// @Produce json
// @Param Authorization header string false "Admin bearer token"
// @Param days query int false "Window in days" default(7)
// @Success 200 {object} response.StatsResponse "Statistics"
// @Failure 400 {object} map[string]interface{} "Invalid window"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /stats [get]
func (h *getStatsHandler) Handle(c *fiber.Ctx) error {
	days, err := intQuery(c, "days", common.DefaultStatsWindowDays)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	stats, err := h.engine.GetStats(c.UserContext(), days)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWindow) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("failed to load attack stats")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load attack stats"})
	}

	return c.Status(fiber.StatusOK).JSON(response.StatsResponse{Stats: stats, Days: days})
}
