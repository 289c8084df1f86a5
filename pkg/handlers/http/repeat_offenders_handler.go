package http

import (
	"errors"

	"github.com/25thblame/prompt-shield/pkg/app/shield"
	"github.com/25thblame/prompt-shield/pkg/common"
	"github.com/25thblame/prompt-shield/pkg/domain"
	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type repeatOffendersHandler struct {
	logger *logrus.Logger
	engine shield.Engine
}

func NewRepeatOffendersHandler(logger *logrus.Logger, engine shield.Engine) Handler {
	return &repeatOffendersHandler{
		logger: logger,
		engine: engine,
	}
}

// Handle @Summary Repeat offenders
// @Description Sources with at least min_count attacks in the window, most active first
// @Tags Analytics
// @Produce json
// @Param Authorization header string false "Admin bearer token"
// @Param min_count query int false "Minimum attacks per source" default(3)
// @Param days query int false "Window in days" default(7)
// @Success 200 {object} response.RepeatOffendersResponse "Offenders"
// @Failure 400 {object} map[string]interface{} "Invalid parameters"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /repeat-offenders [get]
func (h *repeatOffendersHandler) Handle(c *fiber.Ctx) error {
	minCount, err := intQuery(c, "min_count", common.DefaultMinCount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	days, err := intQuery(c, "days", common.DefaultStatsWindowDays)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	offenders, err := h.engine.GetRepeatOffenders(c.UserContext(), days, minCount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWindow) || errors.Is(err, domain.ErrInvalidMinCount) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("failed to load repeat offenders")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load repeat offenders"})
	}
	if offenders == nil {
		offenders = []attack.Offender{}
	}

	return c.Status(fiber.StatusOK).JSON(response.RepeatOffendersResponse{
		Offenders: offenders,
		MinCount:  minCount,
		Days:      days,
	})
}
