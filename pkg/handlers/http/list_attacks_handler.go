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

type listAttacksHandler struct {
	logger *logrus.Logger
	engine shield.Engine
}

func NewListAttacksHandler(logger *logrus.Logger, engine shield.Engine) Handler {
	return &listAttacksHandler{
		logger: logger,
		engine: engine,
	}
}

// Handle @Summary Recent attacks
// @Description Lists recorded attacks newest first
// @Tags Analytics
// @Produce json
// @Param Authorization header string false "Admin bearer token"
// @Param limit query int false "Page size, at most 1000" default(100)
// @Param offset query int false "Records to skip" default(0)
// @Param type query string false "Comma separated attack types"
// @Success 200 {object} response.AttacksResponse "Attacks"
// @Failure 400 {object} map[string]interface{} "Invalid pagination"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /attacks [get]
func (h *listAttacksHandler) Handle(c *fiber.Ctx) error {
	limit, err := intQuery(c, "limit", common.DefaultRecentLimit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	types, err := attackTypesQuery(c, "type")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if limit > shield.MaxRecentLimit {
		limit = shield.MaxRecentLimit
	}

	attacks, err := h.engine.GetRecentAttacks(c.UserContext(), limit, offset, types...)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPagination) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.logger.WithError(err).Error("failed to list attacks")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list attacks"})
	}
	if attacks == nil {
		attacks = []attack.AttackRecord{}
	}

	return c.Status(fiber.StatusOK).JSON(response.AttacksResponse{
		Attacks: attacks,
		Count:   len(attacks),
		Limit:   limit,
		Offset:  offset,
	})
}
