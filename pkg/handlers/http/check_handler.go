package http

import (
	"context"
	"errors"

	"github.com/25thblame/prompt-shield/pkg/app/shield"
	"github.com/25thblame/prompt-shield/pkg/common"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	"github.com/25thblame/prompt-shield/pkg/handlers/http/request"
	"github.com/25thblame/prompt-shield/pkg/handlers/http/response"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/25thblame/prompt-shield/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type checkHandler struct {
	logger          *logrus.Logger
	engine          shield.Engine
	maxPromptLength int
}

func NewCheckHandler(logger *logrus.Logger, engine shield.Engine, maxPromptLength int) Handler {
	return &checkHandler{
		logger:          logger,
		engine:          engine,
		maxPromptLength: maxPromptLength,
	}
}

// Handle @Summary Screen a prompt
// @Description Classifies a prompt as safe, suspicious or malicious. The caller may identify itself with source_id or the X-Source-ID header for repeat offender tracking.
// @Tags Screening
// @Accept json
// @Produce json
// @Param X-API-Key header string false "Service API key"
// @Param X-Source-ID header string false "Caller or session identifier"
// @Param request body request.CheckRequest true "Prompt to screen"
// @Success 200 {object} response.CheckResponse "Verdict"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 401 {object} map[string]interface{} "Missing or invalid API key"
// @Failure 503 {object} response.UnavailableResponse "Classifier unavailable"
// @Router /check [post]
func (h *checkHandler) Handle(c *fiber.Ctx) error {
	requestID := middleware.RequestID(c)

	var req request.CheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload.Error()})
	}
	if err := req.Validate(h.maxPromptLength); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sourceID := req.SourceID
	if sourceID == "" {
		sourceID = c.Get(common.SourceIDHeader)
	}

	v, err := h.engine.Check(c.UserContext(), req.Prompt, sourceID)
	if err != nil {
		return h.handleError(c, requestID, err)
	}

	if v.Action != verdict.ActionAllow {
		h.logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"action":      v.Action,
			"attack_type": v.AttackType,
			"confidence":  v.Confidence,
			"cached":      v.Cached,
		}).Info("prompt screened")
	}

	return c.Status(fiber.StatusOK).JSON(response.CheckResponse{
		Result:    v,
		RequestID: requestID,
	})
}

func (h *checkHandler) handleError(c *fiber.Ctx, requestID string, err error) error {
	var unavailable *oracle.ClassificationUnavailableError
	switch {
	case errors.As(err, &unavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(response.UnavailableResponse{
			Error:     "classification unavailable",
			FailOpen:  unavailable.FailOpen,
			Fallback:  unavailable.Fallback,
			RequestID: requestID,
		})
	case errors.Is(err, shield.ErrEngineClosed):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service is shutting down"})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "screening timed out"})
	default:
		h.logger.WithError(err).WithField("request_id", requestID).Error("failed to screen prompt")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to screen prompt"})
	}
}
