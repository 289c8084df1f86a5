package middleware

import (
	"crypto/subtle"

	"github.com/25thblame/prompt-shield/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type authMiddleware struct {
	logger *logrus.Logger
	apiKey string
}

// NewAuthMiddleware requires apiKey in X-API-Key. An empty apiKey leaves
// the API open.
func NewAuthMiddleware(logger *logrus.Logger, apiKey string) Middleware {
	return &authMiddleware{
		logger: logger,
		apiKey: apiKey,
	}
}

func (m *authMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if m.apiKey == "" {
			return ctx.Next()
		}
		provided := ctx.Get(common.APIKeyHeader)
		if provided == "" {
			m.logger.Debug("no api key provided")
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "API key required"})
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(m.apiKey)) != 1 {
			m.logger.WithField("path", ctx.Path()).Debug("invalid api key")
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid API key"})
		}
		return ctx.Next()
	}
}
