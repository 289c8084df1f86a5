package middleware

import (
	"github.com/25thblame/prompt-shield/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxRequestIDLength = 128

type requestIDMiddleware struct{}

// NewRequestIDMiddleware tags every request with an id, reusing a sane
// X-Request-ID from the caller.
func NewRequestIDMiddleware() Middleware {
	return &requestIDMiddleware{}
}

func (m *requestIDMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(common.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Locals(common.RequestIDContextKey, id)
		c.Set(common.RequestIDHeader, id)
		return c.Next()
	}
}

// RequestID returns the id assigned by the request id middleware, or a
// fresh one when the middleware is not mounted.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(common.RequestIDContextKey).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
