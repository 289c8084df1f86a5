package middleware

import (
	"strings"

	"github.com/25thblame/prompt-shield/pkg/common"
	"github.com/gofiber/fiber/v2"
)

var (
	defaultCORSMethods = []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", common.APIKeyHeader, common.SourceIDHeader, common.RequestIDHeader}
)

type corsGlobalMiddleware struct {
	allowOrigins  []string
	allowMethods  []string
	allowHeaders  []string
	exposeHeaders []string
	maxAge        string
}

// NewCORSGlobalMiddleware answers preflight requests for the listed
// origins. "*" allows any origin. No origins disables CORS handling.
func NewCORSGlobalMiddleware(allowOrigins []string) Middleware {
	return &corsGlobalMiddleware{
		allowOrigins:  allowOrigins,
		allowMethods:  defaultCORSMethods,
		allowHeaders:  defaultCORSHeaders,
		exposeHeaders: []string{common.RequestIDHeader},
		maxAge:        "600",
	}
}

func (m *corsGlobalMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if origin == "" || !m.allowed(origin) {
			return c.Next()
		}

		c.Vary("Origin")
		if hasStar(m.allowOrigins) {
			c.Set("Access-Control-Allow-Origin", "*")
		} else {
			c.Set("Access-Control-Allow-Origin", origin)
		}
		c.Set("Access-Control-Expose-Headers", strings.Join(m.exposeHeaders, ", "))

		if c.Method() == fiber.MethodOptions && c.Get("Access-Control-Request-Method") != "" {
			c.Set("Access-Control-Allow-Methods", strings.Join(m.allowMethods, ", "))
			c.Set("Access-Control-Allow-Headers", strings.Join(m.allowHeaders, ", "))
			c.Set("Access-Control-Max-Age", m.maxAge)
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func (m *corsGlobalMiddleware) allowed(origin string) bool {
	for _, o := range m.allowOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func hasStar(arr []string) bool {
	for _, v := range arr {
		if v == "*" {
			return true
		}
	}
	return false
}
