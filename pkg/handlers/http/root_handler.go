package http

import (
	"github.com/25thblame/prompt-shield/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ServiceInfo describes the running configuration. CacheBackend is read on
// every request since the cache may fall back at runtime.
type ServiceInfo struct {
	Provider     string
	Model        string
	Ledger       string
	CacheBackend func() string
}

type rootHandler struct {
	logger *logrus.Logger
	info   ServiceInfo
}

func NewRootHandler(logger *logrus.Logger, info ServiceInfo) Handler {
	return &rootHandler{
		logger: logger,
		info:   info,
	}
}

// Handle @Summary Service information
// @Description Name, version, active classifier and available endpoints
// @Tags Service
// @Produce json
// @Success 200 {object} map[string]interface{} "Service information"
// @Router / [get]
func (h *rootHandler) Handle(c *fiber.Ctx) error {
	cacheBackend := ""
	if h.info.CacheBackend != nil {
		cacheBackend = h.info.CacheBackend()
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"name":     version.AppName,
		"version":  version.Version,
		"provider": h.info.Provider,
		"model":    h.info.Model,
		"cache":    cacheBackend,
		"ledger":   h.info.Ledger,
		"endpoints": fiber.Map{
			"check":            "POST /check",
			"stats":            "GET /stats?days=7",
			"attacks":          "GET /attacks?limit=100&offset=0",
			"repeat_offenders": "GET /repeat-offenders?min_count=3&days=7",
			"health":           "GET /health",
			"docs":             "GET /docs/",
		},
	})
}
