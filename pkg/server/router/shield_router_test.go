package router_test

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	engineMocks "github.com/25thblame/prompt-shield/pkg/app/shield/mocks"
	"github.com/25thblame/prompt-shield/pkg/common"
	"github.com/25thblame/prompt-shield/pkg/domain/attack"
	"github.com/25thblame/prompt-shield/pkg/domain/verdict"
	handlers "github.com/25thblame/prompt-shield/pkg/handlers/http"
	"github.com/25thblame/prompt-shield/pkg/infra/auth/jwt"
	"github.com/25thblame/prompt-shield/pkg/middleware"
	"github.com/25thblame/prompt-shield/pkg/server/router"
	"github.com/gofiber/fiber/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func buildApp(t *testing.T, manager jwt.Manager) *fiber.App {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	engine := new(engineMocks.Engine)
	engine.On("Check", mock.Anything, "hello", "").Return(verdict.Verdict{IsSafe: true, Action: verdict.ActionAllow}, nil)
	engine.On("GetStats", mock.Anything, 7).Return(&attack.Stats{CountsByType: map[verdict.AttackType]int{}}, nil)

	mw := &middleware.Transport{
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
		RequestIDMiddleware:    middleware.NewRequestIDMiddleware(),
		AuthMiddleware:         middleware.NewAuthMiddleware(logger, "api-key"),
		AdminAuthMiddleware:    middleware.NewAdminAuthMiddleware(logger, manager),
	}
	h := &handlers.HandlerTransport{
		RootHandler:            handlers.NewRootHandler(logger, handlers.ServiceInfo{}),
		HealthHandler:          handlers.NewHealthHandler(logger, nil),
		GetVersionHandler:      handlers.NewGetVersionHandler(logger),
		CheckHandler:           handlers.NewCheckHandler(logger, engine, 100),
		GetStatsHandler:        handlers.NewGetStatsHandler(logger, engine),
		ListAttacksHandler:     handlers.NewListAttacksHandler(logger, engine),
		RepeatOffendersHandler: handlers.NewRepeatOffendersHandler(logger, engine),
	}

	app := fiber.New()
	require.NoError(t, router.NewShieldRouter(mw, h).BuildRoutes(app))
	return app
}

func do(t *testing.T, app *fiber.App, method, target string, body []byte, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestShieldRouter_PublicRoutesNeedNoCredentials(t *testing.T) {
	app := buildApp(t, jwt.NewJwtManager("secret"))

	assert.Equal(t, fiber.StatusOK, do(t, app, "GET", "/", nil, nil))
	assert.Equal(t, fiber.StatusOK, do(t, app, "GET", "/health", nil, nil))
	assert.Equal(t, fiber.StatusOK, do(t, app, "GET", "/version", nil, nil))
}

func TestShieldRouter_CheckRequiresAPIKey(t *testing.T) {
	app := buildApp(t, jwt.NewJwtManager("secret"))
	body := []byte(`{"prompt":"hello"}`)

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "POST", "/check", body, nil))
	assert.Equal(t, fiber.StatusOK, do(t, app, "POST", "/check", body, map[string]string{common.APIKeyHeader: "api-key"}))
}

func TestShieldRouter_AnalyticsRequireAdminToken(t *testing.T) {
	manager := jwt.NewJwtManager("secret")
	app := buildApp(t, manager)
	token, err := manager.CreateToken("ops", jwt.RoleAdmin, time.Minute)
	require.NoError(t, err)

	withKey := map[string]string{common.APIKeyHeader: "api-key"}
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/stats", nil, withKey))

	withBoth := map[string]string{common.APIKeyHeader: "api-key", "Authorization": "Bearer " + token}
	assert.Equal(t, fiber.StatusOK, do(t, app, "GET", "/stats", nil, withBoth))
}

func TestShieldRouter_RejectsMissingHandlers(t *testing.T) {
	err := router.NewShieldRouter(nil, &handlers.HandlerTransport{}).BuildRoutes(fiber.New())
	assert.ErrorIs(t, err, router.ErrInvalidHandlerTransport)
}
