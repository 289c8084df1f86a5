package router

import (
	"errors"

	_ "github.com/25thblame/prompt-shield/docs"
	handlers "github.com/25thblame/prompt-shield/pkg/handlers/http"
	"github.com/25thblame/prompt-shield/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

var (
	ErrInvalidHandlerTransport = errors.New("invalid handler transport")
)

type shieldRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    *handlers.HandlerTransport
}

func NewShieldRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport *handlers.HandlerTransport,
) ServerRouter {
	return &shieldRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *shieldRouter) BuildRoutes(router *fiber.App) error {
	h := r.handlerTransport
	if h == nil || h.CheckHandler == nil {
		return ErrInvalidHandlerTransport
	}
	mw := r.middlewareTransport
	if mw == nil {
		mw = &middleware.Transport{}
	}

	if global := mw.Global(); len(global) > 0 {
		router.Use(global...)
	}

	router.Get("/", h.RootHandler.Handle)
	router.Get("/health", h.HealthHandler.Handle)
	router.Get("/version", h.GetVersionHandler.Handle)
	router.Get("/docs/*", swagger.HandlerDefault)

	var apiChain, adminChain []fiber.Handler
	if mw.AuthMiddleware != nil {
		apiChain = append(apiChain, mw.AuthMiddleware.Middleware())
	}
	adminChain = append(adminChain, apiChain...)
	if mw.AdminAuthMiddleware != nil {
		adminChain = append(adminChain, mw.AdminAuthMiddleware.Middleware())
	}

	router.Post("/check", chain(apiChain, h.CheckHandler)...)
	router.Get("/stats", chain(adminChain, h.GetStatsHandler)...)
	router.Get("/attacks", chain(adminChain, h.ListAttacksHandler)...)
	router.Get("/repeat-offenders", chain(adminChain, h.RepeatOffendersHandler)...)

	return nil
}

func chain(middlewares []fiber.Handler, h handlers.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(middlewares)+1)
	out = append(out, middlewares...)
	return append(out, h.Handle)
}
