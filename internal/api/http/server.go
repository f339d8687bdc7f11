package http

import (
	"github.com/gofiber/fiber/v2"
)

// NewApp builds the Fiber application with the global middleware chain and all routes.
func NewApp(appName string, mw MiddlewareConfig, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(mw.Logger, mw.Metrics),
	})
	RegisterMiddlewares(app, mw)
	RegisterRoutes(app, routes)
	return app
}
