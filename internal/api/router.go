package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"

	"github.com/signalsfoundry/region-globe/internal/logging"
)

// NewApp builds the fiber app with the globe routes installed.
func NewApp(deps *Dependencies, log logging.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "region-globe",
		BodyLimit:             64 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler,
	})
	app.Use(recover.New())
	SetupRoutes(app, deps, log)
	return app
}

// SetupRoutes registers the REST and streaming routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, log logging.Logger) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.FiberMiddleware())
		app.Get("/metrics", deps.Metrics.FiberHandler())
	}

	app.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		ContextKey: requestIDLocal,
	}))
	app.Use(RequestLoggerMiddleware(log))
	app.Use(AccessLogMiddleware(log))

	v1 := app.Group("/api/v1")
	v1.Get("/health", HealthHandler())
	v1.Get("/project", ProjectHandler())
	v1.Get("/regions", ListRegionsHandler(deps))
	v1.Get("/regions/:id", GetRegionHandler(deps))
	v1.Get("/countries", ListCountriesHandler(deps))
	v1.Get("/countries/:id/mesh", CountryMeshHandler(deps))
	v1.Get("/camera", CameraHandler(deps))
	v1.Post("/select", SelectHandler(deps))
	v1.Post("/back", BackHandler(deps))
	v1.Post("/hover", HoverHandler(deps))
	v1.Post("/pointer", PointerHandler(deps))

	if deps.Hub != nil {
		v1.Use("/stream", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		v1.Get("/stream", websocket.New(StreamHandler(deps.Hub, log)))
	}
}
