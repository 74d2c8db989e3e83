package routes

import (
	"github.com/raflytch/mockprep-server/internal/handler"
	"github.com/raflytch/mockprep-server/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Question *handler.QuestionHandler
	Session  *handler.SessionHandler
	Result   *handler.ResultHandler
}

type Middlewares struct {
	Auth *middleware.AuthMiddleware
}

func Setup(app *fiber.App, handlers Handlers, middlewares Middlewares, gatherer prometheus.Gatherer) {
	app.Get("/health", healthCheck)
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	setupQuestionRoutes(api, handlers.Question, middlewares.Auth)
	setupSessionRoutes(api, handlers.Session, middlewares.Auth)
	setupResultRoutes(api, handlers.Result, middlewares.Auth)
}

func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": "server is running",
	})
}
