package routes

import (
	"github.com/raflytch/mockprep-server/internal/handler"
	"github.com/raflytch/mockprep-server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func setupResultRoutes(router fiber.Router, h *handler.ResultHandler, auth *middleware.AuthMiddleware) {
	results := router.Group("/results")

	results.Use(auth.Authenticate())

	results.Get("/", h.GetMyResults)
	results.Get("/:id", h.GetByID)
	results.Get("/:id/report", h.DownloadReport)
}
