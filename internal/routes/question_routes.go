package routes

import (
	"github.com/raflytch/mockprep-server/internal/handler"
	"github.com/raflytch/mockprep-server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func setupQuestionRoutes(router fiber.Router, h *handler.QuestionHandler, auth *middleware.AuthMiddleware) {
	questions := router.Group("/questions")

	questions.Get("/bank", h.ListBank)

	questions.Use(auth.Authenticate())

	questions.Post("/generate", h.Generate)
	questions.Get("/current", h.GetCurrent)
}
