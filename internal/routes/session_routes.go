package routes

import (
	"github.com/raflytch/mockprep-server/internal/handler"
	"github.com/raflytch/mockprep-server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func setupSessionRoutes(router fiber.Router, h *handler.SessionHandler, auth *middleware.AuthMiddleware) {
	sessions := router.Group("/sessions")

	sessions.Use(auth.Authenticate())

	sessions.Post("/", h.Create)
	sessions.Get("/:id", h.GetByID)
	sessions.Post("/:id/start", h.Start)
	sessions.Post("/:id/answers/text", h.SubmitText)
	sessions.Post("/:id/answers/audio", h.SubmitAudio)
	sessions.Post("/:id/next", h.Next)
	sessions.Post("/:id/previous", h.Previous)
	sessions.Post("/:id/complete", h.Complete)
	sessions.Post("/:id/reset", h.Reset)
}
