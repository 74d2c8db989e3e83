package handler

import (
	"errors"

	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/middleware"
	"github.com/raflytch/mockprep-server/internal/service"
	"github.com/raflytch/mockprep-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type QuestionHandler struct {
	questionService domain.QuestionService
}

func NewQuestionHandler(questionService domain.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

func (h *QuestionHandler) Generate(c *fiber.Ctx) error {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		return response.Unauthorized(c, "user not authenticated")
	}

	var req domain.GenerateQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, err := h.questionService.Generate(c.UserContext(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrQuotaExceeded) {
			return response.TooManyRequests(c, "question generation quota exceeded for today")
		}
		return response.InternalError(c, err.Error())
	}

	return response.Success(c, fiber.StatusCreated, "questions generated", result)
}

func (h *QuestionHandler) GetCurrent(c *fiber.Ctx) error {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		return response.Unauthorized(c, "user not authenticated")
	}

	set, err := h.questionService.GetCurrent(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, service.ErrQuestionSetNotFound) {
			return response.NotFound(c, "no questions generated yet")
		}
		return response.InternalError(c, err.Error())
	}

	return response.Success(c, fiber.StatusOK, "questions retrieved", set)
}

func (h *QuestionHandler) ListBank(c *fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, "bundled technologies retrieved", fiber.Map{
		"technologies": h.questionService.ListBankTechnologies(),
	})
}
