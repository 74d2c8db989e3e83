package handler

import (
	"errors"
	"fmt"

	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/middleware"
	"github.com/raflytch/mockprep-server/internal/service"
	"github.com/raflytch/mockprep-server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ResultHandler struct {
	resultService domain.ResultService
}

func NewResultHandler(resultService domain.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

func (h *ResultHandler) GetMyResults(c *fiber.Ctx) error {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		return response.Unauthorized(c, "user not authenticated")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	result, err := h.resultService.GetByUserID(c.UserContext(), userID, page, limit)
	if err != nil {
		return response.InternalError(c, err.Error())
	}

	return response.Success(c, fiber.StatusOK, "results retrieved", result)
}

func (h *ResultHandler) GetByID(c *fiber.Ctx) error {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		return response.Unauthorized(c, "user not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "invalid result id")
	}

	result, err := h.resultService.GetByID(c.UserContext(), userID, id)
	if err != nil {
		return resultError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "result retrieved", result)
}

func (h *ResultHandler) DownloadReport(c *fiber.Ctx) error {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		return response.Unauthorized(c, "user not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "invalid result id")
	}

	pdf, err := h.resultService.RenderReport(c.UserContext(), userID, id)
	if err != nil {
		return resultError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="mock-interview-%s.pdf"`, id))
	return c.Send(pdf)
}

func resultError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrResultNotFound) {
		return response.NotFound(c, "result not found")
	}
	if errors.Is(err, service.ErrResultForbidden) {
		return response.Forbidden(c, "unauthorized access to result")
	}
	return response.InternalError(c, err.Error())
}
