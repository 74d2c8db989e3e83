package handler

import (
	"context"
	"errors"
	"io"

	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/middleware"
	"github.com/raflytch/mockprep-server/internal/service"
	"github.com/raflytch/mockprep-server/internal/session"
	"github.com/raflytch/mockprep-server/pkg/response"
	"github.com/raflytch/mockprep-server/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	sessionService domain.SessionService
	audioValidator *validator.FileValidator
}

func NewSessionHandler(sessionService domain.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		audioValidator: validator.AudioValidator(),
	}
}

type SessionView struct {
	*domain.TestSession
	CurrentQuestion *domain.Question `json:"current_question,omitempty"`
	CanComplete     bool             `json:"can_complete"`
}

func newSessionView(ts *domain.TestSession) SessionView {
	view := SessionView{
		TestSession: ts,
		CanComplete: session.CanComplete(*ts),
	}
	if ts.Status == domain.SessionStatusInProgress {
		if q, ok := session.CurrentQuestion(*ts); ok {
			view.CurrentQuestion = &q
		}
	}
	return view
}

func (h *SessionHandler) Create(c *fiber.Ctx) error {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		return response.Unauthorized(c, "user not authenticated")
	}

	var req domain.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "invalid request body")
		}
	}

	if err := validate.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	ts, err := h.sessionService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return sessionError(c, err)
	}

	return response.Success(c, fiber.StatusCreated, "session started", newSessionView(ts))
}

func (h *SessionHandler) GetByID(c *fiber.Ctx) error {
	return h.run(c, "session retrieved", h.sessionService.Get)
}

func (h *SessionHandler) Start(c *fiber.Ctx) error {
	return h.run(c, "session started", h.sessionService.Start)
}

func (h *SessionHandler) Next(c *fiber.Ctx) error {
	return h.run(c, "moved to next question", h.sessionService.Next)
}

func (h *SessionHandler) Previous(c *fiber.Ctx) error {
	return h.run(c, "moved to previous question", h.sessionService.Previous)
}

func (h *SessionHandler) Complete(c *fiber.Ctx) error {
	return h.run(c, "session completed", h.sessionService.Complete)
}

func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	return h.run(c, "session reset", h.sessionService.Reset)
}

type sessionAction func(ctx context.Context, userID, sessionID string) (*domain.TestSession, error)

func (h *SessionHandler) run(c *fiber.Ctx, message string, action sessionAction) error {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		return response.Unauthorized(c, "user not authenticated")
	}

	ts, err := action(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}

	return response.Success(c, fiber.StatusOK, message, newSessionView(ts))
}

func (h *SessionHandler) SubmitText(c *fiber.Ctx) error {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		return response.Unauthorized(c, "user not authenticated")
	}

	var req domain.SubmitTextAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	ts, err := h.sessionService.SubmitText(c.UserContext(), userID, c.Params("id"), req.Answer)
	if err != nil {
		return sessionError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "answer evaluated", newSessionView(ts))
}

func (h *SessionHandler) SubmitAudio(c *fiber.Ctx) error {
	userID := middleware.GetUserIDFromContext(c)
	if userID == "" {
		return response.Unauthorized(c, "user not authenticated")
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return response.BadRequest(c, "audio file is required, use form field 'audio'")
	}

	if err := h.audioValidator.Validate(file); err != nil {
		return response.BadRequest(c, err.Error())
	}

	src, err := file.Open()
	if err != nil {
		return response.BadRequest(c, "failed to read audio file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return response.BadRequest(c, "failed to read audio file")
	}

	ts, err := h.sessionService.SubmitAudio(c.UserContext(), userID, c.Params("id"), &domain.AudioAnswer{
		Data:     data,
		MIMEType: validator.AudioMIMEType(file.Filename, file.Header.Get("Content-Type")),
		FileName: file.Filename,
	})
	if err != nil {
		return sessionError(c, err)
	}

	return response.Success(c, fiber.StatusOK, "audio answer evaluated", newSessionView(ts))
}

func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return response.NotFound(c, "session not found")
	case errors.Is(err, service.ErrQuestionSetNotFound):
		return response.NotFound(c, "no questions generated yet, generate questions or pass a technology")
	case errors.Is(err, service.ErrSessionForbidden):
		return response.Forbidden(c, "unauthorized access to session")
	case errors.Is(err, service.ErrAudioRequired):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, session.ErrCannotComplete):
		return response.Conflict(c, "answer at least one question and reach the last question before completing")
	case errors.Is(err, session.ErrAlreadyCompleted):
		return response.Conflict(c, "session already completed")
	case errors.Is(err, session.ErrNotInProgress):
		return response.Conflict(c, "session is not in progress")
	case errors.Is(err, session.ErrAlreadyStarted):
		return response.Conflict(c, "session already started")
	case errors.Is(err, session.ErrNoQuestions):
		return response.Conflict(c, "session has no questions")
	case errors.Is(err, domain.ErrSessionConflict):
		return response.Conflict(c, "session was modified concurrently, try again")
	case errors.Is(err, service.ErrEvaluationFailed):
		return response.BadGateway(c, "audio evaluation failed, please try again")
	}
	return response.InternalError(c, err.Error())
}
