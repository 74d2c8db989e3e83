package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrResultExists means the attempt was already recorded.
var ErrResultExists = errors.New("result already recorded for this attempt")

type SessionResult struct {
	ID          uuid.UUID    `json:"id"`
	SessionID   string       `json:"session_id"`
	UserID      string       `json:"user_id"`
	Technology  string       `json:"technology"`
	Results     FinalResults `json:"results"`
	Answers     []ResultItem `json:"answers"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

type ResultItem struct {
	Question     string   `json:"question"`
	Tier         Tier     `json:"tier"`
	Modality     Modality `json:"modality"`
	MarksAwarded float64  `json:"marks_awarded"`
	MaxMarks     float64  `json:"max_marks"`
	Feedback     string   `json:"feedback"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type PaginatedResults struct {
	Results    []SessionResult `json:"results"`
	Pagination Pagination      `json:"pagination"`
}

type ResultRepository interface {
	Create(ctx context.Context, result *SessionResult) error
	FindByID(ctx context.Context, id uuid.UUID) (*SessionResult, error)
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]SessionResult, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
}

type ResultService interface {
	Record(ctx context.Context, session *TestSession) (*SessionResult, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*SessionResult, error)
	GetByUserID(ctx context.Context, userID string, page, limit int) (*PaginatedResults, error)
	RenderReport(ctx context.Context, userID string, id uuid.UUID) ([]byte, error)
}
