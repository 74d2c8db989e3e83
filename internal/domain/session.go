package domain

import (
	"context"
	"errors"
	"time"
)

type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "not_started"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

type Modality string

const (
	ModalityText  Modality = "text"
	ModalityAudio Modality = "audio"
)

const (
	TextMaxMarks  = 10.0
	AudioMaxMarks = 100.0
)

var ErrSessionConflict = errors.New("session was modified concurrently")

type AnswerRecord struct {
	QuestionIndex int       `json:"question_index"`
	MarksAwarded  float64   `json:"marks_awarded"`
	MaxMarks      float64   `json:"max_marks"`
	Feedback      string    `json:"feedback"`
	Modality      Modality  `json:"modality"`
	Confidence    *float64  `json:"confidence,omitempty"`
	Fluency       *float64  `json:"fluency,omitempty"`
	UserAnswer    string    `json:"user_answer,omitempty"`
	AudioURL      string    `json:"audio_url,omitempty"`
	TimeSpent     int64     `json:"time_spent"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

type TestSession struct {
	ID                string               `json:"id"`
	UserID            string               `json:"user_id"`
	Technology        string               `json:"technology"`
	Status            SessionStatus        `json:"status"`
	SampledQuestions  []Question           `json:"sampled_questions"`
	CurrentIndex      int                  `json:"current_index"`
	AnswerRecords     map[int]AnswerRecord `json:"answer_records"`
	StartedAt         *time.Time           `json:"started_at,omitempty"`
	CompletedAt       *time.Time           `json:"completed_at,omitempty"`
	QuestionEnteredAt *time.Time           `json:"question_entered_at,omitempty"`
	Results           *FinalResults        `json:"results,omitempty"`
}

type TierBreakdown struct {
	TotalQuestions    int     `json:"total_questions"`
	QuestionsAnswered int     `json:"questions_answered"`
	TotalMarks        float64 `json:"total_marks"`
	MaxPossibleMarks  float64 `json:"max_possible_marks"`
	PercentageScore   float64 `json:"percentage_score"`
}

type FinalResults struct {
	TotalQuestions    int                    `json:"total_questions"`
	QuestionsAnswered int                    `json:"questions_answered"`
	TotalMarks        float64                `json:"total_marks"`
	MaxPossibleMarks  float64                `json:"max_possible_marks"`
	PercentageScore   float64                `json:"percentage_score"`
	TimeSpent         int64                  `json:"time_spent"`
	Tiers             map[Tier]TierBreakdown `json:"tiers"`
}

type CreateSessionRequest struct {
	Technology string `json:"technology" validate:"omitempty,max=100"`
}

type SubmitTextAnswerRequest struct {
	Answer string `json:"answer" validate:"max=10000"`
}

type AudioAnswer struct {
	Data     []byte
	MIMEType string
	FileName string
}

type SessionRepository interface {
	Create(ctx context.Context, session *TestSession) error
	FindByID(ctx context.Context, id string) (*TestSession, error)
	// Update loads the session, applies fn and writes it back atomically.
	// fn may be invoked more than once when a concurrent writer wins.
	Update(ctx context.Context, id string, fn func(*TestSession) error) (*TestSession, error)
}

type SessionService interface {
	Create(ctx context.Context, userID string, req *CreateSessionRequest) (*TestSession, error)
	Get(ctx context.Context, userID, sessionID string) (*TestSession, error)
	// Start begins a session that is not yet started, such as one that was reset.
	Start(ctx context.Context, userID, sessionID string) (*TestSession, error)
	SubmitText(ctx context.Context, userID, sessionID, answer string) (*TestSession, error)
	SubmitAudio(ctx context.Context, userID, sessionID string, audio *AudioAnswer) (*TestSession, error)
	Next(ctx context.Context, userID, sessionID string) (*TestSession, error)
	Previous(ctx context.Context, userID, sessionID string) (*TestSession, error)
	Complete(ctx context.Context, userID, sessionID string) (*TestSession, error)
	Reset(ctx context.Context, userID, sessionID string) (*TestSession, error)
	// Shutdown cancels pending auto completions and waits for running ones.
	Shutdown(ctx context.Context) error
}
