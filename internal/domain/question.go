package domain

import (
	"context"
	"time"
)

type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierExpert       Tier = "expert"
)

// Tiers lists the difficulty tiers in presentation order.
var Tiers = []Tier{TierBeginner, TierIntermediate, TierExpert}

type Question struct {
	ID              string `json:"id" yaml:"id"`
	Text            string `json:"text" yaml:"question"`
	ReferenceAnswer string `json:"reference_answer" yaml:"answer"`
	DifficultyTier  Tier   `json:"difficulty_tier" yaml:"-"`
	Technology      string `json:"technology" yaml:"-"`
	Role            string `json:"role" yaml:"-"`
}

type QuestionSet map[Tier][]Question

// Count returns the number of questions across all tiers.
func (s QuestionSet) Count() int {
	n := 0
	for _, qs := range s {
		n += len(qs)
	}
	return n
}

type StoredQuestionSet struct {
	Technology  string      `json:"technology"`
	Role        string      `json:"role"`
	Questions   QuestionSet `json:"questions"`
	Source      string      `json:"source"`
	GeneratedAt time.Time   `json:"generated_at"`
}

const (
	QuestionSourceAI       = "ai"
	QuestionSourceFallback = "fallback"
)

type GenerateQuestionsRequest struct {
	Technology string `json:"technology" validate:"required,min=1,max=100"`
	Role       string `json:"role" validate:"omitempty,max=100"`
	Notes      string `json:"notes" validate:"omitempty,max=1000"`
}

type QuestionSetResponse struct {
	QuestionSet        *StoredQuestionSet `json:"question_set"`
	AIGenerationStatus string             `json:"ai_generation_status,omitempty"`
}

// QuestionGenerator produces a QuestionSet from the generative model.
type QuestionGenerator interface {
	Generate(ctx context.Context, technology, role, notes string) (QuestionSet, error)
}

type QuestionBank interface {
	Technologies() []string
	Lookup(technology string) QuestionSet
}

type QuestionSetRepository interface {
	Save(ctx context.Context, userID string, set *StoredQuestionSet) error
	Find(ctx context.Context, userID string) (*StoredQuestionSet, error)
}

type QuestionService interface {
	Generate(ctx context.Context, userID string, req *GenerateQuestionsRequest) (*QuestionSetResponse, error)
	GetCurrent(ctx context.Context, userID string) (*StoredQuestionSet, error)
	ListBankTechnologies() []string
}

type QuotaService interface {
	CheckAndIncrementUsage(ctx context.Context, userID string) error
}
