package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrQuestionSetNotFound = errors.New("no question set generated yet")

const (
	AIStatusSuccess       = "success"
	AIStatusFailed        = "failed"
	AIStatusSkippedClient = "skipped_no_ai_client"
)

type questionService struct {
	generator    domain.QuestionGenerator
	bank         domain.QuestionBank
	questionRepo domain.QuestionSetRepository
	quotaService domain.QuotaService
	log          zerolog.Logger
}

func NewQuestionService(
	generator domain.QuestionGenerator,
	bank domain.QuestionBank,
	questionRepo domain.QuestionSetRepository,
	quotaService domain.QuotaService,
	log zerolog.Logger,
) domain.QuestionService {
	return &questionService{
		generator:    generator,
		bank:         bank,
		questionRepo: questionRepo,
		quotaService: quotaService,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// Generate asks the model for a fresh question set and falls back to the
// bundled bank on any failure. The result replaces the user's stored set.
func (s *questionService) Generate(ctx context.Context, userID string, req *domain.GenerateQuestionsRequest) (*domain.QuestionSetResponse, error) {
	if err := s.quotaService.CheckAndIncrementUsage(ctx, userID); err != nil {
		return nil, err
	}

	technology := strings.TrimSpace(req.Technology)
	role := strings.TrimSpace(req.Role)

	aiStatus := AIStatusSuccess
	source := domain.QuestionSourceAI
	questions, err := s.generator.Generate(ctx, technology, role, req.Notes)
	if err != nil {
		if errors.Is(err, ErrAIClientUnavailable) {
			aiStatus = AIStatusSkippedClient
		} else {
			aiStatus = AIStatusFailed
		}
		s.log.Warn().Err(err).Str("technology", technology).Msg("question generation failed, using bundled questions")
		questions = s.fallbackQuestions(technology, role)
		source = domain.QuestionSourceFallback
	}

	stored := &domain.StoredQuestionSet{
		Technology:  technology,
		Role:        role,
		Questions:   questions,
		Source:      source,
		GeneratedAt: time.Now(),
	}

	if err := s.questionRepo.Save(ctx, userID, stored); err != nil {
		return nil, err
	}

	return &domain.QuestionSetResponse{
		QuestionSet:        stored,
		AIGenerationStatus: aiStatus,
	}, nil
}

func (s *questionService) fallbackQuestions(technology, role string) domain.QuestionSet {
	set := s.bank.Lookup(technology)
	for tier, qs := range set {
		for i := range qs {
			qs[i].Technology = technology
			qs[i].Role = role
		}
		set[tier] = qs
	}
	return set
}

func (s *questionService) GetCurrent(ctx context.Context, userID string) (*domain.StoredQuestionSet, error) {
	set, err := s.questionRepo.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQuestionSetNotFound
		}
		return nil, err
	}
	return set, nil
}

func (s *questionService) ListBankTechnologies() []string {
	return s.bank.Technologies()
}
