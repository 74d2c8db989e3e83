package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"
)

const questionSetKeyPrefix = "questionset:"

type questionSetRepository struct {
	cache domain.CacheRepository
	ttl   time.Duration
}

// NewQuestionSetRepository stores one question set per user; saving a new
// set replaces the previous one.
func NewQuestionSetRepository(cache domain.CacheRepository, ttl time.Duration) domain.QuestionSetRepository {
	return &questionSetRepository{cache: cache, ttl: ttl}
}

func (r *questionSetRepository) Save(ctx context.Context, userID string, set *domain.StoredQuestionSet) error {
	return r.cache.Set(ctx, questionSetKeyPrefix+userID, set, r.ttl)
}

func (r *questionSetRepository) Find(ctx context.Context, userID string) (*domain.StoredQuestionSet, error) {
	data, err := r.cache.Get(ctx, questionSetKeyPrefix+userID)
	if err != nil {
		return nil, err
	}

	var set domain.StoredQuestionSet
	if err := json.Unmarshal([]byte(data), &set); err != nil {
		return nil, err
	}
	return &set, nil
}
