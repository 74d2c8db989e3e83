package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"
)

var ErrQuotaExceeded = errors.New("daily question generation quota exceeded")

type quotaService struct {
	cacheRepo  domain.CacheRepository
	dailyLimit int
	now        func() time.Time
}

// NewQuotaService caps AI question generations per user per UTC day. A
// limit of zero disables the cap.
func NewQuotaService(cacheRepo domain.CacheRepository, dailyLimit int) domain.QuotaService {
	return &quotaService{
		cacheRepo:  cacheRepo,
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

func (s *quotaService) CheckAndIncrementUsage(ctx context.Context, userID string) error {
	if s.dailyLimit <= 0 {
		return nil
	}

	day := s.now().UTC().Format("2006-01-02")
	key := fmt.Sprintf("quota:generate:%s:%s", userID, day)

	count, err := s.cacheRepo.Increment(ctx, key, 24*time.Hour)
	if err != nil {
		return err
	}
	if count > int64(s.dailyLimit) {
		return ErrQuotaExceeded
	}
	return nil
}
