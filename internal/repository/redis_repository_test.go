package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func testSession(id string) *domain.TestSession {
	return &domain.TestSession{
		ID:               id,
		UserID:           "user-1",
		Technology:       "go",
		Status:           domain.SessionStatusInProgress,
		SampledQuestions: []domain.Question{{ID: "q1", Text: "What is a goroutine?", DifficultyTier: domain.TierBeginner}},
		AnswerRecords:    map[int]domain.AnswerRecord{},
	}
}

func TestSessionRepository_CreateAndFind(t *testing.T) {
	client, mr := setupRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	s := testSession("s1")
	s.AnswerRecords[0] = domain.AnswerRecord{QuestionIndex: 0, MarksAwarded: 7, MaxMarks: 10, Modality: domain.ModalityText}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "go", got.Technology)
	assert.Equal(t, 7.0, got.AnswerRecords[0].MarksAwarded)
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))
}

func TestSessionRepository_FindMissing(t *testing.T) {
	client, _ := setupRedis(t)
	repo := NewSessionRepository(client, time.Hour)

	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestSessionRepository_Update(t *testing.T) {
	client, _ := setupRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testSession("s1")))

	updated, err := repo.Update(ctx, "s1", func(s *domain.TestSession) error {
		s.CurrentIndex = 0
		s.AnswerRecords[0] = domain.AnswerRecord{MarksAwarded: 4, MaxMarks: 10}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, updated.AnswerRecords, 1)

	stored, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, stored.AnswerRecords[0].MarksAwarded)
}

func TestSessionRepository_UpdateErrorLeavesStateUntouched(t *testing.T) {
	client, _ := setupRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, testSession("s1")))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, "s1", func(s *domain.TestSession) error {
		s.Status = domain.SessionStatusCompleted
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusInProgress, stored.Status)
}

func TestSessionRepository_UpdateMissing(t *testing.T) {
	client, _ := setupRedis(t)
	repo := NewSessionRepository(client, time.Hour)

	_, err := repo.Update(context.Background(), "nope", func(*domain.TestSession) error { return nil })
	assert.ErrorIs(t, err, redis.Nil)
}

func TestSessionRepository_ConcurrentUpdatesKeepAllRecords(t *testing.T) {
	client, _ := setupRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	s := testSession("s1")
	s.SampledQuestions = make([]domain.Question, 4)
	require.NoError(t, repo.Create(ctx, s))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for {
				_, err := repo.Update(ctx, "s1", func(s *domain.TestSession) error {
					s.AnswerRecords[idx] = domain.AnswerRecord{QuestionIndex: idx, MarksAwarded: float64(idx)}
					return nil
				})
				if !errors.Is(err, domain.ErrSessionConflict) {
					assert.NoError(t, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	stored, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, stored.AnswerRecords, 4)
}

func TestQuestionSetRepository_SaveReplaces(t *testing.T) {
	client, _ := setupRedis(t)
	repo := NewQuestionSetRepository(NewCacheRepository(client), time.Hour)
	ctx := context.Background()

	first := &domain.StoredQuestionSet{Technology: "go", Questions: domain.QuestionSet{
		domain.TierBeginner: {{ID: "a", Text: "first"}},
	}}
	second := &domain.StoredQuestionSet{Technology: "rust", Questions: domain.QuestionSet{
		domain.TierExpert: {{ID: "b", Text: "second"}},
	}}

	require.NoError(t, repo.Save(ctx, "u1", first))
	require.NoError(t, repo.Save(ctx, "u1", second))

	got, err := repo.Find(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "rust", got.Technology)
	assert.Equal(t, "second", got.Questions[domain.TierExpert][0].Text)

	_, err = repo.Find(ctx, "u2")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestCacheRepository_IncrementSetsExpiryOnce(t *testing.T) {
	client, mr := setupRedis(t)
	repo := NewCacheRepository(client)
	ctx := context.Background()

	n, err := repo.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, mr.TTL("counter"))

	mr.FastForward(30 * time.Second)
	n, err = repo.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 30*time.Second, mr.TTL("counter"))
}
