package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeAIClient struct {
	mu         sync.Mutex
	jsonFn     func(prompt string) (string, error)
	mediaFn    func(prompt string, data []byte, mimeType string) (string, error)
	jsonCalls  int
	mediaCalls int
}

func (f *fakeAIClient) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.jsonCalls++
	f.mu.Unlock()
	return f.jsonFn(prompt)
}

func (f *fakeAIClient) GenerateJSONFromMedia(_ context.Context, prompt string, data []byte, mimeType string) (string, error) {
	f.mu.Lock()
	f.mediaCalls++
	f.mu.Unlock()
	return f.mediaFn(prompt, data, mimeType)
}

type fakeEvaluator struct {
	text      domain.TextEvaluation
	audio     *domain.AudioEvaluation
	audioErr  error
	beforeRet func()
}

func (f *fakeEvaluator) EvaluateText(context.Context, domain.Question, string) domain.TextEvaluation {
	if f.beforeRet != nil {
		f.beforeRet()
	}
	return f.text
}

func (f *fakeEvaluator) EvaluateAudio(context.Context, domain.Question, *domain.AudioAnswer) (*domain.AudioEvaluation, error) {
	if f.audioErr != nil {
		return nil, f.audioErr
	}
	return f.audio, nil
}

type recordingReporter struct {
	mu        sync.Mutex
	questions []domain.QuestionResultReport
	tests     []domain.TestResultReport
}

func (r *recordingReporter) ReportQuestion(_ context.Context, report domain.QuestionResultReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append(r.questions, report)
}

func (r *recordingReporter) ReportTestSummary(_ context.Context, report domain.TestResultReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests = append(r.tests, report)
}

func (r *recordingReporter) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.questions), len(r.tests)
}

// blockingReporter never returns until released, like an unreachable
// analytics backend without a timeout.
type blockingReporter struct {
	release chan struct{}
}

func (b *blockingReporter) ReportQuestion(context.Context, domain.QuestionResultReport) {
	<-b.release
}

func (b *blockingReporter) ReportTestSummary(context.Context, domain.TestResultReport) {
	<-b.release
}

type fakeResultService struct {
	mu       sync.Mutex
	recorded []*domain.TestSession
	err      error
}

func (f *fakeResultService) Record(_ context.Context, ts *domain.TestSession) (*domain.SessionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, ts)
	return &domain.SessionResult{SessionID: ts.ID}, f.err
}

func (f *fakeResultService) GetByID(context.Context, string, uuid.UUID) (*domain.SessionResult, error) {
	return nil, nil
}

func (f *fakeResultService) GetByUserID(context.Context, string, int, int) (*domain.PaginatedResults, error) {
	return nil, nil
}

func (f *fakeResultService) RenderReport(context.Context, string, uuid.UUID) ([]byte, error) {
	return nil, nil
}

type fakeAudioStorage struct {
	url string
	err error
}

func (f *fakeAudioStorage) UploadAudio(context.Context, []byte, string, string) (string, error) {
	return f.url, f.err
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type redisRepos struct {
	client    *redis.Client
	mr        *miniredis.Miniredis
	cache     domain.CacheRepository
	questions domain.QuestionSetRepository
	sessions  domain.SessionRepository
}

func setupRedisRepos(t *testing.T) redisRepos {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := repository.NewCacheRepository(client)
	return redisRepos{
		client:    client,
		mr:        mr,
		cache:     cache,
		questions: repository.NewQuestionSetRepository(cache, time.Hour),
		sessions:  repository.NewSessionRepository(client, time.Hour),
	}
}

func questionSet(technology string, perTier int) domain.QuestionSet {
	set := make(domain.QuestionSet, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		qs := make([]domain.Question, perTier)
		for i := range qs {
			qs[i] = domain.Question{
				ID:              string(tier) + "-" + string(rune('a'+i)),
				Text:            "Question " + string(tier) + " " + string(rune('a'+i)),
				ReferenceAnswer: "Reference",
				DifficultyTier:  tier,
				Technology:      technology,
			}
		}
		set[tier] = qs
	}
	return set
}

type staticBank struct {
	set domain.QuestionSet
}

func (b staticBank) Technologies() []string { return []string{"general", "go"} }

func (b staticBank) Lookup(technology string) domain.QuestionSet {
	out := make(domain.QuestionSet, len(b.set))
	for tier, qs := range b.set {
		cp := make([]domain.Question, len(qs))
		copy(cp, qs)
		for i := range cp {
			cp[i].Technology = technology
		}
		out[tier] = cp
	}
	return out
}
