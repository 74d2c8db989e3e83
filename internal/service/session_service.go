package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/metrics"
	"github.com/raflytch/mockprep-server/internal/session"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionForbidden = errors.New("unauthorized access to session")
	ErrAudioRequired    = errors.New("audio recording is required")
)

const audioAnswerPlaceholder = "Audio response"

type SessionConfig struct {
	QuestionsPerTier int
	// AutoCompleteDelay is how long a session waits on its last question,
	// with at least one answer, before completing itself. Zero disables it.
	AutoCompleteDelay time.Duration
	AudioFolder       string
}

type SessionDeps struct {
	SessionRepo   domain.SessionRepository
	QuestionRepo  domain.QuestionSetRepository
	Bank          domain.QuestionBank
	Evaluator     domain.EvaluationService
	Reporter      domain.AnalyticsReporter
	ResultService domain.ResultService
	// AudioStorage is optional; recordings are not archived without it.
	AudioStorage domain.AudioStorage
	Metrics      *metrics.Metrics
}

type sessionService struct {
	SessionDeps
	cfg SessionConfig
	log zerolog.Logger
	now func() time.Time
	rng session.Rand

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

func NewSessionService(deps SessionDeps, cfg SessionConfig, log zerolog.Logger) domain.SessionService {
	return newSessionService(deps, cfg, log)
}

func newSessionService(deps SessionDeps, cfg SessionConfig, log zerolog.Logger) *sessionService {
	if cfg.QuestionsPerTier <= 0 {
		cfg.QuestionsPerTier = session.QuestionsPerTier
	}
	if cfg.AudioFolder == "" {
		cfg.AudioFolder = "/answers"
	}
	return &sessionService{
		SessionDeps: deps,
		cfg:         cfg,
		log:         log.With().Str("component", "session_service").Logger(),
		now:         time.Now,
		timers:      make(map[string]*time.Timer),
	}
}

func (s *sessionService) Create(ctx context.Context, userID string, req *domain.CreateSessionRequest) (*domain.TestSession, error) {
	technology, questions, err := s.questionsFor(ctx, userID, strings.TrimSpace(req.Technology))
	if err != nil {
		return nil, err
	}

	sampled := session.Sample(questions, s.cfg.QuestionsPerTier, s.rng)
	started, err := session.Start(session.New(uuid.NewString(), userID, technology, sampled), s.now())
	if err != nil {
		return nil, err
	}

	if err := s.SessionRepo.Create(ctx, &started); err != nil {
		return nil, err
	}
	s.Metrics.SessionTransition("start")
	return &started, nil
}

// questionsFor prefers the user's stored set; a technology that differs
// from it, or a missing stored set, is served from the bundled bank.
func (s *sessionService) questionsFor(ctx context.Context, userID, technology string) (string, domain.QuestionSet, error) {
	stored, err := s.QuestionRepo.Find(ctx, userID)
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", nil, err
	}

	if stored != nil && (technology == "" || strings.EqualFold(technology, stored.Technology)) {
		return stored.Technology, stored.Questions, nil
	}
	if technology == "" {
		return "", nil, ErrQuestionSetNotFound
	}
	return technology, s.Bank.Lookup(technology), nil
}

func (s *sessionService) Get(ctx context.Context, userID, sessionID string) (*domain.TestSession, error) {
	return s.load(ctx, userID, sessionID)
}

func (s *sessionService) load(ctx context.Context, userID, sessionID string) (*domain.TestSession, error) {
	ts, err := s.SessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if ts.UserID != userID {
		return nil, ErrSessionForbidden
	}
	return ts, nil
}

func (s *sessionService) update(ctx context.Context, userID, sessionID string, transition func(domain.TestSession) (domain.TestSession, error)) (*domain.TestSession, error) {
	updated, err := s.SessionRepo.Update(ctx, sessionID, func(ts *domain.TestSession) error {
		if ts.UserID != userID {
			return ErrSessionForbidden
		}
		next, err := transition(*ts)
		if err != nil {
			return err
		}
		*ts = next
		return nil
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *sessionService) Start(ctx context.Context, userID, sessionID string) (*domain.TestSession, error) {
	updated, err := s.update(ctx, userID, sessionID, func(ts domain.TestSession) (domain.TestSession, error) {
		return session.Start(ts, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.SessionTransition("start")
	return updated, nil
}

// answerTarget captures the question being answered. The evaluation result
// is applied to this index even if the user navigates away meanwhile.
func (s *sessionService) answerTarget(ctx context.Context, userID, sessionID string) (*domain.TestSession, int, error) {
	ts, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if ts.Status != domain.SessionStatusInProgress {
		return nil, 0, session.ErrNotInProgress
	}
	if _, ok := session.CurrentQuestion(*ts); !ok {
		return nil, 0, session.ErrIndexOutOfRange
	}
	return ts, ts.CurrentIndex, nil
}

func (s *sessionService) SubmitText(ctx context.Context, userID, sessionID, answer string) (*domain.TestSession, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return s.load(ctx, userID, sessionID)
	}

	ts, index, err := s.answerTarget(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	question := ts.SampledQuestions[index]
	timeSpent := session.TimeOnQuestion(*ts, s.now())

	eval := s.Evaluator.EvaluateText(ctx, question, answer)

	record := domain.AnswerRecord{
		MarksAwarded: eval.Marks,
		MaxMarks:     domain.TextMaxMarks,
		Feedback:     eval.Feedback,
		Modality:     domain.ModalityText,
		UserAnswer:   answer,
		TimeSpent:    timeSpent,
		EvaluatedAt:  s.now(),
	}
	return s.recordAnswer(ctx, userID, sessionID, index, record)
}

func (s *sessionService) SubmitAudio(ctx context.Context, userID, sessionID string, audio *domain.AudioAnswer) (*domain.TestSession, error) {
	if audio == nil || len(audio.Data) == 0 {
		return nil, ErrAudioRequired
	}

	ts, index, err := s.answerTarget(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	question := ts.SampledQuestions[index]
	timeSpent := session.TimeOnQuestion(*ts, s.now())

	eval, err := s.Evaluator.EvaluateAudio(ctx, question, audio)
	if err != nil {
		return nil, err
	}

	confidence := eval.ConfidenceMarks
	fluency := eval.FluencyMarks
	record := domain.AnswerRecord{
		MarksAwarded: eval.Marks,
		MaxMarks:     domain.AudioMaxMarks,
		Feedback:     eval.Feedback,
		Modality:     domain.ModalityAudio,
		Confidence:   &confidence,
		Fluency:      &fluency,
		AudioURL:     s.archiveAudio(ctx, sessionID, index, audio),
		TimeSpent:    timeSpent,
		EvaluatedAt:  s.now(),
	}
	return s.recordAnswer(ctx, userID, sessionID, index, record)
}

func (s *sessionService) archiveAudio(ctx context.Context, sessionID string, index int, audio *domain.AudioAnswer) string {
	if s.AudioStorage == nil {
		return ""
	}
	name := audio.FileName
	if name == "" {
		name = fmt.Sprintf("%s_%d.webm", sessionID, index)
	}
	url, err := s.AudioStorage.UploadAudio(ctx, audio.Data, name, s.cfg.AudioFolder)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Int("index", index).Msg("failed to archive audio answer")
		return ""
	}
	return url
}

func (s *sessionService) recordAnswer(ctx context.Context, userID, sessionID string, index int, record domain.AnswerRecord) (*domain.TestSession, error) {
	updated, err := s.update(ctx, userID, sessionID, func(ts domain.TestSession) (domain.TestSession, error) {
		return session.RecordAnswer(ts, index, record)
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.SessionTransition("answer_" + string(record.Modality))
	s.scheduleAutoComplete(ctx, updated)
	return updated, nil
}

// Next reports the answered question being left once the move is stored.
// Staying on the last question reports nothing.
func (s *sessionService) Next(ctx context.Context, userID, sessionID string) (*domain.TestSession, error) {
	var left domain.TestSession
	updated, err := s.update(ctx, userID, sessionID, func(ts domain.TestSession) (domain.TestSession, error) {
		left = ts
		return session.Next(ts, s.now())
	})
	if err != nil {
		return nil, err
	}
	if updated.CurrentIndex != left.CurrentIndex {
		if record, ok := left.AnswerRecords[left.CurrentIndex]; ok {
			s.Reporter.ReportQuestion(ctx, questionReport(&left, record))
		}
	}
	s.Metrics.SessionTransition("next")
	s.scheduleAutoComplete(ctx, updated)
	return updated, nil
}

func (s *sessionService) Previous(ctx context.Context, userID, sessionID string) (*domain.TestSession, error) {
	updated, err := s.update(ctx, userID, sessionID, func(ts domain.TestSession) (domain.TestSession, error) {
		return session.Previous(ts, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.SessionTransition("previous")
	return updated, nil
}

func (s *sessionService) Complete(ctx context.Context, userID, sessionID string) (*domain.TestSession, error) {
	s.cancelAutoComplete(sessionID)

	updated, err := s.update(ctx, userID, sessionID, func(ts domain.TestSession) (domain.TestSession, error) {
		return session.Complete(ts, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.SessionTransition("complete")
	if updated.Results != nil {
		s.Metrics.SessionScore(updated.Results.PercentageScore)
		s.Reporter.ReportTestSummary(ctx, testReport(updated))
	}
	if s.ResultService != nil {
		if _, err := s.ResultService.Record(ctx, updated); err != nil {
			s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to store session result")
		}
	}
	return updated, nil
}

func (s *sessionService) Reset(ctx context.Context, userID, sessionID string) (*domain.TestSession, error) {
	s.cancelAutoComplete(sessionID)

	updated, err := s.update(ctx, userID, sessionID, func(ts domain.TestSession) (domain.TestSession, error) {
		return session.Reset(ts), nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.SessionTransition("reset")
	return updated, nil
}

func (s *sessionService) scheduleAutoComplete(ctx context.Context, ts *domain.TestSession) {
	if s.cfg.AutoCompleteDelay <= 0 || !session.CanComplete(*ts) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, pending := s.timers[ts.ID]; pending {
		return
	}

	detached := context.WithoutCancel(ctx)
	userID, sessionID := ts.UserID, ts.ID
	var timer *time.Timer

	s.wg.Add(1)
	timer = time.AfterFunc(s.cfg.AutoCompleteDelay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		if s.timers[sessionID] == timer {
			delete(s.timers, sessionID)
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(detached, 30*time.Second)
		defer cancel()
		if _, err := s.Complete(ctx, userID, sessionID); err != nil &&
			!errors.Is(err, session.ErrAlreadyCompleted) &&
			!errors.Is(err, session.ErrCannotComplete) &&
			!errors.Is(err, session.ErrNotInProgress) {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("auto completion failed")
		}
	})
	s.timers[sessionID] = timer
}

func (s *sessionService) cancelAutoComplete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[sessionID]; ok {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, sessionID)
	}
}

func (s *sessionService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for id, timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func questionReport(ts *domain.TestSession, record domain.AnswerRecord) domain.QuestionResultReport {
	q := ts.SampledQuestions[record.QuestionIndex]
	answer := record.UserAnswer
	if record.Modality == domain.ModalityAudio && answer == "" {
		answer = audioAnswerPlaceholder
	}
	return domain.QuestionResultReport{
		Technology:      ts.Technology,
		DifficultyLevel: q.DifficultyTier,
		QuestionText:    q.Text,
		UserAnswer:      answer,
		MarksObtained:   record.MarksAwarded,
		MaxMarks:        record.MaxMarks,
		TimeSpent:       record.TimeSpent,
		ConfidenceLevel: record.Confidence,
		FluencyScore:    record.Fluency,
		Feedback:        record.Feedback,
		TestDate:        record.EvaluatedAt.UTC().Format(time.RFC3339),
	}
}

func testReport(ts *domain.TestSession) domain.TestResultReport {
	r := ts.Results
	return domain.TestResultReport{
		Technology:        ts.Technology,
		TotalQuestions:    r.TotalQuestions,
		QuestionsAnswered: r.QuestionsAnswered,
		TotalMarks:        r.TotalMarks,
		MaxPossibleMarks:  r.MaxPossibleMarks,
		PercentageScore:   r.PercentageScore,
		TimeSpent:         r.TimeSpent,
	}
}
