// Package session implements the test-session state machine as pure
// transition functions over domain.TestSession values. Every transition
// returns a new value and leaves its input untouched.
package session

import (
	"errors"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"
)

var (
	ErrNoQuestions      = errors.New("session has no questions")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrNotInProgress    = errors.New("session is not in progress")
	ErrAlreadyCompleted = errors.New("session already completed")
	ErrCannotComplete   = errors.New("session can only be completed on the last question with at least one answer")
	ErrIndexOutOfRange  = errors.New("question index out of range")
)

func New(id, userID, technology string, questions []domain.Question) domain.TestSession {
	return domain.TestSession{
		ID:               id,
		UserID:           userID,
		Technology:       technology,
		Status:           domain.SessionStatusNotStarted,
		SampledQuestions: questions,
		AnswerRecords:    map[int]domain.AnswerRecord{},
	}
}

func clone(s domain.TestSession) domain.TestSession {
	records := make(map[int]domain.AnswerRecord, len(s.AnswerRecords))
	for k, v := range s.AnswerRecords {
		records[k] = v
	}
	s.AnswerRecords = records
	return s
}

func Start(s domain.TestSession, now time.Time) (domain.TestSession, error) {
	if s.Status != domain.SessionStatusNotStarted {
		return s, ErrAlreadyStarted
	}
	if len(s.SampledQuestions) == 0 {
		return s, ErrNoQuestions
	}

	next := clone(s)
	next.Status = domain.SessionStatusInProgress
	next.CurrentIndex = 0
	next.StartedAt = &now
	next.QuestionEnteredAt = &now
	next.CompletedAt = nil
	next.Results = nil
	return next, nil
}

// RecordAnswer stores rec for index, replacing any earlier record for it.
// The index is the one the answer was submitted for, which may no longer
// be the current one.
func RecordAnswer(s domain.TestSession, index int, rec domain.AnswerRecord) (domain.TestSession, error) {
	if s.Status != domain.SessionStatusInProgress {
		return s, ErrNotInProgress
	}
	if index < 0 || index >= len(s.SampledQuestions) {
		return s, ErrIndexOutOfRange
	}

	next := clone(s)
	rec.QuestionIndex = index
	next.AnswerRecords[index] = rec
	return next, nil
}

func Next(s domain.TestSession, now time.Time) (domain.TestSession, error) {
	if s.Status != domain.SessionStatusInProgress {
		return s, ErrNotInProgress
	}
	if s.CurrentIndex >= LastIndex(s) {
		return s, nil
	}

	next := clone(s)
	next.CurrentIndex++
	next.QuestionEnteredAt = &now
	return next, nil
}

func Previous(s domain.TestSession, now time.Time) (domain.TestSession, error) {
	if s.Status != domain.SessionStatusInProgress {
		return s, ErrNotInProgress
	}
	if s.CurrentIndex <= 0 {
		return s, nil
	}

	next := clone(s)
	next.CurrentIndex--
	next.QuestionEnteredAt = &now
	return next, nil
}

func LastIndex(s domain.TestSession) int {
	if len(s.SampledQuestions) == 0 {
		return 0
	}
	return len(s.SampledQuestions) - 1
}

func CanComplete(s domain.TestSession) bool {
	return s.Status == domain.SessionStatusInProgress &&
		len(s.SampledQuestions) > 0 &&
		s.CurrentIndex == LastIndex(s) &&
		len(s.AnswerRecords) > 0
}

func Complete(s domain.TestSession, now time.Time) (domain.TestSession, error) {
	if s.Status == domain.SessionStatusCompleted {
		return s, ErrAlreadyCompleted
	}
	if !CanComplete(s) {
		return s, ErrCannotComplete
	}

	next := clone(s)
	completedAt := now
	if next.StartedAt != nil && completedAt.Before(*next.StartedAt) {
		completedAt = *next.StartedAt
	}
	next.Status = domain.SessionStatusCompleted
	next.CompletedAt = &completedAt
	results := CalculateFinalResults(next, completedAt)
	next.Results = &results
	return next, nil
}

// Reset returns the session to NotStarted and discards every record. The
// sampled questions are kept so the same session can be started again.
func Reset(s domain.TestSession) domain.TestSession {
	s.Status = domain.SessionStatusNotStarted
	s.CurrentIndex = 0
	s.AnswerRecords = map[int]domain.AnswerRecord{}
	s.StartedAt = nil
	s.CompletedAt = nil
	s.QuestionEnteredAt = nil
	s.Results = nil
	return s
}

func CurrentQuestion(s domain.TestSession) (domain.Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.SampledQuestions) {
		return domain.Question{}, false
	}
	return s.SampledQuestions[s.CurrentIndex], true
}

// TimeOnQuestion is the number of whole seconds since the current question
// was entered.
func TimeOnQuestion(s domain.TestSession, now time.Time) int64 {
	if s.QuestionEnteredAt == nil || now.Before(*s.QuestionEnteredAt) {
		return 0
	}
	return int64(now.Sub(*s.QuestionEnteredAt) / time.Second)
}
