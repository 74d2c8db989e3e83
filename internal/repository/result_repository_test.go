package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *domain.SessionResult {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.SessionResult{
		ID:         uuid.New(),
		SessionID:  "s1",
		UserID:     "u1",
		Technology: "go",
		Results: domain.FinalResults{
			TotalQuestions:    15,
			QuestionsAnswered: 3,
			TotalMarks:        24,
			MaxPossibleMarks:  30,
			PercentageScore:   80,
		},
		Answers:     []domain.ResultItem{{Question: "q", Tier: domain.TierBeginner, MarksAwarded: 8, MaxMarks: 10}},
		StartedAt:   now.Add(-10 * time.Minute),
		CompletedAt: now,
		CreatedAt:   now,
	}
}

func TestResultRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	result := sampleResult()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (session_id, started_at) DO NOTHING")).
		WithArgs(result.ID, "s1", "u1", "go", sqlmock.AnyArg(), sqlmock.AnyArg(), result.StartedAt, result.CompletedAt, result.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(result.ID.String()))

	require.NoError(t, NewResultRepository(db).Create(context.Background(), result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepository_CreateSameAttempt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	result := sampleResult()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO session_results")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err = NewResultRepository(db).Create(context.Background(), result)
	assert.ErrorIs(t, err, domain.ErrResultExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	want := sampleResult()
	resultsJSON, _ := json.Marshal(want.Results)
	answersJSON, _ := json.Marshal(want.Answers)

	rows := sqlmock.NewRows([]string{"id", "session_id", "user_id", "technology", "results", "answers", "started_at", "completed_at", "created_at"}).
		AddRow(want.ID.String(), want.SessionID, want.UserID, want.Technology, resultsJSON, answersJSON, want.StartedAt, want.CompletedAt, want.CreatedAt)
	mock.ExpectQuery(regexp.QuoteMeta("FROM session_results")).WithArgs(want.ID).WillReturnRows(rows)

	got, err := NewResultRepository(db).FindByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.Results, got.Results)
	assert.Equal(t, want.Answers, got.Answers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepository_FindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM session_results")).WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err = NewResultRepository(db).FindByID(context.Background(), id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestResultRepository_FindByUserIDAndCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	want := sampleResult()
	resultsJSON, _ := json.Marshal(want.Results)
	answersJSON, _ := json.Marshal(want.Answers)
	rows := sqlmock.NewRows([]string{"id", "session_id", "user_id", "technology", "results", "answers", "started_at", "completed_at", "created_at"}).
		AddRow(want.ID.String(), want.SessionID, want.UserID, want.Technology, resultsJSON, answersJSON, want.StartedAt, want.CompletedAt, want.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).WithArgs("u1", 10, 0).WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(id) FROM session_results")).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewResultRepository(db)
	list, err := repo.FindByUserID(context.Background(), "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].SessionID)

	count, err := repo.CountByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
