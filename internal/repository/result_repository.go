package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/raflytch/mockprep-server/internal/domain"

	"github.com/google/uuid"
)

const (
	resultColumns = `id, session_id, user_id, technology, results, answers, started_at, completed_at, created_at`
)

type resultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) domain.ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) Create(ctx context.Context, result *domain.SessionResult) error {
	resultsJSON, err := json.Marshal(result.Results)
	if err != nil {
		return err
	}
	answersJSON, err := json.Marshal(result.Answers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO session_results (id, session_id, user_id, technology, results, answers, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id, started_at) DO NOTHING
		RETURNING id
	`
	var id uuid.UUID
	err = r.db.QueryRowContext(ctx, query,
		result.ID,
		result.SessionID,
		result.UserID,
		result.Technology,
		resultsJSON,
		answersJSON,
		result.StartedAt,
		result.CompletedAt,
		result.CreatedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrResultExists
	}
	return err
}

func (r *resultRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SessionResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM session_results
		WHERE id = $1
	`
	return scanResult(r.db.QueryRowContext(ctx, query, id))
}

func (r *resultRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]domain.SessionResult, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM session_results
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.SessionResult, 0)
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, rows.Err()
}

func (r *resultRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(id) FROM session_results WHERE user_id = $1`
	var count int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*domain.SessionResult, error) {
	var result domain.SessionResult
	var resultsJSON, answersJSON []byte
	err := row.Scan(
		&result.ID,
		&result.SessionID,
		&result.UserID,
		&result.Technology,
		&resultsJSON,
		&answersJSON,
		&result.StartedAt,
		&result.CompletedAt,
		&result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(resultsJSON, &result.Results); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answersJSON, &result.Answers); err != nil {
		return nil, err
	}
	return &result, nil
}
