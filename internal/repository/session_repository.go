package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/raflytch/mockprep-server/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	maxUpdateRetries = 5
)

type sessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) domain.SessionRepository {
	return &sessionRepository{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.TestSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(session.ID), data, r.ttl).Err()
}

func (r *sessionRepository) FindByID(ctx context.Context, id string) (*domain.TestSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	return decodeSession(data)
}

// Update runs fn inside an optimistic WATCH/MULTI transaction and retries
// when another writer changed the session in between.
func (r *sessionRepository) Update(ctx context.Context, id string, fn func(*domain.TestSession) error) (*domain.TestSession, error) {
	key := sessionKey(id)
	var updated *domain.TestSession

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}

		session, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}

		out, err := json.Marshal(session)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, domain.ErrSessionConflict
}

func decodeSession(data []byte) (*domain.TestSession, error) {
	var session domain.TestSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.AnswerRecords == nil {
		session.AnswerRecords = map[int]domain.AnswerRecord{}
	}
	return &session, nil
}
