package domain

import (
	"context"
	"time"
)

type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Increment adds one to the counter at key and returns the new value.
	// The expiration is applied when the counter is created.
	Increment(ctx context.Context, key string, expiration time.Duration) (int64, error)
}
