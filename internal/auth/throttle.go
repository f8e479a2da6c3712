package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle tracks failed logins per username.
type Throttle interface {
	Blocked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// NoopThrottle never blocks. Used when Redis is not configured.
type NoopThrottle struct{}

func (NoopThrottle) Blocked(context.Context, string) (bool, error) { return false, nil }
func (NoopThrottle) RecordFailure(context.Context, string) error   { return nil }
func (NoopThrottle) Reset(context.Context, string) error           { return nil }

// RedisThrottle counts failures in Redis. The window starts at the first
// failure and is not extended by later ones. The counter is created with its
// TTL in the same transaction that increments it, so it always expires.
type RedisThrottle struct {
	rdb         redis.Cmdable
	maxAttempts int64
	window      time.Duration
}

func NewRedisThrottle(rdb redis.Cmdable, maxAttempts int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, maxAttempts: int64(maxAttempts), window: window}
}

func failureKey(username string) string {
	return "login_failures:" + username
}

func (t *RedisThrottle) Blocked(ctx context.Context, username string) (bool, error) {
	n, err := t.rdb.Get(ctx, failureKey(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= t.maxAttempts, nil
}

func (t *RedisThrottle) RecordFailure(ctx context.Context, username string) error {
	key := failureKey(username)
	_, err := t.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, t.window)
		pipe.Incr(ctx, key)
		return nil
	})
	return err
}

func (t *RedisThrottle) Reset(ctx context.Context, username string) error {
	return t.rdb.Del(ctx, failureKey(username)).Err()
}
