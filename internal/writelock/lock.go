// Package writelock serializes consumption ledger mutations. A single
// process uses an in-memory lock; deployments with several replicas set
// REDIS_ADDR and share a Redis SetNX lock.
package writelock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const LedgerKey = "mealplan:lock:ledger"

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrNotConfigured = errors.New("write_lock_not_configured")
	ErrEmptyKey      = errors.New("write_lock_key_empty")
	ErrInvalidTTL    = errors.New("write_lock_ttl_invalid")
)

// Locker runs fn while holding the lock named by key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// LocalLocker is a context-aware mutex. Keys share one lock.
type LocalLocker struct {
	sem chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if key == "" {
		return ErrEmptyKey
	}
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()
	return fn(ctx)
}

// RedisLocker acquires a token-owned key with SetNX and releases it with a
// compare-and-delete script so an expired holder cannot free a newer lock.
type RedisLocker struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, ErrNotConfigured
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	return &RedisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		ttl:    ttl,
		retry:  25 * time.Millisecond,
	}, nil
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrNotConfigured
	}
	if key == "" {
		return "", false, ErrEmptyKey
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	var token string
	for {
		t, ok, err := l.TryLock(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			token = t
			break
		}
		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	defer func() {
		// Release even when ctx is already cancelled.
		_ = l.Release(context.WithoutCancel(ctx), key, token)
	}()
	return fn(ctx)
}

// WaitObserver records lock acquisition latency.
type WaitObserver interface {
	ObserveLockWait(d time.Duration)
}

type observedLocker struct {
	next     Locker
	observer WaitObserver
}

// Observe wraps next so the time spent waiting for the lock is reported.
func Observe(next Locker, observer WaitObserver) Locker {
	if observer == nil {
		return next
	}
	return &observedLocker{next: next, observer: observer}
}

func (o *observedLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	start := time.Now()
	return o.next.WithLock(ctx, key, func(ctx context.Context) error {
		o.observer.ObserveLockWait(time.Since(start))
		return fn(ctx)
	})
}
