package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stockledger-api/internal/application/snapshot"
)

var (
	_ snapshot.JobLock = (*RedisJobLock)(nil)
	_ snapshot.JobLock = (*LocalJobLock)(nil)
)

// RedisJobLock candado distribuido entre réplicas del worker.
type RedisJobLock struct {
	locker *redislock.Client
}

func NewRedisJobLock(rdb *redis.Client) *RedisJobLock {
	return &RedisJobLock{locker: redislock.New(rdb)}
}

func (l *RedisJobLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, snapshot.ErrAlreadyRunning
	}
	if err != nil {
		return nil, fmt.Errorf("obtener candado %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}

// LocalJobLock candado dentro del proceso.
type LocalJobLock struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalJobLock() *LocalJobLock {
	return &LocalJobLock{held: map[string]time.Time{}, now: time.Now}
}

func (l *LocalJobLock) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.held[key]; ok && l.now().Before(until) {
		return nil, snapshot.ErrAlreadyRunning
	}
	l.held[key] = l.now().Add(ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}
