package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Lock keeps two cron workers from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// RedisLock is a lease on a single Redis key. The value identifies the holder
// so a worker whose lease already expired cannot free a successor's.
type RedisLock struct {
	store  leaseStore
	key    string
	ttl    time.Duration
	host   string
	mu     sync.Mutex
	holder string
}

// NewRedisLock builds a lease on key. The ttl bounds how long a crashed
// worker blocks the others and must outlast a full cycle.
func NewRedisLock(store leaseStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("lease store required")
	}
	if key == "" {
		return nil, errors.New("lease key required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lease ttl must be positive, got %s", ttl)
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "cron"
	}
	return &RedisLock{store: store, key: key, ttl: ttl, host: host}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder != "" {
		return false, nil
	}
	holder := l.host + "/" + uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, holder, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", l.key, err)
	}
	if ok {
		l.holder = holder
	}
	return ok, nil
}

// Release gives the lease back. Releasing a lease that was never acquired or
// has since expired is a no-op.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == "" {
		return nil
	}
	holder := l.holder
	l.holder = ""
	if _, err := l.store.CompareAndDelete(ctx, l.key, holder); err != nil {
		return fmt.Errorf("release lease %s: %w", l.key, err)
	}
	return nil
}

// Holder returns the value written to Redis while the lease is held.
func (l *RedisLock) Holder() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder
}
