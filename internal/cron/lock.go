package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 15 * time.Minute

// Locker hands out one exclusive run per job name across all workers.
type Locker interface {
	TryLock(ctx context.Context, job string) (unlock func(context.Context) error, ok bool, err error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
	LockKey(name string) string
}

// RedisLocker stores a random owner token under wg:lock:<prefix>:<job>. The
// TTL bounds how long a crashed worker can block a job.
type RedisLocker struct {
	store    lockStore
	prefix   string
	ttl      time.Duration
	newOwner func() string
}

func NewRedisLocker(store lockStore, prefix string, ttl time.Duration) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis store required for cron locks")
	}
	if prefix == "" {
		return nil, errors.New("lock prefix is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{store: store, prefix: prefix, ttl: ttl, newOwner: uuid.NewString}, nil
}

// TTL is the longest a held lock survives without release.
func (l *RedisLocker) TTL() time.Duration { return l.ttl }

func (l *RedisLocker) TryLock(ctx context.Context, job string) (func(context.Context) error, bool, error) {
	key := l.store.LockKey(l.prefix + ":" + job)
	owner := l.newOwner()
	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", job, err)
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func(ctx context.Context) error {
		if _, err := l.store.ReleaseIfOwner(ctx, key, owner); err != nil {
			return fmt.Errorf("unlock %s: %w", job, err)
		}
		return nil
	}
	return unlock, true, nil
}
