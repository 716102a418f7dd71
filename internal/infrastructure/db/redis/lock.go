package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dtapi/user-service/internal/core/domain"
)

const (
	defaultLockTTL  = 30 * time.Second
	defaultLockWait = 5 * time.Second
	retryInterval   = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// UserLock serializes writers of a user id across service instances.
// Key format: lock:user:<id>
type UserLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	log    zerolog.Logger
}

// NewUserLock creates a UserLock. ttl bounds how long a crashed holder keeps
// the lock; wait bounds how long Lock retries before giving up.
func NewUserLock(client *redis.Client, ttl, wait time.Duration, log zerolog.Logger) *UserLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &UserLock{client: client, ttl: ttl, wait: wait, log: log}
}

// Lock acquires the lock for userID. It returns domain.ErrUserLocked when the
// lock is still held by someone else after the wait period.
func (l *UserLock) Lock(ctx context.Context, userID int64) (func(), error) {
	key := l.key(userID)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("user lock %d: %w", userID, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-waitCtx.Done():
			return nil, domain.ErrUserLocked
		case <-ticker.C:
		}
	}
}

// release runs on its own context so a cancelled request still frees the key.
func (l *UserLock) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("user lock release failed")
	}
}

func (l *UserLock) key(userID int64) string {
	return fmt.Sprintf("lock:user:%d", userID)
}
