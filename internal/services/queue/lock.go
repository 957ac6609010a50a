package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionLock serializes tool invocations per session. The TTL bounds how
// long a crashed holder can block the session.
type SessionLock struct {
	client *Client
	ttl    time.Duration
}

func NewSessionLock(client *Client, ttl time.Duration) *SessionLock {
	return &SessionLock{
		client: client,
		ttl:    ttl,
	}
}

func lockKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-lock:%s", sessionID.String())
}

// Acquire attempts to take the session lock. It returns an owner token to
// pass to Release, and false if another holder has the lock.
func (l *SessionLock) Acquire(ctx context.Context, sessionID uuid.UUID) (string, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.rdb.SetNX(ctx, lockKey(sessionID), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the session lock if token still owns it.
func (l *SessionLock) Release(ctx context.Context, sessionID uuid.UUID, token string) error {
	// Only delete if we own the lock
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(ctx, l.client.rdb, []string{lockKey(sessionID)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	return nil
}
