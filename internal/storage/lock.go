package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionLockPrefix = "session-lock:"

// releaseLock deletes the lock only while it still carries our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *RedisStorage) LockSession(ctx context.Context, id string) (UnlockFunc, error) {
	key := sessionLockPrefix + id
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrLocked)
	}

	return func(ctx context.Context) error {
		if err := releaseLock.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			r.logger.Warn("Failed to release session lock", "session_id", id, "error", err)
			return fmt.Errorf("failed to unlock session: %w", err)
		}
		return nil
	}, nil
}
