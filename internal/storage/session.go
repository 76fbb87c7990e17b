package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/cyber-siege/pkg/state"
)

const (
	sessionPrefix       = "session:"
	playerSessionPrefix = "player-sessions:"
)

func sessionKey(id string) string { return sessionPrefix + id }

func playerSessionsKey(playerID string) string { return playerSessionPrefix + playerID }

// SaveSession writes the session and indexes it under its player. Both keys
// share the session TTL, refreshed on every save.
func (r *RedisStorage) SaveSession(ctx context.Context, s *state.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		r.logger.Error("Failed to marshal session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	id := s.ID.String()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(id), data, r.sessionTTL)
		pipe.SAdd(ctx, playerSessionsKey(s.PlayerID), id)
		pipe.Expire(ctx, playerSessionsKey(s.PlayerID), r.sessionTTL)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save session", "session_id", id, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id string) (*state.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	s, err := decodeSession(data)
	if err != nil {
		r.logger.Warn("Stored session is malformed", "session_id", id, "error", err)
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return s, nil
}

// DeleteSession is idempotent.
func (r *RedisStorage) DeleteSession(ctx context.Context, id string) error {
	s, err := r.LoadSession(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case errors.Is(err, ErrMalformed):
		// No player index to clean; drop the record itself.
	case err != nil:
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		if s != nil {
			pipe.SRem(ctx, playerSessionsKey(s.PlayerID), id)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions returns the player's stored sessions, oldest first. Expired
// index entries are pruned; malformed records are skipped.
func (r *RedisStorage) ListSessions(ctx context.Context, playerID string) ([]*state.Session, error) {
	ids, err := r.client.SMembers(ctx, playerSessionsKey(playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		return []*state.Session{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*state.Session, 0, len(ids))
	var stale []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		s, err := decodeSession([]byte(raw))
		if err != nil {
			r.logger.Warn("Skipping malformed session", "session_id", ids[i], "error", err)
			continue
		}
		sessions = append(sessions, s)
	}
	if len(stale) > 0 {
		if err := r.client.SRem(ctx, playerSessionsKey(playerID), stale...).Err(); err != nil {
			r.logger.Warn("Failed to prune session index", "player_id", playerID, "error", err)
		}
	}

	slices.SortFunc(sessions, func(a, b *state.Session) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return sessions, nil
}

func decodeSession(data []byte) (*state.Session, error) {
	var s state.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &s, nil
}
