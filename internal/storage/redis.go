package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	DefaultLockTTL    = 30 * time.Second
)

// RedisStorage implements Storage using Redis for sessions and the
// filesystem for scenarios.
type RedisStorage struct {
	client     *redis.Client
	logger     *slog.Logger
	dataDir    string
	sessionTTL time.Duration
	lockTTL    time.Duration
}

var _ Storage = (*RedisStorage)(nil)

type Option func(*RedisStorage)

func WithSessionTTL(d time.Duration) Option {
	return func(r *RedisStorage) {
		if d > 0 {
			r.sessionTTL = d
		}
	}
}

func WithLockTTL(d time.Duration) Option {
	return func(r *RedisStorage) {
		if d > 0 {
			r.lockTTL = d
		}
	}
}

// NewRedisStorage accepts either a host:port address or a redis:// URL.
func NewRedisStorage(redisURL, dataDir string, logger *slog.Logger, opts ...Option) (*RedisStorage, error) {
	opt := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		var err error
		opt, err = redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
	}

	if dataDir == "" {
		dataDir = "./data"
	}

	r := &RedisStorage{
		client:     redis.NewClient(opt),
		logger:     logger,
		dataDir:    dataDir,
		sessionTTL: DefaultSessionTTL,
		lockTTL:    DefaultLockTTL,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Client exposes the underlying connection for pub/sub.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}
