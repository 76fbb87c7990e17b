package storage

import (
	"context"
	"errors"

	"github.com/jwebster45206/cyber-siege/pkg/scenario"
	"github.com/jwebster45206/cyber-siege/pkg/state"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrMalformed = errors.New("malformed record")
	ErrLocked    = errors.New("session is locked")
)

// UnlockFunc releases a session lock. Releasing a lock that has expired or
// been taken over is a no-op.
type UnlockFunc func(ctx context.Context) error

// Storage combines session persistence (Redis) with scenario loading (filesystem).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed)
	SaveSession(ctx context.Context, s *state.Session) error
	LoadSession(ctx context.Context, id string) (*state.Session, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, playerID string) ([]*state.Session, error)

	// LockSession takes the per-session command lock or fails with ErrLocked.
	LockSession(ctx context.Context, id string) (UnlockFunc, error)

	// Scenario operations (filesystem-backed)
	ListScenarios(ctx context.Context) (map[string]string, error)
	GetScenario(ctx context.Context, name string) (*scenario.Scenario, error)
}
