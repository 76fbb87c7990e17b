package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/jwebster45206/cyber-siege/pkg/scenario"
	"github.com/jwebster45206/cyber-siege/pkg/state"
)

// MockStorage is an in-memory Storage for tests. Sessions are kept encoded
// so callers never share memory with what was saved.
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[string][]byte
	scenarios map[string]*scenario.Scenario
	locks     map[string]bool
	pingError error
	saveError error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions:  make(map[string][]byte),
		scenarios: make(map[string]*scenario.Scenario),
		locks:     make(map[string]bool),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every SaveSession fail with err until reset with nil.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveSession(ctx context.Context, s *state.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	m.sessions[s.ID.String()] = data
	return nil
}

// PutRawSession stores bytes verbatim, e.g. to simulate a corrupt record.
func (m *MockStorage) PutRawSession(id string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = data
}

func (m *MockStorage) LoadSession(ctx context.Context, id string) (*state.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	s, err := decodeSession(data)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return s, nil
}

func (m *MockStorage) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockStorage) ListSessions(ctx context.Context, playerID string) ([]*state.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*state.Session{}
	for _, data := range m.sessions {
		s, err := decodeSession(data)
		if err != nil || s.PlayerID != playerID {
			continue
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *state.Session) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out, nil
}

func (m *MockStorage) LockSession(ctx context.Context, id string) (UnlockFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] {
		return nil, fmt.Errorf("session %s: %w", id, ErrLocked)
	}
	m.locks[id] = true
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.locks, id)
		})
		return nil
	}, nil
}

// Locked reports whether the session lock is currently held.
func (m *MockStorage) Locked(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locks[id]
}

func (m *MockStorage) ListScenarios(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string, len(m.scenarios))
	for name := range m.scenarios {
		result[name] = name + ".json"
	}
	return result, nil
}

func (m *MockStorage) GetScenario(ctx context.Context, name string) (*scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("scenario %q: %w", name, ErrNotFound)
	}
	return s, nil
}

// AddScenario registers a scenario under its name. Defaults are applied.
func (m *MockStorage) AddScenario(s *scenario.Scenario) {
	s.ApplyDefaults()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[s.Name] = s
}
