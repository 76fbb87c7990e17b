package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStorage_SessionsAreCopied(t *testing.T) {
	m := NewMockStorage()
	ctx := context.Background()

	sess := newTestSession("p1", t0)
	require.NoError(t, m.SaveSession(ctx, sess))
	sess.Score = 999

	loaded, err := m.LoadSession(ctx, sess.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Score)

	list, err := m.ListSessions(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMockStorage_Errors(t *testing.T) {
	m := NewMockStorage()
	ctx := context.Background()

	_, err := m.LoadSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	m.PutRawSession("corrupt", []byte("nope"))
	_, err = m.LoadSession(ctx, "corrupt")
	assert.ErrorIs(t, err, ErrMalformed)

	boom := errors.New("disk full")
	m.SetSaveError(boom)
	assert.ErrorIs(t, m.SaveSession(ctx, newTestSession("p1", t0)), boom)

	m.SetPingError(boom)
	assert.ErrorIs(t, m.Ping(ctx), boom)

	_, err = m.GetScenario(ctx, "Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStorage_Lock(t *testing.T) {
	m := NewMockStorage()
	ctx := context.Background()

	unlock, err := m.LockSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, m.Locked("s1"))
	_, err = m.LockSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock(ctx))
	assert.False(t, m.Locked("s1"))
}

func TestMockStorage_Scenarios(t *testing.T) {
	m := NewMockStorage()
	m.AddScenario(testScenario())

	index, err := m.ListScenarios(context.Background())
	require.NoError(t, err)
	assert.Contains(t, index, "Network Recon")

	sc, err := m.GetScenario(context.Background(), "Network Recon")
	require.NoError(t, err)
	assert.Equal(t, "Map the target network", sc.Description)
}
