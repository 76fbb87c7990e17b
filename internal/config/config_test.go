package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Second, cfg.SessionLockTTL)
	assert.Equal(t, 0.7, cfg.RoomSuccessProbability)
	assert.Equal(t, time.Minute, cfg.RoomGracePeriod)
	assert.Equal(t, 100*time.Millisecond, cfg.CommandDelayMin)
	assert.Equal(t, 500*time.Millisecond, cfg.CommandDelayMax)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ROOM_SCORE_LIMIT", "5")
	t.Setenv("COMMAND_DELAY_MAX", "1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 5, cfg.RoomScoreLimit)
	assert.Equal(t, time.Second, cfg.CommandDelayMax)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"ROOM_SUCCESS_PROBABILITY": "1.5",
		"ROOM_SCORE_LIMIT":         "-1",
		"COMMAND_DELAY_MIN":        "2s",
		"SESSION_TTL":              "notaduration",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
