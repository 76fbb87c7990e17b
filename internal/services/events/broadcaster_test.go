package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *Broadcaster {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewBroadcaster(client, slog.New(slog.DiscardHandler))
}

func receive(t *testing.T, ch <-chan *redis.Message) Event {
	t.Helper()
	select {
	case msg := <-ch:
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcaster_PublishesToMissionChannel(t *testing.T) {
	b := setup(t)
	ctx := context.Background()

	sub := b.Subscribe(ctx, "s1")
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)
	ch := sub.Channel()

	require.NoError(t, b.PublishCommandProcessed(ctx, "s1", "ls", 0))
	require.NoError(t, b.PublishObjectiveCompleted(ctx, "s1", "Scan the network", 100, 100))
	require.NoError(t, b.PublishMissionEnded(ctx, "s1", "completed", "success", 100))
	require.NoError(t, b.PublishCommandProcessed(ctx, "other", "pwd", 0))

	ev := receive(t, ch)
	assert.Equal(t, EventTypeCommandProcessed, ev.Type)
	assert.Equal(t, "ls", ev.Data["command"])

	ev = receive(t, ch)
	assert.Equal(t, EventTypeObjectiveCompleted, ev.Type)
	assert.Equal(t, "Scan the network", ev.Data["description"])
	assert.EqualValues(t, 100, ev.Data["points"])

	ev = receive(t, ch)
	assert.Equal(t, EventTypeMissionEnded, ev.Type)
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, "success", ev.Data["result"])

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message from another mission: %s", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "mission-events:abc", Channel("abc"))
}
