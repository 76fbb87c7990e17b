package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeCommandProcessed   EventType = "command.processed"
	EventTypeObjectiveCompleted EventType = "objective.completed"
	EventTypeMissionEnded       EventType = "mission.ended"
)

// Event is the envelope published on a mission channel.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel is the pub/sub channel carrying a mission's events.
func Channel(sessionID string) string {
	return fmt.Sprintf("mission-events:%s", sessionID)
}

// Broadcaster publishes mission events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

func (b *Broadcaster) PublishCommandProcessed(ctx context.Context, sessionID, command string, score int) error {
	return b.publish(ctx, Event{
		Type:      EventTypeCommandProcessed,
		SessionID: sessionID,
		Data: map[string]any{
			"command": command,
			"score":   score,
		},
	})
}

func (b *Broadcaster) PublishObjectiveCompleted(ctx context.Context, sessionID, description string, points, score int) error {
	return b.publish(ctx, Event{
		Type:      EventTypeObjectiveCompleted,
		SessionID: sessionID,
		Data: map[string]any{
			"description": description,
			"points":      points,
			"score":       score,
		},
	})
}

func (b *Broadcaster) PublishMissionEnded(ctx context.Context, sessionID, status, result string, score int) error {
	return b.publish(ctx, Event{
		Type:      EventTypeMissionEnded,
		SessionID: sessionID,
		Data: map[string]any{
			"status": status,
			"result": result,
			"score":  score,
		},
	})
}

// Subscribe opens a subscription on the mission's channel. Callers close it.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID string) *redis.PubSub {
	channel := Channel(sessionID)
	b.logger.Debug("Subscribing to channel", "channel", channel)
	return b.redisClient.Subscribe(ctx, channel)
}

func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	channel := Channel(event.SessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published", "channel", channel, "event_type", event.Type)
	return nil
}
