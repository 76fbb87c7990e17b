package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/cyber-siege/internal/services/events"
	"github.com/jwebster45206/cyber-siege/pkg/state"
)

const keepaliveInterval = 30 * time.Second

type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) *redis.PubSub
}

type MissionGetter interface {
	Get(ctx context.Context, playerID, id string) (*state.Session, error)
}

// EventsHandler streams mission events over Server-Sent Events.
type EventsHandler struct {
	subscriber Subscriber
	missions   MissionGetter
	logger     *slog.Logger
}

func NewEventsHandler(subscriber Subscriber, missions MissionGetter, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		missions:   missions,
		logger:     logger,
	}
}

// ServeHTTP handles GET /v1/events/missions/{id}.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid mission ID format.")
		return
	}
	player, ok := playerID(w, r, h.logger)
	if !ok {
		return
	}
	if _, err := h.missions.Get(r.Context(), player, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, h.logger, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	pubsub := h.subscriber.Subscribe(r.Context(), id)
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()
	// Wait for the subscription to be live so no event published after the
	// connected message is lost.
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe to mission events", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to subscribe to mission events")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Info("SSE connection established", "session_id", id, "remote_addr", r.RemoteAddr)

	msgs := pubsub.Channel()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	h.sendSSE(w, flusher, "connected", map[string]any{
		"session_id": id,
		"message":    "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "session_id", id)
			return

		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			if !h.sendSSE(w, flusher, string(event.Type), event.Data) {
				return
			}

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				h.logger.Debug("Failed to write keepalive", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return true
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		h.logger.Debug("Failed to write SSE event", "error", err)
		return false
	}
	flusher.Flush()
	return true
}
