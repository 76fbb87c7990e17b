package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	storage Pinger
	rooms   func() int
	logger  *slog.Logger
}

// NewHealthHandler reports storage reachability. rooms, if set, adds the
// live room count.
func NewHealthHandler(storage Pinger, rooms func() int, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		rooms:   rooms,
		logger:  logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	status := "healthy"

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		status = "degraded"
	} else {
		components["storage"] = "healthy"
	}
	if h.rooms != nil {
		components["rooms"] = strconv.Itoa(h.rooms())
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, code, HealthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Service:    "cyber-siege",
		Components: components,
	})
}
