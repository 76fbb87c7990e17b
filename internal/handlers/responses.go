package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/cyber-siege/internal/mission"
	"github.com/jwebster45206/cyber-siege/internal/storage"
)

const (
	headerPlayerID   = "X-Player-ID"
	headerPlayerName = "X-Player-Name"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, status int, msg string) {
	writeJSON(w, log, status, ErrorResponse{Error: msg})
}

// writeServiceError maps mission errors to a status code. Internal detail
// is logged, never returned.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, mission.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, storage.ErrMalformed):
		// Corrupt stored record, not the caller's fault.
	case errors.Is(err, mission.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Not authorized for this mission"
	case errors.Is(err, mission.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, mission.ErrSessionBusy):
		status, msg = http.StatusConflict, "Another command is still running for this mission"
	case errors.Is(err, mission.ErrSessionClosed):
		status, msg = http.StatusConflict, "Mission is no longer active"
	}
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	} else {
		log.Debug("Request rejected", "status", status, "error", err)
	}
	writeError(w, log, status, msg)
}

// playerID reads the caller identity. Missing identity is a 401.
func playerID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(headerPlayerID))
	if id == "" {
		id = strings.TrimSpace(r.URL.Query().Get("playerId"))
	}
	if id == "" {
		writeError(w, log, http.StatusUnauthorized, headerPlayerID+" header is required")
		return "", false
	}
	return id, true
}
