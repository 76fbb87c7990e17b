package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/cyber-siege/internal/logger"
	"github.com/jwebster45206/cyber-siege/internal/mission"
	"github.com/jwebster45206/cyber-siege/pkg/state"
	"github.com/jwebster45206/cyber-siege/pkg/terminal"
)

const maxCommandLength = 1024

type CreateMissionRequest struct {
	Scenario string `json:"scenario"`
	Mode     string `json:"gameMode,omitempty"`
	Team     string `json:"teamType,omitempty"`
}

type CommandRequest struct {
	Command string `json:"command"`
}

type CommandResponse struct {
	Result    string         `json:"result"`
	Session   *state.Session `json:"session"`
	Objective string         `json:"objective,omitempty"`
	Ended     bool           `json:"ended,omitempty"`
}

type MissionHandler struct {
	svc    *mission.Service
	logger *slog.Logger
}

func NewMissionHandler(svc *mission.Service, logger *slog.Logger) *MissionHandler {
	return &MissionHandler{svc: svc, logger: logger}
}

// Create handles POST /v1/missions.
func (h *MissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r, h.logger)
	if !ok {
		return
	}
	var req CreateMissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	sess, err := h.svc.Start(r.Context(), mission.StartRequest{
		PlayerID: player,
		Username: strings.TrimSpace(r.Header.Get(headerPlayerName)),
		Scenario: req.Scenario,
		Mode:     req.Mode,
		Team:     req.Team,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, sess)
}

// List handles GET /v1/missions and returns the caller's active missions.
func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r, h.logger)
	if !ok {
		return
	}
	sessions, err := h.svc.ListActive(r.Context(), player)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sessions)
}

// Get handles GET /v1/missions/{id}.
func (h *MissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r, h.logger)
	if !ok {
		return
	}
	sess, err := h.svc.Get(r.Context(), player, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sess)
}

// Command handles POST /v1/missions/{id}/command.
func (h *MissionHandler) Command(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r, h.logger)
	if !ok {
		return
	}
	id := r.PathValue("id")
	log := logger.WithSession(h.logger, id)

	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4*maxCommandLength)).Decode(&req); err != nil {
		writeError(w, log, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if len(req.Command) > maxCommandLength {
		writeError(w, log, http.StatusBadRequest, "Command is too long")
		return
	}

	res, err := h.svc.Execute(r.Context(), player, id, req.Command)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	writeJSON(w, log, http.StatusOK, commandResponse(res))
}

// Abandon handles POST /v1/missions/{id}/abandon.
func (h *MissionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	player, ok := playerID(w, r, h.logger)
	if !ok {
		return
	}
	sess, err := h.svc.Abandon(r.Context(), player, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sess)
}

func commandResponse(res terminal.Result) CommandResponse {
	out := CommandResponse{Result: res.Output, Session: res.Session, Ended: res.Ended}
	if res.Objective != nil {
		out.Objective = res.Objective.Description
	}
	return out
}
