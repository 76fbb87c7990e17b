package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/jwebster45206/cyber-siege/internal/storage"
	"github.com/jwebster45206/cyber-siege/pkg/scenario"
)

type ScenarioStore interface {
	ListScenarios(ctx context.Context) (map[string]string, error)
	GetScenario(ctx context.Context, name string) (*scenario.Scenario, error)
}

type ScenarioSummary struct {
	Name string `json:"name"`
	File string `json:"file"`
}

type ScenarioHandler struct {
	log     *slog.Logger
	storage ScenarioStore
}

func NewScenarioHandler(log *slog.Logger, storage ScenarioStore) *ScenarioHandler {
	return &ScenarioHandler{
		log:     log,
		storage: storage,
	}
}

// List handles GET /v1/scenarios. Results are sorted by name.
func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	index, err := h.storage.ListScenarios(r.Context())
	if err != nil {
		h.log.Error("Failed to list scenarios", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list scenarios")
		return
	}
	out := make([]ScenarioSummary, 0, len(index))
	for name, file := range index {
		out = append(out, ScenarioSummary{Name: name, File: file})
	}
	slices.SortFunc(out, func(a, b ScenarioSummary) int { return strings.Compare(a.Name, b.Name) })
	writeJSON(w, h.log, http.StatusOK, out)
}

// Get handles GET /v1/scenarios/{name}.
func (h *ScenarioHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(w, h.log, http.StatusBadRequest, "scenario name is required in URL path")
		return
	}

	sc, err := h.storage.GetScenario(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, h.log, http.StatusNotFound, "Scenario not found")
			return
		}
		h.log.Error("Failed to get scenario", "error", err, "name", name)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to retrieve scenario")
		return
	}
	writeJSON(w, h.log, http.StatusOK, sc)
}
