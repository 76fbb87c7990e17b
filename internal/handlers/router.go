package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/cyber-siege/internal/mission"
	"github.com/jwebster45206/cyber-siege/internal/storage"
)

type Router struct {
	Storage  storage.Storage
	Missions *mission.Service
	Events   Subscriber  // nil disables the SSE endpoint
	Rooms    RoomManager // nil disables the room channel
	RoomLen  func() int
	Logger   *slog.Logger
}

// Handler builds the API mux.
func (rt Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", NewHealthHandler(rt.Storage, rt.RoomLen, rt.Logger))

	scenarios := NewScenarioHandler(rt.Logger, rt.Storage)
	mux.HandleFunc("GET /v1/scenarios", scenarios.List)
	mux.HandleFunc("GET /v1/scenarios/{name}", scenarios.Get)

	missions := NewMissionHandler(rt.Missions, rt.Logger)
	mux.HandleFunc("POST /v1/missions", missions.Create)
	mux.HandleFunc("GET /v1/missions", missions.List)
	mux.HandleFunc("GET /v1/missions/{id}", missions.Get)
	mux.HandleFunc("POST /v1/missions/{id}/command", missions.Command)
	mux.HandleFunc("POST /v1/missions/{id}/abandon", missions.Abandon)

	if rt.Events != nil {
		mux.Handle("GET /v1/events/missions/{id}", NewEventsHandler(rt.Events, rt.Missions, rt.Logger))
	}
	if rt.Rooms != nil {
		mux.Handle("GET /v1/rooms/ws", NewRoomsHandler(rt.Rooms, rt.Logger))
	}
	return mux
}
