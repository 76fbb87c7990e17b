package room

import (
	"time"

	"github.com/jwebster45206/cyber-siege/pkg/state"
)

// Event names sent over the room channel.
const (
	EventPlayerJoined = "playerJoined"
	EventGameState    = "gameState"
	EventGameStarted  = "gameStarted"
	EventActionResult = "actionResult"
	EventChatMessage  = "chatMessage"
	EventPlayerLeft   = "playerLeft"
	EventGameOver     = "gameOver"
)

// Event is one server → client message.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Conn is a player's connection handle. Send must not block the caller for
// long; it runs on the room's event loop.
type Conn interface {
	ID() string
	Send(Event) error
}

type PlayerInfo struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Team     state.Team `json:"teamType"`
}

type PlayerJoined struct {
	GameID string     `json:"gameId"`
	Player PlayerInfo `json:"player"`
}

type GameStarted struct {
	GameID    string       `json:"gameId"`
	StartTime time.Time    `json:"startTime"`
	Players   []PlayerInfo `json:"players"`
}

type ActionResult struct {
	GameID     string         `json:"gameId"`
	UserID     string         `json:"userId"`
	Action     string         `json:"action"`
	Target     string         `json:"target,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Result     Outcome        `json:"result"`
	Timestamp  time.Time      `json:"timestamp"`
}

type ChatMessage struct {
	UserID    string     `json:"userId"`
	Username  string     `json:"username"`
	Message   string     `json:"message"`
	Team      state.Team `json:"teamType"`
	Timestamp time.Time  `json:"timestamp"`
}

type PlayerLeft struct {
	GameID   string `json:"gameId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type GameOver struct {
	GameID   string     `json:"gameId"`
	Winner   state.Team `json:"winner"`
	Reason   string     `json:"reason"`
	Duration int64      `json:"duration"` // milliseconds
}

// Outcome is the stochastic resolution of a multiplayer action.
type Outcome struct {
	Success bool     `json:"success"`
	Effects []Effect `json:"effects"`
}

type Effect struct {
	Type            string   `json:"type"`
	Target          string   `json:"target,omitempty"`
	Details         string   `json:"details"`
	DiscoveredItems []string `json:"discoveredItems,omitempty"`
}
