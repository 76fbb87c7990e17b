package state

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/cyber-siege/pkg/conditionals"
	"github.com/jwebster45206/cyber-siege/pkg/scenario"
)

type Mode string

const (
	ModeTraining    Mode = "training"
	ModeCompetitive Mode = "competitive"
)

type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Title returns the capitalised team name used in announcements.
func (t Team) Title() string {
	switch t {
	case TeamRed:
		return "Red"
	case TeamBlue:
		return "Blue"
	default:
		return string(t)
	}
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

type Result string

const (
	ResultIncomplete Result = "incomplete"
	ResultSuccess    Result = "success"
	ResultFailure    Result = "failure"
)

const (
	// ActionCommand is the action type logged for every raw command attempt.
	ActionCommand = "command"
	// RootDirectory is the virtual filesystem root.
	RootDirectory = "~"
)

var ErrSessionNotActive = errors.New("session is not active")

// Action is a logged, timestamped player operation. Immutable once appended.
type Action struct {
	Type       string         `json:"actionType"`
	Target     string         `json:"target,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Result     map[string]any `json:"result,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type HistoryEntry struct {
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
}

// WorldState is the session's snapshot of the scenario world.
type WorldState struct {
	VisibleAssets []string       `json:"visibleAssets"`
	Extras        map[string]any `json:"extras,omitempty"`
}

// Session is one player's mutable progress through a scenario.
// It is not safe for concurrent use; callers serialise commands per session.
type Session struct {
	ID               uuid.UUID            `json:"id"`
	Scenario         string               `json:"scenario"`
	PlayerID         string               `json:"playerId"`
	Username         string               `json:"username,omitempty"`
	Mode             Mode                 `json:"gameMode"`
	Team             Team                 `json:"teamType"`
	Status           Status               `json:"status"`
	Result           Result               `json:"result"`
	Score            int                  `json:"score"`
	StartTime        time.Time            `json:"startTime"`
	EndTime          *time.Time           `json:"endTime,omitempty"`
	LastAction       time.Time            `json:"lastAction"`
	Actions          []Action             `json:"actions"`
	CommandHistory   []HistoryEntry       `json:"commandHistory"`
	CurrentDirectory string               `json:"currentDirectory"`
	WorldState       WorldState           `json:"gameState"`
	Objectives       []scenario.Objective `json:"objectives"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// NewSession starts a session on sc. The objective list is deep-copied so
// progress never writes back into the shared scenario.
func NewSession(sc *scenario.Scenario, playerID, username string, mode Mode, team Team, now time.Time) *Session {
	return &Session{
		ID:               uuid.New(),
		Scenario:         sc.Name,
		PlayerID:         playerID,
		Username:         username,
		Mode:             mode,
		Team:             team,
		Status:           StatusActive,
		Result:           ResultIncomplete,
		StartTime:        now,
		LastAction:       now,
		Actions:          make([]Action, 0),
		CommandHistory:   make([]HistoryEntry, 0),
		CurrentDirectory: RootDirectory,
		WorldState: WorldState{
			VisibleAssets: slices.Clone(sc.InitialState.VisibleAssets),
			Extras:        conditionals.CloneMap(sc.InitialState.Extras),
		},
		Objectives: sc.CloneObjectives(),
		UpdatedAt:  now,
	}
}

// LogAction appends an action and moves lastAction forward. A timestamp
// earlier than the previous entry is clamped to it so the log stays ordered.
func (s *Session) LogAction(a Action) Action {
	if n := len(s.Actions); n > 0 && a.Timestamp.Before(s.Actions[n-1].Timestamp) {
		a.Timestamp = s.Actions[n-1].Timestamp
	}
	s.Actions = append(s.Actions, a)
	if a.Timestamp.After(s.LastAction) {
		s.LastAction = a.Timestamp
	}
	return a
}

// AppendHistory records an executed command, with the same ordering rule as LogAction.
func (s *Session) AppendHistory(command string, at time.Time) {
	if n := len(s.CommandHistory); n > 0 && at.Before(s.CommandHistory[n-1].Timestamp) {
		at = s.CommandHistory[n-1].Timestamp
	}
	s.CommandHistory = append(s.CommandHistory, HistoryEntry{Command: command, Timestamp: at})
}

// HistoryFromEnd returns the command recorded n entries from the end, 1 being
// the most recent.
func (s *Session) HistoryFromEnd(n int) (string, bool) {
	if n <= 0 || n > len(s.CommandHistory) {
		return "", false
	}
	return s.CommandHistory[len(s.CommandHistory)-n].Command, true
}

// DomainActions returns the logged actions other than raw command attempts.
func (s *Session) DomainActions() []Action {
	var out []Action
	for _, a := range s.Actions {
		if a.Type != ActionCommand {
			out = append(out, a)
		}
	}
	return out
}

func (s *Session) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Session) IsAssetVisible(name string) bool {
	return slices.Contains(s.WorldState.VisibleAssets, name)
}

// RevealAsset adds an asset to the visible set. Returns false if it was already visible.
func (s *Session) RevealAsset(name string) bool {
	if s.IsAssetVisible(name) {
		return false
	}
	s.WorldState.VisibleAssets = append(s.WorldState.VisibleAssets, name)
	return true
}

// Complete ends an active session with the given result.
func (s *Session) Complete(result Result, at time.Time) error {
	return s.end(StatusCompleted, result, at)
}

// Abandon ends an active session without success.
func (s *Session) Abandon(at time.Time) error {
	return s.end(StatusAbandoned, ResultIncomplete, at)
}

func (s *Session) end(status Status, result Result, at time.Time) error {
	if !s.IsActive() {
		return fmt.Errorf("cannot move session %s from %s to %s: %w", s.ID, s.Status, status, ErrSessionNotActive)
	}
	s.Status = status
	s.Result = result
	s.EndTime = &at
	return nil
}

// TimeLimitExceeded reports whether the mission has run past limit minutes.
// A non-positive limit never expires.
func (s *Session) TimeLimitExceeded(limit int, now time.Time) bool {
	if limit <= 0 {
		return false
	}
	return now.Sub(s.StartTime) > time.Duration(limit)*time.Minute
}

// Validate checks a session decoded from storage.
func (s *Session) Validate() error {
	var errs []error
	if s.ID == uuid.Nil {
		errs = append(errs, errors.New("id is required"))
	}
	if s.Scenario == "" {
		errs = append(errs, errors.New("scenario is required"))
	}
	if s.PlayerID == "" {
		errs = append(errs, errors.New("playerId is required"))
	}
	if _, err := ParseMode(string(s.Mode)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseTeam(string(s.Team)); err != nil {
		errs = append(errs, err)
	}
	switch s.Status {
	case StatusActive, StatusCompleted, StatusAbandoned:
	default:
		errs = append(errs, fmt.Errorf("unknown status %q", s.Status))
	}
	if s.CurrentDirectory == "" {
		errs = append(errs, errors.New("currentDirectory is required"))
	}
	return errors.Join(errs...)
}

func ParseMode(v string) (Mode, error) {
	switch m := Mode(v); m {
	case ModeTraining, ModeCompetitive:
		return m, nil
	default:
		return "", fmt.Errorf("unknown game mode %q", v)
	}
}

func ParseTeam(v string) (Team, error) {
	switch t := Team(v); t {
	case TeamRed, TeamBlue:
		return t, nil
	default:
		return "", fmt.Errorf("unknown team %q", v)
	}
}
