package mission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jwebster45206/cyber-siege/internal/storage"
	"github.com/jwebster45206/cyber-siege/pkg/scenario"
	"github.com/jwebster45206/cyber-siege/pkg/state"
	"github.com/jwebster45206/cyber-siege/pkg/terminal"
)

// Publisher receives mission progress notifications. Failures are logged
// and never fail the command.
type Publisher interface {
	PublishCommandProcessed(ctx context.Context, sessionID, command string, score int) error
	PublishObjectiveCompleted(ctx context.Context, sessionID, description string, points, score int) error
	PublishMissionEnded(ctx context.Context, sessionID, status, result string, score int) error
}

type noopPublisher struct{}

func (noopPublisher) PublishCommandProcessed(context.Context, string, string, int) error { return nil }
func (noopPublisher) PublishObjectiveCompleted(context.Context, string, string, int, int) error {
	return nil
}
func (noopPublisher) PublishMissionEnded(context.Context, string, string, string, int) error {
	return nil
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service runs single-player missions: it owns the load, lock, interpret,
// save cycle around the terminal interpreter.
type Service struct {
	store     storage.Storage
	interp    *terminal.Interpreter
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger

	commands   metric.Int64Counter
	objectives metric.Int64Counter
}

func NewService(store storage.Storage, interp *terminal.Interpreter, opts ...Option) (*Service, error) {
	s := &Service{
		store:     store,
		interp:    interp,
		publisher: noopPublisher{},
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	s.commands, err = meter().Int64Counter(
		"missions.commands",
		metric.WithDescription("Terminal commands processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating commands counter: %w", err)
	}
	s.objectives, err = meter().Int64Counter(
		"missions.objectives.completed",
		metric.WithDescription("Mission objectives completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating objectives counter: %w", err)
	}
	return s, nil
}

type StartRequest struct {
	PlayerID string
	Username string
	Scenario string
	Mode     string
	Team     string
}

// Start creates and persists a new session. An empty mode means training; an
// empty team follows the scenario category.
func (s *Service) Start(ctx context.Context, req StartRequest) (*state.Session, error) {
	if strings.TrimSpace(req.PlayerID) == "" {
		return nil, fmt.Errorf("start mission: player id is required: %w", ErrValidation)
	}
	if strings.TrimSpace(req.Scenario) == "" {
		return nil, fmt.Errorf("start mission: scenario is required: %w", ErrValidation)
	}

	mode := state.ModeTraining
	if req.Mode != "" {
		m, err := state.ParseMode(req.Mode)
		if err != nil {
			return nil, fmt.Errorf("start mission: %w: %w", ErrValidation, err)
		}
		mode = m
	}

	sc, err := s.store.GetScenario(ctx, req.Scenario)
	if err != nil {
		return nil, storageError("start mission", err)
	}

	team := defaultTeam(sc.Category)
	if req.Team != "" {
		t, err := state.ParseTeam(req.Team)
		if err != nil {
			return nil, fmt.Errorf("start mission: %w: %w", ErrValidation, err)
		}
		team = t
	}

	sess := state.NewSession(sc, req.PlayerID, req.Username, mode, team, s.now())
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, storageError("start mission", err)
	}
	s.logger.Info("Mission started",
		"session_id", sess.ID,
		"player_id", sess.PlayerID,
		"scenario", sc.Name,
		"game_mode", mode,
		"team_type", team)
	return sess, nil
}

func defaultTeam(c scenario.Category) state.Team {
	if c == scenario.CategoryBlueTeam {
		return state.TeamBlue
	}
	return state.TeamRed
}

// Get returns a session owned by playerID.
func (s *Service) Get(ctx context.Context, playerID, id string) (*state.Session, error) {
	sess, err := s.store.LoadSession(ctx, id)
	if err != nil {
		return nil, storageError("get mission", err)
	}
	if sess.PlayerID != playerID {
		s.logger.Warn("Session ownership mismatch", "session_id", id, "player_id", playerID)
		return nil, fmt.Errorf("get mission %s: %w", id, ErrUnauthorized)
	}
	return sess, nil
}

// ListActive returns the player's active sessions, oldest first.
func (s *Service) ListActive(ctx context.Context, playerID string) ([]*state.Session, error) {
	all, err := s.store.ListSessions(ctx, playerID)
	if err != nil {
		return nil, storageError("list missions", err)
	}
	active := make([]*state.Session, 0, len(all))
	for _, sess := range all {
		if sess.IsActive() {
			active = append(active, sess)
		}
	}
	return active, nil
}

// Execute runs one terminal command. Commands on the same session are
// serialised by the storage lock; a concurrent command gets ErrSessionBusy.
func (s *Service) Execute(ctx context.Context, playerID, id, command string) (terminal.Result, error) {
	if _, err := s.Get(ctx, playerID, id); err != nil {
		return terminal.Result{}, err
	}

	unlock, err := s.store.LockSession(ctx, id)
	if err != nil {
		return terminal.Result{}, storageError("execute command", err)
	}
	defer s.release(unlock, id)

	// Reload under the lock so the command sees the latest write.
	sess, err := s.Get(ctx, playerID, id)
	if err != nil {
		return terminal.Result{}, err
	}
	if !sess.IsActive() {
		return terminal.Result{}, fmt.Errorf("execute command on %s: %w", id, ErrSessionClosed)
	}
	sc, err := s.store.GetScenario(ctx, sess.Scenario)
	if err != nil {
		return terminal.Result{}, storageError("execute command", err)
	}

	res, err := s.interp.Execute(ctx, sess, sc, command)
	if err != nil {
		if errors.Is(err, state.ErrSessionNotActive) {
			return terminal.Result{}, fmt.Errorf("execute command on %s: %w", id, ErrSessionClosed)
		}
		return terminal.Result{}, fmt.Errorf("execute command on %s: %w", id, err)
	}

	sess.UpdatedAt = s.now()
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return terminal.Result{}, storageError("execute command", err)
	}

	s.commands.Add(ctx, 1, metric.WithAttributes(attribute.String("scenario", sc.Name)))
	s.notify(ctx, sess, command, res)
	return res, nil
}

// Abandon ends an active session without a result.
func (s *Service) Abandon(ctx context.Context, playerID, id string) (*state.Session, error) {
	if _, err := s.Get(ctx, playerID, id); err != nil {
		return nil, err
	}
	unlock, err := s.store.LockSession(ctx, id)
	if err != nil {
		return nil, storageError("abandon mission", err)
	}
	defer s.release(unlock, id)

	sess, err := s.Get(ctx, playerID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := sess.Abandon(now); err != nil {
		return nil, fmt.Errorf("abandon mission: %w: %w", ErrSessionClosed, err)
	}
	sess.UpdatedAt = now
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, storageError("abandon mission", err)
	}
	s.logger.Info("Mission abandoned", "session_id", id, "player_id", playerID)
	s.publishEnded(ctx, sess)
	return sess, nil
}

func (s *Service) notify(ctx context.Context, sess *state.Session, command string, res terminal.Result) {
	id := sess.ID.String()
	if err := s.publisher.PublishCommandProcessed(ctx, id, command, sess.Score); err != nil {
		s.logger.Warn("Failed to publish command event", "session_id", id, "error", err)
	}
	if obj := res.Objective; obj != nil {
		s.objectives.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(obj.Kind))))
		s.logger.Info("Objective completed", "session_id", id, "objective", obj.Description, "points", obj.Points)
		if err := s.publisher.PublishObjectiveCompleted(ctx, id, obj.Description, obj.Points, sess.Score); err != nil {
			s.logger.Warn("Failed to publish objective event", "session_id", id, "error", err)
		}
	}
	if res.Ended {
		s.logger.Info("Mission ended", "session_id", id, "result", sess.Result, "score", sess.Score)
		s.publishEnded(ctx, sess)
	}
}

func (s *Service) publishEnded(ctx context.Context, sess *state.Session) {
	id := sess.ID.String()
	if err := s.publisher.PublishMissionEnded(ctx, id, string(sess.Status), string(sess.Result), sess.Score); err != nil {
		s.logger.Warn("Failed to publish mission end", "session_id", id, "error", err)
	}
}

// release runs detached from the request so a cancelled client still frees the lock.
func (s *Service) release(unlock storage.UnlockFunc, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := unlock(ctx); err != nil {
		s.logger.Warn("Failed to release session lock", "session_id", id, "error", err)
	}
}
