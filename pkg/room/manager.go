package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jwebster45206/cyber-siege/pkg/state"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultGracePeriod is how long a completed room stays observable.
const DefaultGracePeriod = 60 * time.Second

var ErrClosed = errors.New("room manager is closed")

type Config struct {
	SuccessProbability float64
	GracePeriod        time.Duration
	// ScoreLimit ends the game when a team reaches it. Zero disables it.
	ScoreLimit int
}

type Option func(*Manager)

func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithRandom(r Random) Option {
	return func(m *Manager) { m.rand = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager owns the registry of live multiplayer rooms. Each room runs its
// own event loop; rooms never block each other.
type Manager struct {
	cfg    Config
	clock  Clock
	rand   Random
	logger *slog.Logger

	mu     sync.Mutex
	rooms  map[string]*room
	closed bool

	activeRooms   metric.Int64ObservableGauge
	actions       metric.Int64Counter
	gamesFinished metric.Int64Counter
}

// NewManager builds a manager. Zero config values fall back to defaults.
// Metrics go to the global OTel meter provider (no-op unless configured).
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if cfg.SuccessProbability <= 0 {
		cfg.SuccessProbability = DefaultSuccessProbability
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	m := &Manager{
		cfg:    cfg,
		clock:  systemClock{},
		rand:   globalRandom{},
		logger: slog.New(slog.DiscardHandler),
		rooms:  make(map[string]*room),
	}
	for _, opt := range opts {
		opt(m)
	}

	mtr := meter()
	var err error
	m.activeRooms, err = mtr.Int64ObservableGauge(
		"rooms.active",
		metric.WithDescription("Rooms currently registered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active rooms gauge: %w", err)
	}
	_, err = mtr.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(m.activeRooms, int64(m.Len()))
			return nil
		},
		m.activeRooms,
	)
	if err != nil {
		return nil, fmt.Errorf("registering rooms callback: %w", err)
	}
	m.actions, err = mtr.Int64Counter(
		"rooms.actions",
		metric.WithDescription("Multiplayer actions resolved"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating actions counter: %w", err)
	}
	m.gamesFinished, err = mtr.Int64Counter(
		"rooms.games.finished",
		metric.WithDescription("Games that reached completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating games counter: %w", err)
	}
	return m, nil
}

// Len returns the number of registered rooms.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

func (m *Manager) lookup(gameID string) (*room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[gameID]
	return r, ok
}

func (m *Manager) getOrCreate(gameID string) (*room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	r, ok := m.rooms[gameID]
	if !ok {
		r = newRoom(gameID, m.clock.Now())
		m.rooms[gameID] = r
		m.logger.Info("Room created", "game_id", gameID)
	}
	return r, nil
}

// withRoom runs f on the room's loop if the room exists. Returns false when
// it does not, which every caller treats as a silent no-op.
func (m *Manager) withRoom(gameID string, f func(r *room)) bool {
	r, ok := m.lookup(gameID)
	if !ok {
		return false
	}
	return r.do(func() { f(r) })
}

// unregister drops the room from the registry and stops its loop. Loop-owned.
func (m *Manager) unregister(r *room, why string) {
	m.mu.Lock()
	if m.rooms[r.id] == r {
		delete(m.rooms, r.id)
	}
	m.mu.Unlock()
	r.shutdown()
	m.logger.Info("Room removed", "game_id", r.id, "reason", why)
}

// Join adds or replaces a player in a room, creating the room if needed.
func (m *Manager) Join(gameID, playerID, username string, team state.Team, conn Conn) error {
	if _, err := state.ParseTeam(string(team)); err != nil {
		return err
	}
	// A room can shut down between lookup and submit; the retry then
	// creates a fresh one.
	for {
		r, err := m.getOrCreate(gameID)
		if err != nil {
			return err
		}
		if r.do(func() { m.join(r, playerID, username, team, conn) }) {
			return nil
		}
	}
}

func (m *Manager) join(r *room, playerID, username string, team state.Team, conn Conn) {
	now := m.clock.Now()
	p := &Player{
		ID:       playerID,
		Username: username,
		Team:     team,
		Status:   playerReady,
		JoinedAt: now,
		conn:     conn,
	}
	r.upsert(p)
	m.logger.Info("Player joined room", "game_id", r.id, "player_id", playerID, "team", team)

	m.broadcast(r, Event{Name: EventPlayerJoined, Data: PlayerJoined{GameID: r.id, Player: p.info()}})
	m.send(r, p, Event{Name: EventGameState, Data: r.snapshot()})
	m.checkReady(r)
}

// Action resolves a multiplayer action and broadcasts the outcome.
func (m *Manager) Action(gameID, playerID, action, target string, params map[string]any) {
	m.withRoom(gameID, func(r *room) {
		now := m.clock.Now()
		outcome := resolveAction(m.rand, m.cfg.SuccessProbability, action, target)
		r.lastUpdate = now
		m.actions.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.Bool("success", outcome.Success),
		))

		m.broadcast(r, Event{Name: EventActionResult, Data: ActionResult{
			GameID:     r.id,
			UserID:     playerID,
			Action:     action,
			Target:     target,
			Parameters: params,
			Result:     outcome,
			Timestamp:  now,
		}})

		if p, ok := r.players[playerID]; ok && outcome.Success && r.status == StatusActive {
			r.scores[p.Team]++
			if m.cfg.ScoreLimit > 0 && r.scores[p.Team] >= m.cfg.ScoreLimit {
				m.complete(r, p.Team, fmt.Sprintf("%s team wins (score limit reached)", p.Team.Title()))
				return
			}
		}
		m.checkGameOver(r)
	})
}

// Chat relays a message to the room, or only to the sender's team.
func (m *Manager) Chat(gameID, playerID, message string, teamOnly bool) {
	m.withRoom(gameID, func(r *room) {
		sender, ok := r.players[playerID]
		if !ok {
			return
		}
		ev := Event{Name: EventChatMessage, Data: ChatMessage{
			UserID:    sender.ID,
			Username:  sender.Username,
			Message:   message,
			Team:      sender.Team,
			Timestamp: m.clock.Now(),
		}}
		for _, p := range r.roster() {
			if teamOnly && p.Team != sender.Team {
				continue
			}
			m.send(r, p, ev)
		}
	})
}

// Leave removes a player. Unknown rooms and players are ignored.
func (m *Manager) Leave(gameID, playerID string) {
	m.withRoom(gameID, func(r *room) {
		m.leave(r, playerID)
	})
}

// Disconnect removes whichever players are bound to conn, in every room.
func (m *Manager) Disconnect(conn Conn) {
	m.mu.Lock()
	rooms := make([]*room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.do(func() {
			if p, ok := r.playerByConn(conn.ID()); ok {
				m.leave(r, p.ID)
			}
		})
	}
}

func (m *Manager) leave(r *room, playerID string) {
	p, ok := r.remove(playerID)
	if !ok {
		return
	}
	m.logger.Info("Player left room", "game_id", r.id, "player_id", playerID)
	m.broadcast(r, Event{Name: EventPlayerLeft, Data: PlayerLeft{GameID: r.id, UserID: p.ID, Username: p.Username}})

	if len(r.players) == 0 {
		m.unregister(r, "empty")
		return
	}
	m.checkGameOver(r)
}

// Snapshot returns a copy of the room's state.
func (m *Manager) Snapshot(gameID string) (Snapshot, bool) {
	var snap Snapshot
	ok := m.withRoom(gameID, func(r *room) { snap = r.snapshot() })
	return snap, ok
}

// Close shuts every room down and cancels pending deletions. Join fails afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	rooms := make([]*room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.do(func() { m.unregister(r, "manager closed") })
	}
}

func (m *Manager) checkReady(r *room) {
	if r.status != StatusWaiting {
		return
	}
	if r.teamSize(state.TeamRed) == 0 || r.teamSize(state.TeamBlue) == 0 {
		return
	}
	r.status = StatusActive
	r.startTime = m.clock.Now()

	roster := r.roster()
	players := make([]PlayerInfo, len(roster))
	for i, p := range roster {
		players[i] = p.info()
	}
	m.logger.Info("Game started", "game_id", r.id, "players", len(players))
	m.broadcast(r, Event{Name: EventGameStarted, Data: GameStarted{GameID: r.id, StartTime: r.startTime, Players: players}})
}

func (m *Manager) checkGameOver(r *room) {
	if r.status != StatusActive {
		return
	}
	red, blue := r.teamSize(state.TeamRed), r.teamSize(state.TeamBlue)
	if red > 0 && blue > 0 {
		return
	}
	winner := state.TeamRed
	if red == 0 {
		winner = state.TeamBlue
	}
	m.complete(r, winner, fmt.Sprintf("%s team wins (other team left)", winner.Title()))
}

func (m *Manager) complete(r *room, winner state.Team, reason string) {
	r.status = StatusCompleted
	r.endTime = m.clock.Now()
	r.winner = winner
	r.reason = reason

	duration := r.endTime.Sub(r.startTime).Milliseconds()
	m.gamesFinished.Add(context.Background(), 1, metric.WithAttributes(attribute.String("winner", string(winner))))
	m.logger.Info("Game over", "game_id", r.id, "winner", winner, "reason", reason, "duration_ms", duration)
	m.broadcast(r, Event{Name: EventGameOver, Data: GameOver{GameID: r.id, Winner: winner, Reason: reason, Duration: duration}})

	r.deletion = m.clock.AfterFunc(m.cfg.GracePeriod, func() {
		r.do(func() { m.unregister(r, "grace period elapsed") })
	})
}

func (m *Manager) broadcast(r *room, ev Event) {
	for _, p := range r.roster() {
		m.send(r, p, ev)
	}
}

func (m *Manager) send(r *room, p *Player, ev Event) {
	if p.conn == nil {
		return
	}
	if err := p.conn.Send(ev); err != nil {
		m.logger.Warn("Failed to send room event", "game_id", r.id, "player_id", p.ID, "event", ev.Name, "error", err)
	}
}
