package room

import (
	"time"

	"github.com/jwebster45206/cyber-siege/pkg/state"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

const playerReady = "ready"

// Player is a roster entry.
type Player struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Team     state.Team `json:"teamType"`
	Status   string     `json:"status"`
	JoinedAt time.Time  `json:"joinedAt"`

	conn Conn
}

func (p *Player) info() PlayerInfo {
	return PlayerInfo{ID: p.ID, Username: p.Username, Team: p.Team}
}

// Snapshot is a read-only copy of a room, also sent as the gameState payload.
type Snapshot struct {
	ID         string             `json:"id"`
	Players    map[string]Player  `json:"players"`
	Status     Status             `json:"status"`
	StartTime  *time.Time         `json:"startTime"`
	EndTime    *time.Time         `json:"endTime,omitempty"`
	Winner     state.Team         `json:"winner,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	LastUpdate time.Time          `json:"lastUpdate"`
	Scores     map[state.Team]int `json:"scores"`
}

// room state is owned by its event loop goroutine. Nothing outside a job
// submitted through do may touch the fields below jobs.
type room struct {
	id   string
	jobs chan func()
	quit chan struct{}

	players    map[string]*Player
	order      []string // player ids in join order
	status     Status
	startTime  time.Time
	endTime    time.Time
	winner     state.Team
	reason     string
	lastUpdate time.Time
	scores     map[state.Team]int
	deletion   Timer
	removed    bool
}

func newRoom(id string, now time.Time) *room {
	r := &room{
		id:         id,
		jobs:       make(chan func()),
		quit:       make(chan struct{}),
		players:    make(map[string]*Player),
		status:     StatusWaiting,
		lastUpdate: now,
		scores:     map[state.Team]int{state.TeamRed: 0, state.TeamBlue: 0},
	}
	go r.loop()
	return r
}

func (r *room) loop() {
	for {
		select {
		case <-r.quit:
			return
		case job := <-r.jobs:
			job()
		}
	}
}

// do runs f on the event loop and waits for it to finish. Jobs from blocked
// callers are taken in arrival order. It returns false if the room has shut
// down.
func (r *room) do(f func()) bool {
	done := make(chan struct{})
	job := func() {
		defer close(done)
		f()
	}
	select {
	case r.jobs <- job:
	case <-r.quit:
		return false
	}
	<-done
	return true
}

// shutdown stops the loop after the current job. Loop-owned.
func (r *room) shutdown() {
	if r.removed {
		return
	}
	r.removed = true
	if r.deletion != nil {
		r.deletion.Stop()
		r.deletion = nil
	}
	close(r.quit)
}

func (r *room) upsert(p *Player) {
	if _, ok := r.players[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.players[p.ID] = p
}

func (r *room) remove(id string) (*Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return nil, false
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

// roster returns players in join order.
func (r *room) roster() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

func (r *room) teamSize(t state.Team) int {
	n := 0
	for _, p := range r.players {
		if p.Team == t {
			n++
		}
	}
	return n
}

func (r *room) playerByConn(connID string) (*Player, bool) {
	for _, p := range r.roster() {
		if p.conn != nil && p.conn.ID() == connID {
			return p, true
		}
	}
	return nil, false
}

func (r *room) snapshot() Snapshot {
	s := Snapshot{
		ID:         r.id,
		Players:    make(map[string]Player, len(r.players)),
		Status:     r.status,
		Winner:     r.winner,
		Reason:     r.reason,
		LastUpdate: r.lastUpdate,
		Scores:     make(map[state.Team]int, len(r.scores)),
	}
	for id, p := range r.players {
		cp := *p
		cp.conn = nil
		s.Players[id] = cp
	}
	for t, n := range r.scores {
		s.Scores[t] = n
	}
	if !r.startTime.IsZero() {
		start := r.startTime
		s.StartTime = &start
	}
	if !r.endTime.IsZero() {
		end := r.endTime
		s.EndTime = &end
	}
	return s
}
