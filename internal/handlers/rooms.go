package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jwebster45206/cyber-siege/pkg/room"
	"github.com/jwebster45206/cyber-siege/pkg/state"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 16 << 10
	sendBufferSize = 64

	eventError = "error"
)

// Client message types on the room channel.
const (
	msgJoinGame   = "joinGame"
	msgGameAction = "gameAction"
	msgGameChat   = "gameChat"
	msgLeaveGame  = "leaveGame"
)

var (
	errConnClosed = errors.New("connection closed")
	errSendFull   = errors.New("send buffer full")
)

type RoomManager interface {
	Join(gameID, playerID, username string, team state.Team, conn room.Conn) error
	Action(gameID, playerID, action, target string, params map[string]any)
	Chat(gameID, playerID, message string, teamOnly bool)
	Leave(gameID, playerID string)
	Disconnect(conn room.Conn)
}

// clientMessage is the union of everything a client may send.
type clientMessage struct {
	Type       string         `json:"type"`
	GameID     string         `json:"gameId"`
	UserID     string         `json:"userId,omitempty"`
	Username   string         `json:"username,omitempty"`
	Team       string         `json:"teamType,omitempty"`
	Action     string         `json:"action,omitempty"`
	Target     string         `json:"target,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Message    string         `json:"message,omitempty"`
	TeamOnly   bool           `json:"teamOnly,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// wsConn adapts a websocket to room.Conn. Send never blocks the room loop:
// events queue on a buffer drained by writePump, and a full buffer drops
// the event.
type wsConn struct {
	id     string
	ws     *websocket.Conn
	send   chan room.Event
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func newWSConn(ws *websocket.Conn, logger *slog.Logger) *wsConn {
	id := uuid.NewString()
	return &wsConn{
		id:     id,
		ws:     ws,
		send:   make(chan room.Event, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger.With("conn_id", id),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(ev room.Event) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- ev:
		return nil
	default:
		return errSendFull
	}
}

func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *wsConn) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.logger.Debug("WebSocket write error", "error", err)
				return
			}
		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("WebSocket ping failed", "error", err)
				return
			}
		}
	}
}

type RoomsHandler struct {
	rooms    RoomManager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewRoomsHandler(rooms RoomManager, logger *slog.Logger) *RoomsHandler {
	return &RoomsHandler{
		rooms: rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP handles GET /v1/rooms/ws. The player identity comes from the
// X-Player-ID header or the userId of the joinGame message.
func (h *RoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	c := newWSConn(ws, h.logger)
	c.logger.Info("Room connection opened", "remote_addr", r.RemoteAddr)
	go c.writePump()

	s := &roomSession{
		h:        h,
		conn:     c,
		playerID: strings.TrimSpace(r.Header.Get(headerPlayerID)),
		username: strings.TrimSpace(r.Header.Get(headerPlayerName)),
		games:    make(map[string]bool),
	}
	s.readPump()

	h.rooms.Disconnect(c)
	c.close()
	c.logger.Info("Room connection closed")
}

// roomSession is the per-connection reader state.
type roomSession struct {
	h        *RoomsHandler
	conn     *wsConn
	playerID string
	username string
	games    map[string]bool
}

func (s *roomSession) readPump() {
	ws := s.conn.ws
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			// A decode error leaves the socket usable; anything else ends it.
			if !isDecodeError(err) {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.conn.logger.Debug("WebSocket read error", "error", err)
				}
				return
			}
			s.fail("Malformed message")
			continue
		}
		s.handle(msg)
	}
}

func (s *roomSession) handle(msg clientMessage) {
	if msg.Type != msgJoinGame && !s.games[msg.GameID] {
		s.fail("Join the game first")
		return
	}

	switch msg.Type {
	case msgJoinGame:
		s.join(msg)
	case msgGameAction:
		if msg.Action == "" {
			s.fail("action is required")
			return
		}
		s.h.rooms.Action(msg.GameID, s.playerID, msg.Action, msg.Target, msg.Parameters)
	case msgGameChat:
		if strings.TrimSpace(msg.Message) == "" {
			return
		}
		s.h.rooms.Chat(msg.GameID, s.playerID, msg.Message, msg.TeamOnly)
	case msgLeaveGame:
		s.h.rooms.Leave(msg.GameID, s.playerID)
		delete(s.games, msg.GameID)
	default:
		s.fail("Unknown message type " + msg.Type)
	}
}

func (s *roomSession) join(msg clientMessage) {
	if strings.TrimSpace(msg.GameID) == "" {
		s.fail("gameId is required")
		return
	}
	if s.playerID == "" {
		s.playerID = strings.TrimSpace(msg.UserID)
	}
	if s.playerID == "" {
		s.fail("userId is required")
		return
	}
	if msg.Username != "" {
		s.username = msg.Username
	}
	name := s.username
	if name == "" {
		name = s.playerID
	}
	team, err := state.ParseTeam(msg.Team)
	if err != nil {
		s.fail(err.Error())
		return
	}
	if err := s.h.rooms.Join(msg.GameID, s.playerID, name, team, s.conn); err != nil {
		s.h.logger.Warn("Room join failed", "game_id", msg.GameID, "player_id", s.playerID, "error", err)
		s.fail("Unable to join game")
		return
	}
	s.games[msg.GameID] = true
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (s *roomSession) fail(message string) {
	if err := s.conn.Send(room.Event{Name: eventError, Data: errorPayload{Message: message}}); err != nil {
		s.conn.logger.Debug("Failed to send error event", "error", err)
	}
}
