package spectate

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"reversi/engine"
	"reversi/game"
)

const (
	sendBuffer   = 256
	writeTimeout = 5 * time.Second
)

const (
	EventMove   = "move"
	EventResult = "result"
)

// Event is one message of the live feed.
type Event struct {
	Type    string `json:"type"`
	Game    int    `json:"game"`
	Ply     int    `json:"ply"`
	Color   string `json:"color,omitempty"`
	Move    string `json:"move,omitempty"`
	Board   string `json:"board"`
	Black   int    `json:"black"`
	White   int    `json:"white"`
	Outcome string `json:"outcome,omitempty"`
	Forfeit bool   `json:"forfeit,omitempty"`
}

// NewEvent converts an engine update into a feed event.
func NewEvent(u engine.Update) Event {
	e := Event{
		Type:  EventMove,
		Game:  u.Game,
		Ply:   u.Ply,
		Board: u.Board.Line(),
		Black: u.Board.Discs(game.Black),
		White: u.Board.Discs(game.White),
	}
	if u.Record == nil {
		e.Color = u.Color.String()
		e.Move = u.Move.String()
		return e
	}
	e.Type = EventResult
	e.Black, e.White = u.Record.BlackDiscs, u.Record.WhiteDiscs
	e.Forfeit = u.Record.Forfeit
	switch {
	case u.Record.Draw:
		e.Outcome = "draw"
	default:
		e.Outcome = u.Record.Winner.String()
	}
	return e
}

type subscriber struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to websocket subscribers. A subscriber whose buffer
// fills up is dropped rather than allowed to slow the game down.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closed      bool
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{})}
}

// Observe is an engine.Observer.
func (h *Hub) Observe(u engine.Update) {
	h.Broadcast(NewEvent(u))
}

func (h *Hub) Broadcast(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		select {
		case s.send <- e:
		default:
			log.Debug().Msgf("dropping slow spectator %s", s.conn.RemoteAddr())
			h.remove(s)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subscribers {
		h.remove(s)
	}
}

func (h *Hub) subscribe(conn *websocket.Conn) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	s := &subscriber{conn: conn, send: make(chan Event, sendBuffer)}
	h.subscribers[s] = struct{}{}
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(s)
}

// remove must be called with mu held.
func (h *Hub) remove(s *subscriber) {
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}

func (s *subscriber) writePump() {
	defer s.conn.Close()
	for e := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteJSON(e); err != nil {
			return
		}
	}
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
}

// readPump only watches for the spectator going away.
func (h *Hub) readPump(s *subscriber) {
	defer h.unsubscribe(s)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
