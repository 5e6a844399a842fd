package spectate

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"reversi/arena"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StatsFunc reports the current match summary; ok is false before a match starts.
type StatsFunc func() (summary arena.Summary, ok bool)

// NewHandler serves the live feed on /ws, the running summary on /stats and a
// liveness probe on /healthz.
func NewHandler(hub *Hub, stats StatsFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		s := hub.subscribe(conn)
		if s == nil {
			conn.Close()
			return
		}
		go s.writePump()
		hub.readPump(s)
	})
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		summary, ok := arena.Summary{}, false
		if stats != nil {
			summary, ok = stats()
		}
		if !ok {
			http.Error(w, "no match running", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			log.Warn().Err(err).Msg("failed to encode stats")
		}
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}
