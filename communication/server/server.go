package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reversi/arena"
	"reversi/communication"
	"reversi/engine"
	"reversi/experiments/metrics"
	"reversi/meta"
	"reversi/player"
)

type Option func(s *Server)

// WithLocalPlayer takes the first seat with an in-process player, so only one
// client has to connect.
func WithLocalPlayer(p player.Player) Option {
	return func(s *Server) {
		s.local = p
	}
}

func WithMoveTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.moveTimeout = d
	}
}

// WithHandshakeTimeout bounds the wait for a connected client's hello.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.handshakeTimeout = d
	}
}

func WithObserver(o engine.Observer) Option {
	return func(s *Server) {
		s.observers = append(s.observers, o)
	}
}

func WithHistory() Option {
	return func(s *Server) {
		s.history = true
	}
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server seats two players, at least one of them connected over TCP, and
// runs the arena between them. It owns the board; clients only send moves.
type Server struct {
	numGames         int
	showProgress     bool
	local            player.Player
	moveTimeout      time.Duration
	handshakeTimeout time.Duration
	observers        []engine.Observer
	history          bool
	recorder         *metrics.Recorder
	logger           zerolog.Logger

	listener net.Listener

	mu    sync.Mutex
	arena *arena.Arena
}

func New(numGames int, showProgress bool, options ...Option) (*Server, error) {
	if numGames <= 0 || numGames%2 != 0 {
		return nil, fmt.Errorf("%w: game count must be positive and even, got %d", meta.ErrConfiguration, numGames)
	}
	s := &Server{
		numGames:         numGames,
		showProgress:     showProgress,
		moveTimeout:      meta.DefaultMoveTimeout,
		handshakeTimeout: meta.DefaultMoveTimeout,
		logger:           log.Logger,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Start listens on host:port and serves one match.
func (s *Server) Start(ctx context.Context, host string, port int) error {
	if err := s.Listen(host, port); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Listen binds the socket. Port 0 picks a free port; see Addr. An address that
// does not resolve is a configuration error, a failed bind a connection error.
func (s *Server) Listen(host string, port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("%w: port %d out of range", meta.ErrConfiguration, port)
	}
	addr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("%w: listen address: %w", meta.ErrConfiguration, err)
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: listen: %w", communication.ErrConnection, err)
	}
	s.listener = l
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve seats the players, plays the match and says bye. Clients that fail
// the handshake are turned away without affecting the seats already taken.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return fmt.Errorf("%w: Serve called before Listen", meta.ErrConfiguration)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	s.logger.Info().Msgf("waiting for players on %s", s.listener.Addr())
	remotes, err := s.seat(ctx)
	defer func() {
		for _, r := range remotes {
			r.Close()
		}
	}()
	if err != nil {
		return err
	}

	players := make([]player.Player, 0, 2)
	if s.local != nil {
		players = append(players, s.local)
	}
	for _, r := range remotes {
		players = append(players, r)
	}

	options := []arena.Option{arena.WithMoveTimeout(s.moveTimeout), arena.WithLogger(s.logger)}
	for _, o := range s.observers {
		options = append(options, arena.WithObserver(o))
	}
	if s.history {
		options = append(options, arena.WithHistory())
	}
	if s.recorder != nil {
		options = append(options, arena.WithMetrics(s.recorder))
	}
	a, err := arena.New(players[0], players[1], s.showProgress, options...)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.arena = a
	s.mu.Unlock()

	s.logger.Info().Msgf("match of %d games: %s vs %s", s.numGames, players[0].Name(), players[1].Name())
	if err := a.PlayN(ctx, s.numGames); err != nil {
		return err
	}

	wins1, wins2, draws := a.Stats()
	byes := []communication.Bye{{Wins: wins1, Losses: wins2, Draws: draws}, {Wins: wins2, Losses: wins1, Draws: draws}}
	offset := len(players) - len(remotes)
	for i, r := range remotes {
		if err := r.Bye(byes[offset+i]); err != nil {
			s.logger.Debug().Err(err).Msgf("%s left before bye", r.Name())
		}
	}
	s.logger.Info().Msgf("match over: %s %d, %s %d, draws %d", players[0].Name(), wins1, players[1].Name(), wins2, draws)
	return nil
}

// seat accepts connections until every open seat holds a client that
// completed the handshake.
func (s *Server) seat(ctx context.Context) ([]*player.Remote, error) {
	need := 2
	if s.local != nil {
		need = 1
	}
	var remotes []*player.Remote
	for len(remotes) < need {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return remotes, ctx.Err()
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return remotes, fmt.Errorf("%w: accept: %w", communication.ErrConnection, err)
		}

		r := player.NewRemote("", conn)
		hctx, cancel := context.WithTimeout(ctx, s.handshakeTimeout)
		err = r.Handshake(hctx)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Msgf("turning away %s", conn.RemoteAddr())
			r.Reject(err)
			r.Close()
			continue
		}
		s.logger.Info().Msgf("seat %d taken by %s from %s", len(remotes)+1, r.Name(), conn.RemoteAddr())
		remotes = append(remotes, r)
	}
	return remotes, nil
}

// Stats mirrors the arena: wins for the first seat, wins for the second, draws.
func (s *Server) Stats() (wins1, wins2, draws int) {
	s.mu.Lock()
	a := s.arena
	s.mu.Unlock()
	if a == nil {
		return 0, 0, 0
	}
	return a.Stats()
}

// Arena returns the arena of the current match, nil until both seats are taken.
func (s *Server) Arena() *arena.Arena {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arena
}
