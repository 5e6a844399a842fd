package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reversi/communication"
	"reversi/game"
	"reversi/player"
)

// Summary is the session tally kept by the agent side.
type Summary struct {
	Wins    int
	Losses  int
	Draws   int
	Results []communication.Result
}

func (s *Summary) add(r communication.Result) {
	switch r.Outcome {
	case communication.OutcomeWin:
		s.Wins++
	case communication.OutcomeLoss:
		s.Losses++
	default:
		s.Draws++
	}
	s.Results = append(s.Results, r)
}

type Option func(c *Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client connects a local player to an arena server.
type Client struct {
	player player.Player
	logger zerolog.Logger

	mu      sync.Mutex
	summary Summary
}

func New(p player.Player, options ...Option) *Client {
	c := &Client{player: p, logger: log.Logger}
	for _, option := range options {
		option(c)
	}
	return c
}

// Connect dials the server and plays until it says bye or hangs up.
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("%w: %w", communication.ErrConnection, err)
	}
	defer conn.Close()

	c.logger.Info().Msgf("connected to %s as %s", conn.RemoteAddr(), c.player.Name())
	s := &session{player: c.player, logger: c.logger, onResult: c.record}
	summary, err := s.serve(ctx, conn)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.summary.Wins, c.summary.Losses, c.summary.Draws = summary.Wins, summary.Losses, summary.Draws
	c.mu.Unlock()
	return nil
}

func (c *Client) record(r communication.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.add(r)
}

// Stats is the tally from this client's point of view.
func (c *Client) Stats() (wins, losses, draws int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary.Wins, c.summary.Losses, c.summary.Draws
}

// Results lists the game results received so far.
func (c *Client) Results() []communication.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]communication.Result(nil), c.summary.Results...)
}

// Serve runs the agent side of reversi/1 over rw on behalf of p. It returns
// when the server says bye, or with a nil error when the stream simply ends.
func Serve(ctx context.Context, rw io.ReadWriter, p player.Player) (Summary, error) {
	s := &session{player: p, logger: log.Logger}
	return s.serve(ctx, rw)
}

type session struct {
	player   player.Player
	logger   zerolog.Logger
	onResult func(communication.Result)
	summary  Summary
}

func (s *session) serve(ctx context.Context, rw io.ReadWriter) (Summary, error) {
	conn := communication.NewConn(rw, rw, nil)
	defer conn.Close()

	m, err := conn.Receive(ctx)
	if err != nil {
		return s.summary, s.ended(err)
	}
	if err := communication.CheckGreeting(m); err != nil {
		_ = conn.Send(communication.ErrorMessage(err))
		return s.summary, err
	}
	if err := conn.Send(communication.Hello(s.player.Name())); err != nil {
		return s.summary, err
	}

	for {
		m, err := conn.Receive(ctx)
		if err != nil {
			return s.summary, s.ended(err)
		}
		switch m.Verb {
		case communication.VerbGame:
			start, err := communication.ParseGameStart(m)
			if err != nil {
				return s.summary, err
			}
			s.logger.Debug().Int("game", start.Index).Msgf("playing %s", start.Color)
			if session, ok := s.player.(player.Session); ok {
				if err := session.BeginGame(ctx, start); err != nil {
					return s.summary, err
				}
			}
		case communication.VerbPosition:
			pos, err := communication.ParsePosition(m)
			if err != nil {
				return s.summary, err
			}
			if err := conn.Send(s.move(ctx, pos).Message()); err != nil {
				return s.summary, err
			}
		case communication.VerbResult:
			result, err := communication.ParseResult(m)
			if err != nil {
				return s.summary, err
			}
			s.summary.add(result)
			if s.onResult != nil {
				s.onResult(result)
			}
			s.logger.Info().Int("game", result.Index).Msgf("%s %d-%d", result.Outcome, result.Own, result.Opp)
			if session, ok := s.player.(player.Session); ok {
				if err := session.EndGame(ctx, result); err != nil {
					return s.summary, err
				}
			}
		case communication.VerbBye:
			bye, err := communication.ParseBye(m)
			if err != nil {
				return s.summary, err
			}
			s.summary.Wins, s.summary.Losses, s.summary.Draws = bye.Wins, bye.Losses, bye.Draws
			return s.summary, nil
		case communication.VerbPing:
			if err := conn.Send(communication.NewMessage(communication.VerbPong)); err != nil {
				return s.summary, err
			}
		case communication.VerbPong:
		case communication.VerbError:
			s.logger.Warn().Msgf("server reports: %v", m.Args)
		default:
			err := fmt.Errorf("%w: unexpected %q", communication.ErrProtocolViolation, m.String())
			_ = conn.Send(communication.ErrorMessage(err))
			return s.summary, err
		}
	}
}

// move asks the player for a reply, keeping a tenth of the budget in reserve
// for the round trip. A failing player answers pass and lets the server judge it.
func (s *session) move(ctx context.Context, pos communication.Position) communication.MoveReply {
	mctx, cancel := ctx, context.CancelFunc(func() {})
	if pos.Budget > 0 {
		mctx, cancel = context.WithTimeout(ctx, pos.Budget-pos.Budget/10)
	}
	defer cancel()

	move, _, err := s.player.FindMove(mctx, pos.Board)
	if err != nil {
		if !errors.Is(err, game.ErrNoLegalMoves) {
			s.logger.Error().Err(err).Msgf("%s failed to move", s.player.Name())
		}
		move = game.Pass
	}
	return communication.MoveReply{Seq: pos.Seq, Move: move}
}

// ended treats end of stream as a clean hang-up.
func (s *session) ended(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
