package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"reversi/communication"
	"reversi/experiments/metrics"
	"reversi/game"
	"reversi/meta"
)

// Remote is a player on the other end of a reversi/1 stream. Each position
// request carries a fresh sequence number and replies to older requests are
// dropped, so a reply that missed its deadline cannot be taken for the next one.
type Remote struct {
	name string
	peer string
	conn communication.Communicator

	mu  sync.Mutex
	seq uint64
}

// NewRemote wraps a stream. Call Handshake before asking for moves.
func NewRemote(name string, rwc io.ReadWriteCloser) *Remote {
	return newRemote(name, communication.NewStreamConn(rwc))
}

func newRemote(name string, conn communication.Communicator) *Remote {
	return &Remote{name: name, conn: conn}
}

// Name is the configured name, or the name the peer announced when none was configured.
func (r *Remote) Name() string {
	if r.name != "" {
		return r.name
	}
	if r.peer != "" {
		return r.peer
	}
	return "remote"
}

// Peer is the name announced in the peer's hello.
func (r *Remote) Peer() string {
	return r.peer
}

// Handshake greets the peer and waits for its hello.
func (r *Remote) Handshake(ctx context.Context) error {
	if err := r.conn.Send(communication.Greeting()); err != nil {
		return err
	}
	m, err := r.receive(ctx)
	if err != nil {
		return fmt.Errorf("waiting for hello: %w", err)
	}
	peer, err := communication.ParseHello(m)
	if err != nil {
		return err
	}
	r.peer = peer
	return nil
}

func (r *Remote) FindMove(ctx context.Context, b game.Board) (game.Move, metrics.SearchMetric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	seq := r.seq
	start := time.Now()

	var budget time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		budget = max(time.Until(deadline), 0)
	}
	if err := r.conn.Send(communication.Position{Seq: seq, Board: b, Budget: budget}.Message()); err != nil {
		return game.Pass, metrics.SearchMetric{}, err
	}

	for {
		m, err := r.receive(ctx)
		if err != nil {
			return game.Pass, metrics.SearchMetric{}, err
		}
		reply, err := communication.ParseMoveReply(m)
		if err != nil {
			return game.Pass, metrics.SearchMetric{}, err
		}
		switch {
		case reply.Seq < seq:
			log.Debug().Msgf("%s: dropping stale reply %d to request %d", r.Name(), reply.Seq, seq)
			continue
		case reply.Seq > seq:
			return game.Pass, metrics.SearchMetric{}, fmt.Errorf("%w: reply to request %d that was never sent", communication.ErrProtocolViolation, reply.Seq)
		}
		return reply.Move, metrics.SearchMetric{Searcher: "remote", Duration: time.Since(start)}, nil
	}
}

// receive answers pings and logs error notices until a message for the caller arrives.
func (r *Remote) receive(ctx context.Context) (communication.Message, error) {
	for {
		m, err := r.conn.Receive(ctx)
		if err != nil {
			return m, err
		}
		switch m.Verb {
		case communication.VerbPing:
			if err := r.conn.Send(communication.NewMessage(communication.VerbPong)); err != nil {
				return m, err
			}
		case communication.VerbPong:
		case communication.VerbError:
			log.Warn().Msgf("%s reports: %s", r.Name(), strings.Join(m.Args, " "))
		default:
			return m, nil
		}
	}
}

func (r *Remote) BeginGame(_ context.Context, start communication.GameStart) error {
	return r.conn.Send(start.Message())
}

func (r *Remote) EndGame(_ context.Context, result communication.Result) error {
	return r.conn.Send(result.Message())
}

// Bye ends the session with the final tally from the peer's point of view.
func (r *Remote) Bye(b communication.Bye) error {
	return r.conn.Send(b.Message())
}

// Reject tells the peer why it is being dropped. Send errors are ignored since
// the connection is about to be closed anyway.
func (r *Remote) Reject(err error) {
	_ = r.conn.Send(communication.ErrorMessage(err))
}

func (r *Remote) Close() error {
	return r.conn.Close()
}

// handshakeTimeout bounds the wait for a hello from a fresh peer.
func handshakeTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, meta.DefaultMoveTimeout)
}

// IsFatal reports whether err means the peer can no longer take part in a session.
func IsFatal(err error) bool {
	return errors.Is(err, communication.ErrConnection)
}
