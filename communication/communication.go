package communication

import (
	"context"
	"errors"
)

var (
	// ErrProtocolViolation covers malformed, unexpected or late messages from a peer.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrConnection covers transport failures, including the peer hanging up.
	ErrConnection = errors.New("connection error")
)

// Communicator is an interface that abstracts the message transport to a peer.
type Communicator interface {
	Send(m Message) error
	// Receive blocks until the next message arrives, the transport fails or ctx is done.
	Receive(ctx context.Context) (Message, error)
	Close() error
}
