package communication

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pipe(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	left, right := NewStreamConn(a), NewStreamConn(b)
	t.Cleanup(func() {
		left.Close()
		right.Close()
	})
	return left, right
}

func TestConnSendReceive(t *testing.T) {
	left, right := pipe(t)

	require.NoError(t, left.Send(Greeting()))
	require.NoError(t, left.Send(Hello("alice")))

	ctx := context.Background()
	m, err := right.Receive(ctx)
	require.NoError(t, err)
	require.NoError(t, CheckGreeting(m))

	m, err = right.Receive(ctx)
	require.NoError(t, err)
	name, err := ParseHello(m)
	require.NoError(t, err)
	require.Equal(t, "alice", name)
}

func TestConnSkipsBlankLines(t *testing.T) {
	a, b := net.Pipe()
	conn := NewStreamConn(b)
	defer conn.Close()
	defer a.Close()

	go func() {
		_, _ = a.Write([]byte("\n  \r\nping\n"))
	}()

	m, err := conn.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, VerbPing, m.Verb)
}

func TestConnReceiveTimeout(t *testing.T) {
	_, right := pipe(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := right.Receive(ctx)
	require.ErrorIs(t, err, ErrProtocolViolation)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConnPeerHangsUp(t *testing.T) {
	left, right := pipe(t)

	require.NoError(t, left.Close())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := right.Receive(ctx)
	require.ErrorIs(t, err, ErrConnection)

	require.ErrorIs(t, left.Send(NewMessage(VerbPing)), ErrConnection)
}
