package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reversi/communication"
	"reversi/game"
	"reversi/player"
)

type serveResult struct {
	summary Summary
	err     error
}

// start runs Serve for p against a scripted server end.
func start(t *testing.T, p player.Player) (*communication.Conn, <-chan serveResult) {
	t.Helper()
	a, b := net.Pipe()
	server := communication.NewStreamConn(a)
	t.Cleanup(func() {
		server.Close()
		b.Close()
	})

	done := make(chan serveResult, 1)
	go func() {
		summary, err := Serve(context.Background(), b, p)
		done <- serveResult{summary, err}
	}()
	return server, done
}

func receive(t *testing.T, conn *communication.Conn) communication.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m, err := conn.Receive(ctx)
	require.NoError(t, err)
	return m
}

func TestServeSession(t *testing.T) {
	server, done := start(t, player.NewRandomPlayer(1))

	require.NoError(t, server.Send(communication.Greeting()))
	name, err := communication.ParseHello(receive(t, server))
	require.NoError(t, err)
	require.Equal(t, "random", name)

	require.NoError(t, server.Send(communication.NewMessage(communication.VerbPing)))
	require.Equal(t, communication.VerbPong, receive(t, server).Verb)

	require.NoError(t, server.Send(communication.GameStart{Index: 1, Color: game.Black}.Message()))
	b := game.NewBoard()
	require.NoError(t, server.Send(communication.Position{Seq: 1, Board: b, Budget: time.Second}.Message()))
	reply, err := communication.ParseMoveReply(receive(t, server))
	require.NoError(t, err)
	require.Equal(t, uint64(1), reply.Seq)
	require.True(t, b.IsLegal(reply.Move))

	require.NoError(t, server.Send(communication.Result{Index: 1, Outcome: communication.OutcomeWin, Own: 40, Opp: 24}.Message()))
	require.NoError(t, server.Send(communication.Bye{Wins: 1}.Message()))

	got := <-done
	require.NoError(t, got.err)
	require.Equal(t, 1, got.summary.Wins)
	require.Len(t, got.summary.Results, 1)
}

func TestServeAnswersPassWhenBlocked(t *testing.T) {
	server, _ := start(t, player.NewRandomPlayer(1))
	require.NoError(t, server.Send(communication.Greeting()))
	receive(t, server)

	blocked, err := game.FromMasks(1<<0, 1<<1, game.White)
	require.NoError(t, err)
	require.NoError(t, server.Send(communication.Position{Seq: 4, Board: blocked}.Message()))
	reply, err := communication.ParseMoveReply(receive(t, server))
	require.NoError(t, err)
	require.Equal(t, game.Pass, reply.Move)
}

func TestServeRejectsWrongVersion(t *testing.T) {
	server, done := start(t, player.NewRandomPlayer(1))
	require.NoError(t, server.Send(communication.NewMessage(communication.VerbGreeting, "9")))

	require.Equal(t, communication.VerbError, receive(t, server).Verb)
	require.ErrorIs(t, (<-done).err, communication.ErrProtocolViolation)
}

func TestServeEndsCleanlyOnHangUp(t *testing.T) {
	server, done := start(t, player.NewRandomPlayer(1))
	require.NoError(t, server.Send(communication.Greeting()))
	receive(t, server)
	require.NoError(t, server.Close())

	got := <-done
	require.NoError(t, got.err)
	require.Zero(t, got.summary.Wins+got.summary.Losses+got.summary.Draws)
}

func TestConnectFailsWithoutServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	err = New(player.NewRandomPlayer(1)).Connect(context.Background(), "127.0.0.1", port)
	require.ErrorIs(t, err, communication.ErrConnection)
}
