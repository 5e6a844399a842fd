package communication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reversi/game"
)

func reparse(t *testing.T, m Message) Message {
	t.Helper()
	parsed, err := ParseMessage(m.String())
	require.NoError(t, err)
	return parsed
}

func TestParseMessage(t *testing.T) {
	t.Run("splits verb and fields", func(t *testing.T) {
		m, err := ParseMessage("  MOVE 3   19 \r")
		require.NoError(t, err)
		require.Equal(t, Message{Verb: "move", Args: []string{"3", "19"}}, m)
	})

	t.Run("rejects an empty line", func(t *testing.T) {
		_, err := ParseMessage("   ")
		require.ErrorIs(t, err, ErrProtocolViolation)
	})
}

func TestGreeting(t *testing.T) {
	require.Equal(t, "reversi 1", Greeting().String())
	require.NoError(t, CheckGreeting(reparse(t, Greeting())))
	require.ErrorIs(t, CheckGreeting(NewMessage(VerbGreeting, "2")), ErrProtocolViolation)
	require.ErrorIs(t, CheckGreeting(NewMessage(VerbHello, "bob")), ErrProtocolViolation)
}

func TestHello(t *testing.T) {
	name, err := ParseHello(reparse(t, Hello("deep thought")))
	require.NoError(t, err)
	require.Equal(t, "deep_thought", name)

	name, err = ParseHello(reparse(t, Hello("  ")))
	require.NoError(t, err)
	require.Equal(t, "anonymous", name)
}

func TestGameStart(t *testing.T) {
	start := GameStart{Index: 3, Color: game.White}
	require.Equal(t, "game 3 white", start.Message().String())

	got, err := ParseGameStart(reparse(t, start.Message()))
	require.NoError(t, err)
	require.Equal(t, start, got)

	_, err = ParseGameStart(NewMessage(VerbGame, "3", "green"))
	require.ErrorIs(t, err, ErrProtocolViolation)
}

func TestPosition(t *testing.T) {
	b := game.NewBoard()
	require.NoError(t, b.DoMove(19))
	p := Position{Seq: 7, Board: b, Budget: 1500 * time.Millisecond}

	got, err := ParsePosition(reparse(t, p.Message()))
	require.NoError(t, err)
	require.Equal(t, p, got)

	for _, bad := range []Message{
		NewMessage(VerbPosition, "7", b.Line(), "X"),
		NewMessage(VerbPosition, "x", b.Line(), "X", "10"),
		NewMessage(VerbPosition, "7", "XO", "X", "10"),
		NewMessage(VerbPosition, "7", b.Line(), "Z", "10"),
		NewMessage(VerbPosition, "7", b.Line(), "X", "-1"),
	} {
		_, err := ParsePosition(bad)
		require.ErrorIs(t, err, ErrProtocolViolation, bad.String())
	}
}

func TestMoveReply(t *testing.T) {
	for _, reply := range []MoveReply{{Seq: 1, Move: 19}, {Seq: 2, Move: game.Pass}, {Seq: 3, Move: 0}} {
		got, err := ParseMoveReply(reparse(t, reply.Message()))
		require.NoError(t, err)
		require.Equal(t, reply, got)
	}

	got, err := ParseMoveReply(NewMessage(VerbMove, "4", "d3"))
	require.NoError(t, err)
	require.Equal(t, game.Move(19), got.Move)

	for _, bad := range []Message{
		NewMessage(VerbMove, "4"),
		NewMessage(VerbMove, "4", "64"),
		NewMessage(VerbMove, "four", "19"),
		NewMessage(VerbPong),
	} {
		_, err := ParseMoveReply(bad)
		require.ErrorIs(t, err, ErrProtocolViolation, bad.String())
	}
}

func TestResult(t *testing.T) {
	for _, r := range []Result{
		{Index: 1, Outcome: OutcomeWin, Own: 40, Opp: 24},
		{Index: 2, Outcome: OutcomeLoss, Own: 30, Opp: 12, Forfeit: true},
		{Index: 3, Outcome: OutcomeDraw, Own: 32, Opp: 32},
	} {
		got, err := ParseResult(reparse(t, r.Message()))
		require.NoError(t, err)
		require.Equal(t, r, got)
	}

	_, err := ParseResult(NewMessage(VerbResult, "1", "tie", "32", "32"))
	require.ErrorIs(t, err, ErrProtocolViolation)
	_, err = ParseResult(NewMessage(VerbResult, "1", "win", "32", "32", "resigned"))
	require.ErrorIs(t, err, ErrProtocolViolation)
}

func TestBye(t *testing.T) {
	bye := Bye{Wins: 3, Losses: 1, Draws: 2}
	got, err := ParseBye(reparse(t, bye.Message()))
	require.NoError(t, err)
	require.Equal(t, bye, got)
}
