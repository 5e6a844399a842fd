package game

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func bit(sq int) uint64 {
	return Move(sq).bit()
}

func TestNewBoard(t *testing.T) {
	b := NewBoard()

	own, opp := b.DiscCounts()
	require.Equal(t, 2, own)
	require.Equal(t, 2, opp)
	require.Equal(t, Black, b.Turn())
	require.Equal(t, []Move{19, 26, 37, 44}, b.LegalMoves())
	require.False(t, b.IsGameOver())
	require.False(t, b.IsPassPending())
	require.Equal(t, 60, b.Empties())
}

func TestDoMove(t *testing.T) {
	t.Run("flips the bracketed disc and hands over the turn", func(t *testing.T) {
		b := NewBoard()

		require.NoError(t, b.DoMove(19))

		require.Equal(t, White, b.Turn())
		require.Equal(t, 4, b.Discs(Black))
		require.Equal(t, 1, b.Discs(White))
		c, ok := b.At(27)
		require.True(t, ok)
		require.Equal(t, Black, c, "d4 should be flipped")

		black, white := b.ColorMasks()
		require.Equal(t, bit(19)|bit(27)|bit(28)|bit(35), black)
		require.Equal(t, bit(36), white)
		own, opp := b.Masks()
		require.Equal(t, white, own, "white is to move")
		require.Equal(t, black, opp)
	})

	t.Run("rejects squares outside the legal set without touching the board", func(t *testing.T) {
		b := NewBoard()
		before := b

		for _, m := range []Move{0, 27, 20, -1, 70} {
			err := b.DoMove(m)
			require.ErrorIs(t, err, ErrInvalidMove, "move %d", m)
			require.Equal(t, before, b)
		}
	})

	t.Run("rejects a pass while moves exist", func(t *testing.T) {
		b := NewBoard()
		require.ErrorIs(t, b.DoMove(Pass), ErrInvalidMove)
		require.Equal(t, Black, b.Turn())
	})

	t.Run("passes back automatically when the opponent is blocked", func(t *testing.T) {
		b, err := FromMasks(bit(0), bit(1)|bit(9), Black)
		require.NoError(t, err)

		require.NoError(t, b.DoMove(2))

		require.Equal(t, Black, b.Turn(), "white has no reply so black moves again")
		require.False(t, b.IsGameOver())
		require.False(t, b.IsPassPending())
		require.Equal(t, []Move{16, 17, 18}, b.LegalMoves())
	})
}

func TestPassPending(t *testing.T) {
	b, err := FromMasks(bit(0), bit(1)|bit(9), White)
	require.NoError(t, err)

	require.True(t, b.IsPassPending())
	require.Empty(t, b.LegalMoves())
	require.False(t, b.IsGameOver())

	require.NoError(t, b.DoMove(Pass))
	require.Equal(t, Black, b.Turn())
	require.ErrorIs(t, b.DoMove(Pass), ErrInvalidMove)
}

func TestGameOver(t *testing.T) {
	t.Run("eliminated side", func(t *testing.T) {
		b, err := FromMasks(bit(0)|bit(1), 0, White)
		require.NoError(t, err)

		require.True(t, b.IsGameOver())
		require.ErrorIs(t, b.DoMove(Pass), ErrInvalidMove)
		winner, ok := b.Winner()
		require.True(t, ok)
		require.Equal(t, Black, winner)
	})

	t.Run("full board draw", func(t *testing.T) {
		b, err := FromMasks(0x00000000ffffffff, 0xffffffff00000000, Black)
		require.NoError(t, err)

		require.True(t, b.IsGameOver())
		require.Equal(t, 0, b.Empties())
		_, ok := b.Winner()
		require.False(t, ok)
	})
}

func TestFromMasksRejectsOverlap(t *testing.T) {
	_, err := FromMasks(bit(3)|bit(4), bit(4), Black)
	require.ErrorIs(t, err, ErrInvalidBoard)
}

func TestRandomGames(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for g := 0; g < 200; g++ {
		b := NewBoard()
		plies := 0
		for !b.IsGameOver() {
			moves := b.LegalMoves()
			require.NotEmpty(t, moves, "DoMove should never leave a pass pending")

			mover := b.Turn()
			before, opponentBefore := b.Discs(mover), b.Discs(mover.Opponent())
			m := moves[rng.Intn(len(moves))]
			require.NoError(t, b.DoMove(m))
			plies++

			gained := b.Discs(mover) - before
			require.GreaterOrEqual(t, gained, 2, "placed disc plus at least one flip")
			require.Equal(t, opponentBefore-(gained-1), b.Discs(mover.Opponent()))

			own, opp := b.Masks()
			require.Zero(t, own&opp)
			require.Equal(t, NumSquares, bits.OnesCount64(own)+bits.OnesCount64(opp)+b.Empties())
		}
		require.LessOrEqual(t, plies, 60)
	}
}

func TestPerft(t *testing.T) {
	expected := []uint64{1, 4, 12, 56, 244, 1396, 8200}
	for depth, nodes := range expected {
		require.Equal(t, nodes, Perft(NewBoard(), depth), "depth %d", depth)
	}
}

func TestLine(t *testing.T) {
	t.Run("renders the start position", func(t *testing.T) {
		b := NewBoard()
		line := b.Line()

		require.Len(t, line, NumSquares)
		require.Equal(t, byte('O'), line[27])
		require.Equal(t, byte('X'), line[28])
		require.Equal(t, byte('X'), line[35])
		require.Equal(t, byte('O'), line[36])
	})

	t.Run("parses what it renders", func(t *testing.T) {
		b := NewBoard()
		require.NoError(t, b.DoMove(19))
		require.NoError(t, b.DoMove(18))

		parsed, err := ParseBoard(b.Line(), b.Turn())
		require.NoError(t, err)
		require.Equal(t, b, parsed)
	})

	t.Run("rejects malformed lines", func(t *testing.T) {
		_, err := ParseBoard("XO-", Black)
		require.ErrorIs(t, err, ErrInvalidBoard)

		b := NewBoard()
		bad := []byte(b.Line())
		bad[5] = '?'
		_, err = ParseBoard(string(bad), Black)
		require.ErrorIs(t, err, ErrInvalidBoard)
	})
}

func TestParseMove(t *testing.T) {
	for input, want := range map[string]Move{"19": 19, "d3": 19, "D3": 19, "a1": 0, "h8": 63, "pass": Pass, " 0 ": 0} {
		got, err := ParseMove(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}
	for _, input := range []string{"64", "-1", "z9", "", "d"} {
		_, err := ParseMove(input)
		require.ErrorIs(t, err, ErrInvalidMove, input)
	}
	require.Equal(t, "d3", Move(19).String())
	require.Equal(t, "pass", Pass.String())
}

func TestBoardString(t *testing.T) {
	b := NewBoard()
	require.Contains(t, b.String(), "black (X) to move")
}
