package game

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

var (
	ErrInvalidMove  = errors.New("invalid move")
	ErrInvalidBoard = errors.New("invalid board")
	ErrNoLegalMoves = errors.New("no legal moves")
)

// Board is a Reversi position: the discs of the side to move, the discs of its
// opponent, and which color is to move. Copying a Board copies the position.
type Board struct {
	own  uint64
	opp  uint64
	turn Color
}

// NewBoard returns the standard starting position with black to move.
func NewBoard() Board {
	return Board{
		own:  SquareAt(3, 4).bit() | SquareAt(4, 3).bit(),
		opp:  SquareAt(3, 3).bit() | SquareAt(4, 4).bit(),
		turn: Black,
	}
}

// FromMasks builds a position from absolute black and white masks.
func FromMasks(black, white uint64, turn Color) (Board, error) {
	if black&white != 0 {
		return Board{}, fmt.Errorf("%w: black and white overlap on %d squares", ErrInvalidBoard, bits.OnesCount64(black&white))
	}
	if turn == Black {
		return Board{own: black, opp: white, turn: Black}, nil
	}
	return Board{own: white, opp: black, turn: White}, nil
}

func (b *Board) Turn() Color {
	return b.turn
}

// Masks returns the discs of the side to move and of its opponent.
func (b *Board) Masks() (own, opp uint64) {
	return b.own, b.opp
}

// ColorMasks returns the black and white discs whoever is to move.
func (b *Board) ColorMasks() (black, white uint64) {
	return b.masksFor(Black)
}

func (b *Board) masksFor(c Color) (mine, theirs uint64) {
	if c == b.turn {
		return b.own, b.opp
	}
	return b.opp, b.own
}

func (b *Board) LegalMask() uint64 {
	return legalMask(b.own, b.opp)
}

// LegalMoves lists the legal squares for the side to move by ascending index.
// It is empty when the side to move has to pass or the game is over.
func (b *Board) LegalMoves() []Move {
	return squares(b.LegalMask())
}

func (b *Board) IsLegal(m Move) bool {
	return m.onBoard() && b.LegalMask()&m.bit() != 0
}

// DoMove plays m for the side to move. If the opponent then has no reply the
// turn passes straight back. Pass is only accepted when the side to move has
// no legal square and the game is not over. The board is unchanged on error.
func (b *Board) DoMove(m Move) error {
	moves := b.LegalMask()
	if m == Pass {
		if moves != 0 {
			return fmt.Errorf("%w: %v cannot pass with %d legal moves", ErrInvalidMove, b.turn, bits.OnesCount64(moves))
		}
		if legalMask(b.opp, b.own) == 0 {
			return fmt.Errorf("%w: game is over", ErrInvalidMove)
		}
		b.swap()
		return nil
	}
	if !m.onBoard() {
		return fmt.Errorf("%w: square %d out of range", ErrInvalidMove, int(m))
	}
	if moves&m.bit() == 0 {
		return fmt.Errorf("%w: %v is not legal for %v", ErrInvalidMove, m, b.turn)
	}

	flips := flipMask(b.own, b.opp, m)
	b.own |= flips | m.bit()
	b.opp &^= flips
	b.swap()

	if b.LegalMask() == 0 && legalMask(b.opp, b.own) != 0 {
		b.swap()
	}
	return nil
}

func (b *Board) swap() {
	b.own, b.opp = b.opp, b.own
	b.turn = b.turn.Opponent()
}

// IsPassPending reports whether the side to move is blocked while its opponent
// is not. DoMove never leaves a board in this state; parsed boards can start in it.
func (b *Board) IsPassPending() bool {
	return b.LegalMask() == 0 && legalMask(b.opp, b.own) != 0
}

// IsGameOver reports whether neither side can move. A full board and a wiped
// out side are both covered.
func (b *Board) IsGameOver() bool {
	return b.LegalMask() == 0 && legalMask(b.opp, b.own) == 0
}

// DiscCounts returns the disc counts of the side to move and of its opponent.
func (b *Board) DiscCounts() (own, opp int) {
	return bits.OnesCount64(b.own), bits.OnesCount64(b.opp)
}

func (b *Board) Discs(c Color) int {
	mine, _ := b.masksFor(c)
	return bits.OnesCount64(mine)
}

func (b *Board) Empties() int {
	return NumSquares - bits.OnesCount64(b.own|b.opp)
}

// Winner compares disc counts. ok is false on a draw. Only meaningful once the
// game is over.
func (b *Board) Winner() (winner Color, ok bool) {
	black, white := b.Discs(Black), b.Discs(White)
	switch {
	case black > white:
		return Black, true
	case white > black:
		return White, true
	}
	return Black, false
}

// At returns the color occupying sq.
func (b *Board) At(sq Move) (Color, bool) {
	if !sq.onBoard() {
		return Black, false
	}
	switch {
	case b.own&sq.bit() != 0:
		return b.turn, true
	case b.opp&sq.bit() != 0:
		return b.turn.Opponent(), true
	}
	return Black, false
}

func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for row := 0; row < Size; row++ {
		sb.WriteByte(byte('1' + row))
		for col := 0; col < Size; col++ {
			sb.WriteByte(' ')
			if c, ok := b.At(SquareAt(row, col)); ok {
				sb.WriteByte(c.Symbol())
			} else {
				sb.WriteByte(emptySymbol)
			}
		}
		sb.WriteByte('\n')
	}
	black, white := b.Discs(Black), b.Discs(White)
	if b.IsGameOver() {
		fmt.Fprintf(&sb, "game over, black %d white %d", black, white)
	} else {
		fmt.Fprintf(&sb, "%v (%c) to move, black %d white %d", b.turn, b.turn.Symbol(), black, white)
	}
	return sb.String()
}
