package game

import "fmt"

const emptySymbol = '-'

// Line renders the occupancy as 64 characters in square order:
// 'X' for black, 'O' for white and '-' for empty.
func (b *Board) Line() string {
	black, white := b.ColorMasks()
	line := make([]byte, NumSquares)
	for sq := Move(0); sq < NumSquares; sq++ {
		switch {
		case black&sq.bit() != 0:
			line[sq] = Black.Symbol()
		case white&sq.bit() != 0:
			line[sq] = White.Symbol()
		default:
			line[sq] = emptySymbol
		}
	}
	return string(line)
}

// ParseBoard is the inverse of Line.
func ParseBoard(line string, turn Color) (Board, error) {
	if len(line) != NumSquares {
		return Board{}, fmt.Errorf("%w: line has %d characters, want %d", ErrInvalidBoard, len(line), NumSquares)
	}
	var black, white uint64
	for i := 0; i < NumSquares; i++ {
		switch line[i] {
		case 'X':
			black |= Move(i).bit()
		case 'O':
			white |= Move(i).bit()
		case emptySymbol:
		default:
			return Board{}, fmt.Errorf("%w: unexpected %q at square %d", ErrInvalidBoard, line[i], i)
		}
	}
	return FromMasks(black, white, turn)
}
