package game

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	Size       = 8
	NumSquares = Size * Size
)

// Move is a square index in [0, 64), row-major from a1 (index 0) to h8 (index 63),
// or Pass. A move only means something relative to the board it was generated for.
type Move int8

const Pass Move = NumSquares

func SquareAt(row, col int) Move {
	return Move(row*Size + col)
}

func (m Move) Row() int {
	return int(m) / Size
}

func (m Move) Col() int {
	return int(m) % Size
}

func (m Move) IsPass() bool {
	return m == Pass
}

func (m Move) onBoard() bool {
	return m >= 0 && m < NumSquares
}

func (m Move) bit() uint64 {
	return 1 << uint(m)
}

func (m Move) String() string {
	if m == Pass {
		return "pass"
	}
	if !m.onBoard() {
		return fmt.Sprintf("Move(%d)", int(m))
	}
	return string([]byte{byte('a' + m.Col()), byte('1' + m.Row())})
}

// ParseMove reads a square index ("19"), an algebraic square ("d3") or "pass".
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "pass" {
		return Pass, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= NumSquares {
			return Pass, fmt.Errorf("%w: square %d out of range", ErrInvalidMove, n)
		}
		return Move(n), nil
	}
	if len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8' {
		return SquareAt(int(s[1]-'1'), int(s[0]-'a')), nil
	}
	return Pass, fmt.Errorf("%w: cannot parse %q", ErrInvalidMove, s)
}
