package game

import (
	"fmt"
	"strings"
)

// Color identifies a side. Black always moves first.
type Color uint8

const (
	Black Color = iota
	White
)

func (c Color) Opponent() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Symbol is the character used for the side's discs in board lines.
func (c Color) Symbol() byte {
	if c == Black {
		return 'X'
	}
	return 'O'
}

// ParseColor accepts "black"/"white" in any case or the disc symbols X/O.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(s) {
	case "black", "x":
		return Black, nil
	case "white", "o":
		return White, nil
	}
	return Black, fmt.Errorf("unknown color %q", s)
}
