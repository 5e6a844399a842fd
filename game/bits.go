package game

import "math/bits"

const (
	notAFile uint64 = 0xfefefefefefefefe
	notHFile uint64 = 0x7f7f7f7f7f7f7f7f
)

// direction shifts a whole mask one step, dropping discs that would wrap around
// a board edge.
type direction struct {
	n    uint
	left bool
	mask uint64
}

var directions = [8]direction{
	{n: 1, left: true, mask: notAFile},  // east
	{n: 1, left: false, mask: notHFile}, // west
	{n: 8, left: true, mask: ^uint64(0)},
	{n: 8, left: false, mask: ^uint64(0)},
	{n: 9, left: true, mask: notAFile},  // south-east
	{n: 7, left: true, mask: notHFile},  // south-west
	{n: 7, left: false, mask: notAFile}, // north-east
	{n: 9, left: false, mask: notHFile}, // north-west
}

func (d direction) shift(x uint64) uint64 {
	if d.left {
		return (x << d.n) & d.mask
	}
	return (x >> d.n) & d.mask
}

// legalMask returns the empty squares where own can bracket at least one run of
// opp discs. A run is at most six discs long, hence the unrolled scan.
func legalMask(own, opp uint64) uint64 {
	empty := ^(own | opp)
	var moves uint64
	for _, d := range directions {
		x := d.shift(own) & opp
		x |= d.shift(x) & opp
		x |= d.shift(x) & opp
		x |= d.shift(x) & opp
		x |= d.shift(x) & opp
		x |= d.shift(x) & opp
		moves |= d.shift(x) & empty
	}
	return moves
}

// flipMask returns the opp discs turned over by own playing on sq.
func flipMask(own, opp uint64, sq Move) uint64 {
	var flips uint64
	for _, d := range directions {
		var run uint64
		x := d.shift(sq.bit())
		for x&opp != 0 {
			run |= x
			x = d.shift(x)
		}
		if x&own != 0 {
			flips |= run
		}
	}
	return flips
}

// squares lists the set bits of mask in ascending order.
func squares(mask uint64) []Move {
	moves := make([]Move, 0, bits.OnesCount64(mask))
	for mask != 0 {
		moves = append(moves, Move(bits.TrailingZeros64(mask)))
		mask &= mask - 1
	}
	return moves
}
