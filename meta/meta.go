// meta/meta.go
package meta

import (
	"errors"
	"time"
)

// ErrConfiguration is wrapped by every constructor that rejects its parameters
// (search depth, game count, listen address, player specs).
var ErrConfiguration = errors.New("invalid configuration")

// ProtocolName and ProtocolVersion identify the line protocol spoken between
// an arena and its remote players.
const (
	ProtocolName    = "reversi"
	ProtocolVersion = 1
)

// MaxPlies bounds the length of any game: every ply fills one of the 60 empty squares.
const MaxPlies = 60

// DefaultMoveTimeout is the time budget a player gets for a single move.
const DefaultMoveTimeout = 5 * time.Second

// DefaultDepth is the iterative deepening limit of search players built from config.
const DefaultDepth = 6

// DefaultGames is the number of games an arena plays when none is configured.
const DefaultGames = 10

// DefaultHost and DefaultPort are where the network arena listens.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 7878
)
