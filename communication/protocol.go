package communication

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"reversi/game"
	"reversi/meta"
)

// Verbs of the reversi/1 line protocol. Every message is one line of
// space-separated fields, verb first.
const (
	VerbGreeting = meta.ProtocolName // reversi <version>
	VerbHello    = "hello"           // hello <name>
	VerbGame     = "game"            // game <index> <black|white>
	VerbPosition = "position"        // position <seq> <board> <X|O> <millis>
	VerbMove     = "move"            // move <seq> <square|pass>
	VerbResult   = "result"          // result <index> <win|loss|draw> <own> <opp> [forfeit]
	VerbBye      = "bye"             // bye <wins> <losses> <draws>
	VerbPing     = "ping"
	VerbPong     = "pong"
	VerbError    = "error" // error <text...>
)

type Message struct {
	Verb string
	Args []string
}

func NewMessage(verb string, args ...string) Message {
	return Message{Verb: verb, Args: args}
}

func (m Message) String() string {
	if len(m.Args) == 0 {
		return m.Verb
	}
	return m.Verb + " " + strings.Join(m.Args, " ")
}

// ParseMessage splits a line into verb and arguments.
func ParseMessage(line string) (Message, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{}, fmt.Errorf("%w: empty line", ErrProtocolViolation)
	}
	return Message{Verb: strings.ToLower(fields[0]), Args: fields[1:]}, nil
}

// Expect checks the verb and the argument count range.
func (m Message) Expect(verb string, minArgs, maxArgs int) error {
	if m.Verb != verb {
		return fmt.Errorf("%w: expected %q, got %q", ErrProtocolViolation, verb, m.String())
	}
	if len(m.Args) < minArgs || len(m.Args) > maxArgs {
		return fmt.Errorf("%w: %q takes %d to %d arguments, got %d", ErrProtocolViolation, verb, minArgs, maxArgs, len(m.Args))
	}
	return nil
}

func Greeting() Message {
	return NewMessage(VerbGreeting, strconv.Itoa(meta.ProtocolVersion))
}

func CheckGreeting(m Message) error {
	if err := m.Expect(VerbGreeting, 1, 1); err != nil {
		return err
	}
	if m.Args[0] != strconv.Itoa(meta.ProtocolVersion) {
		return fmt.Errorf("%w: unsupported protocol version %q", ErrProtocolViolation, m.Args[0])
	}
	return nil
}

func Hello(name string) Message {
	if name = strings.Join(strings.Fields(name), "_"); name == "" {
		name = "anonymous"
	}
	return NewMessage(VerbHello, name)
}

func ParseHello(m Message) (string, error) {
	if err := m.Expect(VerbHello, 1, 1); err != nil {
		return "", err
	}
	return m.Args[0], nil
}

type GameStart struct {
	Index int
	Color game.Color
}

func (g GameStart) Message() Message {
	return NewMessage(VerbGame, strconv.Itoa(g.Index), g.Color.String())
}

func ParseGameStart(m Message) (GameStart, error) {
	if err := m.Expect(VerbGame, 2, 2); err != nil {
		return GameStart{}, err
	}
	index, err := parseCount(m.Args[0])
	if err != nil {
		return GameStart{}, err
	}
	color, err := game.ParseColor(m.Args[1])
	if err != nil {
		return GameStart{}, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	return GameStart{Index: index, Color: color}, nil
}

// Position asks the peer for a move. Seq ties the reply to the request so that
// a reply arriving after its deadline can be told apart from the next one.
type Position struct {
	Seq    uint64
	Board  game.Board
	Budget time.Duration
}

func (p Position) Message() Message {
	return NewMessage(VerbPosition,
		strconv.FormatUint(p.Seq, 10),
		p.Board.Line(),
		string(p.Board.Turn().Symbol()),
		strconv.FormatInt(p.Budget.Milliseconds(), 10),
	)
}

func ParsePosition(m Message) (Position, error) {
	if err := m.Expect(VerbPosition, 4, 4); err != nil {
		return Position{}, err
	}
	seq, err := strconv.ParseUint(m.Args[0], 10, 64)
	if err != nil {
		return Position{}, fmt.Errorf("%w: bad sequence number %q", ErrProtocolViolation, m.Args[0])
	}
	turn, err := game.ParseColor(m.Args[2])
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	board, err := game.ParseBoard(m.Args[1], turn)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	millis, err := parseCount(m.Args[3])
	if err != nil {
		return Position{}, err
	}
	return Position{Seq: seq, Board: board, Budget: time.Duration(millis) * time.Millisecond}, nil
}

type MoveReply struct {
	Seq  uint64
	Move game.Move
}

func (r MoveReply) Message() Message {
	move := "pass"
	if !r.Move.IsPass() {
		move = strconv.Itoa(int(r.Move))
	}
	return NewMessage(VerbMove, strconv.FormatUint(r.Seq, 10), move)
}

// ParseMoveReply accepts any square index or "pass"; legality is the arena's call.
func ParseMoveReply(m Message) (MoveReply, error) {
	if err := m.Expect(VerbMove, 2, 2); err != nil {
		return MoveReply{}, err
	}
	seq, err := strconv.ParseUint(m.Args[0], 10, 64)
	if err != nil {
		return MoveReply{}, fmt.Errorf("%w: bad sequence number %q", ErrProtocolViolation, m.Args[0])
	}
	move, err := game.ParseMove(m.Args[1])
	if err != nil {
		return MoveReply{}, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	return MoveReply{Seq: seq, Move: move}, nil
}

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

type Result struct {
	Index   int
	Outcome Outcome
	Own     int
	Opp     int
	Forfeit bool
}

func (r Result) Message() Message {
	args := []string{strconv.Itoa(r.Index), string(r.Outcome), strconv.Itoa(r.Own), strconv.Itoa(r.Opp)}
	if r.Forfeit {
		args = append(args, "forfeit")
	}
	return NewMessage(VerbResult, args...)
}

func ParseResult(m Message) (Result, error) {
	if err := m.Expect(VerbResult, 4, 5); err != nil {
		return Result{}, err
	}
	var r Result
	var err error
	if r.Index, err = parseCount(m.Args[0]); err != nil {
		return Result{}, err
	}
	switch o := Outcome(m.Args[1]); o {
	case OutcomeWin, OutcomeLoss, OutcomeDraw:
		r.Outcome = o
	default:
		return Result{}, fmt.Errorf("%w: unknown outcome %q", ErrProtocolViolation, m.Args[1])
	}
	if r.Own, err = parseCount(m.Args[2]); err != nil {
		return Result{}, err
	}
	if r.Opp, err = parseCount(m.Args[3]); err != nil {
		return Result{}, err
	}
	if len(m.Args) == 5 {
		if m.Args[4] != "forfeit" {
			return Result{}, fmt.Errorf("%w: unexpected %q", ErrProtocolViolation, m.Args[4])
		}
		r.Forfeit = true
	}
	return r, nil
}

type Bye struct {
	Wins   int
	Losses int
	Draws  int
}

func (b Bye) Message() Message {
	return NewMessage(VerbBye, strconv.Itoa(b.Wins), strconv.Itoa(b.Losses), strconv.Itoa(b.Draws))
}

func ParseBye(m Message) (Bye, error) {
	if err := m.Expect(VerbBye, 3, 3); err != nil {
		return Bye{}, err
	}
	var b Bye
	var err error
	if b.Wins, err = parseCount(m.Args[0]); err != nil {
		return Bye{}, err
	}
	if b.Losses, err = parseCount(m.Args[1]); err != nil {
		return Bye{}, err
	}
	if b.Draws, err = parseCount(m.Args[2]); err != nil {
		return Bye{}, err
	}
	return b, nil
}

func ErrorMessage(err error) Message {
	return NewMessage(VerbError, strings.Fields(err.Error())...)
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad number %q", ErrProtocolViolation, s)
	}
	return n, nil
}
