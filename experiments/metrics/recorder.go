package metrics

import "sync"

// Recorder keeps the game and move records of a run in memory until they are
// flushed to CSV.
type Recorder struct {
	mu    sync.Mutex
	games []GameRecord
	moves []MoveRecord
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Add(game GameRecord, moves []MoveMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.games = append(r.games, game)
	for _, m := range moves {
		r.moves = append(r.moves, MoveRecord{Game: game.ID, MoveMetric: m})
	}
}

func (r *Recorder) Games() []GameRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]GameRecord(nil), r.games...)
}

func (r *Recorder) Moves() []MoveRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]MoveRecord(nil), r.moves...)
}

// Flush writes everything recorded so far.
func (r *Recorder) Flush(w *Writer) error {
	if err := w.WriteGameRecords(r.Games()); err != nil {
		return err
	}
	return w.WriteMoveRecords(r.Moves())
}
