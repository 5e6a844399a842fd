package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Searcher     string
	Goroutines   int
	Duration     time.Duration
	Depth        int // Last fully completed iteration
	Nodes        int
	Episodes     int
	FullPlayouts int
	Score        int
}

type MoveMetric struct {
	Step   int // Ply number, starting at 1
	Player int // 1 or 2
	Color  string
	Move   string
	SearchMetric
}

type GameMetric struct {
	StartingPlayer int // Player moving first (black)
	Winner         int // 0 on a draw
	Forfeit        bool
	Reason         string
	Discs1         int
	Discs2         int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
}

type Collector interface {
	Start(searcher string, goroutines int)
	AddNode()
	AddEpisode()
	AddFullPlayout()
	CompleteDepth(depth int, score int)
	Complete() SearchMetric
}

type collector struct {
	searcher     string
	goroutines   int
	startTime    time.Time
	depth        atomic.Int32
	score        atomic.Int64
	nodes        atomic.Int64
	episodes     atomic.Int64
	fullPlayouts atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(searcher string, goroutines int) {
	m.startTime = time.Now()
	m.searcher = searcher
	m.goroutines = goroutines
}

func (m *collector) AddNode() {
	m.nodes.Add(1)
}

func (m *collector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) CompleteDepth(depth int, score int) {
	m.depth.Store(int32(depth))
	m.score.Store(int64(score))
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Searcher:     m.searcher,
		Goroutines:   m.goroutines,
		Duration:     time.Since(m.startTime),
		Depth:        int(m.depth.Load()),
		Nodes:        int(m.nodes.Load()),
		Episodes:     int(m.episodes.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
		Score:        int(m.score.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(searcher string, goroutines int) {}
func (m *dummyCollector) AddNode()                              {}
func (m *dummyCollector) AddEpisode()                           {}
func (m *dummyCollector) AddFullPlayout()                       {}
func (m *dummyCollector) CompleteDepth(depth int, score int)    {}
func (m *dummyCollector) Complete() SearchMetric                { return SearchMetric{} }
