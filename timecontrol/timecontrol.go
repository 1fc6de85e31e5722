// Package timecontrol implements the per-move time budget collaborator
// consumed by the search driver (package search) as "the external
// time-controller": set_boardsize / max_time_for_move(color) from spec.md
// §6, plus start/stop clock bookkeeping for each side.
package timecontrol

import (
	"sync"
	"time"
)

// Color mirrors board.Color's two players without importing package board,
// to keep this collaborator a leaf dependency.
type Color int

const (
	Black Color = iota
	White
)

// Clock is a simple absolute-time-plus-byoyomi control: each side starts
// with mainTime and, once that is exhausted, gets a byoyomiTime period for
// every byoyomiMoves moves; with byoyomiMoves 0, each move after main time
// runs out is budgeted the whole byoyomiTime.
type Clock struct {
	mu sync.Mutex

	mainTime     time.Duration
	byoyomiTime  time.Duration
	byoyomiMoves int

	boardSize int

	remaining [2]time.Duration
	inByoyomi [2]bool
	running   [2]bool
	started   [2]time.Time
}

// unlimitedMainTime stands in for "no time limit" (mainTime <= 0): a
// duration long enough that no realistic move budget from MaxTimeForMove
// is ever the binding constraint, leaving playout/visit limits as the
// actual termination predicate.
const unlimitedMainTime = 365 * 24 * time.Hour

// NewClock builds a clock with the given main time and byoyomi period. A
// byoyomiMoves of 0 gives every move after main time runs out a budget of
// byoyomiTime. mainTime <= 0 means no time limit at all.
func NewClock(mainTime, byoyomiTime time.Duration, byoyomiMoves int) *Clock {
	if mainTime <= 0 {
		mainTime = unlimitedMainTime
	}
	c := &Clock{
		mainTime:     mainTime,
		byoyomiTime:  byoyomiTime,
		byoyomiMoves: byoyomiMoves,
	}
	c.remaining[Black] = mainTime
	c.remaining[White] = mainTime
	return c
}

// SetBoardSize lets the controller scale its time estimate by the number of
// moves a game of this size is expected to take (used by MaxTimeForMove).
func (c *Clock) SetBoardSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boardSize = size
}

// Start begins counting elapsed wall-clock time against color.
func (c *Clock) Start(color Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running[color] = true
	c.started[color] = time.Now()
}

// Stop charges the elapsed time since Start against color's remaining
// budget and stops counting.
func (c *Clock) Stop(color Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running[color] {
		return
	}
	elapsed := time.Since(c.started[color])
	c.running[color] = false
	if c.inByoyomi[color] {
		return // byoyomi periods reset each move, not charged cumulatively
	}
	c.remaining[color] -= elapsed
	if c.remaining[color] <= 0 {
		c.remaining[color] = 0
		c.inByoyomi[color] = true
	}
}

// MaxTimeForMove returns the time budget for color's next move, in
// centiseconds, matching the unit spec.md §6 specifies for
// max_time_for_move.
func (c *Clock) MaxTimeForMove(color Color) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inByoyomi[color] {
		if c.byoyomiMoves > 0 {
			return int(c.byoyomiTime/(10*time.Millisecond)) / c.byoyomiMoves
		}
		return int(c.byoyomiTime / (10 * time.Millisecond))
	}

	// Budget the remaining main time over an estimate of moves left in the
	// game: boardsize^2 * 2/3 is the conventional rule-of-thumb total move
	// count for a full game on that board size.
	estimatedMovesLeft := max(1, (c.boardSize*c.boardSize*2)/3)
	centis := int(c.remaining[color]/(10*time.Millisecond)) / estimatedMovesLeft
	if centis < 1 {
		centis = 1
	}
	return centis
}
