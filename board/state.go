package board

import (
	"errors"

	"gozero/timecontrol"
)

// ErrIllegalMove is returned by PlayMove for off-board and occupied points,
// simple-ko recaptures, and suicide — the ways a candidate move can be
// rejected before the superko check (which PlaySimulation in package search
// checks separately, since an illegal-by-superko move still has to be
// attempted to discover the repetition).
var ErrIllegalMove = errors.New("board: illegal move")

// State is the GameState collaborator from spec.md §3/§6: a mutable,
// cheaply clonable position.
type State struct {
	g         *grid
	toMove    Color
	komi      float64
	handicap  int
	moveNum   int
	lastMove  Point
	passes    int
	boardSize int
	koPoint   Point
	hasKo     bool
	history   []uint64 // hash of every position reached so far, for superko
	clock     *timecontrol.Clock
}

// NewState returns an empty board of the given size with the given komi and
// handicap already applied as Black stones on the standard handicap points.
func NewState(boardSize int, komi float64, handicap int, clock *timecontrol.Clock) *State {
	if boardSize <= 0 {
		panic("board: boardSize must be positive")
	}
	s := &State{
		g:         newGrid(boardSize),
		toMove:    Black,
		komi:      komi,
		handicap:  handicap,
		boardSize: boardSize,
		lastMove:  Pass,
		koPoint:   Pass,
		clock:     clock,
	}
	for _, p := range handicapPoints(boardSize, handicap) {
		s.g.set(p, Black)
	}
	if handicap > 0 {
		s.toMove = White
	}
	s.history = append(s.history, s.g.hashOf(s.toMove))
	return s
}

// handicapPoints returns the conventional star-point handicap placements
// for boards of size 9 and up, at most nine of them; boards smaller than 9
// get no handicap stones.
func handicapPoints(size, handicap int) []Point {
	if handicap <= 0 || size < 9 {
		return nil
	}
	edge := 2
	if size >= 13 {
		edge = 3
	}
	far := size - 1 - edge
	mid := size / 2
	all := []Point{
		{X: edge, Y: edge}, {X: far, Y: far},
		{X: edge, Y: far}, {X: far, Y: edge},
		{X: edge, Y: mid}, {X: far, Y: mid},
		{X: mid, Y: edge}, {X: mid, Y: far},
		{X: mid, Y: mid},
	}
	if handicap > len(all) {
		handicap = len(all)
	}
	return all[:handicap]
}

// Clone returns a deep copy sharing no memory with the receiver — each
// simulation in package search descends its own clone (spec.md §5: "each
// simulation clones the reference GameState").
func (s *State) Clone() *State {
	clone := *s
	clone.g = s.g.clone()
	clone.history = append([]uint64(nil), s.history...)
	return &clone
}

func (s *State) ToMove() Color       { return s.toMove }
func (s *State) Komi() float64       { return s.komi }
func (s *State) Handicap() int       { return s.handicap }
func (s *State) MoveNumber() int     { return s.moveNum }
func (s *State) LastMove() Point     { return s.lastMove }
func (s *State) Passes() int         { return s.passes }
func (s *State) BoardSize() int      { return s.boardSize }
func (s *State) Hash() uint64        { return s.history[len(s.history)-1] }
func (s *State) TimeControl() *timecontrol.Clock { return s.clock }

func (s *State) SetToMove(c Color) { s.toMove = c }

func (s *State) StartClock(c Color) {
	if s.clock != nil {
		s.clock.Start(timecontrol.Color(c - Black))
	}
}

func (s *State) StopClock(c Color) {
	if s.clock != nil {
		s.clock.Stop(timecontrol.Color(c - Black))
	}
}

// At returns the stone (if any) at p.
func (s *State) At(p Point) Color { return s.g.at(p) }

// PlayMove places a stone of the side to move at p, handling captures and
// simple ko, and advances the position. It does not itself check
// positional superko — call Superko() after PlayMove to do that, as
// PlaySimulation in package search does, so the repeated position can still
// be observed once before being rejected.
func (s *State) PlayMove(p Point) error {
	if p == Pass {
		s.PlayPass()
		return nil
	}
	if !s.g.inBounds(p) {
		return ErrIllegalMove
	}
	if s.g.at(p) != Empty {
		return ErrIllegalMove
	}
	if s.hasKo && p == s.koPoint {
		return ErrIllegalMove
	}

	color := s.toMove
	opp := color.Opposite()

	s.g.set(p, color)

	captured := 0
	var lastCapturedGroup []Point
	for _, d := range s.g.neighbors(p) {
		if s.g.at(d) != opp {
			continue
		}
		group, liberties := s.g.group(d)
		if liberties {
			continue
		}
		captured += s.g.removeGroup(group)
		if len(group) == 1 {
			lastCapturedGroup = group
		}
	}

	if captured == 0 && s.g.isSuicide(p) {
		s.g.set(p, Empty)
		return ErrIllegalMove
	}

	s.hasKo = false
	if captured == 1 && len(lastCapturedGroup) == 1 {
		// Simple-ko candidate: exactly one stone captured and the
		// placed stone itself has exactly one liberty (its own point
		// is the only way back in).
		libs := 0
		for _, d := range s.g.neighbors(p) {
			if s.g.at(d) == Empty {
				libs++
			}
		}
		if group, _ := s.g.group(p); len(group) == 1 && libs == 1 {
			s.koPoint = lastCapturedGroup[0]
			s.hasKo = true
		}
	}

	s.lastMove = p
	s.moveNum++
	s.passes = 0
	s.toMove = opp
	s.history = append(s.history, s.g.hashOf(s.toMove))
	return nil
}

// PlayPass records a pass without modifying the board.
func (s *State) PlayPass() {
	s.lastMove = Pass
	s.moveNum++
	s.passes++
	s.hasKo = false
	s.toMove = s.toMove.Opposite()
	s.history = append(s.history, s.g.hashOf(s.toMove))
}

// Superko reports whether the position reached by the most recent move (or
// pass) has occurred at any earlier point in this game (positional
// superko). PlaySimulation calls this immediately after PlayMove on a
// non-pass move and invalidates the node rather than recursing into it
// when true (spec.md §4.1 step 5).
func (s *State) Superko() bool {
	current := s.Hash()
	for _, h := range s.history[:len(s.history)-1] {
		if h == current {
			return true
		}
	}
	return false
}

// FinalScore computes the Trump-Taylor score (stones-as-placed, no dead
// stone removal) from Black's perspective: positive favors Black. spec.md
// §9 requires this scoring, distinct from dead-stone-removal scoring, for
// both the dumb-pass and pass-out heuristics.
func (s *State) FinalScore() float64 {
	black, white := 0, 0
	visited := make([]bool, len(s.g.cells))
	for i, c := range s.g.cells {
		switch c {
		case Black:
			black++
		case White:
			white++
		case Empty:
			if visited[i] {
				continue
			}
			p := Point{X: i % s.boardSize, Y: i / s.boardSize}
			region, touchesBlack, touchesWhite := s.emptyRegion(p, visited)
			if touchesBlack && !touchesWhite {
				black += len(region)
			} else if touchesWhite && !touchesBlack {
				white += len(region)
			}
			// touches both (seki) or neither: no territory awarded
		}
	}
	return float64(black) - float64(white) - s.komi
}

// emptyRegion flood-fills the empty region containing p, marking visited
// cells and reporting which colors border it.
func (s *State) emptyRegion(p Point, visited []bool) (region []Point, touchesBlack, touchesWhite bool) {
	idx := p.Y*s.boardSize + p.X
	if visited[idx] {
		return nil, false, false
	}
	fringe := []Point{p}
	visited[idx] = true
	for len(fringe) > 0 {
		cur := fringe[len(fringe)-1]
		fringe = fringe[:len(fringe)-1]
		region = append(region, cur)
		for _, d := range s.g.neighbors(cur) {
			switch s.g.at(d) {
			case Black:
				touchesBlack = true
			case White:
				touchesWhite = true
			case Empty:
				di := d.Y*s.boardSize + d.X
				if !visited[di] {
					visited[di] = true
					fringe = append(fringe, d)
				}
			}
		}
	}
	return region, touchesBlack, touchesWhite
}

// MoveToText renders p as GTP-style coordinate text for this board's size.
func (s *State) MoveToText(p Point) string {
	return MoveToText(p, s.boardSize)
}
