package search

import (
	"gozero/board"
	"gozero/node"
	"gozero/searchcfg"
)

// GetBestMove implements spec's get_best_move(passflag): sorts root
// children by preference, applies early-game randomization, then the
// pass/no-pass/dumb-pass and resignation heuristics, in that order.
func (s *Search) GetBestMove(passflag searchcfg.PassFlag) board.Point {
	color := s.rootState.ToMove()
	s.root.SortChildren(color)

	if s.rootState.MoveNumber() < s.cfg.RandomCnt {
		s.root.RandomizeFirstProportionally(s.rng)
	}

	best := s.root.GetFirstChild()
	if best == nil {
		return board.Pass
	}
	bestmove := best.GetMove()
	if best.GetVisits() == 0 {
		// Degenerate path: root was never really searched.
		return bestmove
	}
	bestscore := best.GetEval(color)

	switch {
	case passflag&searchcfg.NoPass != 0 && bestmove == board.Pass:
		if alt := s.root.GetNoPassChild(s.rootState); alt != nil {
			bestmove = alt.GetMove()
			bestscore = altScore(alt, color)
		}
		// else: keep PASS.

	case !s.cfg.DumbPass:
		if bestmove == board.Pass {
			if s.passLoses(color) {
				if alt := s.root.GetNoPassChild(s.rootState); alt != nil {
					bestmove = alt.GetMove()
					bestscore = altScore(alt, color)
				}
			}
		} else if s.rootState.LastMove() == board.Pass {
			if !s.passLoses(color) {
				bestmove = board.Pass
			}
		}
	}

	if bestmove != board.Pass {
		if s.ShouldResign(passflag, bestscore) {
			return board.Resign
		}
	}
	return bestmove
}

// altScore is the bestscore to report for a replacement non-pass move:
// 1.0 (optimistic) if it has never been visited, else its real eval.
func altScore(alt *node.Node, color board.Color) float64 {
	if alt.FirstVisit() {
		return 1.0
	}
	return alt.GetEval(color)
}

// passLoses reports whether a pass by color right now would lose on the
// Trump-Taylor final score (stones as placed, no dead-stone removal).
func (s *Search) passLoses(color board.Color) bool {
	score := s.rootState.FinalScore() // positive favors Black
	if color == board.White {
		return score > 0
	}
	return score < 0
}

// ShouldResign implements spec's should_resign(passflag, bestscore).
func (s *Search) ShouldResign(passflag searchcfg.PassFlag, bestscore float64) bool {
	if passflag&searchcfg.NoResign != 0 || s.cfg.ResignPercent == 0 {
		return false
	}

	minVisits := s.cfg.MaxPlayouts
	if minVisits <= 0 || minVisits > 500 {
		minVisits = 500
	}
	if int64(s.root.GetVisits()) < minVisits {
		return false
	}

	boardSize := s.rootState.BoardSize()
	if s.rootState.MoveNumber() <= boardSize*boardSize/4 {
		return false
	}

	resignPct := s.cfg.ResignPercent
	if resignPct < 0 {
		resignPct = 10
	}
	threshold := 0.01 * float64(resignPct)
	if bestscore > threshold {
		return false
	}

	if s.cfg.ResignPercent < 0 && s.rootState.Handicap() > 0 && s.rootState.ToMove() == board.White {
		handicapThreshold := threshold / (1 + float64(s.rootState.Handicap()))
		blend := float64(s.rootState.MoveNumber()) / (0.6 * float64(boardSize*boardSize))
		if blend > 1 {
			blend = 1
		}
		blended := blend*threshold + (1-blend)*handicapThreshold
		if bestscore > blended {
			return false
		}
	}

	return true
}
