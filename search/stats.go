package search

import (
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"gozero/board"
	"gozero/node"
)

// GetPV recursively concatenates best-child move text starting from n over
// state, stopping at a childless node or an unvisited best child. Used for
// logging only, per spec §4.5.
func (s *Search) GetPV(state *board.State, n *node.Node) string {
	children := n.GetChildren()
	if len(children) == 0 {
		return ""
	}
	color := state.ToMove()
	n.SortChildren(color)
	best := n.GetBestRootChild()
	if best == nil || best.FirstVisit() {
		return ""
	}

	move := best.GetMove()
	text := state.MoveToText(move)

	clone := state.Clone()
	if move == board.Pass {
		clone.PlayPass()
	} else if err := clone.PlayMove(move); err != nil {
		return text
	}

	rest := s.GetPV(clone, best)
	if rest == "" {
		return text
	}
	return text + " " + rest
}

// DumpStats logs, for each root child up to visit exhaustion, its move
// text, visits, value%, prior%, and the PV starting with that child. At
// least two moves are always listed.
func (s *Search) DumpStats() {
	if s.cfg.Quiet {
		return
	}
	color := s.rootState.ToMove()
	s.root.SortChildren(color)
	children := s.root.GetChildren()

	listed := 0
	for _, c := range children {
		if listed >= 2 && c.FirstVisit() {
			break
		}
		listed++
		log.Info().
			Str("move", s.rootState.MoveToText(c.GetMove())).
			Int32("visits", c.GetVisits()).
			Float64("value_pct", c.GetEval(color)*100).
			Float64("prior_pct", c.GetScore()*100).
			Str("pv", strings.TrimSpace(s.pvFrom(c))).
			Msg("candidate move")
	}
}

func (s *Search) pvFrom(c *node.Node) string {
	move := c.GetMove()
	text := s.rootState.MoveToText(move)
	clone := s.rootState.Clone()
	if move == board.Pass {
		clone.PlayPass()
	} else if err := clone.PlayMove(move); err != nil {
		return text
	}
	rest := s.GetPV(clone, c)
	if rest == "" {
		return text
	}
	return text + " " + rest
}

// DumpAnalysis logs a periodic progress line: playouts so far, root
// winrate, and PV. Callers (Think's foreground loop) gate the call rate
// themselves; DumpAnalysis itself always emits when called and not quiet.
func (s *Search) DumpAnalysis() {
	if s.cfg.Quiet {
		return
	}
	color := s.rootState.ToMove()
	log.Info().
		Int64("playouts", atomic.LoadInt64(&s.playouts)).
		Float64("winrate_pct", s.root.GetEval(color)*100).
		Str("pv", s.GetPV(s.rootState, s.root)).
		Msg("search progress")
}
