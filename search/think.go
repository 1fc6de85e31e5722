package search

import (
	"context"
	"sync/atomic"
	"time"

	"gozero/board"
	"gozero/node"
	"gozero/searchcfg"
	"gozero/timecontrol"
)

// colorIndex maps board's two-player color to timecontrol's own Color type,
// keeping timecontrol free of any import on package board (see DESIGN.md).
func colorIndex(c board.Color) timecontrol.Color {
	if c == board.White {
		return timecontrol.White
	}
	return timecontrol.Black
}

const analysisInterval = 250 * 10 * time.Millisecond // 250 centiseconds, matching the original engine's emit cadence exactly (see DESIGN.md)

// Think runs a full timed search from g and returns the chosen move,
// following spec §4.6 step by step: set up the board/clock, expand the
// root if needed, kill root superkos, optionally add Dirichlet noise, spawn
// workers, run the foreground simulation loop until budget or deadline,
// join workers, dump stats, record a training sample, and reroot the tree
// onto the chosen move.
func (s *Search) Think(ctx context.Context, g *board.State, passflag searchcfg.PassFlag) board.Point {
	color := g.ToMove()
	s.rootState = g

	g.StartClock(color)
	defer g.StopClock(color)
	g.SetToMove(color)

	atomic.StoreInt64(&s.playouts, 0)

	start := time.Now()
	budgetCentis := s.clock.MaxTimeForMove(colorIndex(color))
	budget := time.Duration(budgetCentis) * 10 * time.Millisecond

	if !s.root.HasChildren() {
		s.root.CreateChildren(ctx, s.eval, s.rootState, &s.nodes, s.cfg.MaxTreeSize)
	}

	s.root.KillSuperkos(s.rootState)
	if s.cfg.Noise {
		s.root.DirichletNoise(s.rng, 0.03, 0.25)
	}

	s.running.Store(true)
	joinWorkers := s.spawnWorkers(ctx, s.cfg.NumThreads-1)

	lastAnalysis := time.Duration(0)
	for s.running.Load() {
		elapsed := time.Since(start)
		if budget > 0 && elapsed >= budget {
			break
		}
		if s.budgetExceeded() {
			break
		}
		state := s.rootState.Clone()
		result := s.PlaySimulation(ctx, state, s.root)
		if result.valid {
			s.incPlayouts()
		}
		if !s.cfg.Quiet && elapsed-lastAnalysis > analysisInterval {
			s.DumpAnalysis()
			lastAnalysis = elapsed
		}
	}

	s.running.Store(false)
	joinWorkers()

	if !s.root.HasChildren() {
		return board.Pass
	}

	s.DumpStats()
	s.train.Record(s.rootState, s.root)

	bestmove := s.GetBestMove(passflag)
	if bestmove == board.Resign {
		return board.Resign
	}

	if bestmove == board.Pass {
		s.rootState.PlayPass()
	} else if err := s.rootState.PlayMove(bestmove); err != nil {
		// Should be unreachable: GetBestMove only returns a move that was a
		// legal child of the root.
		return board.Resign
	}
	s.reroot(bestmove)
	return bestmove
}

// Ponder runs search against g without a time budget, noise, superko
// pruning, stat recording, or rerooting — it simply keeps the tree warm
// until the running flag is cleared by the caller (e.g. opponent input
// arriving), per spec §4.7.
func (s *Search) Ponder(ctx context.Context, g *board.State) {
	s.rootState = g

	if !s.root.HasChildren() {
		s.root.CreateChildren(ctx, s.eval, s.rootState, &s.nodes, s.cfg.MaxTreeSize)
	}

	s.running.Store(true)
	joinWorkers := s.spawnWorkers(ctx, s.cfg.NumThreads-1)

	for s.running.Load() {
		state := s.rootState.Clone()
		result := s.PlaySimulation(ctx, state, s.root)
		if result.valid {
			s.incPlayouts()
		}
	}

	s.running.Store(false)
	joinWorkers()
}

// Stop clears the running flag, the cooperative cancellation signal every
// worker and both drivers poll.
func (s *Search) Stop() { s.running.Store(false) }

func (s *Search) incPlayouts() {
	atomic.AddInt64(&s.playouts, 1)
}

// reroot advances the shared tree onto the chosen move, so the next Think
// call starts from a tree that already reflects every earlier search's
// statistics for that subtree. If the move has no corresponding child (a
// resign or a move the tree never explored), a fresh root is started.
func (s *Search) reroot(move board.Point) {
	if next := s.root.FindNewRoot(move); next != nil {
		s.root = next
		return
	}
	s.root = node.NewRoot()
}
