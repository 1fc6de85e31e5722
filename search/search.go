// Package search implements the concurrent MCTS search coordinator: the
// simulation recursion, the worker pool that drives it, budget/termination
// enforcement, and the think/ponder drivers built on top. It is the
// generalization of the teacher's MCTS type (searcher/mcts.go) from a
// generic UCB1 game tree to a PUCT tree guided by a neural evaluator, over a
// Go board instead of a risk board.
package search

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"gozero/board"
	"gozero/node"
	"gozero/nnet"
	"gozero/searchcfg"
	"gozero/timecontrol"
	"gozero/training"
	"gozero/tt"
)

// maxBudget is used for "unlimited" playout/visit caps (set_playout_limit(0)
// / set_visit_limit(0) in the source driver), matching its use of the
// counter type's maximum value rather than a sentinel.
const maxBudget = math.MaxInt64

// Search owns one shared tree and drives playouts across goroutines against
// it. A Search is reused across successive moves: Think reroots the tree
// onto the chosen move at the end of each call.
type Search struct {
	cfg   searchcfg.Config
	tt    *tt.Table
	clock *timecontrol.Clock
	eval  *nnet.Evaluator
	train training.Sink

	root      *node.Node
	rootState *board.State

	playouts int64 // atomic
	nodes    int64 // atomic

	maxPlayouts int64 // atomic, effective cap (0 request -> maxBudget)
	maxVisits   int64 // atomic

	running atomic.Bool

	rng *rand.Rand
}

// New builds a Search over an initial root state. tt, clock, eval, and
// train are injected collaborators (spec requires the transposition table
// in particular not be a process-wide singleton).
func New(cfg searchcfg.Config, initial *board.State, table *tt.Table, clock *timecontrol.Clock, eval *nnet.Evaluator, train training.Sink) *Search {
	if train == nil {
		train = training.NullSink{}
	}
	s := &Search{
		cfg:       cfg,
		tt:        table,
		clock:     clock,
		eval:      eval,
		train:     train,
		root:      node.NewRoot(),
		rootState: initial,
		rng:       rand.New(rand.NewSource(1)),
	}
	s.SetPlayoutLimit(cfg.MaxPlayouts)
	s.SetVisitLimit(cfg.MaxVisits)
	return s
}

// SetPlayoutLimit sets the playout budget; n == 0 means unlimited.
func (s *Search) SetPlayoutLimit(n int64) {
	if n <= 0 {
		n = maxBudget
	}
	atomic.StoreInt64(&s.maxPlayouts, n)
}

// SetVisitLimit sets the root-visit budget; n == 0 means unlimited.
func (s *Search) SetVisitLimit(n int64) {
	if n <= 0 {
		n = maxBudget
	}
	atomic.StoreInt64(&s.maxVisits, n)
}

// Playouts returns the number of valid simulations completed so far.
func (s *Search) Playouts() int64 { return atomic.LoadInt64(&s.playouts) }

// Root exposes the current root node, e.g. for callers inspecting the tree
// between moves.
func (s *Search) Root() *node.Node { return s.root }

// searchResult carries a backed-up evaluation (Black's perspective) up the
// recursion, or marks itself invalid when the simulation produced nothing
// countable as a playout (a superko-only branch, a nil child).
type searchResult struct {
	valid bool
	eval  float64
}

func fromEval(v float64) searchResult { return searchResult{valid: true, eval: v} }
func fromScore(finalScore float64) searchResult {
	// finalScore is positive for Black; map to the [0,1] value convention
	// Update/GetEval use (1 = certain Black win).
	if finalScore > 0 {
		return searchResult{valid: true, eval: 1}
	}
	if finalScore < 0 {
		return searchResult{valid: true, eval: 0}
	}
	return searchResult{valid: true, eval: 0.5}
}
func invalidResult() searchResult { return searchResult{} }

// PlaySimulation runs one simulation from n over state (state is consumed:
// callers must pass a fresh clone), exactly following spec's play_simulation
// recursion: TT sync, virtual loss, expand-or-select, recurse, backup, undo
// virtual loss, TT update.
func (s *Search) PlaySimulation(ctx context.Context, state *board.State, n *node.Node) searchResult {
	color := state.ToMove()
	hash := state.Hash()
	komi := state.Komi()

	s.tt.Sync(hash, komi, n)

	n.ApplyVirtualLoss()
	defer n.UndoVirtualLoss()

	var result searchResult

	if !n.HasChildren() {
		switch {
		case state.Passes() >= 2:
			result = fromScore(state.FinalScore())
		case atomic.LoadInt64(&s.nodes) < s.cfg.MaxTreeSize || s.cfg.MaxTreeSize <= 0:
			expanded, value, err := n.CreateChildren(ctx, s.eval, state, &s.nodes, s.cfg.MaxTreeSize)
			switch {
			case err != nil:
				result = invalidResult()
			case expanded:
				result = fromEval(orientToBlack(value, color))
			case n.HasChildren():
				// Lost the expansion race to another worker: leave result
				// invalid so the fallthrough below descends into the
				// winner's freshly created children instead of backing up
				// a leaf value without ever visiting them.
			default:
				// Hit the tree-size cap before expanding: this stays a
				// leaf, so it still needs a value for this simulation's
				// backup.
				value, err := n.EvalState(ctx, s.eval, state)
				if err != nil {
					result = invalidResult()
				} else {
					result = fromEval(orientToBlack(value, color))
				}
			}
		default:
			value, err := n.EvalState(ctx, s.eval, state)
			if err != nil {
				result = invalidResult()
			} else {
				result = fromEval(orientToBlack(value, color))
			}
		}
	}

	if n.HasChildren() && !result.valid {
		next := n.UCTSelectChild(color)
		if next != nil {
			move := next.GetMove()
			if move != board.Pass {
				if err := state.PlayMove(move); err != nil {
					next.Invalidate()
				} else if state.Superko() {
					next.Invalidate()
				} else {
					result = s.PlaySimulation(ctx, state, next)
				}
			} else {
				state.PlayPass()
				result = s.PlaySimulation(ctx, state, next)
			}
		}
	}

	if result.valid {
		n.Update(result.eval)
	}

	s.tt.Update(hash, komi, n)

	return result
}

// orientToBlack converts an evaluator value (from color's perspective) to
// the Black-perspective convention node.Update/node.GetEval expect.
func orientToBlack(value float64, color board.Color) float64 {
	if color == board.White {
		return 1 - value
	}
	return value
}

// budgetExceeded reports whether any termination predicate has fired:
// cancellation, playout cap, or root-visit cap. It does not check the
// driver's wall-clock deadline — only Think's foreground loop does that,
// since workers have no notion of the per-move time budget.
func (s *Search) budgetExceeded() bool {
	if !s.running.Load() {
		return true
	}
	if atomic.LoadInt64(&s.playouts) >= atomic.LoadInt64(&s.maxPlayouts) {
		return true
	}
	if int64(s.root.GetVisits()) >= atomic.LoadInt64(&s.maxVisits) {
		return true
	}
	return false
}

// runWorker repeatedly clones rootState and runs PlaySimulation against it
// until the running flag clears or a budget predicate fires. Every valid
// simulation atomically increments the shared playout counter, the same
// "task loop guarded by a shared cancellation channel" shape as the
// teacher's countdown/iterate worker loops in searcher/mcts.go, generalized
// from a fixed iteration/duration count to the richer budget predicate set
// spec requires.
func (s *Search) runWorker(ctx context.Context) {
	for !s.budgetExceeded() {
		state := s.rootState.Clone()
		result := s.PlaySimulation(ctx, state, s.root)
		if result.valid {
			atomic.AddInt64(&s.playouts, 1)
		}
	}
}

// spawnWorkers starts n background workers sharing the root, and returns a
// function that waits for all of them to exit — the thread-group
// join primitive spec's concurrency model calls for.
func (s *Search) spawnWorkers(ctx context.Context, n int) func() {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runWorker(ctx)
		}()
	}
	return wg.Wait
}
