// Package nnet stands in for the neural-network evaluator collaborator:
// given a position it returns a move policy and a position value. Node
// expansion (package node) and leaf evaluation both go through here, bounded
// by a small pool (a counting semaphore, see Pool) so concurrent tree descent
// never issues more concurrent evaluations than the pool allows.
package nnet

import (
	"context"
	"math"

	"golang.org/x/exp/rand"

	"gozero/board"
)

// Evaluator produces a policy (prior probability per legal move) and a
// position value (from the side-to-move's perspective, in [0, 1]) for a
// given board state. The zero value is not usable; build one with New.
//
// This is a stand-in for a real trained network: it derives a plausible,
// deterministic-given-state policy and value from simple heuristics
// (distance from the board center for the policy, the area score for the
// value), and bounds concurrent evaluations with a Pool of configurable
// size, so that package search sees the same limited evaluation concurrency
// a real GPU-bound evaluator would impose.
type Evaluator struct {
	pool *Pool
	rng  func() *rand.Rand
}

// New returns an Evaluator backed by a pool of the given size. size <= 0
// means unbounded (no queuing).
func New(size int) *Evaluator {
	return &Evaluator{
		pool: NewPool(size),
		rng:  func() *rand.Rand { return rand.New(rand.NewSource(1)) },
	}
}

// Evaluate blocks until a worker slot is free, then returns a policy over
// every empty point on the board (plus PASS) and a scalar value estimate.
// It respects ctx cancellation while waiting for a slot.
func (e *Evaluator) Evaluate(ctx context.Context, s *board.State) (map[board.Point]float64, float64, error) {
	type result struct {
		policy map[board.Point]float64
		value  float64
	}
	out := make(chan result, 1)
	err := e.pool.Submit(ctx, func() {
		out <- result{policy: heuristicPolicy(s), value: heuristicValue(s)}
	})
	if err != nil {
		return nil, 0, err
	}
	select {
	case r := <-out:
		return r.policy, r.value, nil
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
}

// heuristicPolicy assigns every empty point a weight of 1 plus its
// centerBias, plus a small constant weight on PASS, normalized to sum to 1 — enough structure for PUCT selection and
// Dirichlet noise injection to exercise meaningfully without a real network.
func heuristicPolicy(s *board.State) map[board.Point]float64 {
	size := s.BoardSize()
	policy := make(map[board.Point]float64, size*size+1)
	total := 0.0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := board.Point{X: x, Y: y}
			if s.At(p) != board.Empty {
				continue
			}
			w := 1.0 + centerBias(x, y, size)
			policy[p] = w
			total += w
		}
	}
	policy[board.Pass] = 0.1
	total += 0.1
	if total > 0 {
		for p, w := range policy {
			policy[p] = w / total
		}
	}
	return policy
}

// centerBias nudges priors toward the center of the board, the same broad
// shape a trained policy network tends to produce in the opening.
func centerBias(x, y, size int) float64 {
	cx, cy := float64(size-1)/2, float64(size-1)/2
	dx, dy := float64(x)-cx, float64(y)-cy
	dist := math.Sqrt(dx*dx + dy*dy)
	maxDist := math.Sqrt(cx*cx + cy*cy)
	if maxDist == 0 {
		return 0
	}
	return 1 - dist/maxDist
}

// heuristicValue estimates the position value for the side to move from the
// simple area-count difference, squashed to (0, 1).
func heuristicValue(s *board.State) float64 {
	score := s.FinalScore() // positive favors Black
	if s.ToMove() == board.White {
		score = -score
	}
	return 1 / (1 + math.Exp(-score/20))
}
