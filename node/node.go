// Package node implements the shared search-tree vertex (UCTNode): per-node
// visit/value/virtual-loss bookkeeping, child expansion via the network
// evaluator, and the PUCT child-selection policy. Every operation here is
// safe to call from concurrent search workers.
//
// Concurrency is guarded with a per-node sync.RWMutex rather than raw
// atomics on the counters — the same shape as the teacher's decision/chance
// nodes (searcher/decision.go's ApplyLoss/reverseLoss/Score under
// sync.RWMutex), adapted from UCB1 bookkeeping to PUCT bookkeeping.
package node

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"gozero/board"
	"gozero/utils"
)

// pucConstant is the exploration weight in the PUCT formula, matching Leela
// Zero's cfg_puct default.
const pucConstant = 0.8

// Evaluator is the subset of nnet.Evaluator's contract that CreateChildren
// and EvalState need; kept as an interface here so node has no import-time
// dependency on the nnet package's concrete worker pool.
type Evaluator interface {
	Evaluate(ctx context.Context, s *board.State) (policy map[board.Point]float64, value float64, err error)
}

// Node is one vertex of the shared search tree.
type Node struct {
	mu sync.RWMutex

	move   board.Point
	score  float64 // prior probability from the evaluator's policy
	parent *Node

	visits      int32
	virtualLoss int32
	valueSum    float64

	children    []*Node
	invalidated bool
	expanding   bool
}

// NewRoot returns a fresh root node with no move (it was reached by no
// move) and a neutral prior.
func NewRoot() *Node {
	return &Node{move: board.Pass, score: 1.0}
}

func newChild(parent *Node, move board.Point, prior float64) *Node {
	return &Node{parent: parent, move: move, score: prior}
}

// HasChildren reports whether this node has already been expanded.
func (n *Node) HasChildren() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children) > 0
}

// CreateChildren expands the node from the evaluator's policy over s,
// allocating one child per move in the policy, whatever its prior. It is
// idempotent/serialized: only the first caller on a given node actually
// expands (tracked by the expanding flag under the node's own lock); later
// concurrent callers return immediately with expanded=false and no error,
// exactly as spec requires so a worker arriving at a node mid-expansion
// simply backs off rather than double-allocating children.
//
// nodeCount is incremented (by the number of children created) on success,
// giving the caller a running total for the MAX_TREE_SIZE cap; maxTreeSize
// <= 0 means unbounded.
func (n *Node) CreateChildren(ctx context.Context, eval Evaluator, s *board.State, nodeCount *int64, maxTreeSize int64) (expanded bool, value float64, err error) {
	n.mu.Lock()
	if len(n.children) > 0 || n.expanding {
		n.mu.Unlock()
		return false, 0, nil
	}
	if maxTreeSize > 0 && loadCount(nodeCount) >= maxTreeSize {
		n.mu.Unlock()
		return false, 0, nil
	}
	n.expanding = true
	n.mu.Unlock()

	policy, value, err := eval.Evaluate(ctx, s)
	if err != nil {
		n.mu.Lock()
		n.expanding = false
		n.mu.Unlock()
		return false, 0, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.expanding = false
	if len(n.children) > 0 {
		// Lost a race with another expander between the unlock above and
		// this lock; their children win, ours is discarded.
		return false, value, nil
	}
	children := make([]*Node, 0, len(policy))
	for move, prior := range policy {
		children = append(children, newChild(n, move, prior))
	}
	n.children = children
	addCount(nodeCount, int64(len(children)))
	return true, value, nil
}

// EvalState evaluates s without expanding the node — used once the tree-size
// cap has been reached and a leaf still needs a value for backup.
func (n *Node) EvalState(ctx context.Context, eval Evaluator, s *board.State) (float64, error) {
	_, value, err := eval.Evaluate(ctx, s)
	return value, err
}

// UCTSelectChild returns the child with the highest PUCT score from color's
// perspective, accounting for virtual loss on every candidate. Returns nil
// if there are no children.
func (n *Node) UCTSelectChild(color board.Color) *Node {
	n.mu.RLock()
	children := n.children
	parentVisits := n.visits
	n.mu.RUnlock()
	if len(children) == 0 {
		return nil
	}

	numerator := math.Sqrt(math.Max(1, float64(parentVisits)))

	var best *Node
	bestScore := math.Inf(-1)
	for _, c := range children {
		c.mu.RLock()
		invalidated := c.invalidated
		visits := c.visits
		denom := c.visits + c.virtualLoss
		prior := c.score
		valueSum := c.valueSum
		c.mu.RUnlock()

		if invalidated {
			continue
		}

		q := 0.5 // neutral prior for an unvisited child
		if denom > 0 {
			// valueSum is always Black-perspective; reorient to the
			// selecting color before dividing by denom, so virtual loss
			// (counted only in denom) is a loss for whichever color is
			// selecting, not just for Black.
			numeratorForColor := valueSum
			if color == board.White {
				numeratorForColor = float64(visits) - valueSum
			}
			q = numeratorForColor / float64(denom)
		}

		psa := pucConstant * prior * numerator / (1 + float64(denom))
		uctScore := q + psa
		if uctScore > bestScore {
			bestScore = uctScore
			best = c
		}
	}
	return best
}

// ApplyVirtualLoss marks this node as provisionally lost, discouraging other
// concurrent selectors from descending into the same subtree before this
// simulation backs up.
func (n *Node) ApplyVirtualLoss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.virtualLoss++
}

// UndoVirtualLoss reverses ApplyVirtualLoss once the simulation that applied
// it has backed up its real result.
func (n *Node) UndoVirtualLoss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.virtualLoss--
}

// Update accumulates a backed-up evaluation (from Black's perspective) into
// this node's running statistics.
func (n *Node) Update(eval float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visits++
	n.valueSum += eval
}

// GetEval returns the node's average value from color's perspective. A node
// with zero visits returns 0.5 (neutral prior), matching Leela Zero's
// "half win" convention for unvisited children.
func (n *Node) GetEval(color board.Color) float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.visits == 0 {
		return 0.5
	}
	v := n.valueSum / float64(n.visits)
	if color == board.White {
		return 1 - v
	}
	return v
}

// GetVisits returns the node's real (non-virtual) visit count.
func (n *Node) GetVisits() int32 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.visits
}

// FirstVisit reports whether this node has never been updated.
func (n *Node) FirstVisit() bool {
	return n.GetVisits() == 0
}

// SortChildren orders children by their value from color's perspective,
// most preferred first, breaking ties by visit count.
func (n *Node) SortChildren(color board.Color) {
	n.mu.Lock()
	defer n.mu.Unlock()
	sort.SliceStable(n.children, func(i, j int) bool {
		a, b := n.children[i], n.children[j]
		av, bv := a.GetEval(color), b.GetEval(color)
		if av != bv {
			return av > bv
		}
		return a.GetVisits() > b.GetVisits()
	})
}

// RandomizeFirstProportionally swaps the first child with one selected at
// random proportionally to visit counts, for move-count-proportional
// diversity in early-game move selection.
func (n *Node) RandomizeFirstProportionally(rng *rand.Rand) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.children) < 2 {
		return
	}
	total := int64(0)
	for _, c := range n.children {
		total += int64(c.GetVisits())
	}
	if total == 0 {
		return
	}
	pick := rng.Int63n(total)
	var running int64
	for i, c := range n.children {
		running += int64(c.GetVisits())
		if pick < running {
			n.children[0], n.children[i] = n.children[i], n.children[0]
			return
		}
	}
}

// FindNewRoot returns the child reached by move, detached from its old
// parent so it can become the new tree root, or nil if no such child
// exists (the caller must then start a fresh tree).
func (n *Node) FindNewRoot(move board.Point) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	moves := make([]board.Point, len(n.children))
	for i, c := range n.children {
		moves[i] = c.move
	}
	i := utils.FindIndex(moves, move)
	if i < 0 {
		return nil
	}
	c := n.children[i]
	c.mu.Lock()
	c.parent = nil
	c.mu.Unlock()
	return c
}

// GetNoPassChild returns the first non-pass child that is not invalidated,
// or nil if every child is PASS or invalidated.
func (n *Node) GetNoPassChild(s *board.State) *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, c := range n.children {
		c.mu.RLock()
		invalid := c.invalidated
		move := c.move
		c.mu.RUnlock()
		if !invalid && move != board.Pass {
			return c
		}
	}
	return nil
}

// KillSuperkos invalidates every child whose move would recreate a position
// already seen earlier in the game, by speculatively playing each child's
// move on a clone of s.
func (n *Node) KillSuperkos(s *board.State) {
	n.mu.RLock()
	children := append([]*Node(nil), n.children...)
	n.mu.RUnlock()

	for _, c := range children {
		if c.GetMove() == board.Pass {
			continue
		}
		clone := s.Clone()
		if err := clone.PlayMove(c.GetMove()); err != nil {
			continue
		}
		if clone.Superko() {
			c.Invalidate()
		}
	}
}

// DirichletNoise mixes Dirichlet(alpha)-distributed noise into every
// child's prior with the given weight, matching the alpha=0.03, weight=0.25
// exploration noise spec calls for at the start of self-play searches.
func (n *Node) DirichletNoise(rng *rand.Rand, alpha, weight float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.children) == 0 {
		return
	}
	noise := sampleDirichlet(rng, alpha, len(n.children))
	for i, c := range n.children {
		c.mu.Lock()
		c.score = c.score*(1-weight) + noise[i]*weight
		c.mu.Unlock()
	}
}

// sampleDirichlet draws a Dirichlet(alpha, ..., alpha) sample of size n via
// normalized Gamma(alpha, 1) draws, the standard construction.
func sampleDirichlet(rng *rand.Rand, alpha float64, n int) []float64 {
	sample := make([]float64, n)
	total := 0.0
	for i := range sample {
		g := sampleGamma(rng, alpha)
		sample[i] = g
		total += g
	}
	if total == 0 {
		for i := range sample {
			sample[i] = 1.0 / float64(n)
		}
		return sample
	}
	for i := range sample {
		sample[i] /= total
	}
	return sample
}

// sampleGamma draws from Gamma(shape, 1) using Marsaglia-Tsang for
// shape >= 1, and the boosting trick (Gamma(shape+1) * U^(1/shape)) for
// shape < 1, which is the regime alpha=0.03 always falls in here.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*(x*x*x*x) {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// CountNodes returns the size of the subtree rooted at n, inclusive.
func (n *Node) CountNodes() int {
	n.mu.RLock()
	children := append([]*Node(nil), n.children...)
	n.mu.RUnlock()
	count := 1
	for _, c := range children {
		count += c.CountNodes()
	}
	return count
}

// Invalidate marks the node as no longer a legal continuation;
// UCTSelectChild, GetBestRootChild and GetNoPassChild skip invalidated nodes.
func (n *Node) Invalidate() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invalidated = true
}

func (n *Node) Invalidated() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.invalidated
}

// GetBestRootChild returns the first child after SortChildren has already
// been called, skipping invalidated children, or nil if none remain.
func (n *Node) GetBestRootChild() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, c := range n.children {
		if !c.Invalidated() {
			return c
		}
	}
	return nil
}

// GetChildren returns a snapshot slice of the node's children.
func (n *Node) GetChildren() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]*Node(nil), n.children...)
}

// GetFirstChild returns the first child, or nil if the node has none.
func (n *Node) GetFirstChild() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

func (n *Node) GetMove() board.Point {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.move
}

func (n *Node) GetScore() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.score
}

func (n *Node) SetScore(score float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.score = score
}

func loadCount(c *int64) int64 {
	if c == nil {
		return 0
	}
	return atomic.LoadInt64(c)
}

func addCount(c *int64, delta int64) {
	if c == nil {
		return
	}
	atomic.AddInt64(c, delta)
}
