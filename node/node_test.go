package node

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"gozero/board"
)

// stubEvaluator returns a fixed uniform policy and value, enough to drive
// expansion in tests without a real network — grounded on the teacher's own
// stub evaluators (searcher/policy_test.go's table-driven fixed-score
// fixtures) adapted to this package's Evaluator interface.
type stubEvaluator struct {
	policy map[board.Point]float64
	value  float64
	calls  int32
	mu     sync.Mutex
}

func (e *stubEvaluator) Evaluate(ctx context.Context, s *board.State) (map[board.Point]float64, float64, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.policy, e.value, nil
}

func twoMovePolicy() map[board.Point]float64 {
	return map[board.Point]float64{
		{X: 0, Y: 0}: 0.6,
		{X: 1, Y: 0}: 0.4,
	}
}

func TestCreateChildren(t *testing.T) {
	t.Run("expands once and reports the evaluator's value", func(t *testing.T) {
		n := NewRoot()
		eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.7}
		var count int64

		expanded, value, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)

		require.NoError(t, err)
		require.True(t, expanded)
		require.Equal(t, 0.7, value)
		require.Len(t, n.GetChildren(), 2)
		require.Equal(t, int64(2), count)
	})

	t.Run("second call on an already-expanded node is a no-op", func(t *testing.T) {
		n := NewRoot()
		eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.7}
		var count int64
		_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
		require.NoError(t, err)

		expanded, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)

		require.NoError(t, err)
		require.False(t, expanded)
		require.Len(t, n.GetChildren(), 2, "children should not be duplicated")
	})

	t.Run("respects the tree-size cap", func(t *testing.T) {
		n := NewRoot()
		eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
		count := int64(10)

		expanded, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 5)

		require.NoError(t, err)
		require.False(t, expanded)
		require.Empty(t, n.GetChildren())
	})

	t.Run("concurrent expansion is idempotent", func(t *testing.T) {
		n := NewRoot()
		eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
		var count int64

		var wg sync.WaitGroup
		results := make([]bool, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			i := i
			go func() {
				defer wg.Done()
				expanded, _, _ := n.CreateChildren(context.Background(), eval, nil, &count, 0)
				results[i] = expanded
			}()
		}
		wg.Wait()

		winners := 0
		for _, r := range results {
			if r {
				winners++
			}
		}
		require.Equal(t, 1, winners, "exactly one caller should win the expansion race")
		require.Len(t, n.GetChildren(), 2, "children should only be created once")
	})
}

func TestVirtualLossRaceConditions(t *testing.T) {
	t.Run("concurrent apply and undo leave visits and virtual loss balanced", func(t *testing.T) {
		n := NewRoot()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n.ApplyVirtualLoss()
				n.Update(0.5)
				n.UndoVirtualLoss()
			}()
		}
		wg.Wait()

		require.Equal(t, int32(50), n.GetVisits())
		require.Equal(t, int32(0), n.virtualLoss, "every applied virtual loss should be undone")
	})
}

func TestUCTSelectChild(t *testing.T) {
	t.Run("prefers the child with higher prior when unvisited", func(t *testing.T) {
		n := NewRoot()
		eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
		var count int64
		_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
		require.NoError(t, err)

		selected := n.UCTSelectChild(board.Black)

		require.NotNil(t, selected)
		require.Equal(t, 0.6, selected.GetScore(), "should favor the higher-prior, unvisited child")
	})

	t.Run("applying virtual loss to the favored child lets the other be selected next", func(t *testing.T) {
		n := NewRoot()
		eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
		var count int64
		_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
		require.NoError(t, err)

		first := n.UCTSelectChild(board.Black)
		first.ApplyVirtualLoss()

		second := n.UCTSelectChild(board.Black)

		require.NotSame(t, first, second, "virtual loss should diversify concurrent selection")
	})

	t.Run("returns nil for a childless node", func(t *testing.T) {
		n := NewRoot()
		require.Nil(t, n.UCTSelectChild(board.Black))
	})

	t.Run("never selects an invalidated child even with the highest prior", func(t *testing.T) {
		n := NewRoot()
		eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
		var count int64
		_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
		require.NoError(t, err)

		for _, c := range n.GetChildren() {
			if c.GetScore() == 0.6 {
				c.Invalidate()
			}
		}

		selected := n.UCTSelectChild(board.Black)

		require.NotNil(t, selected)
		require.Equal(t, 0.4, selected.GetScore(), "the invalidated higher-prior child must be skipped")
	})

	t.Run("returns nil when every child is invalidated", func(t *testing.T) {
		n := NewRoot()
		eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
		var count int64
		_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
		require.NoError(t, err)

		for _, c := range n.GetChildren() {
			c.Invalidate()
		}

		require.Nil(t, n.UCTSelectChild(board.Black))
	})

	t.Run("virtual loss diversifies selection for White too", func(t *testing.T) {
		n := NewRoot()
		eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
		var count int64
		_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
		require.NoError(t, err)

		first := n.UCTSelectChild(board.White)
		first.ApplyVirtualLoss()

		second := n.UCTSelectChild(board.White)

		require.NotSame(t, first, second,
			"virtual loss must count as a loss from White's perspective too, not make the node look more attractive")
	})
}

func TestDirichletNoise(t *testing.T) {
	n := NewRoot()
	eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
	var count int64
	_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
	require.NoError(t, err)

	before := make([]float64, 0, 2)
	for _, c := range n.GetChildren() {
		before = append(before, c.GetScore())
	}

	rng := rand.New(rand.NewSource(42))
	n.DirichletNoise(rng, 0.03, 0.25)

	total := 0.0
	for i, c := range n.GetChildren() {
		total += c.GetScore()
		require.NotEqual(t, before[i], c.GetScore(), "noise should perturb the prior")
	}
	require.InDelta(t, 1.0, total, 1e-9, "priors should still sum to 1 after blending in noise")
}

func TestFindNewRoot(t *testing.T) {
	n := NewRoot()
	eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
	var count int64
	_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
	require.NoError(t, err)

	move := n.GetChildren()[0].GetMove()
	child := n.FindNewRoot(move)

	require.NotNil(t, child)
	require.Equal(t, move, child.GetMove())
	require.Nil(t, child.parent, "rerooted node should be detached from its old parent")

	require.Nil(t, n.FindNewRoot(board.Point{X: 99, Y: 99}), "nonexistent move should yield no new root")
}

func TestCountNodes(t *testing.T) {
	n := NewRoot()
	eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
	var count int64
	_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
	require.NoError(t, err)

	require.Equal(t, 3, n.CountNodes(), "root plus its two children")
}

func TestInvalidateAndGetBestRootChild(t *testing.T) {
	n := NewRoot()
	eval := &stubEvaluator{policy: twoMovePolicy(), value: 0.5}
	var count int64
	_, _, err := n.CreateChildren(context.Background(), eval, nil, &count, 0)
	require.NoError(t, err)
	n.SortChildren(board.Black)

	first := n.GetFirstChild()
	first.Invalidate()

	best := n.GetBestRootChild()
	require.NotSame(t, first, best, "invalidated child should be skipped")
}
