package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStateHandicap(t *testing.T) {
	t.Run("zero handicap starts with Black to move and an empty board", func(t *testing.T) {
		s := NewState(9, 6.5, 0, nil)

		require.Equal(t, Black, s.ToMove())
		require.Equal(t, 0, s.MoveNumber())
		for y := 0; y < 9; y++ {
			for x := 0; x < 9; x++ {
				require.Equal(t, Empty, s.At(Point{X: x, Y: y}), "board should start empty")
			}
		}
	})

	t.Run("nonzero handicap places Black stones and hands the move to White", func(t *testing.T) {
		s := NewState(9, 0.5, 2, nil)

		require.Equal(t, White, s.ToMove())
		require.Equal(t, 2, s.Handicap())

		placed := 0
		for y := 0; y < 9; y++ {
			for x := 0; x < 9; x++ {
				if s.At(Point{X: x, Y: y}) == Black {
					placed++
				}
			}
		}
		require.Equal(t, 2, placed, "should place exactly handicap stones")
	})
}

func TestPlayMoveCaptures(t *testing.T) {
	t.Run("surrounding a single stone captures it", func(t *testing.T) {
		s := NewState(5, 0, 0, nil)
		// Surround White at (2,2) with Black on all four sides.
		require.NoError(t, s.PlayMove(Point{X: 2, Y: 1})) // B
		require.NoError(t, s.PlayMove(Point{X: 2, Y: 2})) // W
		require.NoError(t, s.PlayMove(Point{X: 1, Y: 2})) // B
		require.NoError(t, s.PlayMove(Point{X: 4, Y: 4})) // W elsewhere
		require.NoError(t, s.PlayMove(Point{X: 3, Y: 2})) // B
		require.NoError(t, s.PlayMove(Point{X: 0, Y: 0})) // W elsewhere
		require.NoError(t, s.PlayMove(Point{X: 2, Y: 3})) // B captures

		require.Equal(t, Empty, s.At(Point{X: 2, Y: 2}), "captured stone should be removed")
	})

	t.Run("playing into a fully surrounded point without capture is suicide", func(t *testing.T) {
		s := NewState(5, 0, 0, nil)
		require.NoError(t, s.PlayMove(Point{X: 2, Y: 1})) // B
		require.NoError(t, s.PlayMove(Point{X: 0, Y: 0})) // W elsewhere
		require.NoError(t, s.PlayMove(Point{X: 1, Y: 2})) // B
		require.NoError(t, s.PlayMove(Point{X: 0, Y: 1})) // W elsewhere
		require.NoError(t, s.PlayMove(Point{X: 3, Y: 2})) // B
		require.NoError(t, s.PlayMove(Point{X: 0, Y: 2})) // W elsewhere
		require.NoError(t, s.PlayMove(Point{X: 2, Y: 3})) // B

		err := s.PlayMove(Point{X: 2, Y: 2}) // W suicide

		require.ErrorIs(t, err, ErrIllegalMove)
	})
}

func TestPlayMoveSimpleKo(t *testing.T) {
	s := NewState(5, 0, 0, nil)
	// Build a single-stone ko: White at (2,1) surrounded on three sides by
	// Black, with White stones walling off (2,2)'s other three neighbors so
	// that Black's capturing stone also ends up with exactly one liberty.
	moves := []Point{
		{X: 2, Y: 0}, // B
		{X: 2, Y: 1}, // W — will be captured
		{X: 1, Y: 1}, // B
		{X: 1, Y: 2}, // W
		{X: 3, Y: 1}, // B
		{X: 3, Y: 2}, // W
		{X: 0, Y: 0}, // B filler
		{X: 2, Y: 3}, // W
	}
	for _, p := range moves {
		require.NoError(t, s.PlayMove(p))
	}

	// Black captures the lone White stone at (2,1) by playing (2,2).
	require.NoError(t, s.PlayMove(Point{X: 2, Y: 2}))
	require.Equal(t, Empty, s.At(Point{X: 2, Y: 1}), "captured stone should be removed")
	require.Equal(t, Black, s.At(Point{X: 2, Y: 2}))

	// White's immediate recapture at (2,1) should be illegal (simple ko).
	err := s.PlayMove(Point{X: 2, Y: 1})
	require.ErrorIs(t, err, ErrIllegalMove)
}

func TestSuperko(t *testing.T) {
	t.Run("no superko on a fresh board", func(t *testing.T) {
		s := NewState(5, 0, 0, nil)
		require.NoError(t, s.PlayMove(Point{X: 0, Y: 0}))
		require.False(t, s.Superko())
	})

	t.Run("passing twice returns to the starting position, which superko reports", func(t *testing.T) {
		s := NewState(5, 0, 0, nil)
		s.PlayPass()
		s.PlayPass()
		require.True(t, s.Superko())
		require.Equal(t, 2, s.Passes())
	})
}

func TestFinalScore(t *testing.T) {
	t.Run("empty board score is negative komi", func(t *testing.T) {
		s := NewState(5, 6.5, 0, nil)
		require.Equal(t, -6.5, s.FinalScore())
	})

	t.Run("territory surrounded by one color only is credited to that color", func(t *testing.T) {
		s := NewState(5, 0, 0, nil)
		// Black stones enclosing the whole left column as territory.
		for _, p := range []Point{{1, 0}, {1, 1}, {1, 2}, {1, 3}, {1, 4}} {
			require.NoError(t, s.PlayMove(Point{X: p.X, Y: p.Y}))
			s.PlayPass() // White passes each time, keeping the board simple
		}
		score := s.FinalScore()
		require.Greater(t, score, 0.0, "Black should be ahead, owning the left column as territory plus its wall")
	})
}

func TestMoveToText(t *testing.T) {
	require.Equal(t, "pass", MoveToText(Pass, 19))
	require.Equal(t, "resign", MoveToText(Resign, 19))
	require.Equal(t, "A19", MoveToText(Point{X: 0, Y: 0}, 19))
	require.Equal(t, "T1", MoveToText(Point{X: 18, Y: 18}, 19))
}

func TestClone(t *testing.T) {
	s := NewState(9, 6.5, 0, nil)
	require.NoError(t, s.PlayMove(Point{X: 3, Y: 3}))

	clone := s.Clone()
	require.NoError(t, clone.PlayMove(Point{X: 4, Y: 4}))

	require.Equal(t, Empty, s.At(Point{X: 4, Y: 4}), "mutating the clone must not affect the original")
	require.Equal(t, Black, s.At(Point{X: 3, Y: 3}), "original move should survive on both")
}
