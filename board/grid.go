package board

// grid is the raw stone layout, plus the group/liberty mechanics used by
// PlayMove. It mirrors the flood-fill capture approach in
// traveller42-michi-go/michi.go (itself a port of michi.py), reimplemented
// over a flat []Color slice with an explicit-stack flood fill instead of
// string splicing and regex
// contact tests — the same algorithm, idiomatic Go shape.
type grid struct {
	size  int
	cells []Color
}

func newGrid(size int) *grid {
	return &grid{size: size, cells: make([]Color, size*size)}
}

func (g *grid) clone() *grid {
	clone := &grid{size: g.size, cells: make([]Color, len(g.cells))}
	copy(clone.cells, g.cells)
	return clone
}

func (g *grid) inBounds(p Point) bool {
	return p.X >= 0 && p.X < g.size && p.Y >= 0 && p.Y < g.size
}

func (g *grid) at(p Point) Color {
	return g.cells[p.Y*g.size+p.X]
}

func (g *grid) set(p Point, c Color) {
	g.cells[p.Y*g.size+p.X] = c
}

func (g *grid) neighbors(p Point) []Point {
	cand := [4]Point{
		{X: p.X - 1, Y: p.Y},
		{X: p.X + 1, Y: p.Y},
		{X: p.X, Y: p.Y - 1},
		{X: p.X, Y: p.Y + 1},
	}
	out := make([]Point, 0, 4)
	for _, d := range cand {
		if g.inBounds(d) {
			out = append(out, d)
		}
	}
	return out
}

// group returns every point in the same connected group as p (all same
// color as p), via flood fill, and reports whether the group has any
// liberties (empty adjacent points).
func (g *grid) group(p Point) (points []Point, liberties bool) {
	color := g.at(p)
	seen := map[Point]bool{p: true}
	fringe := []Point{p}
	points = append(points, p)
	for len(fringe) > 0 {
		cur := fringe[len(fringe)-1]
		fringe = fringe[:len(fringe)-1]
		for _, d := range g.neighbors(cur) {
			if g.at(d) == Empty {
				liberties = true
				continue
			}
			if g.at(d) != color || seen[d] {
				continue
			}
			seen[d] = true
			points = append(points, d)
			fringe = append(fringe, d)
		}
	}
	return points, liberties
}

// removeGroup clears every point in points to Empty and returns how many
// stones were captured.
func (g *grid) removeGroup(points []Point) int {
	for _, p := range points {
		g.set(p, Empty)
	}
	return len(points)
}

// isSuicide reports whether playing color at p (already placed on the grid)
// leaves p's own group with no liberties.
func (g *grid) isSuicide(p Point) bool {
	_, liberties := g.group(p)
	return !liberties
}
