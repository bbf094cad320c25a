package geospatial

import "math"

// Grid snaps coordinates to a regular lon/lat lattice.
type Grid struct {
	Resolution float64
}

// Index returns the lattice index nearest to v.
func (g Grid) Index(v float64) int {
	return int(math.Round(v / g.Resolution))
}

// Value returns the coordinate of lattice index i, rounded to the
// resolution's decimal places so cell centres format cleanly.
func (g Grid) Value(i int) float64 {
	scale := math.Pow(10, g.decimals())
	return math.Round(float64(i)*g.Resolution*scale) / scale
}

func (g Grid) decimals() float64 {
	d := 0.0
	for r := g.Resolution; r < 1 && d < 9; r *= 10 {
		d++
	}
	return d
}

// Spiral walks integer lattice offsets in an outward square spiral:
// (0,0) (1,0) (1,1) (0,1) (-1,1) (-1,0) (-1,-1) (0,-1) (1,-1) (2,-1) ...
// After k*k steps with k even it has covered x, y in [1-k/2, k/2].
type Spiral struct {
	x, y   int
	dx, dy int
}

// NewSpiral returns a spiral positioned at the origin.
func NewSpiral() *Spiral {
	return &Spiral{dx: 0, dy: -1}
}

// Next returns the current offset, then turns if on a corner and advances.
func (s *Spiral) Next() (x, y int) {
	x, y = s.x, s.y
	if s.x == s.y || (s.x < 0 && s.x == -s.y) || (s.x > 0 && s.x == 1-s.y) {
		s.dx, s.dy = -s.dy, s.dx
	}
	s.x += s.dx
	s.y += s.dy
	return x, y
}
