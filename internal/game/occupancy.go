package game

import "github.com/anabelle/gridsnake/internal/prng"

// Occupancy is an exact cell-occupancy index over the torus, rebuilt from a
// snapshot wherever a free-cell search or spawn decision is made. The grid is
// small enough that an exact set beats a proximity hash.
type Occupancy map[Point]struct{}

// OccupiedCells enumerates every occupied cell of the state in a fixed order:
// all snake segments (snake order, head to tail), then food positions, then
// grid power-up positions. The order is part of the deterministic contract.
func OccupiedCells(s *State) []Point {
	cells := make([]Point, 0, len(s.Food)+len(s.PowerUps))
	for _, sn := range s.Snakes {
		cells = append(cells, sn.Body...)
	}
	for _, f := range s.Food {
		cells = append(cells, f.Position)
	}
	for _, p := range s.PowerUps {
		cells = append(cells, p.Position)
	}
	return cells
}

// NewOccupancy builds an index from a list of occupied cells.
func NewOccupancy(cells []Point) Occupancy {
	occ := make(Occupancy, len(cells))
	for _, c := range cells {
		occ[c] = struct{}{}
	}
	return occ
}

// Taken reports whether the cell is occupied.
func (o Occupancy) Taken(p Point) bool {
	_, ok := o[p]
	return ok
}

// Add marks a cell occupied.
func (o Occupancy) Add(p Point) {
	o[p] = struct{}{}
}

// Remove marks a cell free.
func (o Occupancy) Remove(p Point) {
	delete(o, p)
}

// RandomFreeCell searches for a uniformly random unoccupied cell, giving up
// after W·H rejection attempts. Each attempt draws X then Y. Returns ok=false
// when the search is exhausted (effectively: the grid is full).
func RandomFreeCell(rng *prng.Mulberry32, grid GridSize, occ Occupancy) (Point, bool) {
	for i := 0; i < grid.Cells(); i++ {
		p := Point{X: rng.Intn(grid.Width), Y: rng.Intn(grid.Height)}
		if !occ.Taken(p) {
			return p, true
		}
	}
	return Point{}, false
}
