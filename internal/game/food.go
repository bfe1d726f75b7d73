package game

import "github.com/anabelle/gridsnake/internal/prng"

// SpawnFood places one food item of the given value at a random free cell.
// Returns ok=false when no free cell could be found; the caller skips the
// spawn for this tick and the state stays well-formed.
func SpawnFood(rng *prng.Mulberry32, grid GridSize, occ Occupancy, value int) (Food, bool) {
	cell, ok := RandomFreeCell(rng, grid, occ)
	if !ok {
		return Food{}, false
	}
	return Food{Position: cell, Value: value}, true
}
