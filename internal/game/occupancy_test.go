package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anabelle/gridsnake/internal/prng"
)

func TestOccupiedCellsFixedOrder(t *testing.T) {
	st := NewState(testGrid, 0)
	st.Snakes = []*Snake{
		{ID: "a", Body: []Point{{1, 1}, {1, 2}}},
		{ID: "b", Body: []Point{{3, 3}}},
	}
	st.Food = []Food{{Position: Point{5, 5}, Value: 1}}
	st.PowerUps = []PowerUp{{ID: "powerup-0", Position: Point{7, 7}}}

	want := []Point{{1, 1}, {1, 2}, {3, 3}, {5, 5}, {7, 7}}
	assert.Equal(t, want, OccupiedCells(st))
}

func TestRandomFreeCellAvoidsOccupied(t *testing.T) {
	occ := NewOccupancy([]Point{{0, 0}, {1, 0}, {2, 0}})
	rng := prng.New(42)
	for i := 0; i < 50; i++ {
		p, ok := RandomFreeCell(rng, testGrid, occ)
		require.True(t, ok)
		assert.False(t, occ.Taken(p))
	}
}

func TestRandomFreeCellGivesUpWhenFull(t *testing.T) {
	grid := GridSize{Width: 3, Height: 3}
	cells := make([]Point, 0, 9)
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			cells = append(cells, Point{x, y})
		}
	}
	_, ok := RandomFreeCell(prng.New(9), grid, NewOccupancy(cells))
	assert.False(t, ok)
}

func TestOccupancyAddRemove(t *testing.T) {
	occ := NewOccupancy(nil)
	p := Point{4, 4}
	assert.False(t, occ.Taken(p))
	occ.Add(p)
	assert.True(t, occ.Taken(p))
	occ.Remove(p)
	assert.False(t, occ.Taken(p))
}
