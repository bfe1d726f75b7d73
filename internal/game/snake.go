package game

import (
	"regexp"

	"github.com/anabelle/gridsnake/internal/prng"
)

// playerColors is the spawn palette used when a player has no valid
// preferred colour.
var playerColors = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12", "#9b59b6",
	"#1abc9c", "#e67e22", "#e91e63", "#00bcd4", "#8bc34a",
	"#ff5722", "#607d8b", "#795548", "#673ab7", "#03a9f4",
	"#4caf50", "#ffeb3b", "#ff9800", "#f44336", "#9c27b0",
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidColor reports whether c is a syntactically valid #RRGGBB colour.
func ValidColor(c string) bool {
	return hexColorPattern.MatchString(c)
}

// colorForID hashes the id into the palette with a 32-bit rolling hash, so a
// player without a preferred colour always spawns with the same one.
func colorForID(id string) string {
	var h uint32
	for _, b := range []byte(id) {
		h = h*31 + uint32(b)
	}
	return playerColors[h%uint32(len(playerColors))]
}

// NewSnake spawns a one-segment snake at a random free cell with a random
// initial direction. A valid preferred colour is adopted verbatim; otherwise
// the id is hashed into the palette. When no free cell exists the snake is
// placed at (0,0) facing RIGHT as a sentinel; the caller logs the condition.
// Draw order: free-cell search first, then one draw for the direction.
func NewSnake(id string, grid GridSize, occ Occupancy, rng *prng.Mulberry32, preferredColor string) (*Snake, bool) {
	color := preferredColor
	if !ValidColor(color) {
		color = colorForID(id)
	}
	cell, ok := RandomFreeCell(rng, grid, occ)
	if !ok {
		return &Snake{
			ID:        id,
			Color:     color,
			Body:      []Point{{X: 0, Y: 0}},
			Direction: Right,
			Effects:   []ActiveEffect{},
		}, false
	}
	dir := Directions[rng.Intn(len(Directions))]
	return &Snake{
		ID:        id,
		Color:     color,
		Body:      []Point{cell},
		Direction: dir,
		Effects:   []ActiveEffect{},
	}, true
}

// AdvanceHead returns the next head cell for a step in the given direction,
// wrapping both coordinates into the grid.
func AdvanceHead(p Point, d Direction, grid GridSize) Point {
	dx, dy := d.Vector()
	return Point{
		X: wrap(p.X+dx, grid.Width),
		Y: wrap(p.Y+dy, grid.Height),
	}
}

// wrap maps v into [0, size) on the non-negative side.
func wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}

// MoveTo advances the body: prepend the new head, drop the tail.
func (s *Snake) MoveTo(head Point) {
	s.Body = append([]Point{head}, s.Body[:len(s.Body)-1]...)
}

// Grow appends a duplicate of the tail segment. The duplicate separates on
// the next move.
func (s *Snake) Grow() {
	s.Body = append(s.Body, s.Tail())
}
