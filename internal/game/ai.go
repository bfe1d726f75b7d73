package game

import (
	"sort"

	"github.com/anabelle/gridsnake/internal/prng"
)

// AIPlayerID is the reserved identity of the server-controlled snake. It
// participates whenever at least one human is connected.
const AIPlayerID = "ai-snake"

// AIName is the display name recorded in the AI's stats row.
const AIName = "AI"

// AIDirection chooses the AI snake's direction for the upcoming tick. It is
// a pure function of the state: the local generator is seeded from
// rngSeed + sequence and never touches the state's own seed.
//
// Decision priority: occasional seeded "mistake", then food seeking, then
// continue-straight, then any valid direction, and finally the current
// direction when every move is fatal.
func AIDirection(s *State) Direction {
	ai := s.SnakeByID(AIPlayerID)
	if ai == nil {
		return Right
	}
	local := prng.New(s.RNGSeed + uint32(s.Sequence))
	current := ai.Direction

	// Mistake model: longer snakes fumble more, capped at 15%.
	mistakeProbability := 0.05 + 0.002*float64(len(ai.Body))
	if mistakeProbability > 0.15 {
		mistakeProbability = 0.15
	}
	if local.Float64() < mistakeProbability {
		if local.Float64() < 0.5 {
			d := Directions[local.Intn(len(Directions))]
			if !(d == current.Opposite() && len(ai.Body) > 1) {
				return d
			}
		}
	}

	valid := validDirections(s, ai)

	if len(s.Food) > 0 {
		if d, ok := seekFood(s, ai, valid); ok {
			return d
		}
	} else {
		for _, d := range valid {
			if d == current {
				return d
			}
		}
		if len(valid) > 0 {
			byName := append([]Direction{}, valid...)
			sort.Slice(byName, func(i, j int) bool { return byName[i].String() < byName[j].String() })
			return byName[local.Intn(len(byName))]
		}
	}

	if len(valid) > 0 {
		return valid[0]
	}
	// Boxed in: keep heading and die this tick.
	return current
}

// validDirections filters the enumeration order down to moves that hit
// neither wall (never, under wrap) nor snake, treating the AI as self.
func validDirections(s *State, ai *Snake) []Direction {
	valid := make([]Direction, 0, len(Directions))
	for _, d := range Directions {
		next := AdvanceHead(ai.Head(), d, s.GridSize)
		if CollidesWithWall(next, s.GridSize) {
			continue
		}
		if CollidesWithSnake(next, s.Snakes, ai.ID) {
			continue
		}
		valid = append(valid, d)
	}
	return valid
}

// seekFood targets the closest food by wrap-aware Manhattan distance and
// returns the first valid direction from the preference order: the
// larger-magnitude axis first, ties horizontal before vertical, then the
// remaining directions in enumeration order.
func seekFood(s *State, ai *Snake, valid []Direction) (Direction, bool) {
	head := ai.Head()
	foods := append([]Food{}, s.Food...)
	sort.SliceStable(foods, func(i, j int) bool {
		return manhattan(head, foods[i].Position, s.GridSize) < manhattan(head, foods[j].Position, s.GridSize)
	})
	target := foods[0].Position

	dx := wrapDelta(head.X, target.X, s.GridSize.Width)
	dy := wrapDelta(head.Y, target.Y, s.GridSize.Height)

	var horizontal, vertical Direction
	hasH, hasV := dx != 0, dy != 0
	if dx < 0 {
		horizontal = Left
	} else if dx > 0 {
		horizontal = Right
	}
	if dy < 0 {
		vertical = Up
	} else if dy > 0 {
		vertical = Down
	}

	prefs := make([]Direction, 0, 4)
	if abs(dx) >= abs(dy) {
		if hasH {
			prefs = append(prefs, horizontal)
		}
		if hasV {
			prefs = append(prefs, vertical)
		}
	} else {
		if hasV {
			prefs = append(prefs, vertical)
		}
		if hasH {
			prefs = append(prefs, horizontal)
		}
	}
	for _, d := range Directions {
		if !containsDirection(prefs, d) {
			prefs = append(prefs, d)
		}
	}

	for _, d := range prefs {
		if containsDirection(valid, d) {
			return d, true
		}
	}
	return Right, false
}

// wrapDelta returns the shortest signed per-axis difference from a to b on
// the torus, normalised into [-size/2, size/2).
func wrapDelta(a, b, size int) int {
	d := wrap(b-a, size)
	if d >= (size+1)/2 {
		d -= size
	}
	return d
}

// manhattan is the wrap-aware Manhattan distance between two cells.
func manhattan(a, b Point, grid GridSize) int {
	return abs(wrapDelta(a.X, b.X, grid.Width)) + abs(wrapDelta(a.Y, b.Y, grid.Height))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func containsDirection(list []Direction, d Direction) bool {
	for _, x := range list {
		if x == d {
			return true
		}
	}
	return false
}
