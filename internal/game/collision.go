package game

// CollidesWithWall reports whether a point left the grid. Always false under
// toroidal wrap; kept in the API so grid-edge behaviour stays covered by
// tests and the AI's valid-direction filter reads the same as the rules.
func CollidesWithWall(p Point, grid GridSize) bool {
	return p.X < 0 || p.X >= grid.Width || p.Y < 0 || p.Y >= grid.Height
}

// CollidesWithSnake reports whether p lands on any segment of any listed
// snake. The head of the snake identified by selfID is skipped: a snake does
// not collide with its own moving head.
func CollidesWithSnake(p Point, snakes []*Snake, selfID string) bool {
	for _, sn := range snakes {
		for i, seg := range sn.Body {
			if i == 0 && sn.ID == selfID {
				continue
			}
			if seg == p {
				return true
			}
		}
	}
	return false
}

// FoodAt returns the index of the food item at p, or -1.
func FoodAt(p Point, food []Food) int {
	for i, f := range food {
		if f.Position == p {
			return i
		}
	}
	return -1
}

// PowerUpAt returns the index of the grid power-up at p, or -1.
func PowerUpAt(p Point, ups []PowerUp) int {
	for i, u := range ups {
		if u.Position == p {
			return i
		}
	}
	return -1
}
