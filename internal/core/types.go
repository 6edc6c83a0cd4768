package core

import (
	"fmt"
	"math"
)

// Point2 represents an integer cell coordinate on a 2D grid
type Point2 struct {
	X, Y int
}

// Add returns the component-wise sum of two points
func (p Point2) Add(o Point2) Point2 {
	return Point2{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns the component-wise difference of two points
func (p Point2) Sub(o Point2) Point2 {
	return Point2{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p Point2) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Distance returns the Euclidean distance between two cells
func Distance(a, b Point2) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Grid is the read-only view of a dense 2D cell container.
// At panics when p lies outside the grid.
type Grid[T any] interface {
	Cols() int
	Rows() int
	At(p Point2) T
}

// InBounds reports whether p addresses a cell of g
func InBounds[T any](g Grid[T], p Point2) bool {
	return p.X >= 0 && p.X < g.Cols() && p.Y >= 0 && p.Y < g.Rows()
}

// Direction offsets in the order the pathfinder visits them
var (
	East      = Point2{X: 1, Y: 0}
	South     = Point2{X: 0, Y: 1}
	West      = Point2{X: -1, Y: 0}
	North     = Point2{X: 0, Y: -1}
	SouthEast = Point2{X: 1, Y: 1}
	SouthWest = Point2{X: -1, Y: 1}
	NorthWest = Point2{X: -1, Y: -1}
	NorthEast = Point2{X: 1, Y: -1}
)
