package pathfinding

import (
	"math"
	"tilepath/internal/core"
)

// UniformCost charges the Euclidean length of each step: 1 straight, sqrt 2 diagonal
func UniformCost[T any]() ActualCostFunc[T] {
	return func(_ core.Grid[T], from, to, _ core.Point2) float64 {
		return core.Distance(from, to)
	}
}

// WeightedCost charges the step length times the weight of the destination cell.
// A weight that is not positive, or is +Inf, makes the cell impassable.
func WeightedCost[T any](weight func(cell T) float64) ActualCostFunc[T] {
	return func(grid core.Grid[T], from, to, _ core.Point2) float64 {
		w := weight(grid.At(to))
		if w <= 0 || math.IsInf(w, 1) || math.IsNaN(w) {
			return math.Inf(1)
		}
		return core.Distance(from, to) * w
	}
}

// WithTurnPenalty multiplies the cost of any step that changes direction by factor.
// The first step out of the start cell never turns.
func WithTurnPenalty[T any](base ActualCostFunc[T], factor float64) ActualCostFunc[T] {
	return func(grid core.Grid[T], from, to, prevFrom core.Point2) float64 {
		cost := base(grid, from, to, prevFrom)
		if prevFrom != from && from.Sub(prevFrom) != to.Sub(from) {
			return cost * factor
		}
		return cost
	}
}
