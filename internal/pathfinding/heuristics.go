package pathfinding

import (
	"errors"
	"fmt"
	"math"
	"tilepath/internal/core"
)

// ErrUnknownHeuristic is returned by HeuristicByName for names it does not know
var ErrUnknownHeuristic = errors.New("unknown heuristic")

// HeuristicFunc estimates the distance between two cells
type HeuristicFunc func(a, b core.Point2) float64

// ManhattanDistance calculates Manhattan distance between two cells
func ManhattanDistance(a, b core.Point2) float64 {
	return math.Abs(float64(a.X-b.X)) + math.Abs(float64(a.Y-b.Y))
}

// EuclideanDistance calculates Euclidean distance between two cells
func EuclideanDistance(a, b core.Point2) float64 {
	return core.Distance(a, b)
}

// ChebyshevDistance calculates diagonal distance where a diagonal step costs the same as a straight one
func ChebyshevDistance(a, b core.Point2) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return math.Max(dx, dy)
}

// OctileDistance calculates octile distance (8-directional movement, diagonal step costs sqrt 2)
func OctileDistance(a, b core.Point2) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return (dx + dy) + (math.Sqrt2-2)*math.Min(dx, dy)
}

// HeuristicByName looks up one of the built-in heuristics
func HeuristicByName(name string) (HeuristicFunc, error) {
	switch name {
	case "manhattan":
		return ManhattanDistance, nil
	case "euclidean":
		return EuclideanDistance, nil
	case "chebyshev", "diagonal":
		return ChebyshevDistance, nil
	case "octile":
		return OctileDistance, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownHeuristic, name)
}

// Estimate adapts a distance heuristic to an EstimatedCostFunc, scaled by the
// cheapest per-step cost of the terrain so it stays admissible
func Estimate[T any](h HeuristicFunc, scale float64) EstimatedCostFunc[T] {
	return func(_ core.Grid[T], position, goal core.Point2) float64 {
		return scale * h(position, goal)
	}
}
