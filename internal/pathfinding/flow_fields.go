package pathfinding

import (
	"errors"
	"fmt"
	"math"
	"tilepath/internal/core"
	"tilepath/internal/spatial"
)

// ErrNoGoals is returned when a flow field is generated without goals
var ErrNoGoals = errors.New("flow field needs at least one goal")

var (
	straightOffsets = [...]core.Point2{core.East, core.South, core.West, core.North}
	diagonalOffsets = [...]core.Point2{core.SouthEast, core.SouthWest, core.NorthWest, core.NorthEast}
)

// FlowField holds the cheapest cost from every cell of a grid to its nearest goal.
// It suits many agents heading for the same goals: one Generate call replaces a
// search per agent, after which each agent steps to its best neighbor with Next.
type FlowField[T any] struct {
	grid          core.Grid[T]
	cost          ActualCostFunc[T]
	allowDiagonal bool

	integration *spatial.Grid[float64]
	frontier    *PriorityQueue[core.Point2, float64]
	goals       []core.Point2
}

// NewFlowField creates an empty flow field over grid. cost is charged for each step
// an agent takes; prevFrom is always the cell the step starts from.
func NewFlowField[T any](grid core.Grid[T], cost ActualCostFunc[T], allowDiagonal bool) (*FlowField[T], error) {
	if isNilGrid(grid) {
		return nil, ErrNilGrid
	}
	if cost == nil {
		return nil, ErrNilActualCost
	}

	integration, err := spatial.NewGrid[float64](grid.Cols(), grid.Rows())
	if err != nil {
		return nil, err
	}
	integration.Fill(func(_, _ int) float64 { return math.Inf(1) })

	frontier, err := NewPriorityQueue[core.Point2, float64](2*grid.Cols() + 2*grid.Rows())
	if err != nil {
		return nil, err
	}

	return &FlowField[T]{
		grid:          grid,
		cost:          cost,
		allowDiagonal: allowDiagonal,
		integration:   integration,
		frontier:      frontier,
	}, nil
}

// Generate rebuilds the integration field for goals with Dijkstra's algorithm,
// growing outward from every goal at once
func (ff *FlowField[T]) Generate(goals ...core.Point2) error {
	if len(goals) == 0 {
		return ErrNoGoals
	}
	for _, g := range goals {
		if !core.InBounds(ff.grid, g) {
			return fmt.Errorf("flow field goal %v: %w", g, spatial.ErrOutOfRange)
		}
	}

	ff.goals = append(ff.goals[:0], goals...)
	ff.integration.Fill(func(_, _ int) float64 { return math.Inf(1) })
	ff.frontier.Clear()

	for _, g := range goals {
		if ff.integration.At(g) != 0 {
			ff.integration.Set(g, 0)
			ff.frontier.Add(g, 0)
		}
	}

	for !ff.frontier.IsEmpty() {
		current, _ := ff.frontier.Remove()
		value := ff.integration.At(current)

		ff.eachNeighbor(current, func(n core.Point2) {
			// Agents walk toward the goal, so charge the step from n into current
			step := ff.cost(ff.grid, n, current, n)
			if math.IsInf(step, 0) {
				return
			}

			old := ff.integration.At(n)
			if next := value + step; next < old {
				if !math.IsInf(old, 1) {
					ff.frontier.TryRemove(n)
				}
				ff.integration.Set(n, next)
				ff.frontier.Add(n, next)
			}
		})
	}

	return nil
}

// Goals returns the goals of the last Generate call
func (ff *FlowField[T]) Goals() []core.Point2 { return ff.goals }

// Integration returns the cost from p to the nearest goal. It is +Inf for cells
// that cannot reach a goal and for cells outside the grid.
func (ff *FlowField[T]) Integration(p core.Point2) float64 {
	if !core.InBounds(ff.grid, p) {
		return math.Inf(1)
	}
	return ff.integration.At(p)
}

// Next returns the neighbor an agent at p should step to. It reports false at a
// goal and where no goal can be reached.
func (ff *FlowField[T]) Next(p core.Point2) (core.Point2, bool) {
	here := ff.Integration(p)
	if here == 0 || math.IsInf(here, 1) {
		return p, false
	}

	best, bestCost := p, math.Inf(1)
	ff.eachNeighbor(p, func(n core.Point2) {
		total := ff.cost(ff.grid, p, n, p) + ff.integration.At(n)
		if total < bestCost {
			best, bestCost = n, total
		}
	})
	return best, !math.IsInf(bestCost, 1)
}

// PathFrom follows the field from start to a goal, taking at most maxSteps steps
// (0 means the grid's cell count). The path excludes start.
func (ff *FlowField[T]) PathFrom(start core.Point2, maxSteps int) ([]core.Point2, bool) {
	if ff.Integration(start) == 0 {
		return []core.Point2{}, true
	}
	if maxSteps <= 0 {
		maxSteps = ff.integration.Count()
	}

	var path []core.Point2
	current := start
	for len(path) < maxSteps {
		next, ok := ff.Next(current)
		if !ok {
			return nil, false
		}
		path = append(path, next)
		if ff.integration.At(next) == 0 {
			return path, true
		}
		current = next
	}
	return nil, false
}

func (ff *FlowField[T]) eachNeighbor(p core.Point2, fn func(core.Point2)) {
	for _, offset := range straightOffsets {
		if n := p.Add(offset); core.InBounds(ff.grid, n) {
			fn(n)
		}
	}
	if !ff.allowDiagonal {
		return
	}
	for _, offset := range diagonalOffsets {
		if n := p.Add(offset); core.InBounds(ff.grid, n) {
			fn(n)
		}
	}
}
