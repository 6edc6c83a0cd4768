package pathfinding

import (
	"errors"
	"io"
	"log"
	"math"
	"reflect"
	"tilepath/internal/core"
	"tilepath/internal/spatial"
	"time"
)

var (
	// ErrNilGrid is returned when a pathfinder is created without a terrain grid
	ErrNilGrid = errors.New("pathfinder grid cannot be nil")
	// ErrNilActualCost is returned when a pathfinder is created without an actual cost function
	ErrNilActualCost = errors.New("pathfinder actual cost function cannot be nil")
	// ErrNilEstimatedCost is returned when a pathfinder is created without a heuristic
	ErrNilEstimatedCost = errors.New("pathfinder estimated cost function cannot be nil")
)

// ActualCostFunc returns the cost of stepping from one cell to an adjacent cell.
// prevFrom is the cell the search reached from through; it equals from at the start cell.
// Returning +Inf marks the step as impassable.
type ActualCostFunc[T any] func(grid core.Grid[T], from, to, prevFrom core.Point2) float64

// EstimatedCostFunc estimates the remaining cost from position to goal
type EstimatedCostFunc[T any] func(grid core.Grid[T], position, goal core.Point2) float64

// SearchObserver receives the statistics of every completed search
type SearchObserver interface {
	ObserveSearch(stats SearchStats)
}

// SearchStats describes a single CalculatePath call
type SearchStats struct {
	Start      core.Point2
	Goal       core.Point2
	Expanded   int // cells closed
	Pushed     int // frontier insertions
	Reopened   int // closed cells that were reached again with a lower cost
	PathLength int
	Found      bool
	Truncated  bool // the expansion budget ran out before the search finished
	Duration   time.Duration
}

// Options configures a GridPathfinder
type Options struct {
	AllowDiagonal bool
	MaxExpansions int
	Logger        *log.Logger
	Observer      SearchObserver
}

// Option is a function that modifies Options
type Option func(*Options)

// WithDiagonalAdjacency lets the search step to the four diagonal neighbors
func WithDiagonalAdjacency(allow bool) Option {
	return func(o *Options) { o.AllowDiagonal = allow }
}

// WithMaxExpansions caps the number of cells closed per search. Zero means unbounded.
func WithMaxExpansions(n int) Option {
	return func(o *Options) { o.MaxExpansions = n }
}

// WithLogger sets the logger used for search warnings
func WithLogger(logger *log.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithObserver reports the statistics of every search to observer
func WithObserver(observer SearchObserver) Option {
	return func(o *Options) { o.Observer = observer }
}

type cellState uint8

const (
	cellDefault cellState = iota
	cellOpen
	cellClosed
)

// pathCell is the per-cell A* bookkeeping
type pathCell struct {
	state    cellState
	cameFrom core.Point2
	moveCost float64 // g: cost from the start to this cell
}

// GridPathfinder runs A* searches over a dense 2D grid.
//
// The frontier and the per-cell search state are allocated once and reused by every
// CalculatePath call. A GridPathfinder is not safe for concurrent or reentrant use;
// cost functions must not call back into the pathfinder that invoked them.
type GridPathfinder[T any] struct {
	grid          core.Grid[T]
	actualCost    ActualCostFunc[T]
	estimatedCost EstimatedCostFunc[T]
	allowDiagonal bool
	maxExpansions int
	logger        *log.Logger
	observer      SearchObserver

	frontier *PriorityQueue[core.Point2, float64]
	cells    *spatial.Grid[pathCell]
	stats    SearchStats
}

// NewGridPathfinder creates a pathfinder over grid
func NewGridPathfinder[T any](
	grid core.Grid[T],
	actualCost ActualCostFunc[T],
	estimatedCost EstimatedCostFunc[T],
	options ...Option,
) (*GridPathfinder[T], error) {
	if isNilGrid(grid) {
		return nil, ErrNilGrid
	}
	if actualCost == nil {
		return nil, ErrNilActualCost
	}
	if estimatedCost == nil {
		return nil, ErrNilEstimatedCost
	}

	opts := Options{}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	cells, err := spatial.NewGrid[pathCell](grid.Cols(), grid.Rows())
	if err != nil {
		return nil, err
	}

	// Rough guess at a typical frontier size; the queue grows past it when needed
	frontier, err := NewPriorityQueue[core.Point2, float64](2*grid.Cols() + 2*grid.Rows())
	if err != nil {
		return nil, err
	}

	return &GridPathfinder[T]{
		grid:          grid,
		actualCost:    actualCost,
		estimatedCost: estimatedCost,
		allowDiagonal: opts.AllowDiagonal,
		maxExpansions: opts.MaxExpansions,
		logger:        opts.Logger,
		observer:      opts.Observer,
		frontier:      frontier,
		cells:         cells,
	}, nil
}

// isNilGrid also catches a nil pointer stored in a non-nil interface
func isNilGrid[T any](grid core.Grid[T]) bool {
	if grid == nil {
		return true
	}
	v := reflect.ValueOf(grid)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Grid returns the terrain grid the pathfinder searches
func (pf *GridPathfinder[T]) Grid() core.Grid[T] { return pf.grid }

// AllowDiagonal reports whether diagonal steps are considered
func (pf *GridPathfinder[T]) AllowDiagonal() bool { return pf.allowDiagonal }

// SetAllowDiagonal sets whether diagonal movement is allowed
func (pf *GridPathfinder[T]) SetAllowDiagonal(allow bool) {
	pf.allowDiagonal = allow
}

// SetMaxExpansions sets the per-search expansion budget. Zero means unbounded.
func (pf *GridPathfinder[T]) SetMaxExpansions(n int) {
	pf.maxExpansions = n
}

// SetActualCost replaces the actual cost function. A nil function is ignored.
func (pf *GridPathfinder[T]) SetActualCost(fn ActualCostFunc[T]) {
	if fn != nil {
		pf.actualCost = fn
	}
}

// SetEstimatedCost replaces the heuristic. A nil function is ignored.
func (pf *GridPathfinder[T]) SetEstimatedCost(fn EstimatedCostFunc[T]) {
	if fn != nil {
		pf.estimatedCost = fn
	}
}

// LastStats returns the statistics of the most recent search
func (pf *GridPathfinder[T]) LastStats() SearchStats { return pf.stats }

// CalculatePath finds a path from start to goal.
//
// The returned path excludes start and ends with goal. It is empty, not nil, when
// start equals goal. When goal cannot be reached the result is nil, false.
//
// Cells equal in estimated total cost are expanded in frontier heap order, so the
// choice between equally good paths depends on insertion order. start and goal are
// not validated; an out-of-range start panics inside the grid.
func (pf *GridPathfinder[T]) CalculatePath(start, goal core.Point2) ([]core.Point2, bool) {
	began := time.Now()
	pf.stats = SearchStats{Start: start, Goal: goal}
	defer pf.report(began)

	pf.frontier.Clear()
	pf.cells.Clear()

	*pf.cells.Cell(start) = pathCell{state: cellOpen, cameFrom: start}
	pf.frontier.Add(start, 0)
	pf.stats.Pushed++

	for !pf.frontier.IsEmpty() {
		current, _ := pf.frontier.Remove()

		if current == goal {
			pf.stats.Found = true
			break
		}

		if pf.maxExpansions > 0 && pf.stats.Expanded >= pf.maxExpansions {
			pf.stats.Truncated = true
			break
		}

		pf.visitNeighbors(current, goal)
		pf.cells.Cell(current).state = cellClosed
		pf.stats.Expanded++
	}

	if !pf.stats.Found {
		return nil, false
	}

	path := pf.reconstructPath(start, goal)
	pf.stats.PathLength = len(path)
	return path, true
}

func (pf *GridPathfinder[T]) visitNeighbors(p, goal core.Point2) {
	cols, rows := pf.grid.Cols(), pf.grid.Rows()

	if p.X < cols-1 {
		pf.visitNeighbor(p, core.East, goal)
	}
	if p.Y < rows-1 {
		pf.visitNeighbor(p, core.South, goal)
	}
	if p.X > 0 {
		pf.visitNeighbor(p, core.West, goal)
	}
	if p.Y > 0 {
		pf.visitNeighbor(p, core.North, goal)
	}

	if !pf.allowDiagonal {
		return
	}

	if p.X < cols-1 && p.Y < rows-1 {
		pf.visitNeighbor(p, core.SouthEast, goal)
	}
	if p.X > 0 && p.Y < rows-1 {
		pf.visitNeighbor(p, core.SouthWest, goal)
	}
	if p.X > 0 && p.Y > 0 {
		pf.visitNeighbor(p, core.NorthWest, goal)
	}
	if p.X < cols-1 && p.Y > 0 {
		pf.visitNeighbor(p, core.NorthEast, goal)
	}
}

func (pf *GridPathfinder[T]) visitNeighbor(p, offset, goal core.Point2) {
	neighbor := p.Add(offset)
	from := pf.cells.At(p)

	moveCost := from.moveCost + pf.actualCost(pf.grid, p, neighbor, from.cameFrom)
	if math.IsInf(moveCost, 0) {
		return
	}

	cell := pf.cells.Cell(neighbor)

	if cell.state != cellDefault && moveCost < cell.moveCost {
		switch cell.state {
		case cellOpen:
			pf.frontier.TryRemove(neighbor)
		case cellClosed:
			// Only reachable when the heuristic overestimates
			pf.stats.Reopened++
			pf.logger.Printf("pathfinding: cheaper path to closed cell %v (%.3f < %.3f), reopening",
				neighbor, moveCost, cell.moveCost)
		}
		cell.state = cellDefault
	}

	if cell.state == cellDefault {
		cell.state = cellOpen
		cell.moveCost = moveCost
		cell.cameFrom = p

		pf.frontier.Add(neighbor, moveCost+pf.estimatedCost(pf.grid, neighbor, goal))
		pf.stats.Pushed++
	}
}

// reconstructPath follows cameFrom links from goal back to start
func (pf *GridPathfinder[T]) reconstructPath(start, goal core.Point2) []core.Point2 {
	length := 0
	for p := goal; p != start; p = pf.cells.At(p).cameFrom {
		length++
	}

	path := make([]core.Point2, length)
	for p, i := goal, length-1; p != start; p, i = pf.cells.At(p).cameFrom, i-1 {
		path[i] = p
	}
	return path
}

func (pf *GridPathfinder[T]) report(began time.Time) {
	pf.stats.Duration = time.Since(began)
	if pf.observer != nil {
		pf.observer.ObserveSearch(pf.stats)
	}
}
