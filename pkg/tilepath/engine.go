package tilepath

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"tilepath/internal/core"
	"tilepath/internal/pathfinding"
	"tilepath/internal/spatial"
)

// Point is a grid coordinate
type Point = core.Point2

// FlowField is a cost-to-goal field over a snapshot of the terrain
type FlowField = pathfinding.FlowField[float64]

// ErrOutOfBounds is returned for coordinates outside the terrain
var ErrOutOfBounds = errors.New("point outside terrain")

// Wall is the weight of an impassable cell
var Wall = math.Inf(1)

// Engine answers path queries over a weighted terrain grid.
// Each cell holds the cost multiplier for stepping into it; zero, negative and +Inf
// weights are impassable. All methods are safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	terrain    *spatial.Grid[float64]
	pathfinder *pathfinding.GridPathfinder[float64]
	config     Config

	searches   int
	pathsFound int
}

// Config holds configuration for the engine
type Config struct {
	AllowDiagonal  bool
	Heuristic      string  // name accepted by pathfinding.HeuristicByName
	HeuristicScale float64 // multiplier on the heuristic, normally the cheapest cell weight; 0 means 1
	TurnPenalty    float64 // cost multiplier for steps that change direction; values <= 1 disable it
	MaxExpansions  int     // 0 means unbounded
	Logger         *log.Logger
	Observer       pathfinding.SearchObserver
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		AllowDiagonal:  false,
		Heuristic:      "manhattan",
		HeuristicScale: 1,
	}
}

// NewEngine creates an engine over terrain. The engine owns terrain from here on.
func NewEngine(terrain *spatial.Grid[float64], config *Config) (*Engine, error) {
	if terrain == nil {
		return nil, pathfinding.ErrNilGrid
	}
	if config == nil {
		config = DefaultConfig()
	}

	e := &Engine{terrain: terrain, config: *config}
	if e.config.Heuristic == "" {
		e.config.Heuristic = "manhattan"
	}
	if e.config.HeuristicScale <= 0 {
		e.config.HeuristicScale = 1
	}

	heuristic, err := pathfinding.HeuristicByName(e.config.Heuristic)
	if err != nil {
		return nil, err
	}

	options := []pathfinding.Option{
		pathfinding.WithDiagonalAdjacency(e.config.AllowDiagonal),
		pathfinding.WithMaxExpansions(e.config.MaxExpansions),
		pathfinding.WithLogger(e.config.Logger),
	}
	if e.config.Observer != nil {
		options = append(options, pathfinding.WithObserver(e.config.Observer))
	}

	pf, err := pathfinding.NewGridPathfinder[float64](
		terrain,
		e.actualCost(),
		pathfinding.Estimate[float64](heuristic, e.config.HeuristicScale),
		options...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pathfinder: %w", err)
	}
	e.pathfinder = pf

	return e, nil
}

func (e *Engine) actualCost() pathfinding.ActualCostFunc[float64] {
	cost := pathfinding.WeightedCost(func(w float64) float64 { return w })
	if e.config.TurnPenalty > 1 {
		cost = pathfinding.WithTurnPenalty(cost, e.config.TurnPenalty)
	}
	return cost
}

// Pathfinding

// Result is the outcome of a single search
type Result struct {
	Path  []Point // excludes start, ends with goal
	Found bool
	Cost  float64 // total step cost of Path, +Inf when not found
	Stats pathfinding.SearchStats
}

// Search finds the cheapest path from start to goal and reports its cost and
// search statistics together
func (e *Engine) Search(start, goal Point) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.terrain.InBounds(start) {
		return Result{}, fmt.Errorf("start %v: %w", start, ErrOutOfBounds)
	}
	if !e.terrain.InBounds(goal) {
		return Result{}, fmt.Errorf("goal %v: %w", goal, ErrOutOfBounds)
	}

	path, found := e.pathfinder.CalculatePath(start, goal)
	e.searches++

	result := Result{Path: path, Found: found, Cost: math.Inf(1), Stats: e.pathfinder.LastStats()}
	if found {
		e.pathsFound++
		result.Cost = e.pathCost(start, path)
	}
	return result, nil
}

// FindPath finds the cheapest path from start to goal.
// The path excludes start and ends with goal; found is false when goal is unreachable
// or the expansion budget ran out.
func (e *Engine) FindPath(start, goal Point) ([]Point, bool, error) {
	result, err := e.Search(start, goal)
	if err != nil {
		return nil, false, err
	}
	return result.Path, result.Found, nil
}

// PathCost sums the step costs of path walked from start, using the engine's cost rules.
// It returns +Inf if any step is impassable.
func (e *Engine) PathCost(start Point, path []Point) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pathCost(start, path)
}

func (e *Engine) pathCost(start Point, path []Point) float64 {
	cost := e.actualCost()
	total := 0.0
	prev, current := start, start
	for _, next := range path {
		total += cost(e.terrain, current, next, prev)
		prev, current = current, next
	}
	return total
}

// FlowField builds a flow field toward goals over a snapshot of the current terrain.
// Later terrain changes do not affect it. Turn penalties do not apply to flow fields.
func (e *Engine) FlowField(goals ...Point) (*FlowField, error) {
	e.mu.Lock()
	snapshot := e.terrain.Clone()
	allowDiagonal := e.config.AllowDiagonal
	e.mu.Unlock()

	for _, g := range goals {
		if !snapshot.InBounds(g) {
			return nil, fmt.Errorf("goal %v: %w", g, ErrOutOfBounds)
		}
	}

	ff, err := pathfinding.NewFlowField[float64](
		snapshot,
		pathfinding.WeightedCost(func(w float64) float64 { return w }),
		allowDiagonal,
	)
	if err != nil {
		return nil, err
	}
	if err := ff.Generate(goals...); err != nil {
		return nil, err
	}
	return ff, nil
}

// SetHeuristic switches the heuristic by name
func (e *Engine) SetHeuristic(name string) error {
	heuristic, err := pathfinding.HeuristicByName(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.config.Heuristic = name
	e.pathfinder.SetEstimatedCost(pathfinding.Estimate[float64](heuristic, e.config.HeuristicScale))
	return nil
}

// SetAllowDiagonal sets whether diagonal movement is allowed
func (e *Engine) SetAllowDiagonal(allow bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config.AllowDiagonal = allow
	e.pathfinder.SetAllowDiagonal(allow)
}

// SetMaxExpansions sets the per-search expansion budget. Zero means unbounded.
func (e *Engine) SetMaxExpansions(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config.MaxExpansions = n
	e.pathfinder.SetMaxExpansions(n)
}

// Terrain

// Weight returns the weight of the cell at p
func (e *Engine) Weight(p Point) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, err := e.terrain.Get(p.X, p.Y)
	if err != nil {
		return 0, fmt.Errorf("cell %v: %w", p, ErrOutOfBounds)
	}
	return w, nil
}

// SetWeight changes the weight of the cell at p. Later searches see the new weight.
func (e *Engine) SetWeight(p Point, weight float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.terrain.Put(p.X, p.Y, weight); err != nil {
		return fmt.Errorf("cell %v: %w", p, ErrOutOfBounds)
	}
	return nil
}

// InBounds reports whether p lies on the terrain
func (e *Engine) InBounds(p Point) bool {
	return e.terrain.InBounds(p)
}

// Performance and Debugging

// Stats represents engine statistics
type Stats struct {
	Cols          int
	Rows          int
	AllowDiagonal bool
	Heuristic     string
	Searches      int
	PathsFound    int
	Last          pathfinding.SearchStats
}

// GetConfig returns a copy of the current engine configuration
func (e *Engine) GetConfig() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// Stats returns search statistics
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		Cols:          e.terrain.Cols(),
		Rows:          e.terrain.Rows(),
		AllowDiagonal: e.config.AllowDiagonal,
		Heuristic:     e.config.Heuristic,
		Searches:      e.searches,
		PathsFound:    e.pathsFound,
		Last:          e.pathfinder.LastStats(),
	}
}
