package pathfinding

import (
	"bytes"
	"errors"
	"log"
	"math"
	"strings"
	"testing"
	"tilepath/internal/core"
	"tilepath/internal/spatial"
)

func TestAStarGoalIsStart(t *testing.T) {
	pf := straightPathfinder(t, openGrid(t, 3, 3))

	path, found := pf.CalculatePath(pt(1, 1), pt(1, 1))
	if !found {
		t.Fatalf("Expected start == goal to succeed")
	}
	if path == nil || len(path) != 0 {
		t.Fatalf("Expected empty non-nil path, got %v", path)
	}
}

func TestAStarOneCellAway(t *testing.T) {
	straight := straightPathfinder(t, openGrid(t, 3, 3))
	diagonal := diagonalPathfinder(t, openGrid(t, 3, 3))

	orthogonal := []core.Point2{pt(1, 0), pt(2, 1), pt(1, 2), pt(0, 1)}
	for _, goal := range orthogonal {
		expectPath(t, straight, pt(1, 1), goal, []core.Point2{goal})
		expectPath(t, diagonal, pt(1, 1), goal, []core.Point2{goal})
	}

	for _, goal := range []core.Point2{pt(2, 0), pt(2, 2), pt(0, 2), pt(0, 0)} {
		expectPath(t, diagonal, pt(1, 1), goal, []core.Point2{goal})
	}
}

func TestAStarStraightMultipleCells(t *testing.T) {
	pf := straightPathfinder(t, openGrid(t, 3, 3))

	expectPath(t, pf, pt(0, 0), pt(2, 0), []core.Point2{pt(1, 0), pt(2, 0)})
	expectPath(t, pf, pt(0, 0), pt(0, 2), []core.Point2{pt(0, 1), pt(0, 2)})

	// Two equal solutions; east is visited before south so it wins the tie
	expectPath(t, pf, pt(0, 0), pt(1, 1), []core.Point2{pt(1, 0), pt(1, 1)})

	path, found := pf.CalculatePath(pt(0, 0), pt(2, 2))
	if !found || len(path) != 4 {
		t.Fatalf("Expected a 4 step path, got %v (%t)", path, found)
	}
	checkAdjacent(t, pt(0, 0), path, false)
}

func TestAStarWeightedCells(t *testing.T) {
	grid := createGrid(t, [][]float64{
		{1, 6, 1},
		{1, 3, 1},
		{1, 1, 1},
	})
	pf := straightPathfinder(t, grid)

	expectPath(t, pf, pt(0, 0), pt(1, 1), []core.Point2{pt(0, 1), pt(1, 1)})
	expectPath(t, pf, pt(0, 0), pt(2, 2), []core.Point2{pt(0, 1), pt(0, 2), pt(1, 2), pt(2, 2)})

	// Through the middle and along the bottom both cost 6; the top row costs 7
	path, found := pf.CalculatePath(pt(0, 0), pt(2, 0))
	if !found {
		t.Fatalf("Expected a path to (2, 0)")
	}
	if cost := pathCost(grid, pt(0, 0), path); cost != 6 {
		t.Fatalf("Expected cost 6, got %.2f via %v", cost, path)
	}
}

func TestAStarDiagonalMultipleCells(t *testing.T) {
	pf := diagonalPathfinder(t, openGrid(t, 3, 3))

	expectPath(t, pf, pt(0, 0), pt(2, 0), []core.Point2{pt(1, 0), pt(2, 0)})
	expectPath(t, pf, pt(0, 0), pt(0, 2), []core.Point2{pt(0, 1), pt(0, 2)})
	expectPath(t, pf, pt(0, 0), pt(1, 1), []core.Point2{pt(1, 1)})
	expectPath(t, pf, pt(0, 0), pt(2, 2), []core.Point2{pt(1, 1), pt(2, 2)})
}

func TestAStarDiagonalMovement(t *testing.T) {
	grid := openGrid(t, 5, 5)
	pf := diagonalPathfinder(t, grid)

	diagonalPath, found := pf.CalculatePath(pt(0, 0), pt(4, 4))
	if !found {
		t.Fatalf("Failed to find diagonal path")
	}

	pf.SetAllowDiagonal(false)
	pf.SetEstimatedCost(Estimate[float64](ManhattanDistance, 1))
	orthogonalPath, found := pf.CalculatePath(pt(0, 0), pt(4, 4))
	if !found {
		t.Fatalf("Failed to find orthogonal path")
	}

	if len(diagonalPath) != 4 || len(orthogonalPath) != 8 {
		t.Fatalf("Expected 4 diagonal and 8 orthogonal steps, got %d and %d",
			len(diagonalPath), len(orthogonalPath))
	}
	checkAdjacent(t, pt(0, 0), orthogonalPath, false)
	checkAdjacent(t, pt(0, 0), diagonalPath, true)
}

func TestAStarPassesPreviousCellToCost(t *testing.T) {
	grid := openGrid(t, 3, 3)
	pf, err := NewGridPathfinder[float64](
		grid,
		WithTurnPenalty(WeightedCost(identity), 5),
		Estimate[float64](OctileDistance, 1),
	)
	if err != nil {
		t.Fatalf("Failed to create pathfinder: %v", err)
	}

	expectPath(t, pf, pt(0, 0), pt(2, 0), []core.Point2{pt(1, 0), pt(2, 0)})
	expectPath(t, pf, pt(0, 0), pt(0, 2), []core.Point2{pt(0, 1), pt(0, 2)})

	path, found := pf.CalculatePath(pt(0, 0), pt(2, 2))
	if !found || len(path) != 4 {
		t.Fatalf("Expected a 4 step path, got %v (%t)", path, found)
	}
	if turns := countTurns(pt(0, 0), path); turns != 1 {
		t.Fatalf("Expensive turns should leave exactly one corner, got %d in %v", turns, path)
	}
}

func TestAStarImpossiblePath(t *testing.T) {
	grid := createGrid(t, [][]float64{
		{1, 1, 1},
		{0, 0, 1},
		{1, 0, 1},
	})
	pf := diagonalPathfinder(t, grid)

	path, found := pf.CalculatePath(pt(2, 0), pt(0, 2))
	if found || path != nil {
		t.Fatalf("Expected no path, got %v", path)
	}

	stats := pf.LastStats()
	if stats.Found || stats.Truncated {
		t.Fatalf("Expected an exhausted search, got %+v", stats)
	}
	// Every reachable cell is closed exactly once
	if stats.Expanded != 5 {
		t.Fatalf("Expected 5 expanded cells, got %d", stats.Expanded)
	}
}

func TestAStarWallAvoidance(t *testing.T) {
	inf := math.Inf(1)
	grid := createGrid(t, [][]float64{
		{1, inf, 1},
		{1, inf, 1},
		{1, 1, 1},
	})
	pf := straightPathfinder(t, grid)

	path, found := pf.CalculatePath(pt(0, 0), pt(2, 0))
	if !found {
		t.Fatalf("Failed to find path around wall")
	}

	for i, p := range path {
		if math.IsInf(grid.At(p), 1) {
			t.Fatalf("Path point %d (%v) is inside the wall", i, p)
		}
	}
	want := []core.Point2{pt(0, 1), pt(0, 2), pt(1, 2), pt(2, 2), pt(2, 1), pt(2, 0)}
	expectEqualPath(t, want, path)
}

func TestAStarReuseBetweenSearches(t *testing.T) {
	inf := math.Inf(1)
	grid := createGrid(t, [][]float64{
		{1, 1, 1, 1, 1},
		{1, inf, inf, inf, 1},
		{1, 1, 2, 1, 1},
		{inf, inf, 1, inf, inf},
		{1, 1, 1, 1, 1},
	})
	reused := diagonalPathfinder(t, grid)

	queries := [][2]core.Point2{
		{pt(0, 0), pt(4, 4)},
		{pt(4, 0), pt(0, 4)},
		{pt(0, 0), pt(2, 1)}, // a wall cell, unreachable
		{pt(2, 4), pt(2, 0)},
		{pt(0, 0), pt(4, 4)},
	}

	for _, q := range queries {
		fresh := diagonalPathfinder(t, grid)
		want, wantFound := fresh.CalculatePath(q[0], q[1])
		got, gotFound := reused.CalculatePath(q[0], q[1])

		if wantFound != gotFound {
			t.Fatalf("%v -> %v: reused found=%t, fresh found=%t", q[0], q[1], gotFound, wantFound)
		}
		expectEqualPath(t, want, got)
	}
}

func TestAStarReopensClosedCell(t *testing.T) {
	// S A D
	// B C G
	grid := openGrid(t, 3, 2)
	edges := map[[2]core.Point2]float64{
		{pt(1, 0), pt(1, 1)}: 5,   // A -> C
		{pt(1, 1), pt(2, 1)}: 10,  // C -> G
		{pt(2, 0), pt(2, 1)}: 100, // D -> G
	}
	cost := func(_ core.Grid[float64], from, to, _ core.Point2) float64 {
		if c, ok := edges[[2]core.Point2{from, to}]; ok {
			return c
		}
		return 1
	}
	// Overestimates at B so C is first closed through the expensive A route
	estimate := func(_ core.Grid[float64], p, _ core.Point2) float64 {
		if p == pt(0, 1) {
			return 10
		}
		return 0
	}

	var logs bytes.Buffer
	pf, err := NewGridPathfinder[float64](grid, cost, estimate, WithLogger(log.New(&logs, "", 0)))
	if err != nil {
		t.Fatalf("Failed to create pathfinder: %v", err)
	}

	expectPath(t, pf, pt(0, 0), pt(2, 1), []core.Point2{pt(0, 1), pt(1, 1), pt(2, 1)})

	if got := pf.LastStats().Reopened; got != 1 {
		t.Fatalf("Expected 1 reopened cell, got %d", got)
	}
	if !strings.Contains(logs.String(), "reopening") {
		t.Fatalf("Expected a reopen warning, got %q", logs.String())
	}
}

func TestAStarMaxExpansions(t *testing.T) {
	pf, err := NewGridPathfinder[float64](
		openGrid(t, 10, 10),
		UniformCost[float64](),
		Estimate[float64](ManhattanDistance, 1),
		WithMaxExpansions(3),
	)
	if err != nil {
		t.Fatalf("Failed to create pathfinder: %v", err)
	}

	if path, found := pf.CalculatePath(pt(0, 0), pt(9, 9)); found || path != nil {
		t.Fatalf("Expected truncated search to fail, got %v", path)
	}
	if stats := pf.LastStats(); !stats.Truncated || stats.Expanded != 3 {
		t.Fatalf("Expected truncation after 3 expansions, got %+v", stats)
	}

	pf.SetMaxExpansions(0)
	if _, found := pf.CalculatePath(pt(0, 0), pt(9, 9)); !found {
		t.Fatalf("Expected unbounded search to succeed")
	}
}

func TestAStarObserver(t *testing.T) {
	observer := &recordingObserver{}
	pf, err := NewGridPathfinder[float64](
		openGrid(t, 4, 4),
		UniformCost[float64](),
		Estimate[float64](ManhattanDistance, 1),
		WithObserver(observer),
	)
	if err != nil {
		t.Fatalf("Failed to create pathfinder: %v", err)
	}

	pf.CalculatePath(pt(0, 0), pt(3, 3))
	pf.CalculatePath(pt(1, 1), pt(1, 1))

	if len(observer.stats) != 2 {
		t.Fatalf("Expected 2 observed searches, got %d", len(observer.stats))
	}
	first := observer.stats[0]
	if !first.Found || first.PathLength != 6 || first.Expanded == 0 || first.Pushed < first.Expanded {
		t.Fatalf("Unexpected stats %+v", first)
	}
	if second := observer.stats[1]; !second.Found || second.PathLength != 0 || second.Expanded != 0 {
		t.Fatalf("Unexpected trivial search stats %+v", second)
	}
}

func TestAStarConstructorValidation(t *testing.T) {
	grid := openGrid(t, 2, 2)
	cost := UniformCost[float64]()
	estimate := Estimate[float64](ManhattanDistance, 1)

	if _, err := NewGridPathfinder[float64](nil, cost, estimate); !errors.Is(err, ErrNilGrid) {
		t.Fatalf("Expected ErrNilGrid, got %v", err)
	}
	var typedNil *spatial.Grid[float64]
	if _, err := NewGridPathfinder[float64](typedNil, cost, estimate); !errors.Is(err, ErrNilGrid) {
		t.Fatalf("Expected ErrNilGrid for a nil *spatial.Grid, got %v", err)
	}
	if _, err := NewGridPathfinder[float64](grid, nil, estimate); !errors.Is(err, ErrNilActualCost) {
		t.Fatalf("Expected ErrNilActualCost, got %v", err)
	}
	if _, err := NewGridPathfinder[float64](grid, cost, nil); !errors.Is(err, ErrNilEstimatedCost) {
		t.Fatalf("Expected ErrNilEstimatedCost, got %v", err)
	}

	pf, err := NewGridPathfinder[float64](grid, cost, estimate, WithDiagonalAdjacency(true))
	if err != nil {
		t.Fatalf("Failed to create pathfinder: %v", err)
	}
	if !pf.AllowDiagonal() || pf.Grid() != core.Grid[float64](grid) {
		t.Fatalf("Options not applied")
	}
	if want := 2*2 + 2*2; pf.frontier.Capacity() != want {
		t.Fatalf("Expected frontier capacity %d, got %d", want, pf.frontier.Capacity())
	}
}

func TestAStarOutOfRangeStartPanics(t *testing.T) {
	pf := straightPathfinder(t, openGrid(t, 3, 3))

	defer func() {
		if recover() == nil {
			t.Fatalf("Expected panic for out of range start")
		}
	}()
	pf.CalculatePath(pt(5, 5), pt(0, 0))
}

func TestAStarHeuristics(t *testing.T) {
	grid := openGrid(t, 6, 6)

	heuristics := map[string]HeuristicFunc{
		"Euclidean": EuclideanDistance,
		"Manhattan": ManhattanDistance,
		"Chebyshev": ChebyshevDistance,
		"Octile":    OctileDistance,
	}

	for name, heuristic := range heuristics {
		t.Run(name, func(t *testing.T) {
			pf, err := NewGridPathfinder[float64](
				grid,
				UniformCost[float64](),
				Estimate[float64](heuristic, 1),
				WithDiagonalAdjacency(true),
			)
			if err != nil {
				t.Fatalf("Failed to create pathfinder: %v", err)
			}

			path, found := pf.CalculatePath(pt(0, 0), pt(5, 3))
			if !found {
				t.Fatalf("Failed to find path with %s heuristic", name)
			}
			checkAdjacent(t, pt(0, 0), path, true)

			// Manhattan overestimates once diagonal steps exist, so only the others are held to the optimum
			if name == "Manhattan" {
				return
			}
			want := 3*math.Sqrt2 + 2
			if cost := pathCost(grid, pt(0, 0), path); math.Abs(cost-want) > 1e-9 {
				t.Fatalf("Expected optimal cost %.3f with %s heuristic, got %.3f", want, name, cost)
			}
		})
	}
}

func TestHeuristicByName(t *testing.T) {
	for _, name := range []string{"manhattan", "euclidean", "chebyshev", "diagonal", "octile"} {
		if _, err := HeuristicByName(name); err != nil {
			t.Fatalf("Expected heuristic %q: %v", name, err)
		}
	}
	if _, err := HeuristicByName("bogus"); !errors.Is(err, ErrUnknownHeuristic) {
		t.Fatalf("Expected ErrUnknownHeuristic, got %v", err)
	}

	if got := OctileDistance(pt(0, 0), pt(3, 1)); math.Abs(got-(2+math.Sqrt2)) > 1e-9 {
		t.Fatalf("Unexpected octile distance %f", got)
	}
	if got := ChebyshevDistance(pt(0, 0), pt(3, 1)); got != 3 {
		t.Fatalf("Unexpected chebyshev distance %f", got)
	}
}

// Helper functions

type recordingObserver struct {
	stats []SearchStats
}

func (r *recordingObserver) ObserveSearch(stats SearchStats) {
	r.stats = append(r.stats, stats)
}

func pt(x, y int) core.Point2 { return core.Point2{X: x, Y: y} }

func identity(w float64) float64 { return w }

func createGrid(t *testing.T, rows [][]float64) *spatial.Grid[float64] {
	t.Helper()
	var values []float64
	for _, row := range rows {
		values = append(values, row...)
	}
	grid, err := spatial.NewGridFrom(len(rows[0]), len(rows), values)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}
	return grid
}

func openGrid(t *testing.T, cols, rows int) *spatial.Grid[float64] {
	t.Helper()
	grid, err := spatial.NewGrid[float64](cols, rows)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}
	grid.Fill(func(x, y int) float64 { return 1 })
	return grid
}

func straightPathfinder(t *testing.T, grid *spatial.Grid[float64]) *GridPathfinder[float64] {
	t.Helper()
	pf, err := NewGridPathfinder[float64](grid, WeightedCost(identity), Estimate[float64](ManhattanDistance, 1))
	if err != nil {
		t.Fatalf("Failed to create pathfinder: %v", err)
	}
	return pf
}

func diagonalPathfinder(t *testing.T, grid *spatial.Grid[float64]) *GridPathfinder[float64] {
	t.Helper()
	pf, err := NewGridPathfinder[float64](
		grid,
		WeightedCost(identity),
		Estimate[float64](OctileDistance, 1),
		WithDiagonalAdjacency(true),
	)
	if err != nil {
		t.Fatalf("Failed to create pathfinder: %v", err)
	}
	return pf
}

func expectPath(t *testing.T, pf *GridPathfinder[float64], start, goal core.Point2, want []core.Point2) {
	t.Helper()
	got, found := pf.CalculatePath(start, goal)
	if !found {
		t.Fatalf("%v -> %v: expected a path", start, goal)
	}
	expectEqualPath(t, want, got)
}

func expectEqualPath(t *testing.T, want, got []core.Point2) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("Expected path %v, got %v", want, got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("Expected path %v, got %v", want, got)
		}
	}
}

func checkAdjacent(t *testing.T, start core.Point2, path []core.Point2, diagonal bool) {
	t.Helper()
	prev := start
	for i, p := range path {
		d := p.Sub(prev)
		dx, dy := abs(d.X), abs(d.Y)
		ok := dx+dy == 1 || (diagonal && dx == 1 && dy == 1)
		if !ok {
			t.Fatalf("Step %d from %v to %v is not adjacent", i, prev, p)
		}
		prev = p
	}
}

func countTurns(start core.Point2, path []core.Point2) int {
	turns := 0
	prev := start
	var dir core.Point2
	for i, p := range path {
		d := p.Sub(prev)
		if i > 0 && d != dir {
			turns++
		}
		dir = d
		prev = p
	}
	return turns
}

func pathCost(grid *spatial.Grid[float64], start core.Point2, path []core.Point2) float64 {
	total := 0.0
	prev := start
	for _, p := range path {
		total += core.Distance(prev, p) * grid.At(p)
		prev = p
	}
	return total
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
