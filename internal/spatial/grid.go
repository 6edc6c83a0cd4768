package spatial

import (
	"errors"
	"fmt"
	"tilepath/internal/core"
)

var (
	// ErrInvalidDimensions is returned when a grid is created with fewer than one column or row
	ErrInvalidDimensions = errors.New("grid dimensions must be larger than zero")
	// ErrNotEnoughValues is returned when the source slice cannot populate every cell
	ErrNotEnoughValues = errors.New("not enough values to populate grid")
	// ErrOutOfRange is returned by the checked accessors
	ErrOutOfRange = errors.New("grid index out of range")
)

// Grid is a dense, row-major 2D container of cells
type Grid[T any] struct {
	cols  int
	rows  int
	cells []T
}

var _ core.Grid[int] = (*Grid[int])(nil)

// NewGrid creates a grid with every cell set to the zero value
func NewGrid[T any](cols, rows int) (*Grid[T], error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, cols, rows)
	}

	return &Grid[T]{
		cols:  cols,
		rows:  rows,
		cells: make([]T, cols*rows),
	}, nil
}

// NewGridFrom creates a grid and copies values into it row by row
func NewGridFrom[T any](cols, rows int, values []T) (*Grid[T], error) {
	g, err := NewGrid[T](cols, rows)
	if err != nil {
		return nil, err
	}

	if len(values) < len(g.cells) {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrNotEnoughValues, len(g.cells), len(values))
	}

	copy(g.cells, values)
	return g, nil
}

// Cols returns the number of columns
func (g *Grid[T]) Cols() int { return g.cols }

// Rows returns the number of rows
func (g *Grid[T]) Rows() int { return g.rows }

// Count returns the total number of cells
func (g *Grid[T]) Count() int { return len(g.cells) }

// InBounds reports whether p addresses a cell of the grid
func (g *Grid[T]) InBounds(p core.Point2) bool {
	return p.X >= 0 && p.X < g.cols && p.Y >= 0 && p.Y < g.rows
}

// At returns the cell at p. It panics if p is out of range.
func (g *Grid[T]) At(p core.Point2) T {
	return g.cells[g.index(p.X, p.Y)]
}

// Set stores v at p. It panics if p is out of range.
func (g *Grid[T]) Set(p core.Point2, v T) {
	g.cells[g.index(p.X, p.Y)] = v
}

// Cell returns a pointer to the cell at p for in-place updates
func (g *Grid[T]) Cell(p core.Point2) *T {
	return &g.cells[g.index(p.X, p.Y)]
}

// Get returns the cell at (x, y) or ErrOutOfRange
func (g *Grid[T]) Get(x, y int) (T, error) {
	if !g.InBounds(core.Point2{X: x, Y: y}) {
		var zero T
		return zero, fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrOutOfRange, x, y, g.cols, g.rows)
	}
	return g.cells[y*g.cols+x], nil
}

// Put stores v at (x, y) or returns ErrOutOfRange
func (g *Grid[T]) Put(x, y int, v T) error {
	if !g.InBounds(core.Point2{X: x, Y: y}) {
		return fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrOutOfRange, x, y, g.cols, g.rows)
	}
	g.cells[y*g.cols+x] = v
	return nil
}

// Fill assigns every cell the value returned by fn
func (g *Grid[T]) Fill(fn func(x, y int) T) {
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			g.cells[y*g.cols+x] = fn(x, y)
		}
	}
}

// Clear resets every cell to the zero value without reallocating
func (g *Grid[T]) Clear() {
	clear(g.cells)
}

// Clone returns an independent copy of the grid
func (g *Grid[T]) Clone() *Grid[T] {
	cells := make([]T, len(g.cells))
	copy(cells, g.cells)
	return &Grid[T]{cols: g.cols, rows: g.rows, cells: cells}
}

// IndexOf returns the first cell, in row-major order, for which eq returns true
func (g *Grid[T]) IndexOf(eq func(T) bool) (core.Point2, bool) {
	for i, v := range g.cells {
		if eq(v) {
			return core.Point2{X: i % g.cols, Y: i / g.cols}, true
		}
	}
	return core.Point2{}, false
}

// index keeps x-overflow from silently wrapping into the next row
func (g *Grid[T]) index(x, y int) int {
	if x < 0 || x >= g.cols || y < 0 || y >= g.rows {
		panic(fmt.Sprintf("spatial: index (%d, %d) out of range for %dx%d grid", x, y, g.cols, g.rows))
	}
	return y*g.cols + x
}
