package spatial

import (
	"errors"
	"testing"
	"tilepath/internal/core"
)

func TestGridCreate(t *testing.T) {
	g, err := NewGrid[int](4, 3)
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}

	if g.Cols() != 4 || g.Rows() != 3 {
		t.Fatalf("Expected 4x3 grid, got %dx%d", g.Cols(), g.Rows())
	}
	if g.Count() != 12 {
		t.Fatalf("Expected 12 cells, got %d", g.Count())
	}

	for _, dims := range [][2]int{{0, 3}, {3, 0}, {-1, -1}} {
		if _, err := NewGrid[int](dims[0], dims[1]); !errors.Is(err, ErrInvalidDimensions) {
			t.Fatalf("Expected ErrInvalidDimensions for %v, got %v", dims, err)
		}
	}
}

func TestGridFromValues(t *testing.T) {
	g, err := NewGridFrom(3, 2, []int{
		1, 2, 3,
		4, 5, 6,
	})
	if err != nil {
		t.Fatalf("Failed to create grid: %v", err)
	}

	if got := g.At(core.Point2{X: 2, Y: 0}); got != 3 {
		t.Fatalf("Expected 3 at (2, 0), got %d", got)
	}
	if got := g.At(core.Point2{X: 0, Y: 1}); got != 4 {
		t.Fatalf("Expected 4 at (0, 1), got %d", got)
	}

	if _, err := NewGridFrom(3, 2, []int{1, 2, 3}); !errors.Is(err, ErrNotEnoughValues) {
		t.Fatalf("Expected ErrNotEnoughValues, got %v", err)
	}
}

func TestGridCheckedAccess(t *testing.T) {
	g, _ := NewGrid[string](2, 2)

	if err := g.Put(1, 1, "x"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	v, err := g.Get(1, 1)
	if err != nil || v != "x" {
		t.Fatalf("Expected x, got %q (%v)", v, err)
	}

	if _, err := g.Get(2, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Expected ErrOutOfRange, got %v", err)
	}
	if err := g.Put(0, -1, "y"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Expected ErrOutOfRange, got %v", err)
	}
}

func TestGridAtPanicsOutOfRange(t *testing.T) {
	g, _ := NewGrid[int](3, 3)

	defer func() {
		if recover() == nil {
			t.Fatalf("Expected panic for column overflow")
		}
	}()

	// (3, 0) would alias (0, 1) in the backing slice without the bounds check
	g.At(core.Point2{X: 3, Y: 0})
}

func TestGridFillClearClone(t *testing.T) {
	g, _ := NewGrid[int](3, 3)
	g.Fill(func(x, y int) int { return x + y*10 })

	if got := g.At(core.Point2{X: 2, Y: 1}); got != 12 {
		t.Fatalf("Expected 12, got %d", got)
	}

	c := g.Clone()
	g.Clear()

	if got := g.At(core.Point2{X: 2, Y: 1}); got != 0 {
		t.Fatalf("Expected cleared cell, got %d", got)
	}
	if got := c.At(core.Point2{X: 2, Y: 1}); got != 12 {
		t.Fatalf("Clone should be unaffected by Clear, got %d", got)
	}

	p, ok := c.IndexOf(func(v int) bool { return v == 21 })
	if !ok || p != (core.Point2{X: 1, Y: 2}) {
		t.Fatalf("Expected (1, 2), got %v (%t)", p, ok)
	}
	if _, ok := c.IndexOf(func(v int) bool { return v < 0 }); ok {
		t.Fatalf("Expected no match")
	}
}

func TestGridCellPointer(t *testing.T) {
	g, _ := NewGrid[int](2, 2)
	*g.Cell(core.Point2{X: 1, Y: 0}) = 7

	if got := g.At(core.Point2{X: 1, Y: 0}); got != 7 {
		t.Fatalf("Expected 7, got %d", got)
	}
	if !core.InBounds[int](g, core.Point2{X: 1, Y: 1}) || core.InBounds[int](g, core.Point2{X: 2, Y: 1}) {
		t.Fatalf("InBounds disagrees with grid size")
	}
}
