package tilepath

import (
	"tilepath/internal/core"
	"tilepath/internal/spatial"
)

// Terrain utility functions

// NewTerrain creates a terrain of the given size with every cell set to weight
func NewTerrain(cols, rows int, weight float64) (*spatial.Grid[float64], error) {
	terrain, err := spatial.NewGrid[float64](cols, rows)
	if err != nil {
		return nil, err
	}
	terrain.Fill(func(_, _ int) float64 { return weight })
	return terrain, nil
}

// TerrainFromRows builds a terrain from rows of weights. Every row must have the same length.
func TerrainFromRows(rows [][]float64) (*spatial.Grid[float64], error) {
	if len(rows) == 0 {
		return nil, spatial.ErrInvalidDimensions
	}

	cols := len(rows[0])
	values := make([]float64, 0, cols*len(rows))
	for _, row := range rows {
		if len(row) != cols {
			return nil, spatial.ErrNotEnoughValues
		}
		values = append(values, row...)
	}
	return spatial.NewGridFrom(cols, len(rows), values)
}

// Path utility functions

// CompressPath keeps only the waypoints where a path walked from start changes
// direction, plus the final cell
func CompressPath(start Point, path []Point) []Point {
	if len(path) < 2 {
		return path
	}

	compressed := make([]Point, 0, len(path))
	prev := start
	for i := 0; i < len(path)-1; i++ {
		if path[i].Sub(prev) != path[i+1].Sub(path[i]) {
			compressed = append(compressed, path[i])
		}
		prev = path[i]
	}

	return append(compressed, path[len(path)-1])
}

// PathLength returns the Euclidean length of a path walked from start
func PathLength(start Point, path []Point) float64 {
	length := 0.0
	prev := start
	for _, p := range path {
		length += core.Distance(prev, p)
		prev = p
	}
	return length
}
