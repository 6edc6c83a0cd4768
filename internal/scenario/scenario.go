// Package scenario loads grid terrain and path queries from YAML files.
//
// A scenario maps each glyph of the map rows to a step weight. The weight "wall"
// makes a cell impassable.
//
//	name: courtyard
//	diagonal: true
//	heuristic: octile
//	legend: {".": 1, "~": 3, "#": wall}
//	map:
//	  - "..#.."
//	  - ".~#.."
//	  - "....."
//	queries:
//	  - {start: [0, 0], goal: [4, 0]}
package scenario

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"tilepath/internal/core"
	"tilepath/internal/pathfinding"
	"tilepath/internal/spatial"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is wrapped by every validation failure
var ErrInvalidScenario = errors.New("invalid scenario")

// Wall is the legend value for an impassable glyph
const Wall = "wall"

// Weight is a legend entry: a positive step weight, or +Inf for walls
type Weight float64

// UnmarshalYAML accepts a number or the literal "wall"
func (w *Weight) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: legend weight must be a scalar", node.Line)
	}
	if node.Value == Wall {
		*w = Weight(math.Inf(1))
		return nil
	}

	v, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return fmt.Errorf("line %d: legend weight %q is neither a number nor %q", node.Line, node.Value, Wall)
	}
	*w = Weight(v)
	return nil
}

// Query is a single start/goal pair
type Query struct {
	Start [2]int `yaml:"start"`
	Goal  [2]int `yaml:"goal"`
}

// StartPoint returns the start as a grid coordinate
func (q Query) StartPoint() core.Point2 { return core.Point2{X: q.Start[0], Y: q.Start[1]} }

// GoalPoint returns the goal as a grid coordinate
func (q Query) GoalPoint() core.Point2 { return core.Point2{X: q.Goal[0], Y: q.Goal[1]} }

// Scenario is a terrain map plus the queries to run against it
type Scenario struct {
	Name      string            `yaml:"name"`
	Diagonal  bool              `yaml:"diagonal"`
	Heuristic string            `yaml:"heuristic"`
	Legend    map[string]Weight `yaml:"legend"`
	Map       []string          `yaml:"map"`
	Queries   []Query           `yaml:"queries"`

	terrain *spatial.Grid[float64]
}

// Load reads and validates a scenario file
func Load(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("scenario: load %s: %w", filename, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", filename, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario document
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	if s.Heuristic == "" {
		s.Heuristic = "manhattan"
		if s.Diagonal {
			s.Heuristic = "octile"
		}
	}
	if _, err := pathfinding.HeuristicByName(s.Heuristic); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	terrain, err := s.buildTerrain()
	if err != nil {
		return nil, err
	}
	s.terrain = terrain

	for i, q := range s.Queries {
		if !terrain.InBounds(q.StartPoint()) || !terrain.InBounds(q.GoalPoint()) {
			return nil, fmt.Errorf("%w: query %d (%v -> %v) outside %dx%d map",
				ErrInvalidScenario, i, q.StartPoint(), q.GoalPoint(), terrain.Cols(), terrain.Rows())
		}
	}

	return &s, nil
}

// Terrain returns the weight grid built from the map rows
func (s *Scenario) Terrain() *spatial.Grid[float64] { return s.terrain }

// MinWeight returns the cheapest passable weight in the legend, used to scale the heuristic.
// It is 1 when the legend has no passable glyph.
func (s *Scenario) MinWeight() float64 {
	lowest := math.Inf(1)
	for _, w := range s.Legend {
		if v := float64(w); v > 0 && v < lowest {
			lowest = v
		}
	}
	if math.IsInf(lowest, 1) {
		return 1
	}
	return lowest
}

func (s *Scenario) buildTerrain() (*spatial.Grid[float64], error) {
	if len(s.Map) == 0 {
		return nil, fmt.Errorf("%w: map has no rows", ErrInvalidScenario)
	}

	weights := make(map[rune]float64, len(s.Legend))
	for glyph, w := range s.Legend {
		if utf8.RuneCountInString(glyph) != 1 {
			return nil, fmt.Errorf("%w: legend key %q must be a single character", ErrInvalidScenario, glyph)
		}
		r, _ := utf8.DecodeRuneInString(glyph)
		weights[r] = float64(w)
	}

	cols := utf8.RuneCountInString(s.Map[0])
	values := make([]float64, 0, cols*len(s.Map))

	for y, row := range s.Map {
		if n := utf8.RuneCountInString(row); n != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidScenario, y, n, cols)
		}
		x := 0
		for _, r := range row {
			w, ok := weights[r]
			if !ok {
				return nil, fmt.Errorf("%w: unknown glyph %q at (%d, %d)", ErrInvalidScenario, r, x, y)
			}
			values = append(values, w)
			x++
		}
	}

	grid, err := spatial.NewGridFrom(cols, len(s.Map), values)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return grid, nil
}
