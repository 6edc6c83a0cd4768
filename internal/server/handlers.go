package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"tilepath/pkg/tilepath"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 16

type pathRequest struct {
	Start [2]int `json:"start"`
	Goal  [2]int `json:"goal"`
}

type pathResponse struct {
	Found     bool     `json:"found"`
	Path      [][2]int `json:"path"`
	Waypoints [][2]int `json:"waypoints,omitempty"`
	Cost      *float64 `json:"cost,omitempty"`
	Expanded  int      `json:"expanded"`
	Truncated bool     `json:"truncated,omitempty"`
}

type flowRequest struct {
	Goals  [][2]int `json:"goals"`
	Starts [][2]int `json:"starts"`
}

type flowPath struct {
	Start [2]int   `json:"start"`
	Found bool     `json:"found"`
	Path  [][2]int `json:"path"`
	Cost  *float64 `json:"cost,omitempty"`
}

type cellRequest struct {
	Weight *float64 `json:"weight"`
	Wall   bool     `json:"wall"`
}

type cellResponse struct {
	X      int      `json:"x"`
	Y      int      `json:"y"`
	Weight *float64 `json:"weight,omitempty"`
	Wall   bool     `json:"wall"`
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *routerHandlers) handleFindPath(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}

	start := tilepath.Point{X: req.Start[0], Y: req.Start[1]}
	goal := tilepath.Point{X: req.Goal[0], Y: req.Goal[1]}

	result, err := h.engine.Search(start, goal)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := pathResponse{
		Found:     result.Found,
		Path:      toPairs(result.Path),
		Expanded:  result.Stats.Expanded,
		Truncated: result.Stats.Truncated,
	}
	if result.Found {
		resp.Cost = &result.Cost
		resp.Waypoints = toPairs(tilepath.CompressPath(start, result.Path))
	}

	writeJSON(w, resp)
}

func (h *routerHandlers) handleFlow(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(req.Goals) == 0 {
		writeError(w, "at least one goal is required", http.StatusBadRequest)
		return
	}

	ff, err := h.engine.FlowField(fromPairs(req.Goals)...)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	paths := make([]flowPath, 0, len(req.Starts))
	for _, start := range fromPairs(req.Starts) {
		fp := flowPath{Start: [2]int{start.X, start.Y}, Path: [][2]int{}}
		if path, found := ff.PathFrom(start, 0); found {
			cost := ff.Integration(start)
			fp.Found = true
			fp.Path = toPairs(path)
			fp.Cost = &cost
		}
		paths = append(paths, fp)
	}

	writeJSON(w, map[string]any{"paths": paths})
}

func (h *routerHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()
	writeJSON(w, map[string]any{
		"cols":          stats.Cols,
		"rows":          stats.Rows,
		"allowDiagonal": stats.AllowDiagonal,
		"heuristic":     stats.Heuristic,
		"searches":      stats.Searches,
		"pathsFound":    stats.PathsFound,
		"rateLimit":     h.rateLimiter.Stats(),
	})
}

func (h *routerHandlers) handleGetCell(w http.ResponseWriter, r *http.Request) {
	p, ok := cellParam(w, r)
	if !ok {
		return
	}

	weight, err := h.engine.Weight(p)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, newCellResponse(p, weight))
}

func (h *routerHandlers) handlePutCell(w http.ResponseWriter, r *http.Request) {
	p, ok := cellParam(w, r)
	if !ok {
		return
	}

	var req cellRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}

	var weight float64
	switch {
	case req.Wall:
		weight = tilepath.Wall
	case req.Weight != nil && *req.Weight > 0:
		weight = *req.Weight
	default:
		writeError(w, "weight must be positive, or set wall", http.StatusBadRequest)
		return
	}

	if err := h.engine.SetWeight(p, weight); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, newCellResponse(p, weight))
}

// Helper functions

func cellParam(w http.ResponseWriter, r *http.Request) (tilepath.Point, bool) {
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errX != nil || errY != nil {
		writeError(w, "cell coordinates must be integers", http.StatusBadRequest)
		return tilepath.Point{}, false
	}
	return tilepath.Point{X: x, Y: y}, true
}

func newCellResponse(p tilepath.Point, weight float64) cellResponse {
	resp := cellResponse{X: p.X, Y: p.Y}
	if math.IsInf(weight, 1) || weight <= 0 || math.IsNaN(weight) {
		resp.Wall = true
	} else {
		resp.Weight = &weight
	}
	return resp
}

func toPairs(path []tilepath.Point) [][2]int {
	pairs := make([][2]int, len(path))
	for i, p := range path {
		pairs[i] = [2]int{p.X, p.Y}
	}
	return pairs
}

func fromPairs(pairs [][2]int) []tilepath.Point {
	points := make([]tilepath.Point, len(pairs))
	for i, p := range pairs {
		points[i] = tilepath.Point{X: p[0], Y: p[1]}
	}
	return points
}

func writeEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, tilepath.ErrOutOfBounds) {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeError(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
