package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"tilepath/internal/config"
	"tilepath/internal/metrics"
	"tilepath/internal/scenario"
	"tilepath/internal/server"
	"tilepath/pkg/tilepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables only")
	}
	cfg := config.FromEnv()

	scenarioPath := flag.String("scenario", cfg.ScenarioPath, "scenario YAML file")
	serve := flag.Bool("serve", false, "serve the scenario terrain over HTTP after running its queries")
	addr := flag.String("addr", cfg.ListenAddr, "HTTP listen address")
	maxExpansions := flag.Int("max-expansions", cfg.MaxExpansions, "expansion budget per search, 0 for unbounded")
	turnPenalty := flag.Float64("turn-penalty", 0, "cost multiplier for steps that change direction")
	verbose := flag.Bool("v", false, "log search warnings")
	flag.Parse()

	s, err := scenario.Load(*scenarioPath)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engineCfg := &tilepath.Config{
		AllowDiagonal:  s.Diagonal,
		Heuristic:      s.Heuristic,
		HeuristicScale: s.MinWeight(),
		TurnPenalty:    *turnPenalty,
		MaxExpansions:  *maxExpansions,
		Observer:       metrics.New(registry),
	}
	if *verbose {
		engineCfg.Logger = log.Default()
	}

	engine, err := tilepath.NewEngine(s.Terrain(), engineCfg)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	runQueries(engine, s)

	if !*serve {
		return
	}
	if err := serveHTTP(*addr, engine, registry, cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runQueries(engine *tilepath.Engine, s *scenario.Scenario) {
	stats := engine.Stats()
	name := s.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("Scenario %s: %dx%d, diagonal=%t, heuristic=%s\n",
		name, stats.Cols, stats.Rows, stats.AllowDiagonal, stats.Heuristic)

	for _, q := range s.Queries {
		start, goal := q.StartPoint(), q.GoalPoint()
		result, err := engine.Search(start, goal)
		if err != nil {
			log.Printf("Query %v -> %v failed: %v", start, goal, err)
			continue
		}

		switch {
		case result.Found:
			fmt.Printf("  %v -> %v: %d steps, cost %.2f, waypoints %s\n",
				start, goal, len(result.Path), result.Cost, formatPath(tilepath.CompressPath(start, result.Path)))
		case result.Stats.Truncated:
			fmt.Printf("  %v -> %v: gave up after %d expansions\n", start, goal, result.Stats.Expanded)
		default:
			fmt.Printf("  %v -> %v: unreachable (%d cells expanded)\n", start, goal, result.Stats.Expanded)
		}
	}
}

func serveHTTP(addr string, engine *tilepath.Engine, registry *prometheus.Registry, cfg config.Config) error {
	rateLimiter := server.NewIPRateLimiter(server.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	router, err := server.NewRouter(server.RouterConfig{
		Engine:      engine,
		Registry:    registry,
		RateLimiter: rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Println("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func formatPath(path []tilepath.Point) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
