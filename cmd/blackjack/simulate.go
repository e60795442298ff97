package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lox/blackjack/internal/simulator"
)

// SimulateCmd plays rounds with a bot in every seat and reports the results
type SimulateCmd struct {
	Rounds   int    `short:"r" default:"10000" help:"Rounds per table"`
	Tables   int    `short:"t" default:"4" help:"Independent tables played in parallel"`
	Players  int    `short:"p" default:"1" help:"Seats per table"`
	Strategy string `short:"s" default:"chart" enum:"chart,dealer,rand" help:"Bot strategy for every seat (chart|dealer|rand)"`
	Bet      uint   `default:"10" help:"Flat bet per round"`
	Seed     *int64 `help:"Deterministic RNG seed (optional)"`
	Output   string `short:"o" help:"Write a JSON report to this path"`
	Debug    bool   `help:"Enable debug logging"`
}

func (c *SimulateCmd) Run() error {
	level := "warn"
	if c.Debug {
		level = "debug"
	}
	logger := newLogger(level)

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}

	cfg := simulator.Config{
		Rounds:   c.Rounds,
		Tables:   c.Tables,
		Players:  c.Players,
		Strategy: c.Strategy,
		Bet:      c.Bet,
		Seed:     seed,
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Simulating %d rounds on %d tables with %d %s seats (seed %d)...\n",
		c.Rounds, c.Tables, c.Players, c.Strategy, seed)

	start := time.Now()
	stats, err := simulator.New(cfg).Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	simulator.PrintSummary(os.Stdout, stats, cfg)
	fmt.Printf("\nCompleted in %v (%.0f rounds/sec)\n", elapsed.Round(time.Millisecond), float64(stats.Rounds)/elapsed.Seconds())

	if c.Output != "" {
		if err := simulator.WriteReport(c.Output, simulator.NewReport(cfg, stats, elapsed)); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", c.Output)
	}
	return nil
}
