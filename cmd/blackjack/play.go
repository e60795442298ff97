package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/tui"
)

// PlayCmd runs a hot-seat table in the terminal
type PlayCmd struct {
	Players []string `short:"p" default:"Player" help:"Comma separated player names, one seat each"`
	Balance uint     `short:"b" default:"1000" help:"Starting balance for every seat"`
	Seed    *int64   `help:"Deterministic RNG seed for the deck (optional)"`
	Debug   bool     `help:"Write debug logs to blackjack-debug.log"`
}

func (c *PlayCmd) Run() error {
	var names []string
	for _, name := range c.Players {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 || len(names) > game.MaxPlayers {
		return fmt.Errorf("between 1 and %d players are required", game.MaxPlayers)
	}
	if c.Balance == 0 {
		return fmt.Errorf("balance must be positive")
	}

	// the terminal belongs to the TUI, so logs go to a file or nowhere
	logger := log.New(io.Discard)
	if c.Debug {
		f, err := os.OpenFile("blackjack-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
		logger.SetLevel(log.DebugLevel)
	}

	rng := randutil.Fresh()
	if c.Seed != nil {
		rng = randutil.New(*c.Seed)
	}

	engine := game.New(game.WithRNG(rng), game.WithLogger(logger))
	model, err := tui.New(engine, names, c.Balance, logger)
	if err != nil {
		return err
	}
	return tui.Run(model)
}
