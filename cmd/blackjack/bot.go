package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/bot"
	"github.com/lox/blackjack/internal/client"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/server"
)

// BotCmd seats a built-in bot at a remote table
type BotCmd struct {
	Config   string `short:"c" default:"blackjack-bot.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" help:"WebSocket server URL (overrides config)"`
	Room     string `short:"r" help:"Room to join (overrides config)"`
	Name     string `short:"n" help:"Player name (overrides config)"`
	Strategy string `help:"Bot strategy: chart, dealer or rand (overrides config)"`
	Bet      uint   `help:"Flat bet per round (overrides config)"`
	Rounds   int    `help:"Stop after this many rounds, 0 plays until interrupted (overrides config)"`
	LogLevel string `short:"l" default:"info" help:"Log level (debug|info|warn|error)"`
}

func (c *BotCmd) Run() error {
	cfg, err := client.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Apply command line overrides
	if c.Server != "" {
		cfg.Server.URL = c.Server
	}
	if c.Room != "" {
		cfg.Player.Room = c.Room
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if c.Strategy != "" {
		cfg.Player.Strategy = c.Strategy
	}
	if c.Bet != 0 {
		cfg.Player.Bet = c.Bet
	}
	if c.Rounds != 0 {
		cfg.Player.Rounds = c.Rounds
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(c.LogLevel)

	b, err := bot.New(cfg.Player.Strategy, randutil.Fresh(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := quartz.NewReal()
	wsClient := client.NewClient(cfg.Server.URL, logger)
	agent := client.NewAgent(wsClient, b, cfg.Player, clock, logger)

	healthURL, err := server.HealthURL(cfg.Server.URL)
	if err != nil {
		return err
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeoutDuration())
	err = server.WaitForHealthy(connectCtx, clock, healthURL)
	if err == nil {
		err = wsClient.Connect(connectCtx)
	}
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = wsClient.Disconnect() }()

	stats, err := agent.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	logger.Info("Session finished",
		"rounds", stats.Rounds,
		"net", stats.Net,
		"wins", stats.Wins,
		"pushes", stats.Pushes,
		"losses", stats.Losses,
		"balance", stats.Balance)
	return err
}
