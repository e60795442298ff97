package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/gameid"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/server"
	"golang.org/x/sync/errgroup"
)

// ServerCmd runs the WebSocket server
type ServerCmd struct {
	Config     string `short:"c" default:"blackjack-server.hcl" help:"Path to HCL configuration file"`
	Addr       string `short:"a" help:"Server address to bind to, host:port (overrides config)"`
	LogLevel   string `short:"l" help:"Log level (debug|info|warn|error, overrides config)"`
	HistoryDir string `help:"Write a transcript of every round here (overrides config)"`
	Seed       *int64 `help:"Deterministic RNG seed for room decks (optional)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Apply command line overrides
	addr := cfg.Addr()
	if c.Addr != "" {
		addr = c.Addr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.HistoryDir != "" {
		cfg.Server.HistoryDir = c.HistoryDir
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel)

	var opts []server.RoomOption
	if cfg.Server.HistoryDir != "" {
		opts = append(opts, server.WithRoundHistory(game.NewFileRoundHistoryWriter(cfg.Server.HistoryDir), gameid.Generate))
	}
	if c.Seed != nil {
		seed := *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
		// rooms are created under the service lock, so the counter needs none
		created := 0
		opts = append(opts, server.WithEngineOptions(func(string) []game.Option {
			created++
			return []game.Option{game.WithRNG(randutil.New(randutil.Derive(seed, created)))}
		}))
	}

	clock := quartz.NewReal()
	rooms := server.NewRoomService(cfg.Table, clock, logger, opts...)
	srv := server.NewServer(rooms, clock, logger)

	logger.Info("Starting blackjack server",
		"addr", addr,
		"max_players", cfg.Table.MaxPlayers,
		"starting_balance", cfg.Table.StartingBalance,
		"turn_timeout", cfg.Table.TurnTimeout(),
		"max_rooms", cfg.Table.MaxRooms,
		"history_dir", cfg.Server.HistoryDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
