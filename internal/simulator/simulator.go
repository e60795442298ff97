// Package simulator plays many blackjack rounds with bots in every seat and
// collects per-round results for strategy evaluation.
package simulator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/bot"
	"github.com/lox/blackjack/internal/fileutil"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for running simulations
type Config struct {
	Rounds   int    // rounds per table
	Tables   int    // independent tables played in parallel
	Players  int    // seats per table
	Strategy string // bot kind for every seat
	Bet      uint   // flat bet per round
	Seed     int64
	Logger   *log.Logger
}

func (c Config) validate() error {
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive")
	}
	if c.Tables <= 0 {
		return fmt.Errorf("tables must be positive")
	}
	if c.Players < 1 || c.Players > game.MaxPlayers {
		return fmt.Errorf("players must be between 1 and %d", game.MaxPlayers)
	}
	if c.Bet == 0 {
		return fmt.Errorf("bet must be positive")
	}
	return bot.Validate(c.Strategy)
}

// Simulator runs blackjack round simulations
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Simulator{config: config}
}

// Run plays every table to completion and returns the merged statistics.
// Tables run concurrently, each with its own engine and an RNG derived from
// the seed, so a seed reproduces the same results regardless of scheduling.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if err := s.config.validate(); err != nil {
		return nil, err
	}

	perTable := make([]*statistics.Statistics, s.config.Tables)
	g, ctx := errgroup.WithContext(ctx)
	for table := range s.config.Tables {
		g.Go(func() error {
			stats, err := s.playTable(ctx, table)
			if err != nil {
				return fmt.Errorf("table %d: %w", table, err)
			}
			perTable[table] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for _, ts := range perTable {
		stats.Merge(ts)
	}

	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

// playTable runs the configured rounds on one engine
func (s *Simulator) playTable(ctx context.Context, table int) (*statistics.Statistics, error) {
	seed := randutil.Derive(s.config.Seed, table)
	rng := randutil.New(seed)
	logger := s.config.Logger.With("table", table)

	engine := game.New(
		game.WithRNG(rng),
		game.WithMaxPlayers(s.config.Players),
		game.WithLogger(logger),
	)

	// Worst case a seat loses a doubled bet every round, so it never runs dry
	bankroll := s.config.Bet * 2 * uint(s.config.Rounds+1)

	ids := make([]string, s.config.Players)
	bots := make(map[string]bot.Bot, s.config.Players)
	for seat := range ids {
		id := fmt.Sprintf("seat-%d", seat+1)
		b, err := bot.New(s.config.Strategy, rng, logger)
		if err != nil {
			return nil, err
		}
		if !engine.AddPlayer(id, id, bankroll) {
			return nil, fmt.Errorf("could not seat %s", id)
		}
		ids[seat] = id
		bots[id] = b
	}

	stats := &statistics.Statistics{}
	for round := range s.config.Rounds {
		if round%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if err := PlayRound(engine, bots, s.config.Bet); err != nil {
			return nil, fmt.Errorf("round %d: %w", round+1, err)
		}

		for seat, id := range ids {
			p, _ := engine.Player(id)
			if p.Result == nil {
				return nil, fmt.Errorf("round %d: %s was not settled", round+1, id)
			}
			stats.Add(statistics.RoundResult{
				Net:     float64(p.Result.Net()) / float64(s.config.Bet),
				Seed:    seed,
				Seat:    seat,
				Outcome: p.Result.Outcome,
				Doubled: p.Result.Bet > s.config.Bet,
			})
		}
	}

	logger.Debug("Table finished", "rounds", s.config.Rounds, "mean", stats.Mean())
	return stats, nil
}

// PlayRound places bet for every seated bot, deals a round and lets each bot
// act until the engine settles it
func PlayRound(engine *game.Engine, bots map[string]bot.Bot, bet uint) error {
	for id := range bots {
		if err := engine.PlaceBet(id, bet); err != nil {
			return fmt.Errorf("bet for %s: %w", id, err)
		}
	}
	if err := engine.StartNewRound(); err != nil {
		return err
	}

	for engine.State() == game.PlayerTurn {
		id, ok := engine.CurrentPlayerID()
		if !ok {
			return fmt.Errorf("no current player during %s", engine.State())
		}
		b, ok := bots[id]
		if !ok {
			return fmt.Errorf("no bot for %s", id)
		}

		situation, ok := bot.SituationFor(engine.Public(), id)
		if !ok {
			return fmt.Errorf("no situation for %s", id)
		}
		decision := b.Decide(situation)
		if err := engine.PlayerAction(id, decision.Action); err != nil {
			return fmt.Errorf("%s %s: %w", id, decision.Action, err)
		}
	}
	return nil
}

// Report is the machine-readable simulation summary
type Report struct {
	Strategy      string    `json:"strategy"`
	Seed          int64     `json:"seed"`
	Tables        int       `json:"tables"`
	Players       int       `json:"players"`
	Bet           uint      `json:"bet"`
	Rounds        int       `json:"rounds"`
	Mean          float64   `json:"mean"`
	Median        float64   `json:"median"`
	StdDev        float64   `json:"std_dev"`
	StdError      float64   `json:"std_error"`
	CI95          []float64 `json:"ci95"`
	WinRate       float64   `json:"win_rate"`
	BlackjackRate float64   `json:"blackjack_rate"`
	PushRate      float64   `json:"push_rate"`
	LossRate      float64   `json:"loss_rate"`
	DoubleRate    float64   `json:"double_rate"`
	SeatMeans     []float64 `json:"seat_means"`
	DurationMs    int64     `json:"duration_ms"`
}

// NewReport summarises stats for the given run
func NewReport(cfg Config, stats *statistics.Statistics, elapsed time.Duration) Report {
	low, high := stats.ConfidenceInterval95()
	seatMeans := make([]float64, cfg.Players)
	for seat := range seatMeans {
		seatMeans[seat] = stats.SeatMean(seat)
	}

	return Report{
		Strategy:      cfg.Strategy,
		Seed:          cfg.Seed,
		Tables:        cfg.Tables,
		Players:       cfg.Players,
		Bet:           cfg.Bet,
		Rounds:        stats.Rounds,
		Mean:          stats.Mean(),
		Median:        stats.Median(),
		StdDev:        stats.StdDev(),
		StdError:      stats.StdError(),
		CI95:          []float64{low, high},
		WinRate:       stats.Rate(stats.Wins),
		BlackjackRate: stats.Rate(stats.Blackjacks),
		PushRate:      stats.Rate(stats.Pushes),
		LossRate:      stats.Rate(stats.Losses),
		DoubleRate:    stats.Rate(stats.Doubles),
		SeatMeans:     seatMeans,
		DurationMs:    elapsed.Milliseconds(),
	}
}

// WriteReport writes the report as indented JSON, atomically
func WriteReport(path string, report Report) error {
	return fileutil.WriteJSONAtomic(path, report, 0o644)
}

// PrintSummary prints a human-readable summary of simulation results
func PrintSummary(w io.Writer, stats *statistics.Statistics, cfg Config) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== FINAL RESULTS: %s strategy ===\n", cfg.Strategy)
	fmt.Fprintf(w, "Rounds played: %d (%d tables × %d seats)\n", stats.Rounds, cfg.Tables, cfg.Players)

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Mean: %.4f units/round\n", stats.Mean())
	fmt.Fprintf(w, "Median: %.4f units/round\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.4f units\n", stats.StdDev())
	fmt.Fprintf(w, "Std Error: %.4f units\n", stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f] units/round\n", low, high)

	fmt.Fprintf(w, "\n=== OUTCOMES ===\n")
	fmt.Fprintf(w, "Wins: %d (%.1f%%)\n", stats.Wins, stats.Rate(stats.Wins)*100)
	fmt.Fprintf(w, "Blackjacks: %d (%.1f%%)\n", stats.Blackjacks, stats.Rate(stats.Blackjacks)*100)
	fmt.Fprintf(w, "Pushes: %d (%.1f%%)\n", stats.Pushes, stats.Rate(stats.Pushes)*100)
	fmt.Fprintf(w, "Losses: %d (%.1f%%)\n", stats.Losses, stats.Rate(stats.Losses)*100)
	if stats.Doubles > 0 {
		fmt.Fprintf(w, "Doubles: %d (%.1f%%), %.3f units/double\n",
			stats.Doubles, stats.Rate(stats.Doubles)*100, stats.DoubleNet/float64(stats.Doubles))
	}

	fmt.Fprintf(w, "\n=== SEAT ANALYSIS ===\n")
	for seat := range cfg.Players {
		ss := stats.SeatResults[seat]
		if ss.Rounds > 0 {
			fmt.Fprintf(w, "Seat %d: %d rounds, %.4f units/round\n", seat+1, ss.Rounds, stats.SeatMean(seat))
		}
	}
}
