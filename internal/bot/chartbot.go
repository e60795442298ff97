package bot

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// ChartBot plays basic strategy for a single deck game where the dealer
// stands on all 17s and splitting is unavailable.
type ChartBot struct {
	logger *log.Logger
}

// NewChartBot creates a new ChartBot instance
func NewChartBot(logger *log.Logger) *ChartBot {
	return &ChartBot{logger: logger.WithPrefix("chart-bot")}
}

func (c *ChartBot) Decide(s Situation) Decision {
	action := BasicStrategy(s.Hand, s.DealerUp, s.CanDouble())
	kind := "hard"
	if s.Hand.IsSoft() {
		kind = "soft"
	}

	c.logger.Debug("Chart decision",
		"hand", s.Hand.String(),
		"score", s.Hand.Score(),
		"soft", s.Hand.IsSoft(),
		"dealer", s.DealerUp.String(),
		"action", action)

	return Decision{
		Action:    action,
		Reasoning: fmt.Sprintf("chart-bot %s %d vs %s", kind, s.Hand.Score(), s.DealerUp.Rank.Short()),
	}
}

// BasicStrategy returns the chart action for hand against the dealer's up
// card. Where the chart says double but canDouble is false, soft 18 stands
// and everything else hits.
func BasicStrategy(hand game.Hand, up deck.Card, canDouble bool) game.Action {
	score := hand.Score()
	if score >= game.Blackjack {
		return game.Stand
	}

	// Ace counts as 11 for the chart
	dealer := up.Rank.Value()
	if up.IsAce() {
		dealer = 11
	}

	double := func(fallback game.Action) game.Action {
		if canDouble {
			return game.DoubleDown
		}
		return fallback
	}

	if hand.IsSoft() {
		switch {
		case score >= 19:
			return game.Stand
		case score == 18:
			switch {
			case dealer >= 3 && dealer <= 6:
				return double(game.Stand)
			case dealer == 2 || dealer == 7 || dealer == 8:
				return game.Stand
			default:
				return game.Hit
			}
		case score == 17:
			if dealer >= 3 && dealer <= 6 {
				return double(game.Hit)
			}
		case score >= 15:
			if dealer >= 4 && dealer <= 6 {
				return double(game.Hit)
			}
		case score >= 13:
			if dealer == 5 || dealer == 6 {
				return double(game.Hit)
			}
		}
		return game.Hit
	}

	switch {
	case score >= 17:
		return game.Stand
	case score >= 13:
		if dealer <= 6 {
			return game.Stand
		}
	case score == 12:
		if dealer >= 4 && dealer <= 6 {
			return game.Stand
		}
	case score == 11:
		if dealer <= 10 {
			return double(game.Hit)
		}
	case score == 10:
		if dealer <= 9 {
			return double(game.Hit)
		}
	case score == 9:
		if dealer >= 3 && dealer <= 6 {
			return double(game.Hit)
		}
	}
	return game.Hit
}
