// Package bot contains automated blackjack players used by the simulator,
// the network bot command and the TUI's hint line.
package bot

import (
	"fmt"
	rand "math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// Situation is everything a bot sees when it is asked to act
type Situation struct {
	Hand     game.Hand
	DealerUp deck.Card
	Bet      uint
	Balance  uint
}

// CanDouble reports whether a double down would be accepted by the engine
func (s Situation) CanDouble() bool {
	return s.Hand.Len() == 2 && s.Balance >= s.Bet
}

// Decision is a bot's chosen action with a short reason for logs and hints
type Decision struct {
	Action    game.Action
	Reasoning string
}

// Bot decides actions for one seat
type Bot interface {
	Decide(s Situation) Decision
}

// Kinds lists the bot names accepted by New
var Kinds = []string{"chart", "dealer", "rand"}

// New builds a bot by name
func New(kind string, rng *rand.Rand, logger *log.Logger) (Bot, error) {
	switch kind {
	case "chart":
		return NewChartBot(logger), nil
	case "dealer":
		return NewDealerBot(), nil
	case "rand":
		return NewRandBot(rng), nil
	default:
		return nil, fmt.Errorf("unknown bot %q (want one of %v)", kind, Kinds)
	}
}

// SituationFor builds the view of player id from an engine snapshot. ok is
// false when the dealer's up card or the player is missing.
func SituationFor(s game.Snapshot, id string) (Situation, bool) {
	p, ok := s.Player(id)
	if !ok || s.DealerHand.Len() == 0 {
		return Situation{}, false
	}
	return Situation{
		Hand:     p.Hand,
		DealerUp: s.DealerHand.Cards[0],
		Bet:      p.Bet,
		Balance:  p.Balance,
	}, true
}

// Validate reports whether kind names a known bot
func Validate(kind string) error {
	if !slices.Contains(Kinds, kind) {
		return fmt.Errorf("unknown bot %q (want one of %v)", kind, Kinds)
	}
	return nil
}
