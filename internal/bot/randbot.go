package bot

import (
	rand "math/rand/v2"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
)

// RandBot is a simple bot that makes uniform random legal actions
type RandBot struct {
	rng *rand.Rand
}

// NewRandBot creates a new RandBot instance. A nil rng draws from fresh
// entropy.
func NewRandBot(rng *rand.Rand) *RandBot {
	if rng == nil {
		rng = randutil.Fresh()
	}
	return &RandBot{rng: rng}
}

func (r *RandBot) Decide(s Situation) Decision {
	actions := []game.Action{game.Hit, game.Stand}
	if s.CanDouble() {
		actions = append(actions, game.DoubleDown)
	}
	return Decision{Action: actions[r.rng.IntN(len(actions))], Reasoning: "rand-bot random action"}
}
