package bot

import (
	"github.com/lox/blackjack/internal/game"
)

// DealerBot mimics the house: hit below 17, never double
type DealerBot struct{}

// NewDealerBot creates a new DealerBot instance
func NewDealerBot() *DealerBot {
	return &DealerBot{}
}

func (d *DealerBot) Decide(s Situation) Decision {
	if s.Hand.Score() < game.DealerStandScore {
		return Decision{Action: game.Hit, Reasoning: "dealer-bot drawing to 17"}
	}
	return Decision{Action: game.Stand, Reasoning: "dealer-bot standing"}
}
