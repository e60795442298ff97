package game

// Outcome is how a player's hand settled against the dealer
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeLose      Outcome = "lose"
	OutcomePush      Outcome = "push"
	OutcomeWin       Outcome = "win"
	OutcomeBlackjack Outcome = "blackjack"
)

// Result records the settlement of one player's hand. Payout is the amount
// credited back to the balance, stake included.
type Result struct {
	Bet     uint    `json:"bet"`
	Payout  uint    `json:"payout"`
	Outcome Outcome `json:"outcome"`
}

// Net returns the player's gain or loss for the round
func (r Result) Net() int {
	return int(r.Payout) - int(r.Bet)
}

// Player is a seat at the table. The Engine is its only mutator.
type Player struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Hand     Hand    `json:"hand"`
	Bet      uint    `json:"bet"`
	Balance  uint    `json:"balance"`
	IsActive bool    `json:"is_active"`
	Result   *Result `json:"result,omitempty"`
}

// NewPlayer creates a player with an empty hand and no bet
func NewPlayer(id, name string, balance uint) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Balance:  balance,
		IsActive: true,
	}
}

func (p *Player) clone() Player {
	c := *p
	c.Hand = p.Hand.clone()
	if p.Result != nil {
		r := *p.Result
		c.Result = &r
	}
	return c
}

// inRound reports whether the player was dealt into the current round
func (p *Player) inRound() bool {
	return p.Hand.Len() > 0
}
