package game

import "github.com/lox/blackjack/internal/deck"

// Snapshot is a read-only copy of the full engine state for a presentation
// layer. Modifying it never affects the engine.
type Snapshot struct {
	Deck               []deck.Card `json:"deck,omitempty"`
	DealerHand         Hand        `json:"dealer_hand"`
	DealerHiddenCards  int         `json:"dealer_hidden_cards,omitempty"`
	Players            []Player    `json:"players"`
	CurrentPlayerIndex int         `json:"current_player_index"`
	State              State       `json:"state"`
	Round              int         `json:"round"`
}

// Snapshot returns the complete state including the remaining deck. Only
// hand it to trusted, co-located consumers.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Deck:               e.deck.Cards(),
		DealerHand:         e.dealer.clone(),
		Players:            e.playerCopies(),
		CurrentPlayerIndex: e.current,
		State:              e.state,
		Round:              e.round,
	}
}

// Public returns a snapshot safe for untrusted clients: the deck is omitted
// and the dealer's hole card stays hidden until the players are done.
func (e *Engine) Public() Snapshot {
	s := e.Snapshot()
	s.Deck = nil
	if e.state == PlayerTurn && s.DealerHand.Len() > 1 {
		s.DealerHiddenCards = s.DealerHand.Len() - 1
		s.DealerHand.Cards = s.DealerHand.Cards[:1]
	}
	return s
}

// CurrentPlayer returns the player due to act in the snapshot
func (s Snapshot) CurrentPlayer() (Player, bool) {
	if s.State != PlayerTurn || s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[s.CurrentPlayerIndex], true
}

// Player finds a player by id in the snapshot
func (s Snapshot) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}
