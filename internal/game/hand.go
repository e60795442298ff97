package game

import (
	"encoding/json"
	"strings"

	"github.com/lox/blackjack/internal/deck"
)

const (
	// Blackjack is the best possible score
	Blackjack = 21
	// softAceBonus is what promoting one ace from 1 to 11 adds
	softAceBonus = 10
)

// Hand is the ordered set of cards held by a player or the dealer. Order is
// deal order and only matters for display.
type Hand struct {
	Cards []deck.Card `json:"cards"`
}

// Add appends a dealt card
func (h *Hand) Add(c deck.Card) {
	h.Cards = append(h.Cards, c)
}

// Len returns the number of cards in the hand
func (h Hand) Len() int {
	return len(h.Cards)
}

// Score returns the best total not exceeding 21 when any ace assignment
// allows it, otherwise the minimum total.
func (h Hand) Score() int {
	score, _ := h.evaluate()
	return score
}

// IsSoft reports whether at least one ace is counted as 11
func (h Hand) IsSoft() bool {
	_, soft := h.evaluate()
	return soft
}

func (h Hand) evaluate() (score int, soft bool) {
	aces := 0
	for _, c := range h.Cards {
		if c.IsAce() {
			aces++
		}
		score += c.Rank.Value()
	}

	for range aces {
		if score+softAceBonus <= Blackjack {
			score += softAceBonus
			soft = true
		}
	}
	return score, soft
}

// IsBlackjack reports a two card 21
func (h Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && h.Score() == Blackjack
}

// IsBusted reports a score over 21
func (h Hand) IsBusted() bool {
	return h.Score() > Blackjack
}

// String renders the hand as space separated cards, e.g. "A♠ K♥"
func (h Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func (h Hand) clone() Hand {
	if h.Cards == nil {
		return Hand{}
	}
	cards := make([]deck.Card, len(h.Cards))
	copy(cards, h.Cards)
	return Hand{Cards: cards}
}

// MarshalJSON includes the derived score flags so presentation layers do not
// have to re-implement scoring.
func (h Hand) MarshalJSON() ([]byte, error) {
	cards := h.Cards
	if cards == nil {
		cards = []deck.Card{}
	}
	return json.Marshal(struct {
		Cards       []deck.Card `json:"cards"`
		Score       int         `json:"score"`
		IsSoft      bool        `json:"is_soft"`
		IsBlackjack bool        `json:"is_blackjack"`
		IsBusted    bool        `json:"is_busted"`
	}{
		Cards:       cards,
		Score:       h.Score(),
		IsSoft:      h.IsSoft(),
		IsBlackjack: h.IsBlackjack(),
		IsBusted:    h.IsBusted(),
	})
}
