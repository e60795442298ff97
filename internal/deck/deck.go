// Package deck provides playing cards and a single 52-card deck.
package deck

import (
	rand "math/rand/v2"

	"github.com/lox/blackjack/internal/randutil"
)

// Size is the number of cards in a full deck
const Size = 52

// Deck represents a deck of playing cards. The top of the deck is the end of
// the slice.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a full 52-card deck in suit-major, rank-minor order. It is not
// shuffled. A nil rng makes every Shuffle draw from fresh OS entropy; a
// non-nil rng makes shuffles reproducible.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, Size),
		rng:   rng,
	}
	d.fill()
	return d
}

// NewShuffled creates a full deck and shuffles it once
func NewShuffled(rng *rand.Rand) *Deck {
	d := New(rng)
	d.Shuffle()
	return d
}

// Stacked creates a deck that deals exactly the given cards in the given
// order. Used to script rounds in tests.
func Stacked(cards ...Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	for i, c := range cards {
		d.cards[len(cards)-1-i] = c
	}
	return d
}

func (d *Deck) fill() {
	d.cards = d.cards[:0]
	for _, suit := range Suits {
		for _, rank := range Ranks {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
}

// Shuffle randomizes the order of the remaining cards using Fisher-Yates
func (d *Deck) Shuffle() {
	rng := d.rng
	if rng == nil {
		rng = randutil.Fresh()
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// DealOne removes and returns the top card. ok is false when the deck is
// empty.
func (d *Deck) DealOne() (card Card, ok bool) {
	n := len(d.cards)
	if n == 0 {
		return Card{}, false
	}
	card = d.cards[n-1]
	d.cards = d.cards[:n-1]
	return card, true
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards, bottom first
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Reset restores the deck to a full 52 cards and shuffles it
func (d *Deck) Reset() {
	d.fill()
	d.Shuffle()
}
