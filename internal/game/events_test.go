package game

import (
	"strings"
	"testing"

	"github.com/lox/blackjack/internal/deck"
)

func TestEventFormatter_FormatPlayerAction(t *testing.T) {
	tests := []struct {
		name     string
		opts     FormattingOptions
		event    PlayerActionEvent
		expected string
	}{
		{
			name: "stand",
			event: PlayerActionEvent{
				PlayerID: "p1",
				Name:     "Alice",
				Action:   Stand,
				Hand:     hand("Ts8h"),
			},
			expected: "Alice: stands on 18",
		},
		{
			name: "forced stand with timeouts shown",
			opts: FormattingOptions{ShowForced: true},
			event: PlayerActionEvent{
				PlayerID: "p2",
				Name:     "Bob",
				Action:   Stand,
				Hand:     hand("Ts2h"),
				Forced:   true,
			},
			expected: "Bob: times out and stands on 12",
		},
		{
			name: "forced stand hidden",
			event: PlayerActionEvent{
				PlayerID: "p2",
				Name:     "Bob",
				Action:   Stand,
				Hand:     hand("Ts2h"),
				Forced:   true,
			},
			expected: "Bob: stands on 12",
		},
		{
			name: "hit",
			event: PlayerActionEvent{
				PlayerID: "p3",
				Name:     "Charlie",
				Action:   Hit,
				Hand:     hand("5s6h9c"),
			},
			expected: "Charlie: hits 9♣ (20)",
		},
		{
			name: "hit and bust with balance",
			opts: FormattingOptions{ShowBalance: true},
			event: PlayerActionEvent{
				PlayerID: "p3",
				Name:     "Charlie",
				Action:   Hit,
				Hand:     hand("Ts6hKc"),
				Balance:  90,
			},
			expected: "Charlie: hits K♣ (26) and busts [$90]",
		},
		{
			name: "double down from perspective",
			opts: FormattingOptions{Perspective: "p1"},
			event: PlayerActionEvent{
				PlayerID: "p1",
				Name:     "Alice",
				Action:   DoubleDown,
				Hand:     hand("5s6h9c"),
				Bet:      20,
			},
			expected: "You: doubles to $20, draws 9♣ (20)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ef := NewEventFormatter(tt.opts)
			if got := ef.FormatPlayerAction(tt.event); got != tt.expected {
				t.Errorf("FormatPlayerAction() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestEventFormatter_FormatRoundEnd(t *testing.T) {
	event := RoundEndEvent{
		Round:  3,
		Dealer: hand("KdQd"),
		Results: []PlayerResult{
			{PlayerID: "a", Name: "Alice", Score: 20, Balance: 100, Result: Result{Bet: 10, Payout: 10, Outcome: OutcomePush}},
			{PlayerID: "b", Name: "Bob", Score: 26, Balance: 90, Result: Result{Bet: 10, Outcome: OutcomeLose}},
			{PlayerID: "c", Name: "Cara", Score: 21, Balance: 115, Result: Result{Bet: 10, Payout: 25, Outcome: OutcomeBlackjack}},
		},
	}

	got := NewEventFormatter(FormattingOptions{ShowBalance: true}).FormatRoundEnd(event)
	for _, want := range []string{
		"=== Round 3 Complete ===",
		"Dealer: 20 [K♦ Q♦]",
		"Alice: 20 • push • balance $100",
		"Bob: 26 • loses $10 • balance $90",
		"Cara: 21 • blackjack, wins $15 • balance $115",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatRoundEnd() missing %q in:\n%s", want, got)
		}
	}
}

func TestEventFormatter_Format(t *testing.T) {
	ef := NewEventFormatter(FormattingOptions{})
	up := deck.MustParseCards("Ah")[0]

	tests := []struct {
		event    GameEvent
		expected string
	}{
		{PlayerJoinedEvent{Player: Player{ID: "p1", Name: "Alice", Balance: 1000}}, "Alice joins the table with $1000"},
		{PlayerLeftEvent{Player: Player{ID: "p1", Name: "Alice"}, Refund: 25}, "Alice leaves the table ($25 bet returned)"},
		{PlayerLeftEvent{Player: Player{ID: "p1"}}, "p1 leaves the table"},
		{BetPlacedEvent{PlayerID: "p1", Name: "Alice", Amount: 50}, "Alice bets $50"},
		{RoundStartEvent{Round: 2, Players: make([]Player, 3), DealerUp: up, Reshuffle: true}, "*** ROUND 2 *** 3 players • dealer shows A♥ • fresh deck"},
		{TurnChangeEvent{PlayerID: "p2", Name: "Bob"}, "Bob to act"},
		{DealerTurnEvent{Hand: hand("Ts6h9c")}, "Dealer: [T♠ 6♥ 9♣] busts with 25"},
		{DealerTurnEvent{Hand: hand("AsKh")}, "Dealer: [A♠ K♥] blackjack"},
		{DealerTurnEvent{Hand: hand("Ts7h")}, "Dealer: [T♠ 7♥] stands on 17"},
		{CardDealtEvent{Recipient: "p1"}, ""},
	}

	for _, tt := range tests {
		if got := ef.Format(tt.event); got != tt.expected {
			t.Errorf("Format(%s) = %q, want %q", tt.event.EventType(), got, tt.expected)
		}
	}
}

func TestSimpleEventBusDeliversInOrder(t *testing.T) {
	bus := NewEventBus()
	var order []string
	bus.Subscribe(SubscriberFunc(func(GameEvent) { order = append(order, "first") }))
	bus.Subscribe(SubscriberFunc(func(GameEvent) { order = append(order, "second") }))

	bus.Publish(TurnChangeEvent{})

	if strings.Join(order, ",") != "first,second" {
		t.Errorf("delivery order = %v", order)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewEventBus()
	rec := &EventRecorder{}
	unsubscribe := bus.Subscribe(rec)
	other := &EventRecorder{}
	bus.Subscribe(other)

	unsubscribe()
	unsubscribe()
	bus.Publish(DealerTurnEvent{})

	if len(rec.Events) != 0 {
		t.Errorf("unsubscribed recorder got %d events", len(rec.Events))
	}
	if len(other.Events) != 1 {
		t.Errorf("remaining recorder got %d events, want 1", len(other.Events))
	}
}
