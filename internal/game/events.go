package game

import (
	"time"

	"github.com/lox/blackjack/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events
const (
	EventTypePlayerJoined EventType = "player_joined"
	EventTypePlayerLeft   EventType = "player_left"
	EventTypeBetPlaced    EventType = "bet_placed"
	EventTypeRoundStart   EventType = "round_start"
	EventTypeCardDealt    EventType = "card_dealt"
	EventTypePlayerAction EventType = "player_action"
	EventTypeTurnChange   EventType = "turn_change"
	EventTypeDealerTurn   EventType = "dealer_turn"
	EventTypeRoundEnd     EventType = "round_end"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// DealerID is the recipient name used for cards dealt to the dealer
const DealerID = "dealer"

// GameEvent represents anything that happens at the table. Events carry
// copies, never pointers into engine state.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

type eventTime struct {
	at time.Time
}

func (e eventTime) Timestamp() time.Time { return e.at }

func now() eventTime { return eventTime{at: time.Now()} }

// PlayerJoinedEvent is published when a player takes a seat
type PlayerJoinedEvent struct {
	Player Player
	eventTime
}

func (e PlayerJoinedEvent) EventType() EventType { return EventTypePlayerJoined }

// PlayerLeftEvent is published when a player is removed from the roster.
// Refund is any unsettled bet returned to the player's balance.
type PlayerLeftEvent struct {
	Player Player
	Refund uint
	eventTime
}

func (e PlayerLeftEvent) EventType() EventType { return EventTypePlayerLeft }

// BetPlacedEvent is published when a player stakes chips for the next round
type BetPlacedEvent struct {
	PlayerID string
	Name     string
	Amount   uint
	Balance  uint
	eventTime
}

func (e BetPlacedEvent) EventType() EventType { return EventTypeBetPlaced }

// RoundStartEvent is published after the initial deal
type RoundStartEvent struct {
	Round     int
	Players   []Player
	DealerUp  deck.Card
	Reshuffle bool
	eventTime
}

func (e RoundStartEvent) EventType() EventType { return EventTypeRoundStart }

// CardDealtEvent is published for every card that leaves the deck.
// Recipient is a player ID or DealerID.
type CardDealtEvent struct {
	Recipient string
	Card      deck.Card
	Score     int
	eventTime
}

func (e CardDealtEvent) EventType() EventType { return EventTypeCardDealt }

// PlayerActionEvent is published after an accepted player action
type PlayerActionEvent struct {
	PlayerID string
	Name     string
	Action   Action
	Hand     Hand
	Bet      uint
	Balance  uint
	Forced   bool
	eventTime
}

func (e PlayerActionEvent) EventType() EventType { return EventTypePlayerAction }

// TurnChangeEvent is published when the turn passes to another player
type TurnChangeEvent struct {
	Round    int
	PlayerID string
	Name     string
	Index    int
	eventTime
}

func (e TurnChangeEvent) EventType() EventType { return EventTypeTurnChange }

// DealerTurnEvent is published once the dealer has finished drawing
type DealerTurnEvent struct {
	Hand Hand
	eventTime
}

func (e DealerTurnEvent) EventType() EventType { return EventTypeDealerTurn }

// PlayerResult is one line of the round-end settlement
type PlayerResult struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Balance  uint   `json:"balance"`
	Result
}

// RoundEndEvent is published after settlement
type RoundEndEvent struct {
	Round   int
	Dealer  Hand
	Results []PlayerResult
	eventTime
}

func (e RoundEndEvent) EventType() EventType { return EventTypeRoundEnd }

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// SubscriberFunc adapts a plain function to EventSubscriber
type SubscriberFunc func(event GameEvent)

// OnEvent calls f(event)
func (f SubscriberFunc) OnEvent(event GameEvent) { f(event) }

// EventBus manages event publishing and subscription. Subscribe returns a
// function that removes the subscription.
type EventBus interface {
	Subscribe(subscriber EventSubscriber) (unsubscribe func())
	Publish(event GameEvent)
}

// SimpleEventBus delivers events synchronously, in subscription order, on the
// publisher's goroutine.
type SimpleEventBus struct {
	subscribers []subscription
	nextID      int
}

type subscription struct {
	id  int
	sub EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) func() {
	bus.nextID++
	id := bus.nextID
	bus.subscribers = append(bus.subscribers, subscription{id: id, sub: subscriber})

	return func() {
		for i, s := range bus.subscribers {
			if s.id == id {
				bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, s := range bus.subscribers {
		s.sub.OnEvent(event)
	}
}

// EventRecorder collects every published event. Handy in tests and for
// replaying a round to a late subscriber.
type EventRecorder struct {
	Events []GameEvent
}

// OnEvent implements EventSubscriber
func (r *EventRecorder) OnEvent(event GameEvent) {
	r.Events = append(r.Events, event)
}

// Types returns the recorded event types in order
func (r *EventRecorder) Types() []EventType {
	types := make([]EventType, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.EventType()
	}
	return types
}
