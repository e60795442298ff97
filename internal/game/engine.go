package game

import (
	"fmt"
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
)

const (
	// MaxPlayers is the table capacity
	MaxPlayers = 6
	// ReshuffleThreshold is the deck size below which a fresh deck is built
	// before dealing a round. Six players hitting several times each cannot
	// exhaust 20 cards in practice.
	ReshuffleThreshold = 20
	// DealerStandScore is the total at which the dealer stops drawing. Soft
	// and hard 17 are treated alike.
	DealerStandScore = 17
)

// Engine is the blackjack state machine for one table. It owns the deck, the
// dealer's hand and the roster. Engine is not safe for concurrent use;
// callers serialize commands against an instance.
type Engine struct {
	deck       *deck.Deck
	rng        *rand.Rand
	dealer     Hand
	players    []*Player
	current    int
	state      State
	round      int
	maxPlayers int
	reshuffle  int
	bus        EventBus
	logger     *log.Logger
}

// Option configures an Engine during creation
type Option func(*Engine)

// WithRNG makes every shuffle draw from rng, for reproducible games
func WithRNG(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithDeck installs a specific deck, e.g. deck.Stacked in tests. The deck is
// used as given and not shuffled. Rebuilds refill it in place, so they
// shuffle with the deck's own rng rather than WithRNG's.
func WithDeck(d *deck.Deck) Option {
	return func(e *Engine) { e.deck = d }
}

// WithMaxPlayers lowers the table capacity. Values outside 1..MaxPlayers are
// clamped.
func WithMaxPlayers(n int) Option {
	return func(e *Engine) { e.maxPlayers = max(1, min(n, MaxPlayers)) }
}

// WithReshuffleThreshold overrides ReshuffleThreshold. Zero disables
// automatic rebuilds, which is only sensible with a stacked deck.
func WithReshuffleThreshold(n int) Option {
	return func(e *Engine) { e.reshuffle = max(0, n) }
}

// WithEventBus routes engine events to bus
func WithEventBus(bus EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithLogger sets the logger used for debug tracing
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger.WithPrefix("engine") }
}

// New creates an engine with a shuffled deck, waiting for players
func New(opts ...Option) *Engine {
	e := &Engine{
		maxPlayers: MaxPlayers,
		reshuffle:  ReshuffleThreshold,
		state:      WaitingForPlayers,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.bus == nil {
		e.bus = NewEventBus()
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	if e.deck == nil {
		e.deck = deck.NewShuffled(e.rng)
	}

	return e
}

// EventBus returns the bus engine events are published on
func (e *Engine) EventBus() EventBus {
	return e.bus
}

// State returns the current state machine position
func (e *Engine) State() State {
	return e.state
}

// Round returns the number of rounds started so far
func (e *Engine) Round() int {
	return e.round
}

// PlayerCount returns the roster size
func (e *Engine) PlayerCount() int {
	return len(e.players)
}

// AddPlayer seats a new player. It returns false when the table is full or
// the id is already seated. A player joining mid-round sits out until the
// next deal.
func (e *Engine) AddPlayer(id, name string, balance uint) bool {
	if len(e.players) >= e.maxPlayers {
		e.logger.Debug("Table full", "player", id, "capacity", e.maxPlayers)
		return false
	}
	if e.indexOf(id) >= 0 {
		e.logger.Debug("Duplicate player", "player", id)
		return false
	}

	p := NewPlayer(id, name, balance)
	if e.state == PlayerTurn {
		p.IsActive = false
	}
	e.players = append(e.players, p)

	e.logger.Debug("Player joined", "player", id, "name", name, "balance", balance)
	e.bus.Publish(PlayerJoinedEvent{Player: p.clone(), eventTime: now()})
	return true
}

// RemovePlayer takes a player off the roster between rounds. Any unsettled
// bet is returned to their balance first.
func (e *Engine) RemovePlayer(id string) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	if e.state == PlayerTurn {
		return ErrRoundInProgress
	}

	p := e.players[idx]
	refund := p.Bet
	p.Balance += refund
	p.Bet = 0
	e.players = append(e.players[:idx], e.players[idx+1:]...)

	e.logger.Debug("Player left", "player", id, "refund", refund)
	e.bus.Publish(PlayerLeftEvent{Player: p.clone(), Refund: refund, eventTime: now()})
	return nil
}

// PlaceBet stakes amount for the next round, moving it from balance to bet.
// A previous unsettled bet is returned before the new one is taken.
func (e *Engine) PlaceBet(id string, amount uint) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	if e.state == PlayerTurn {
		return ErrRoundInProgress
	}
	if amount == 0 {
		return ErrInvalidBet
	}

	p := e.players[idx]
	if amount > p.Balance+p.Bet {
		return fmt.Errorf("%w: bet %d, balance %d", ErrInsufficientBalance, amount, p.Balance+p.Bet)
	}

	p.Balance = p.Balance + p.Bet - amount
	p.Bet = amount

	e.logger.Debug("Bet placed", "player", id, "amount", amount, "balance", p.Balance)
	e.bus.Publish(BetPlacedEvent{PlayerID: id, Name: p.Name, Amount: amount, Balance: p.Balance, eventTime: now()})
	return nil
}

// StartNewRound clears every hand, rebuilds the deck when it runs low and
// deals two cards to each player and the dealer, players first on each pass.
func (e *Engine) StartNewRound() error {
	if len(e.players) == 0 {
		return ErrNoPlayers
	}
	if e.state == PlayerTurn {
		return ErrRoundInProgress
	}

	e.dealer = Hand{}
	for _, p := range e.players {
		p.Hand = Hand{}
		p.IsActive = true
		p.Result = nil
	}

	reshuffled := false
	if e.deck.Remaining() < e.reshuffle {
		e.deck.Reset()
		reshuffled = true
		e.logger.Debug("Deck rebuilt", "round", e.round+1)
	}

	for range 2 {
		for _, p := range e.players {
			e.dealTo(p.ID, &p.Hand)
		}
		e.dealTo(DealerID, &e.dealer)
	}

	e.round++
	e.current = 0
	e.state = PlayerTurn

	e.logger.Debug("Round started", "round", e.round, "players", len(e.players), "deck", e.deck.Remaining())
	var up deck.Card
	if e.dealer.Len() > 0 {
		up = e.dealer.Cards[0]
	}
	e.bus.Publish(RoundStartEvent{
		Round:     e.round,
		Players:   e.playerCopies(),
		DealerUp:  up,
		Reshuffle: reshuffled,
		eventTime: now(),
	})
	e.publishTurn()
	return nil
}

// PlayerAction applies action for the player whose turn it is. When the last
// player's turn ends the dealer plays and the round settles before this
// call returns.
func (e *Engine) PlayerAction(id string, action Action) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	if e.state != PlayerTurn || idx != e.current {
		return ErrNotPlayersTurn
	}

	p := e.players[idx]
	switch action {
	case Hit:
		e.dealTo(p.ID, &p.Hand)
		e.publishAction(p, action, false)
		if p.Hand.IsBusted() {
			p.IsActive = false
			e.advance()
		}

	case Stand:
		p.IsActive = false
		e.publishAction(p, action, false)
		e.advance()

	case DoubleDown:
		if p.Hand.Len() != 2 || p.Balance < p.Bet {
			return fmt.Errorf("%w: %d cards, bet %d, balance %d", ErrCannotDoubleDown, p.Hand.Len(), p.Bet, p.Balance)
		}
		p.Balance -= p.Bet
		p.Bet *= 2
		e.dealTo(p.ID, &p.Hand)
		p.IsActive = false
		e.publishAction(p, action, false)
		e.advance()

	case Split:
		return ErrSplitUnsupported

	default:
		return fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}

	return nil
}

// ForceStand ends a player's participation in the current round regardless
// of turn order. Transports use it for disconnects and turn timeouts. It is
// a no-op outside PlayerTurn or for a player who already finished.
func (e *Engine) ForceStand(id string) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}

	p := e.players[idx]
	if e.state != PlayerTurn || !p.IsActive {
		return nil
	}

	p.IsActive = false
	e.logger.Debug("Forced stand", "player", id, "current", idx == e.current)
	e.publishAction(p, Stand, true)

	if idx == e.current {
		e.advance()
	}
	return nil
}

// CurrentPlayerID returns the id of the player whose turn it is. ok is false
// when no player is due to act.
func (e *Engine) CurrentPlayerID() (id string, ok bool) {
	if e.state != PlayerTurn || e.current < 0 || e.current >= len(e.players) {
		return "", false
	}
	return e.players[e.current].ID, true
}

// Player returns a copy of the player with the given id
func (e *Engine) Player(id string) (Player, bool) {
	idx := e.indexOf(id)
	if idx < 0 {
		return Player{}, false
	}
	return e.players[idx].clone(), true
}

// advance moves the turn to the next active player after the current one.
// With nobody left the dealer plays and the round settles.
func (e *Engine) advance() {
	for next := e.current + 1; next < len(e.players); next++ {
		if e.players[next].IsActive {
			e.current = next
			e.publishTurn()
			return
		}
	}

	e.current = len(e.players)
	e.state = DealerTurn
	e.dealerPlay()
}

func (e *Engine) dealerPlay() {
	for e.dealer.Score() < DealerStandScore {
		if !e.dealTo(DealerID, &e.dealer) {
			e.logger.Warn("Deck exhausted during dealer turn", "round", e.round, "dealer", e.dealer.Score())
			break
		}
	}

	e.logger.Debug("Dealer done", "hand", e.dealer.String(), "score", e.dealer.Score())
	e.bus.Publish(DealerTurnEvent{Hand: e.dealer.clone(), eventTime: now()})

	e.state = GameEnd
	e.settle()
}

// settle pays every player dealt into the round against the dealer's final
// hand. Checks run in priority order: player bust, blackjacks, dealer bust,
// then score comparison.
func (e *Engine) settle() {
	dealerScore := e.dealer.Score()
	dealerBusted := e.dealer.IsBusted()
	dealerBlackjack := e.dealer.IsBlackjack()

	results := make([]PlayerResult, 0, len(e.players))
	for _, p := range e.players {
		if !p.inRound() {
			continue
		}

		score := p.Hand.Score()
		playerBlackjack := p.Hand.IsBlackjack()
		bet := p.Bet

		var outcome Outcome
		var payout uint
		switch {
		case p.Hand.IsBusted():
			outcome = OutcomeLose
		case playerBlackjack && !dealerBlackjack:
			outcome, payout = OutcomeBlackjack, bet+bet*3/2
		case !playerBlackjack && dealerBlackjack:
			outcome = OutcomeLose
		case playerBlackjack && dealerBlackjack:
			outcome, payout = OutcomePush, bet
		case dealerBusted || score > dealerScore:
			outcome, payout = OutcomeWin, bet*2
		case score == dealerScore:
			outcome, payout = OutcomePush, bet
		default:
			outcome = OutcomeLose
		}

		p.Balance += payout
		p.Bet = 0
		p.Result = &Result{Bet: bet, Payout: payout, Outcome: outcome}

		results = append(results, PlayerResult{
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    score,
			Balance:  p.Balance,
			Result:   *p.Result,
		})
		e.logger.Debug("Settled", "player", p.ID, "score", score, "dealer", dealerScore, "outcome", outcome, "payout", payout)
	}

	e.bus.Publish(RoundEndEvent{
		Round:     e.round,
		Dealer:    e.dealer.clone(),
		Results:   results,
		eventTime: now(),
	})
}

// dealTo moves the top card into hand. It reports false, dealing nothing,
// when the deck is empty.
func (e *Engine) dealTo(recipient string, hand *Hand) bool {
	c, ok := e.deck.DealOne()
	if !ok {
		e.logger.Warn("Deck empty, skipping deal", "recipient", recipient)
		return false
	}
	hand.Add(c)
	e.bus.Publish(CardDealtEvent{Recipient: recipient, Card: c, Score: hand.Score(), eventTime: now()})
	return true
}

func (e *Engine) publishTurn() {
	if id, ok := e.CurrentPlayerID(); ok {
		e.bus.Publish(TurnChangeEvent{
			Round:     e.round,
			PlayerID:  id,
			Name:      e.players[e.current].Name,
			Index:     e.current,
			eventTime: now(),
		})
	}
}

func (e *Engine) publishAction(p *Player, action Action, forced bool) {
	e.bus.Publish(PlayerActionEvent{
		PlayerID:  p.ID,
		Name:      p.Name,
		Action:    action,
		Hand:      p.Hand.clone(),
		Bet:       p.Bet,
		Balance:   p.Balance,
		Forced:    forced,
		eventTime: now(),
	})
}

func (e *Engine) indexOf(id string) int {
	for i, p := range e.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) playerCopies() []Player {
	out := make([]Player, len(e.players))
	for i, p := range e.players {
		out[i] = p.clone()
	}
	return out
}
