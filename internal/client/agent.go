package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/bot"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
)

// Stats summarises the rounds an agent has played
type Stats struct {
	Rounds  int
	Net     int
	Wins    int
	Pushes  int
	Losses  int
	Balance uint
}

// Agent seats a bot at a remote table. It bets a fixed unit between rounds,
// acts whenever room_state says it is its turn and, when it holds the first
// seat, deals the next round after a short delay.
type Agent struct {
	client   *Client
	bot      bot.Bot
	settings PlayerSettings
	clock    quartz.Clock
	logger   *log.Logger

	mu      sync.Mutex
	stats   Stats
	counted int    // last round whose result was recorded
	betFor  int    // round number after which the last bet was placed
	dealFor int    // round number after which the last deal was requested
	acted   string // round/hand size of the last decision
	done    chan struct{}
	err     error
	once    sync.Once
}

// NewAgent wires an agent to the client's event stream. Call before Connect
// so no message is missed.
func NewAgent(c *Client, b bot.Bot, settings PlayerSettings, clock quartz.Clock, logger *log.Logger) *Agent {
	a := &Agent{
		client:   c,
		bot:      b,
		settings: settings,
		clock:    clock,
		logger:   logger.WithPrefix("agent").With("name", settings.Name),
		betFor:   -1,
		dealFor:  -1,
		done:     make(chan struct{}),
	}

	c.AddEventHandler(protocol.TypeWelcome, a.handleWelcome)
	c.AddEventHandler(protocol.TypeRoomState, a.handleRoomState)
	c.AddEventHandler(protocol.TypeGameMessage, a.handleGameMessage)
	c.AddEventHandler(protocol.TypeError, a.handleError)
	return a
}

// Run blocks until the agent has played its rounds, the connection drops or
// ctx is cancelled
func (a *Agent) Run(ctx context.Context) (Stats, error) {
	var err error
	select {
	case <-a.done:
		err = a.err
	case <-a.client.Done():
		select {
		case <-a.done:
			err = a.err
		default:
			err = fmt.Errorf("connection closed")
		}
	case <-ctx.Done():
		err = ctx.Err()
	}
	return a.Stats(), err
}

// Stats returns a copy of the running totals
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *Agent) finish(err error) {
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

func (a *Agent) handleWelcome(*protocol.Message) {
	if err := a.client.JoinRoom(a.settings.Room, a.settings.Name); err != nil {
		a.finish(fmt.Errorf("join room: %w", err))
	}
}

func (a *Agent) handleRoomState(msg *protocol.Message) {
	select {
	case <-a.done:
		return
	default:
	}

	var rs protocol.RoomState
	if err := msg.Decode(&rs); err != nil {
		a.logger.Error("Failed to parse room state", "error", err)
		return
	}

	id := a.client.PlayerID()
	snap := rs.GameState
	me, ok := snap.Player(id)
	if !ok {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.Balance = me.Balance

	switch snap.State {
	case game.PlayerTurn:
		a.maybeAct(snap, id)
	case game.GameEnd, game.WaitingForPlayers:
		if a.record(snap.Round, me) {
			return
		}
		a.maybeBet(snap.Round, me)
		a.maybeDeal(snap, id, me)
	}
}

func (a *Agent) maybeAct(snap game.Snapshot, id string) {
	cur, ok := snap.CurrentPlayer()
	if !ok || cur.ID != id {
		return
	}
	key := fmt.Sprintf("%d/%d", snap.Round, cur.Hand.Len())
	if key == a.acted {
		return
	}

	situation, ok := bot.SituationFor(snap, id)
	if !ok {
		return
	}
	a.acted = key

	decision := a.bot.Decide(situation)
	a.logger.Debug("Acting", "hand", situation.Hand.String(), "dealer", situation.DealerUp.String(), "action", decision.Action, "reason", decision.Reasoning)
	if err := a.client.Act(decision.Action); err != nil {
		a.logger.Error("Failed to send action", "error", err)
	}
}

// record books a settled round and reports whether the agent is finished
func (a *Agent) record(round int, me game.Player) bool {
	if me.Result == nil || round <= a.counted {
		return false
	}
	a.counted = round

	r := me.Result
	a.stats.Rounds++
	a.stats.Net += r.Net()
	switch r.Outcome {
	case game.OutcomeWin, game.OutcomeBlackjack:
		a.stats.Wins++
	case game.OutcomePush:
		a.stats.Pushes++
	case game.OutcomeLose:
		a.stats.Losses++
	}
	a.logger.Info("Round settled", "round", round, "outcome", r.Outcome, "net", r.Net(), "balance", me.Balance)

	if a.settings.Rounds > 0 && a.stats.Rounds >= a.settings.Rounds {
		a.finish(nil)
		return true
	}
	return false
}

func (a *Agent) maybeBet(round int, me game.Player) {
	if me.Bet > 0 || a.betFor == round {
		return
	}
	amount := min(a.settings.Bet, me.Balance)
	if amount == 0 {
		a.logger.Warn("Out of money", "round", round)
		a.finish(fmt.Errorf("balance exhausted after %d rounds", a.stats.Rounds))
		return
	}

	a.betFor = round
	if err := a.client.PlaceBet(amount); err != nil {
		a.logger.Error("Failed to place bet", "error", err)
	}
}

// maybeDeal starts the next round once the first seat has its stake down
func (a *Agent) maybeDeal(snap game.Snapshot, id string, me game.Player) {
	if len(snap.Players) == 0 || snap.Players[0].ID != id || me.Bet == 0 || a.dealFor == snap.Round {
		return
	}
	a.dealFor = snap.Round

	deal := func() {
		if err := a.client.StartRound(); err != nil {
			a.logger.Error("Failed to start round", "error", err)
		}
	}
	if a.settings.Delay() <= 0 {
		deal()
		return
	}
	a.clock.AfterFunc(a.settings.Delay(), deal, "agent", "deal")
}

func (a *Agent) handleGameMessage(msg *protocol.Message) {
	var gm protocol.GameMessage
	if err := msg.Decode(&gm); err != nil {
		a.logger.Error("Failed to parse game message", "error", err)
		return
	}
	if gm.Text != "" {
		a.logger.Debug(gm.Text, "kind", gm.Type)
	}
}

func (a *Agent) handleError(msg *protocol.Message) {
	var e protocol.Error
	if err := msg.Decode(&e); err != nil {
		a.logger.Error("Failed to parse error", "error", err)
		return
	}

	switch e.Code {
	case protocol.ErrCodeRoomFull, protocol.ErrCodeBadRequest:
		a.finish(fmt.Errorf("%s: %s", e.Code, e.Message))
	case protocol.ErrCodeRoundInProgress, protocol.ErrCodeNotYourTurn:
		// another seat dealt or acted first
		a.logger.Debug("Request raced", "code", e.Code)
	default:
		a.logger.Warn("Server rejected request", "code", e.Code, "message", e.Message)
	}
}
