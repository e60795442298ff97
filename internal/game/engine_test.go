package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStackedEngine builds an engine whose deck deals cards in exactly the
// given order, with automatic rebuilds disabled.
func newStackedEngine(t *testing.T, cards string, opts ...Option) (*Engine, *EventRecorder) {
	t.Helper()
	rec := &EventRecorder{}
	bus := NewEventBus()
	bus.Subscribe(rec)

	base := []Option{
		WithDeck(deck.Stacked(deck.MustParseCards(cards)...)),
		WithReshuffleThreshold(0),
		WithEventBus(bus),
	}
	return New(append(base, opts...)...), rec
}

// seat adds players p1..pn with the given balance and bet
func seat(t *testing.T, e *Engine, n int, balance, bet uint) {
	t.Helper()
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		require.True(t, e.AddPlayer(id, "Player "+id, balance))
		if bet > 0 {
			require.NoError(t, e.PlaceBet(id, bet))
		}
	}
}

func player(t *testing.T, e *Engine, id string) Player {
	t.Helper()
	p, ok := e.Player(id)
	require.True(t, ok, "player %s", id)
	return p
}

func TestNewEngine(t *testing.T) {
	t.Parallel()
	e := New(WithRNG(randutil.New(1)))

	assert.Equal(t, WaitingForPlayers, e.State())
	assert.Equal(t, deck.Size, len(e.Snapshot().Deck))
	_, ok := e.CurrentPlayerID()
	assert.False(t, ok)
}

func TestAddPlayerCapacity(t *testing.T) {
	t.Parallel()
	e := New()
	for i := 0; i < MaxPlayers; i++ {
		require.True(t, e.AddPlayer(fmt.Sprintf("p%d", i), "p", 100))
	}

	assert.False(t, e.AddPlayer("p7", "Seventh", 100))
	assert.Equal(t, MaxPlayers, e.PlayerCount())
}

func TestAddPlayerRejectsDuplicateID(t *testing.T) {
	t.Parallel()
	e := New()
	require.True(t, e.AddPlayer("p1", "Alice", 100))
	assert.False(t, e.AddPlayer("p1", "Alice again", 100))
	assert.Equal(t, 1, e.PlayerCount())
}

func TestWithMaxPlayersClamps(t *testing.T) {
	t.Parallel()
	e := New(WithMaxPlayers(2))
	require.True(t, e.AddPlayer("a", "a", 1))
	require.True(t, e.AddPlayer("b", "b", 1))
	assert.False(t, e.AddPlayer("c", "c", 1))

	big := New(WithMaxPlayers(50))
	for i := 0; i < MaxPlayers; i++ {
		require.True(t, big.AddPlayer(fmt.Sprint(i), "x", 1))
	}
	assert.False(t, big.AddPlayer("extra", "x", 1))
}

func TestStartNewRoundWithoutPlayers(t *testing.T) {
	t.Parallel()
	e := New()
	require.ErrorIs(t, e.StartNewRound(), ErrNoPlayers)
	assert.Equal(t, WaitingForPlayers, e.State())
}

func TestStartNewRoundDealOrder(t *testing.T) {
	t.Parallel()
	// p1 p2 dealer, p1 p2 dealer
	e, _ := newStackedEngine(t, "2s3s4s5s6s7s")
	seat(t, e, 2, 100, 0)

	require.NoError(t, e.StartNewRound())

	assert.Equal(t, "2♠ 5♠", player(t, e, "p1").Hand.String())
	assert.Equal(t, "3♠ 6♠", player(t, e, "p2").Hand.String())
	assert.Equal(t, "4♠ 7♠", e.Snapshot().DealerHand.String())
	assert.Equal(t, PlayerTurn, e.State())

	id, ok := e.CurrentPlayerID()
	require.True(t, ok)
	assert.Equal(t, "p1", id)
}

func TestStartNewRoundRejectedMidRound(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsTh9s8h")
	seat(t, e, 1, 100, 0)
	require.NoError(t, e.StartNewRound())
	assert.ErrorIs(t, e.StartNewRound(), ErrRoundInProgress)
}

func TestCardConservationAfterDeal(t *testing.T) {
	t.Parallel()
	e := New(WithRNG(randutil.New(99)))
	seat(t, e, MaxPlayers, 100, 0)
	require.NoError(t, e.StartNewRound())

	s := e.Snapshot()
	seen := make(map[deck.Card]bool)
	all := append([]deck.Card{}, s.Deck...)
	all = append(all, s.DealerHand.Cards...)
	for _, p := range s.Players {
		all = append(all, p.Hand.Cards...)
	}
	for _, c := range all {
		require.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
	assert.Len(t, all, deck.Size)
}

func TestDeckRebuiltWhenLow(t *testing.T) {
	t.Parallel()
	rec := &EventRecorder{}
	bus := NewEventBus()
	bus.Subscribe(rec)
	// Ten cards is below the default threshold of 20
	e := New(
		WithDeck(deck.Stacked(deck.MustParseCards("2s3s4s5s6s7s8s9sTsJs")...)),
		WithRNG(randutil.New(5)),
		WithEventBus(bus),
	)
	seat(t, e, 2, 100, 0)

	require.NoError(t, e.StartNewRound())
	assert.Equal(t, deck.Size-6, len(e.Snapshot().Deck))

	var start RoundStartEvent
	for _, ev := range rec.Events {
		if rs, ok := ev.(RoundStartEvent); ok {
			start = rs
		}
	}
	assert.True(t, start.Reshuffle)
}

func TestDeckResetKeepsRNG(t *testing.T) {
	t.Parallel()
	// a threshold above the deck size rebuilds before every round
	newEngine := func() *Engine {
		e := New(WithRNG(randutil.New(7)), WithReshuffleThreshold(deck.Size+1))
		seat(t, e, 1, 100, 0)
		return e
	}
	a, b := newEngine(), newEngine()
	d := a.deck

	for range 3 {
		require.NoError(t, a.StartNewRound())
		require.NoError(t, b.StartNewRound())
		assert.Equal(t, a.Snapshot().Deck, b.Snapshot().Deck)
		require.NoError(t, a.ForceStand("p1"))
		require.NoError(t, b.ForceStand("p1"))
	}
	assert.Same(t, d, a.deck, "the deck is refilled in place")
}

func TestTurnOrderThreeStands(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsThTcTd"+"9s8h7c7d")
	seat(t, e, 3, 100, 10)
	require.NoError(t, e.StartNewRound())

	assert.Equal(t, 0, e.Snapshot().CurrentPlayerIndex)
	require.NoError(t, e.PlayerAction("p1", Stand))
	assert.Equal(t, 1, e.Snapshot().CurrentPlayerIndex)
	require.NoError(t, e.PlayerAction("p2", Stand))
	assert.Equal(t, 2, e.Snapshot().CurrentPlayerIndex)
	require.NoError(t, e.PlayerAction("p3", Stand))

	assert.Equal(t, GameEnd, e.State())
	_, ok := e.CurrentPlayerID()
	assert.False(t, ok)

	// dealer 17 stands; 19 and 18 win, 17 pushes
	assert.Equal(t, uint(110), player(t, e, "p1").Balance)
	assert.Equal(t, uint(110), player(t, e, "p2").Balance)
	assert.Equal(t, uint(100), player(t, e, "p3").Balance)
}

func TestSettlementScenario(t *testing.T) {
	t.Parallel()
	// A: K Q (20)  B: K 6 then T (bust)  C: A K (blackjack)  dealer: K Q (20)
	e, rec := newStackedEngine(t, "KsKhAsKd"+"Qs6hKcQd"+"Th")
	seat(t, e, 3, 100, 10)
	require.NoError(t, e.StartNewRound())

	require.NoError(t, e.PlayerAction("p1", Stand))
	require.NoError(t, e.PlayerAction("p2", Hit))
	assert.True(t, player(t, e, "p2").Hand.IsBusted())
	assert.Equal(t, 2, e.Snapshot().CurrentPlayerIndex)
	require.NoError(t, e.PlayerAction("p3", Stand))

	require.Equal(t, GameEnd, e.State())
	assert.Equal(t, 20, e.Snapshot().DealerHand.Score())

	a, b, c := player(t, e, "p1"), player(t, e, "p2"), player(t, e, "p3")
	assert.Equal(t, uint(100), a.Balance, "push returns stake")
	assert.Equal(t, uint(90), b.Balance, "bust forfeits stake")
	assert.Equal(t, uint(115), c.Balance, "blackjack pays 10 + 15")

	assert.Equal(t, OutcomePush, a.Result.Outcome)
	assert.Equal(t, OutcomeLose, b.Result.Outcome)
	assert.Equal(t, Result{Bet: 10, Payout: 25, Outcome: OutcomeBlackjack}, *c.Result)
	for _, p := range []Player{a, b, c} {
		assert.Zero(t, p.Bet, "bet cleared after settlement")
	}

	end, ok := rec.Events[len(rec.Events)-1].(RoundEndEvent)
	require.True(t, ok, "last event should be round_end")
	assert.Len(t, end.Results, 3)
}

func TestSettlementBranches(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cards   string // p1, dealer, p1, dealer, then dealer draws
		bet     uint
		outcome Outcome
		payout  uint
	}{
		{name: "both blackjack push", cards: "AsAhKsKh", bet: 10, outcome: OutcomePush, payout: 10},
		{name: "dealer blackjack beats 20", cards: "KsAhQsKh", bet: 10, outcome: OutcomeLose},
		{name: "dealer busts", cards: "Ts6hTdTh9c", bet: 10, outcome: OutcomeWin, payout: 20},
		{name: "higher score wins", cards: "TsTh9d7h", bet: 10, outcome: OutcomeWin, payout: 20},
		{name: "lower score loses", cards: "TsTh7d9h", bet: 10, outcome: OutcomeLose},
		{name: "equal score pushes", cards: "TsTh8d8h", bet: 10, outcome: OutcomePush, payout: 10},
		{name: "blackjack pays three to two", cards: "AsThKs9h", bet: 10, outcome: OutcomeBlackjack, payout: 25},
		{name: "odd bet blackjack rounds down", cards: "AsThKs9h", bet: 5, outcome: OutcomeBlackjack, payout: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newStackedEngine(t, tt.cards)
			seat(t, e, 1, 100, tt.bet)
			require.NoError(t, e.StartNewRound())
			require.NoError(t, e.PlayerAction("p1", Stand))

			p := player(t, e, "p1")
			require.NotNil(t, p.Result)
			assert.Equal(t, tt.outcome, p.Result.Outcome)
			assert.Equal(t, tt.payout, p.Result.Payout)
			assert.Equal(t, 100-tt.bet+tt.payout, p.Balance)
		})
	}
}

func TestDealerBlackjackBeatsThreeCard21(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "7sAh7dKh7c")
	seat(t, e, 1, 100, 10)
	require.NoError(t, e.StartNewRound())
	require.NoError(t, e.PlayerAction("p1", Hit))
	require.NoError(t, e.PlayerAction("p1", Stand))

	p := player(t, e, "p1")
	assert.Equal(t, 21, p.Hand.Score())
	assert.Equal(t, OutcomeLose, p.Result.Outcome)
	assert.Equal(t, uint(90), p.Balance)
}

func TestDealerStandsOnSoft17(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsAhTd6h"+"2c")
	seat(t, e, 1, 100, 0)
	require.NoError(t, e.StartNewRound())
	require.NoError(t, e.PlayerAction("p1", Stand))

	s := e.Snapshot()
	assert.Equal(t, 2, s.DealerHand.Len())
	assert.Equal(t, 17, s.DealerHand.Score())
	assert.Len(t, s.Deck, 1)
}

func TestDealerDrawsBelow17(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsTdTh2h"+"3c2d")
	seat(t, e, 1, 100, 0)
	require.NoError(t, e.StartNewRound())
	require.NoError(t, e.PlayerAction("p1", Stand))

	// 12 + 3 = 15, + 2 = 17
	assert.Equal(t, "T♦ 2♥ 3♣ 2♦", e.Snapshot().DealerHand.String())
	assert.Equal(t, 17, e.Snapshot().DealerHand.Score())
}

func TestDealerStopsWhenDeckEmpty(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "Ts2dTh2c")
	seat(t, e, 1, 100, 10)
	require.NoError(t, e.StartNewRound())
	require.NoError(t, e.PlayerAction("p1", Stand))

	assert.Equal(t, GameEnd, e.State())
	assert.Equal(t, 4, e.Snapshot().DealerHand.Score())
	assert.Equal(t, OutcomeWin, player(t, e, "p1").Result.Outcome)
}

func TestHitKeepsTurnUntilBust(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "2s9s9h"+"3sTs8h"+"4d5d")
	seat(t, e, 2, 100, 0)
	require.NoError(t, e.StartNewRound())

	// p1: 2 3, hits 4 -> 9, still their turn
	require.NoError(t, e.PlayerAction("p1", Hit))
	id, _ := e.CurrentPlayerID()
	assert.Equal(t, "p1", id)
	assert.True(t, player(t, e, "p1").IsActive)

	// p2: 9 T, hits 5 -> 24 bust, round ends
	require.NoError(t, e.PlayerAction("p1", Stand))
	require.NoError(t, e.PlayerAction("p2", Hit))
	p2 := player(t, e, "p2")
	assert.True(t, p2.Hand.IsBusted())
	assert.False(t, p2.IsActive)
	assert.Equal(t, GameEnd, e.State())
}

func TestDoubleDown(t *testing.T) {
	t.Parallel()
	// p1: 5 6 doubles into 9 = 20, p2: T 8, dealer: T 7
	e, _ := newStackedEngine(t, "5sTcTh"+"6s8c7h"+"9c")
	require.True(t, e.AddPlayer("p1", "Alice", 60))
	require.True(t, e.AddPlayer("p2", "Bob", 100))
	require.NoError(t, e.PlaceBet("p1", 10))
	require.NoError(t, e.StartNewRound())

	require.Equal(t, uint(50), player(t, e, "p1").Balance)
	require.NoError(t, e.PlayerAction("p1", DoubleDown))

	p1 := player(t, e, "p1")
	assert.Equal(t, uint(40), p1.Balance)
	assert.Equal(t, uint(20), p1.Bet)
	assert.Equal(t, 3, p1.Hand.Len())
	assert.False(t, p1.IsActive)

	id, _ := e.CurrentPlayerID()
	assert.Equal(t, "p2", id)

	require.NoError(t, e.PlayerAction("p2", Stand))
	p1 = player(t, e, "p1")
	assert.Equal(t, Result{Bet: 20, Payout: 40, Outcome: OutcomeWin}, *p1.Result)
	assert.Equal(t, uint(80), p1.Balance)
}

func TestDoubleDownRejected(t *testing.T) {
	t.Parallel()

	t.Run("insufficient balance", func(t *testing.T) {
		e, _ := newStackedEngine(t, "5sTh6s7h9c")
		require.True(t, e.AddPlayer("p1", "Alice", 100))
		require.NoError(t, e.PlaceBet("p1", 60))
		require.NoError(t, e.StartNewRound())

		before := e.Snapshot()
		err := e.PlayerAction("p1", DoubleDown)
		require.ErrorIs(t, err, ErrCannotDoubleDown)
		assert.Equal(t, before, e.Snapshot())
	})

	t.Run("more than two cards", func(t *testing.T) {
		e, _ := newStackedEngine(t, "2sTh3s7h4c9c")
		seat(t, e, 1, 100, 10)
		require.NoError(t, e.StartNewRound())
		require.NoError(t, e.PlayerAction("p1", Hit))

		before := e.Snapshot()
		require.ErrorIs(t, e.PlayerAction("p1", DoubleDown), ErrCannotDoubleDown)
		assert.Equal(t, before, e.Snapshot())
	})
}

func TestPlayerActionErrors(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsThTcTd9s8h")
	seat(t, e, 2, 100, 10)

	require.ErrorIs(t, e.PlayerAction("p1", Stand), ErrNotPlayersTurn, "no round yet")
	require.NoError(t, e.StartNewRound())
	before := e.Snapshot()

	assert.ErrorIs(t, e.PlayerAction("ghost", Hit), ErrPlayerNotFound)
	assert.ErrorIs(t, e.PlayerAction("p2", Stand), ErrNotPlayersTurn)
	assert.ErrorIs(t, e.PlayerAction("p1", Split), ErrSplitUnsupported)
	assert.ErrorIs(t, e.PlayerAction("p1", Action(42)), ErrInvalidAction)
	assert.Equal(t, before, e.Snapshot())

	require.NoError(t, e.PlayerAction("p1", Stand))
	require.NoError(t, e.PlayerAction("p2", Stand))
	assert.ErrorIs(t, e.PlayerAction("p2", Hit), ErrNotPlayersTurn, "round over")
}

func TestPlaceBet(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsTh9s8h")
	require.True(t, e.AddPlayer("p1", "Alice", 100))

	assert.ErrorIs(t, e.PlaceBet("ghost", 10), ErrPlayerNotFound)
	assert.ErrorIs(t, e.PlaceBet("p1", 0), ErrInvalidBet)
	assert.ErrorIs(t, e.PlaceBet("p1", 101), ErrInsufficientBalance)

	require.NoError(t, e.PlaceBet("p1", 30))
	p := player(t, e, "p1")
	assert.Equal(t, uint(30), p.Bet)
	assert.Equal(t, uint(70), p.Balance)

	// replacing a bet refunds the old one first
	require.NoError(t, e.PlaceBet("p1", 100))
	p = player(t, e, "p1")
	assert.Equal(t, uint(100), p.Bet)
	assert.Equal(t, uint(0), p.Balance)

	require.ErrorIs(t, e.PlaceBet("p1", 101), ErrInsufficientBalance)
	p = player(t, e, "p1")
	assert.Equal(t, uint(100), p.Bet, "failed bet leaves previous stake intact")

	require.NoError(t, e.StartNewRound())
	assert.ErrorIs(t, e.PlaceBet("p1", 10), ErrRoundInProgress)
}

func TestRemovePlayer(t *testing.T) {
	t.Parallel()
	e, rec := newStackedEngine(t, "TsThTcTd9s8h")
	seat(t, e, 2, 100, 25)

	require.NoError(t, e.RemovePlayer("p2"))
	assert.Equal(t, 1, e.PlayerCount())
	assert.ErrorIs(t, e.RemovePlayer("p2"), ErrPlayerNotFound)

	var left PlayerLeftEvent
	for _, ev := range rec.Events {
		if l, ok := ev.(PlayerLeftEvent); ok {
			left = l
		}
	}
	assert.Equal(t, uint(25), left.Refund)
	assert.Equal(t, uint(100), left.Player.Balance)

	require.NoError(t, e.StartNewRound())
	assert.ErrorIs(t, e.RemovePlayer("p1"), ErrRoundInProgress)
}

func TestForceStand(t *testing.T) {
	t.Parallel()
	e, rec := newStackedEngine(t, "TsThTcTd"+"9s8h7c7d")
	seat(t, e, 3, 100, 10)
	require.NoError(t, e.StartNewRound())

	// p3 leaves early: marked done but p1 keeps the turn
	require.NoError(t, e.ForceStand("p3"))
	id, _ := e.CurrentPlayerID()
	assert.Equal(t, "p1", id)
	assert.False(t, player(t, e, "p3").IsActive)

	// current player forced: turn moves on
	require.NoError(t, e.ForceStand("p1"))
	id, _ = e.CurrentPlayerID()
	assert.Equal(t, "p2", id)

	// already finished: no-op
	require.NoError(t, e.ForceStand("p1"))
	assert.ErrorIs(t, e.ForceStand("ghost"), ErrPlayerNotFound)

	// p2 stands and the round settles, skipping p3's turn
	require.NoError(t, e.PlayerAction("p2", Stand))
	assert.Equal(t, GameEnd, e.State())
	assert.Equal(t, OutcomePush, player(t, e, "p3").Result.Outcome)

	forced := 0
	for _, ev := range rec.Events {
		if a, ok := ev.(PlayerActionEvent); ok && a.Forced {
			forced++
		}
	}
	assert.Equal(t, 2, forced)
}

func TestJoinMidRoundSitsOut(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsTh9s8h")
	seat(t, e, 1, 100, 10)
	require.NoError(t, e.StartNewRound())

	require.True(t, e.AddPlayer("late", "Latecomer", 100))
	assert.False(t, player(t, e, "late").IsActive)

	require.NoError(t, e.PlayerAction("p1", Stand))
	assert.Equal(t, GameEnd, e.State())
	late := player(t, e, "late")
	assert.Nil(t, late.Result)
	assert.Equal(t, uint(100), late.Balance)
}

func TestNextRoundResetsHands(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsTh9s8h"+"2s3s4s5s")
	seat(t, e, 1, 100, 10)
	require.NoError(t, e.StartNewRound())
	require.NoError(t, e.PlayerAction("p1", Stand))
	require.Equal(t, GameEnd, e.State())

	require.NoError(t, e.StartNewRound())
	p := player(t, e, "p1")
	assert.Equal(t, "2♠ 4♠", p.Hand.String())
	assert.True(t, p.IsActive)
	assert.Nil(t, p.Result)
	assert.Equal(t, 2, e.Round())
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsTh9s8h")
	seat(t, e, 1, 100, 10)
	require.NoError(t, e.StartNewRound())

	s := e.Snapshot()
	s.Players[0].Balance = 1_000_000
	s.Players[0].Hand.Cards[0] = deck.NewCard(deck.Clubs, deck.Two)
	s.DealerHand.Cards[0] = deck.NewCard(deck.Clubs, deck.Two)

	fresh := e.Snapshot()
	assert.Equal(t, uint(90), fresh.Players[0].Balance)
	assert.Equal(t, "T♠ 9♠", fresh.Players[0].Hand.String())
	assert.Equal(t, "T♥ 8♥", fresh.DealerHand.String())
}

func TestPublicSnapshotHidesSecrets(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "TsTh9s8h2c")
	seat(t, e, 1, 100, 10)
	require.NoError(t, e.StartNewRound())

	pub := e.Public()
	assert.Nil(t, pub.Deck)
	assert.Equal(t, "T♥", pub.DealerHand.String())
	assert.Equal(t, 1, pub.DealerHiddenCards)

	require.NoError(t, e.PlayerAction("p1", Stand))
	pub = e.Public()
	assert.Equal(t, "T♥ 8♥", pub.DealerHand.String())
	assert.Zero(t, pub.DealerHiddenCards)
}

func TestSnapshotJSON(t *testing.T) {
	t.Parallel()
	e, _ := newStackedEngine(t, "AsTh9s8h")
	seat(t, e, 1, 100, 10)
	require.NoError(t, e.StartNewRound())

	data, err := json.Marshal(e.Snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "PlayerTurn", decoded["state"])
	assert.Equal(t, float64(0), decoded["current_player_index"])
	assert.Contains(t, decoded, "dealer_hand")
	assert.NotContains(t, decoded, "deck", "empty deck is omitted")

	players := decoded["players"].([]any)
	p := players[0].(map[string]any)
	assert.Equal(t, true, p["is_active"])
	assert.Equal(t, float64(10), p["bet"])

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, PlayerTurn, back.State)
	assert.Equal(t, "A♠ 9♠", back.Players[0].Hand.String())
}

func TestEventSequence(t *testing.T) {
	t.Parallel()
	e, rec := newStackedEngine(t, "TsTh9s8h")
	require.True(t, e.AddPlayer("p1", "Alice", 100))
	require.NoError(t, e.PlaceBet("p1", 10))
	require.NoError(t, e.StartNewRound())
	require.NoError(t, e.PlayerAction("p1", Stand))

	assert.Equal(t, []EventType{
		EventTypePlayerJoined,
		EventTypeBetPlaced,
		EventTypeCardDealt, EventTypeCardDealt, EventTypeCardDealt, EventTypeCardDealt,
		EventTypeRoundStart,
		EventTypeTurnChange,
		EventTypePlayerAction,
		EventTypeDealerTurn,
		EventTypeRoundEnd,
	}, rec.Types())
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()
	bus := NewEventBus()
	count := 0
	unsubscribe := bus.Subscribe(SubscriberFunc(func(GameEvent) { count++ }))
	e := New(WithEventBus(bus))

	e.AddPlayer("p1", "Alice", 1)
	unsubscribe()
	e.AddPlayer("p2", "Bob", 1)
	assert.Equal(t, 1, count)
}

func TestSeededGamesAreReproducible(t *testing.T) {
	t.Parallel()
	play := func() Snapshot {
		e := New(WithRNG(randutil.New(77)))
		seat(t, e, 3, 500, 20)
		for round := 0; round < 10; round++ {
			require.NoError(t, e.StartNewRound())
			for e.State() == PlayerTurn {
				id, _ := e.CurrentPlayerID()
				p := player(t, e, id)
				action := Stand
				if p.Hand.Score() < 15 {
					action = Hit
				}
				require.NoError(t, e.PlayerAction(id, action))
			}
			for i := 1; i <= 3; i++ {
				id := fmt.Sprintf("p%d", i)
				if player(t, e, id).Balance >= 20 {
					require.NoError(t, e.PlaceBet(id, 20))
				}
			}
		}
		return e.Snapshot()
	}
	assert.Equal(t, play(), play())
}
