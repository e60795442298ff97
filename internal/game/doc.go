// Package game implements the blackjack rules engine.
//
// The main type is Engine, which owns one deck, the dealer's hand and an
// ordered roster of up to six players, and sequences rounds from the deal
// through settlement.
//
// # Basic Usage
//
//	e := game.New()
//	e.AddPlayer("p1", "Alice", 1000)
//	e.AddPlayer("p2", "Bob", 1000)
//	_ = e.PlaceBet("p1", 10)
//	_ = e.PlaceBet("p2", 25)
//	_ = e.StartNewRound()
//	_ = e.PlayerAction("p1", game.Stand)
//	_ = e.PlayerAction("p2", game.Hit)
//
// The only point where the engine waits for input is between player turns.
// Once the last player stands, busts or doubles, the dealer draws to 17 and
// every hand settles inside that same PlayerAction call.
//
// # Deterministic Testing
//
// Inject a seeded RNG for reproducible shuffles, or a stacked deck for exact
// control over every card:
//
//	e := game.New(game.WithRNG(randutil.New(42)))
//
//	cards := deck.MustParseCards("TsTh9c" + "9d8s7h")
//	e := game.New(game.WithDeck(deck.Stacked(cards...)), game.WithReshuffleThreshold(0))
//
// # Observability
//
// The engine never logs to a global. Pass WithEventBus to receive typed
// events (round start, every card, actions, turn changes, settlement) and
// WithLogger for debug tracing.
package game
