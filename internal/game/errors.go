package game

import "errors"

// Errors returned by Engine operations. A rejected operation leaves the
// engine unchanged.
var (
	ErrNoPlayers           = errors.New("no players in the game")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrNotPlayersTurn      = errors.New("not this player's turn")
	ErrCannotDoubleDown    = errors.New("cannot double down")
	ErrInvalidAction       = errors.New("invalid action")
	ErrSplitUnsupported    = errors.New("split is not supported")
	ErrRoundInProgress     = errors.New("round in progress")
	ErrInvalidBet          = errors.New("bet must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
