package server

import (
	"errors"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrNoPlayers, protocol.ErrCodeNoPlayers},
	{game.ErrPlayerNotFound, protocol.ErrCodePlayerNotFound},
	{game.ErrNotPlayersTurn, protocol.ErrCodeNotYourTurn},
	{game.ErrCannotDoubleDown, protocol.ErrCodeCannotDoubleDown},
	{game.ErrInvalidAction, protocol.ErrCodeInvalidAction},
	{game.ErrSplitUnsupported, protocol.ErrCodeSplitUnsupported},
	{game.ErrRoundInProgress, protocol.ErrCodeRoundInProgress},
	{game.ErrInvalidBet, protocol.ErrCodeInvalidBet},
	{game.ErrInsufficientBalance, protocol.ErrCodeInsufficientFunds},
	{ErrRoomFull, protocol.ErrCodeRoomFull},
	{ErrTooManyRooms, protocol.ErrCodeRoomFull},
	{ErrAlreadySeated, protocol.ErrCodeAlreadyInRoom},
}

// errorCode maps an error to the stable code sent to clients
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return protocol.ErrCodeInternal
}
