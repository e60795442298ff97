// Package protocol defines the JSON messages exchanged between the blackjack
// server and its clients. Every frame is a Message envelope whose Data field
// holds one of the payload structs below.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/blackjack/internal/game"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeJoinRoom     MessageType = "join_room"
	TypeLeaveRoom    MessageType = "leave_room"
	TypePlaceBet     MessageType = "place_bet"
	TypeStartRound   MessageType = "start_round"
	TypePlayerAction MessageType = "player_action"

	// Server -> Client
	TypeWelcome     MessageType = "welcome"
	TypeRoomState   MessageType = "room_state"
	TypeGameMessage MessageType = "game_message"
	TypeError       MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope for every frame on the wire
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp. A nil data
// produces a message without a payload.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	msg := &Message{Type: messageType, Timestamp: time.Now()}
	if data == nil {
		return msg, nil
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", messageType, err)
	}
	msg.Data = dataBytes
	return msg, nil
}

// Decode unmarshals the payload into v
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no data", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// Client -> Server payloads

// JoinRoom asks to be seated in a room, creating it if needed
type JoinRoom struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// PlaceBet stakes chips for the next round
type PlaceBet struct {
	Amount uint `json:"amount"`
}

// PlayerAction carries one of "hit", "stand", "double_down" or "split"
type PlayerAction struct {
	Action string `json:"action"`
}

// Server -> Client payloads

// Welcome tells a new connection the player id the server assigned to it
type Welcome struct {
	PlayerID string `json:"playerId"`
}

// RoomState is broadcast to every member after each change to the room
type RoomState struct {
	RoomID       string        `json:"roomId"`
	Players      []game.Player `json:"players"`
	GameState    game.Snapshot `json:"gameState"`
	IsGameActive bool          `json:"isGameActive"`
}

// Game message kinds
const (
	GamePlayerJoined = "player_joined"
	GamePlayerLeft   = "player_left"
	GameStarted      = "game_started"
	GamePlayerAction = "player_action"
	GameRoundEnded   = "round_ended"
)

// GameMessage announces something that happened in the room. Text is a
// ready-to-print rendering for simple clients.
type GameMessage struct {
	Type     string          `json:"type"`
	PlayerID string          `json:"playerId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Text     string          `json:"text,omitempty"`
}

// NewGameMessage builds a GameMessage with payload marshalled to JSON
func NewGameMessage(kind, playerID string, payload any, text string) (GameMessage, error) {
	gm := GameMessage{Type: kind, PlayerID: playerID, Text: text}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return GameMessage{}, fmt.Errorf("marshal %s payload: %w", kind, err)
		}
		gm.Payload = data
	}
	return gm, nil
}

// DecodePayload unmarshals the payload into v
func (gm GameMessage) DecodePayload(v any) error {
	if len(gm.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", gm.Type)
	}
	return json.Unmarshal(gm.Payload, v)
}

// ActionPayload is the payload of a player_action game message
type ActionPayload struct {
	PlayerID string `json:"playerId"`
	Action   string `json:"action"`
	Forced   bool   `json:"forced,omitempty"`
}

// RoundEndedPayload is the payload of a round_ended game message
type RoundEndedPayload struct {
	Round   int                 `json:"round"`
	Dealer  game.Hand           `json:"dealer"`
	Results []game.PlayerResult `json:"results"`
}

// Error reports a rejected request
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest        = "bad_request"
	ErrCodeUnknownType       = "unknown_type"
	ErrCodeNotInRoom         = "not_in_room"
	ErrCodeAlreadyInRoom     = "already_in_room"
	ErrCodeRoomFull          = "room_full"
	ErrCodeNoPlayers         = "no_players"
	ErrCodePlayerNotFound    = "player_not_found"
	ErrCodeNotYourTurn       = "not_your_turn"
	ErrCodeCannotDoubleDown  = "cannot_double_down"
	ErrCodeInvalidAction     = "invalid_action"
	ErrCodeSplitUnsupported  = "split_unsupported"
	ErrCodeRoundInProgress   = "round_in_progress"
	ErrCodeInvalidBet        = "invalid_bet"
	ErrCodeInsufficientFunds = "insufficient_balance"
	ErrCodeInternal          = "internal"
)

// Health is the body of the /health endpoint
type Health struct {
	Status    string    `json:"status"`
	Rooms     int       `json:"rooms"`
	Players   int       `json:"players"`
	Timestamp time.Time `json:"timestamp"`
}
