package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
)

var (
	// ErrRoomFull is returned when a room has no free seat
	ErrRoomFull = errors.New("room is full")
	// ErrTooManyRooms is returned when creating a room would exceed max_rooms
	ErrTooManyRooms = errors.New("too many rooms")
	// ErrAlreadySeated is returned when the player id already holds a seat
	ErrAlreadySeated = errors.New("player already seated")

	errRoomClosed = errors.New("room closed")
)

// Peer is anything a room can push messages to. Send must not block.
type Peer interface {
	SendMessage(msg *protocol.Message) error
}

// Room is one blackjack table. Every command runs under the room's mutex,
// so the Engine only ever sees serialized calls.
type Room struct {
	id      string
	mu      sync.Mutex
	engine  *game.Engine
	members map[string]Peer // playerID -> peer
	// departing players left during a round and are removed once it ends
	departing map[string]bool
	balance   uint
	closed    bool

	clock       quartz.Clock
	turnTimeout time.Duration
	turnTimer   *quartz.Timer
	turnKey     string

	formatter *game.EventFormatter
	pending   []protocol.GameMessage
	logger    *log.Logger
	onEmpty   func(*Room)
}

func newRoom(id string, settings TableSettings, clock quartz.Clock, logger *log.Logger, onEmpty func(*Room), opts ...game.Option) *Room {
	r := &Room{
		id:          id,
		members:     make(map[string]Peer),
		departing:   make(map[string]bool),
		balance:     settings.StartingBalance,
		clock:       clock,
		turnTimeout: settings.TurnTimeout(),
		formatter:   game.NewEventFormatter(game.FormattingOptions{ShowForced: true}),
		logger:      logger.WithPrefix("room").With("room", id),
		onEmpty:     onEmpty,
	}

	bus := game.NewEventBus()
	bus.Subscribe(game.SubscriberFunc(r.onEvent))

	base := []game.Option{
		game.WithMaxPlayers(settings.MaxPlayers),
		game.WithReshuffleThreshold(settings.ReshuffleThreshold),
		game.WithEventBus(bus),
		game.WithLogger(r.logger),
	}
	r.engine = game.New(append(base, opts...)...)
	return r
}

// ID returns the room id
func (r *Room) ID() string {
	return r.id
}

// EventBus exposes the engine's bus so extra subscribers (round history)
// can attach. Subscribers run under the room lock.
func (r *Room) EventBus() game.EventBus {
	return r.engine.EventBus()
}

// PlayerCount returns the number of seated players
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.PlayerCount()
}

// Join seats a player and starts pushing room updates to peer. A player
// who left mid-round and comes back before it ends keeps their seat.
func (r *Room) Join(playerID, name string, peer Peer) error {
	return r.do(func() error {
		if r.departing[playerID] {
			delete(r.departing, playerID)
			r.members[playerID] = peer
			r.logger.Info("Player rejoined before round end", "player", playerID)
			return nil
		}
		if _, ok := r.engine.Player(playerID); ok {
			return fmt.Errorf("%w: %s", ErrAlreadySeated, playerID)
		}
		if !r.engine.AddPlayer(playerID, name, r.balance) {
			return ErrRoomFull
		}
		r.members[playerID] = peer
		return nil
	})
}

// Leave removes a player. During a round their hand is force-stood and the
// seat is freed when the round ends. Disconnects go through here too.
func (r *Room) Leave(playerID string) error {
	return r.do(func() error {
		if _, ok := r.engine.Player(playerID); !ok {
			return fmt.Errorf("%w: %s", game.ErrPlayerNotFound, playerID)
		}
		delete(r.members, playerID)
		if r.engine.State() == game.PlayerTurn {
			r.departing[playerID] = true
			return r.engine.ForceStand(playerID)
		}
		return r.engine.RemovePlayer(playerID)
	})
}

// PlaceBet stakes amount for the player's next round
func (r *Room) PlaceBet(playerID string, amount uint) error {
	return r.do(func() error {
		return r.engine.PlaceBet(playerID, amount)
	})
}

// StartRound deals a new round
func (r *Room) StartRound() error {
	return r.do(r.engine.StartNewRound)
}

// Act applies a player action
func (r *Room) Act(playerID string, action game.Action) error {
	return r.do(func() error {
		return r.engine.PlayerAction(playerID, action)
	})
}

func (r *Room) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// State returns the room_state payload as it stands
func (r *Room) State() protocol.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roomState()
}

// do runs fn under the room lock and, when it succeeds, performs the
// follow-up every mutation needs: departures, broadcasts and the turn timer.
func (r *Room) do(fn func() error) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errRoomClosed
	}

	err := fn()
	if err == nil {
		r.afterChange()
	}
	r.pending = r.pending[:0]
	empty := r.engine.PlayerCount() == 0
	if empty {
		r.closed = true
		r.stopTurnTimer()
	}
	r.mu.Unlock()

	if empty && r.onEmpty != nil {
		r.onEmpty(r)
	}
	return err
}

func (r *Room) afterChange() {
	if r.engine.State() != game.PlayerTurn {
		for id := range r.departing {
			if err := r.engine.RemovePlayer(id); err != nil {
				r.logger.Warn("Failed to remove departed player", "player", id, "error", err)
			}
			delete(r.departing, id)
		}
	}

	r.broadcast(protocol.TypeRoomState, r.roomState())
	for _, gm := range r.pending {
		r.broadcast(protocol.TypeGameMessage, gm)
	}

	r.scheduleTurn()
}

func (r *Room) roomState() protocol.RoomState {
	snap := r.engine.Public()
	return protocol.RoomState{
		RoomID:       r.id,
		Players:      snap.Players,
		GameState:    snap,
		IsGameActive: snap.State == game.PlayerTurn,
	}
}

func (r *Room) broadcast(msgType protocol.MessageType, data any) {
	msg, err := protocol.NewMessage(msgType, data)
	if err != nil {
		r.logger.Error("Failed to create message", "type", msgType, "error", err)
		return
	}

	count := 0
	for id, peer := range r.members {
		if err := peer.SendMessage(msg); err != nil {
			r.logger.Debug("Failed to send message", "player", id, "error", err)
			continue
		}
		count++
	}
	r.logger.Debug("Broadcast", "type", msgType, "recipients", count)
}

// onEvent turns engine events into game_message payloads. It runs
// synchronously inside engine calls, so it only queues.
func (r *Room) onEvent(event game.GameEvent) {
	var (
		kind     string
		playerID string
		payload  any
	)

	switch e := event.(type) {
	case game.PlayerJoinedEvent:
		kind, playerID, payload = protocol.GamePlayerJoined, e.Player.ID, e.Player
	case game.PlayerLeftEvent:
		kind, playerID, payload = protocol.GamePlayerLeft, e.Player.ID, e.Player
	case game.RoundStartEvent:
		kind, payload = protocol.GameStarted, r.engine.Public()
	case game.PlayerActionEvent:
		kind, playerID = protocol.GamePlayerAction, e.PlayerID
		payload = protocol.ActionPayload{PlayerID: e.PlayerID, Action: e.Action.String(), Forced: e.Forced}
	case game.RoundEndEvent:
		kind = protocol.GameRoundEnded
		payload = protocol.RoundEndedPayload{Round: e.Round, Dealer: e.Dealer, Results: e.Results}
	default:
		return
	}

	gm, err := protocol.NewGameMessage(kind, playerID, payload, r.formatter.Format(event))
	if err != nil {
		r.logger.Error("Failed to create game message", "kind", kind, "error", err)
		return
	}
	r.pending = append(r.pending, gm)
}

// scheduleTurn arms the turn timer for whoever is due to act. The timer is
// only reset when the turn actually moved: a new round, a new player, or a
// new card for the same player.
func (r *Room) scheduleTurn() {
	id, ok := r.engine.CurrentPlayerID()
	if !ok || r.turnTimeout <= 0 {
		r.stopTurnTimer()
		return
	}

	p, _ := r.engine.Player(id)
	key := fmt.Sprintf("%d/%s/%d", r.engine.Round(), id, p.Hand.Len())
	if key == r.turnKey {
		return
	}

	r.stopTurnTimer()
	r.turnKey = key
	r.turnTimer = r.clock.AfterFunc(r.turnTimeout, func() {
		r.expireTurn(key, id)
	}, "room", "turn")
}

func (r *Room) stopTurnTimer() {
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
	r.turnKey = ""
}

func (r *Room) expireTurn(key, playerID string) {
	err := r.do(func() error {
		if r.turnKey != key {
			return errStaleTimer
		}
		r.turnTimer = nil
		r.turnKey = ""
		r.logger.Info("Turn timed out", "player", playerID, "timeout", r.turnTimeout)
		return r.engine.ForceStand(playerID)
	})
	if err != nil && !errors.Is(err, errStaleTimer) && !errors.Is(err, errRoomClosed) {
		r.logger.Warn("Turn timeout failed", "player", playerID, "error", err)
	}
}

var errStaleTimer = errors.New("stale turn timer")

// RoomService owns every room on the server
type RoomService struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	settings TableSettings
	clock    quartz.Clock
	logger   *log.Logger

	engineOptions func(roomID string) []game.Option
	history       game.RoundHistoryWriter
	newRoundID    func() string
}

// RoomOption configures a RoomService
type RoomOption func(*RoomService)

// WithEngineOptions supplies extra engine options for each new room, e.g. a
// stacked deck in tests.
func WithEngineOptions(fn func(roomID string) []game.Option) RoomOption {
	return func(s *RoomService) { s.engineOptions = fn }
}

// WithRoundHistory writes a transcript of every finished round
func WithRoundHistory(w game.RoundHistoryWriter, newID func() string) RoomOption {
	return func(s *RoomService) {
		s.history = w
		s.newRoundID = newID
	}
}

// NewRoomService creates an empty room registry
func NewRoomService(settings TableSettings, clock quartz.Clock, logger *log.Logger, opts ...RoomOption) *RoomService {
	s := &RoomService{
		rooms:    make(map[string]*Room),
		settings: settings,
		clock:    clock,
		logger:   logger.WithPrefix("rooms"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Join seats a player in roomID, creating the room on first use
func (s *RoomService) Join(roomID, playerID, name string, peer Peer) (*Room, error) {
	for {
		room, err := s.getOrCreate(roomID)
		if err != nil {
			return nil, err
		}

		err = room.Join(playerID, name, peer)
		if errors.Is(err, errRoomClosed) {
			// emptied between lookup and join; it is already unregistered
			continue
		}
		if err != nil {
			return nil, err
		}
		return room, nil
	}
}

func (s *RoomService) getOrCreate(roomID string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if ok && !room.isClosed() {
		return room, nil
	}
	// a closed room is still registered until its onEmpty runs; replace it
	if !ok && s.settings.MaxRooms > 0 && len(s.rooms) >= s.settings.MaxRooms {
		return nil, ErrTooManyRooms
	}

	var opts []game.Option
	if s.engineOptions != nil {
		opts = s.engineOptions(roomID)
	}
	room = newRoom(roomID, s.settings, s.clock, s.logger, s.remove, opts...)
	if s.history != nil {
		room.EventBus().Subscribe(game.NewRoundHistory(s.history, s.newRoundID, func(err error) {
			room.logger.Error("Failed to write round history", "error", err)
		}))
	}

	s.rooms[roomID] = room
	s.logger.Info("Room created", "room", roomID, "rooms", len(s.rooms))
	return room, nil
}

func (s *RoomService) remove(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rooms[room.id] == room {
		delete(s.rooms, room.id)
		s.logger.Info("Room closed", "room", room.id, "rooms", len(s.rooms))
	}
}

// Room returns a room by id
func (s *RoomService) Room(roomID string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

// RoomCount returns the number of open rooms
func (s *RoomService) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// PlayerCount returns the number of seated players across all rooms
func (s *RoomService) PlayerCount() int {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.Unlock()

	total := 0
	for _, r := range rooms {
		total += r.PlayerCount()
	}
	return total
}
