package server

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
)

// Connection represents a WebSocket connection to a client. Each connection
// is one player; the id is assigned by the server on connect.
type Connection struct {
	conn      *websocket.Conn
	send      chan *protocol.Message
	playerID  string
	room      *Room
	rooms     *RoomService
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, playerID string, rooms *RoomService, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:     conn,
		send:     make(chan *protocol.Message, 256),
		playerID: playerID,
		rooms:    rooms,
		logger:   logger.WithPrefix("conn").With("player", playerID),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// PlayerID returns the id assigned to this connection
func (c *Connection) PlayerID() string {
	return c.playerID
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client without blocking
func (c *Connection) SendMessage(msg *protocol.Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

func (c *Connection) currentRoom() *Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Connection) setRoom(room *Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	maxNameLength = 32
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *protocol.Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case protocol.TypeJoinRoom:
		var data protocol.JoinRoom
		if err := msg.Decode(&data); err != nil {
			c.sendError(protocol.ErrCodeBadRequest, "Failed to parse join_room data")
			return
		}
		c.handleJoinRoom(data)

	case protocol.TypeLeaveRoom:
		c.handleLeaveRoom()

	case protocol.TypePlaceBet:
		var data protocol.PlaceBet
		if err := msg.Decode(&data); err != nil {
			c.sendError(protocol.ErrCodeBadRequest, "Failed to parse place_bet data")
			return
		}
		c.withRoom(func(room *Room) error {
			return room.PlaceBet(c.playerID, data.Amount)
		})

	case protocol.TypeStartRound:
		c.withRoom(func(room *Room) error {
			return room.StartRound()
		})

	case protocol.TypePlayerAction:
		var data protocol.PlayerAction
		if err := msg.Decode(&data); err != nil {
			c.sendError(protocol.ErrCodeBadRequest, "Failed to parse player_action data")
			return
		}
		action, err := game.ParseAction(data.Action)
		if err != nil {
			c.sendError(protocol.ErrCodeInvalidAction, err.Error())
			return
		}
		c.withRoom(func(room *Room) error {
			return room.Act(c.playerID, action)
		})

	default:
		c.sendError(protocol.ErrCodeUnknownType, "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleJoinRoom(data protocol.JoinRoom) {
	if c.currentRoom() != nil {
		c.sendError(protocol.ErrCodeAlreadyInRoom, "Leave the current room first")
		return
	}

	roomID := strings.TrimSpace(data.RoomID)
	name := strings.TrimSpace(data.PlayerName)
	if roomID == "" || name == "" {
		c.sendError(protocol.ErrCodeBadRequest, "roomId and playerName are required")
		return
	}
	name = truncateName(name)

	c.logger.Info("Join room request", "room", roomID, "name", name)
	room, err := c.rooms.Join(roomID, c.playerID, name, c)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.setRoom(room)
}

func (c *Connection) handleLeaveRoom() {
	room := c.currentRoom()
	if room == nil {
		c.sendError(protocol.ErrCodeNotInRoom, "Not in a room")
		return
	}

	c.logger.Info("Leave room request", "room", room.ID())
	c.setRoom(nil)
	if err := room.Leave(c.playerID); err != nil {
		c.logger.Debug("Leave failed", "room", room.ID(), "error", err)
	}
}

// withRoom runs fn against the connection's room and reports any error
func (c *Connection) withRoom(fn func(*Room) error) {
	room := c.currentRoom()
	if room == nil {
		c.sendError(protocol.ErrCodeNotInRoom, "Join a room first")
		return
	}
	if err := fn(room); err != nil {
		c.logger.Debug("Request rejected", "room", room.ID(), "error", err)
		c.sendError(errorCode(err), err.Error())
	}
}

// leave is called once the socket is gone
func (c *Connection) leave() {
	room := c.currentRoom()
	if room == nil {
		return
	}
	c.setRoom(nil)
	if err := room.Leave(c.playerID); err != nil {
		c.logger.Debug("Cleanup leave failed", "room", room.ID(), "error", err)
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := protocol.NewMessage(protocol.TypeError, protocol.Error{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

// truncateName caps a display name at maxNameLength characters
func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= maxNameLength {
		return name
	}
	return string([]rune(name)[:maxNameLength])
}
