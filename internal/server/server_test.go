package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	rooms := NewRoomService(testSettings(), quartz.NewReal(), testLogger())
	srv := NewServer(rooms, quartz.NewReal(), testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType, data any) {
	t.Helper()
	msg, err := protocol.NewMessage(msgType, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// expect reads until a message of msgType arrives
func expect(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType) *protocol.Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg protocol.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return &msg
		}
	}
}

func TestWebSocketJoinAndPlay(t *testing.T) {
	t.Parallel()
	_, ts := startTestServer(t)
	conn := dial(t, ts)

	var welcome protocol.Welcome
	require.NoError(t, expect(t, conn, protocol.TypeWelcome).Decode(&welcome))
	require.NotEmpty(t, welcome.PlayerID)

	send(t, conn, protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: "table", PlayerName: "Alice"})
	var state protocol.RoomState
	require.NoError(t, expect(t, conn, protocol.TypeRoomState).Decode(&state))
	assert.Equal(t, "table", state.RoomID)
	require.Len(t, state.Players, 1)
	assert.Equal(t, welcome.PlayerID, state.Players[0].ID)

	send(t, conn, protocol.TypePlaceBet, protocol.PlaceBet{Amount: 10})
	require.NoError(t, expect(t, conn, protocol.TypeRoomState).Decode(&state))
	assert.Equal(t, uint(10), state.Players[0].Bet)

	send(t, conn, protocol.TypeStartRound, nil)
	require.NoError(t, expect(t, conn, protocol.TypeRoomState).Decode(&state))
	assert.Equal(t, 1, state.GameState.Round)

	require.True(t, state.IsGameActive)
	send(t, conn, protocol.TypePlayerAction, protocol.PlayerAction{Action: "stand"})
	for state.GameState.State != game.GameEnd {
		require.NoError(t, expect(t, conn, protocol.TypeRoomState).Decode(&state))
	}
	require.NotNil(t, state.Players[0].Result)
}

func TestWebSocketErrors(t *testing.T) {
	t.Parallel()
	_, ts := startTestServer(t)
	conn := dial(t, ts)
	expect(t, conn, protocol.TypeWelcome)

	tests := []struct {
		msgType protocol.MessageType
		data    any
		code    string
	}{
		{protocol.MessageType("shuffle"), nil, protocol.ErrCodeUnknownType},
		{protocol.TypeStartRound, nil, protocol.ErrCodeNotInRoom},
		{protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: " "}, protocol.ErrCodeBadRequest},
		{protocol.TypePlayerAction, protocol.PlayerAction{Action: "surrender"}, protocol.ErrCodeInvalidAction},
	}

	for _, tt := range tests {
		send(t, conn, tt.msgType, tt.data)
		var e protocol.Error
		require.NoError(t, expect(t, conn, protocol.TypeError).Decode(&e))
		assert.Equal(t, tt.code, e.Code, "message %s", tt.msgType)
	}

	send(t, conn, protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: "r", PlayerName: "Bob"})
	expect(t, conn, protocol.TypeRoomState)
	send(t, conn, protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: "r", PlayerName: "Bob"})
	var e protocol.Error
	require.NoError(t, expect(t, conn, protocol.TypeError).Decode(&e))
	assert.Equal(t, protocol.ErrCodeAlreadyInRoom, e.Code)
}

func TestDisconnectLeavesRoom(t *testing.T) {
	t.Parallel()
	srv, ts := startTestServer(t)

	alice := dial(t, ts)
	expect(t, alice, protocol.TypeWelcome)
	send(t, alice, protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: "r", PlayerName: "Alice"})
	expect(t, alice, protocol.TypeRoomState)

	bob := dial(t, ts)
	expect(t, bob, protocol.TypeWelcome)
	send(t, bob, protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: "r", PlayerName: "Bob"})
	expect(t, bob, protocol.TypeRoomState)
	assert.Equal(t, 2, srv.rooms.PlayerCount())

	require.NoError(t, alice.Close())

	// expect times out if the departure is never broadcast
	var state protocol.RoomState
	for len(state.Players) != 1 {
		require.NoError(t, expect(t, bob, protocol.TypeRoomState).Decode(&state))
	}
	assert.Equal(t, "Bob", state.Players[0].Name)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv, ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	healthURL, err := HealthURL("ws" + strings.TrimPrefix(ts.URL, "http") + "/ws")
	require.NoError(t, err)
	require.NoError(t, WaitForHealthy(ctx, quartz.NewReal(), healthURL))

	conn := dial(t, ts)
	expect(t, conn, protocol.TypeWelcome)
	send(t, conn, protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: "r", PlayerName: "Alice"})
	expect(t, conn, protocol.TypeRoomState)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var health protocol.Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "OK", health.Status)
	assert.Equal(t, 1, health.Rooms)
	assert.Equal(t, 1, health.Players)
	assert.Equal(t, 1, srv.ConnectionCount())
}

func TestErrorCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want string
	}{
		{game.ErrNotPlayersTurn, protocol.ErrCodeNotYourTurn},
		{fmt.Errorf("%w: bet 5, balance 1", game.ErrInsufficientBalance), protocol.ErrCodeInsufficientFunds},
		{fmt.Errorf("%w: p9", game.ErrPlayerNotFound), protocol.ErrCodePlayerNotFound},
		{game.ErrSplitUnsupported, protocol.ErrCodeSplitUnsupported},
		{ErrTooManyRooms, protocol.ErrCodeRoomFull},
		{ErrAlreadySeated, protocol.ErrCodeAlreadyInRoom},
		{errors.New("boom"), protocol.ErrCodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorCode(tt.err), tt.err.Error())
	}
}

func TestTruncateName(t *testing.T) {
	t.Parallel()
	euros := strings.Repeat("€", 40)
	got := truncateName(euros)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("€", maxNameLength), got)

	assert.Equal(t, "Alice", truncateName("Alice"))
	assert.Equal(t, strings.Repeat("a", maxNameLength), truncateName(strings.Repeat("a", 50)))
}

func TestHealthURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"ws://localhost:8080/ws", "http://localhost:8080/health", false},
		{"wss://tables.example.com/ws?room=r1", "https://tables.example.com/health", false},
		{"http://127.0.0.1:9000", "http://127.0.0.1:9000/health", false},
		{"localhost:3001", "http://localhost:3001/health", false},
		{"ftp://localhost/ws", "", true},
		{"ws:///ws", "", true},
	}
	for _, tt := range tests {
		got, err := HealthURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestWaitForHealthyRetries(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(protocol.Health{Status: "OK"})
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, WaitForHealthy(ctx, quartz.NewReal(), ts.URL+"/health"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitForHealthyGivesUp(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(protocol.Health{Status: "DRAINING"})
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err := WaitForHealthy(ctx, quartz.NewReal(), ts.URL+"/health")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
