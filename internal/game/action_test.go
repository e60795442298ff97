package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	t.Parallel()
	for _, a := range []Action{Hit, Stand, DoubleDown, Split} {
		parsed, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	_, err := ParseAction("surrender")
	assert.ErrorIs(t, err, ErrInvalidAction)
	_, err = ParseAction("Hit")
	assert.ErrorIs(t, err, ErrInvalidAction, "names are case sensitive")
}

func TestActionJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(struct {
		Action Action `json:"action"`
	}{DoubleDown})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"double_down"}`, string(data))

	var msg struct {
		Action Action `json:"action"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"action":"stand"}`), &msg))
	assert.Equal(t, Stand, msg.Action)

	err = json.Unmarshal([]byte(`{"action":"fold"}`), &msg)
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = json.Marshal(Action(9))
	assert.Error(t, err)
}

func TestStateText(t *testing.T) {
	t.Parallel()
	for _, s := range []State{WaitingForPlayers, PlayerTurn, DealerTurn, GameEnd} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back State
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	assert.Equal(t, "State(7)", State(7).String())

	var s State
	assert.Error(t, s.UnmarshalText([]byte("Betting")))
}

func TestResultNet(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 15, Result{Bet: 10, Payout: 25}.Net())
	assert.Equal(t, 0, Result{Bet: 10, Payout: 10}.Net())
	assert.Equal(t, -10, Result{Bet: 10}.Net())
}
