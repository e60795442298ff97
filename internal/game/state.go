package game

import "fmt"

// State is the position of the round state machine
type State uint8

const (
	WaitingForPlayers State = iota
	PlayerTurn
	DealerTurn
	GameEnd
)

var stateNames = [...]string{"WaitingForPlayers", "PlayerTurn", "DealerTurn", "GameEnd"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

func (s State) MarshalText() ([]byte, error) {
	if int(s) >= len(stateNames) {
		return nil, fmt.Errorf("invalid state %d", s)
	}
	return []byte(stateNames[s]), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("invalid state %q", text)
}
