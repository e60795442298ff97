package game

import (
	"fmt"
)

// Action is a player's move on their turn. The set is closed; every switch
// over Action must handle all of them.
type Action uint8

const (
	Hit Action = iota
	Stand
	DoubleDown
	Split
)

var actionNames = [...]string{"hit", "stand", "double_down", "split"}

// String returns the wire name of the action
func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", a)
}

// ParseAction converts a wire name into an Action
func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

func (a Action) MarshalText() ([]byte, error) {
	if int(a) >= len(actionNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAction, a)
	}
	return []byte(actionNames[a]), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
