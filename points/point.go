package points

import (
	"errors"
	"fmt"
	"strings"
)

// State annotates what the robot is doing at a point.
type State int

const (
	StateNone State = iota
	StateIdle
	StateMoving
	StateIntaking
	StateWingpushing
	StateReleasing
)

var ErrUnknownState = errors.New("points: unknown state")

// States lists every annotation in display order.
var States = []State{StateIdle, StateMoving, StateIntaking, StateWingpushing, StateReleasing}

func (s State) String() string {
	switch s {
	case StateNone:
		return ""
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateIntaking:
		return "intaking"
	case StateWingpushing:
		return "wingpushing"
	case StateReleasing:
		return "releasing"
	default:
		return "unknown"
	}
}

// Title is the label shown next to markers, e.g. "Wingpushing".
func (s State) Title() string {
	name := s.String()
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// ParseState accepts any case and surrounding whitespace. The empty string
// yields StateNone.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return StateNone, nil
	case "idle":
		return StateIdle, nil
	case "moving":
		return StateMoving, nil
	case "intaking":
		return StateIntaking, nil
	case "wingpushing":
		return StateWingpushing, nil
	case "releasing":
		return StateReleasing, nil
	}
	return StateNone, fmt.Errorf("%w: %q", ErrUnknownState, s)
}

func (s State) MarshalText() ([]byte, error) {
	if s < StateNone || s > StateReleasing {
		return nil, fmt.Errorf("%w: %d", ErrUnknownState, int(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Point is one authored location in canvas space.
type Point struct {
	X     float64
	Y     float64
	State State
}

// HasState reports whether the point carries an annotation.
func (p Point) HasState() bool {
	return p.State != StateNone
}
