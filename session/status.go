package session

import "time"

// StatusTTL is how long a status message stays visible.
const StatusTTL = 5 * time.Second

type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "info"
	}
}

// Status is a user-visible message.
type Status struct {
	Kind StatusKind
	Text string
	At   time.Time
}

// Active reports whether the message should still be shown at now.
func (s Status) Active(now time.Time) bool {
	if s.Text == "" {
		return false
	}
	return now.Sub(s.At) < StatusTTL
}
