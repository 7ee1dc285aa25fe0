// Package points holds the authored path: an ordered list of points, each
// optionally tagged with a behavior state.
package points

import (
	"errors"
	"fmt"
	"strconv"
)

// MinRenderPoints is the fewest points a render request may carry.
const MinRenderPoints = 2

var ErrIndexOutOfRange = errors.New("points: index out of range")

// Op names the mutation that triggered a change notification.
type Op int

const (
	OpAdd Op = iota
	OpRemove
	OpClear
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Change describes one mutation. Index is the affected storage index, or -1
// for Clear.
type Change struct {
	Op    Op
	Index int
	Len   int
}

// Listener is notified once per mutation.
type Listener func(Change)

// Store is the ordered point sequence owned by one authoring session. It is
// not safe for concurrent use; all calls must come from the owner.
type Store struct {
	pts       []Point
	listeners []Listener
}

func NewStore() *Store { return &Store{} }

// OnChange registers a listener. Listeners run in registration order.
func (s *Store) OnChange(l Listener) {
	if l == nil {
		return
	}
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(c Change) {
	for _, l := range s.listeners {
		l(c)
	}
}

// Add appends p. Duplicates are allowed.
func (s *Store) Add(p Point) {
	s.pts = append(s.pts, p)
	s.notify(Change{Op: OpAdd, Index: len(s.pts) - 1, Len: len(s.pts)})
}

// Remove deletes the point at storage index i and shifts later points down.
// An out-of-range index leaves the store untouched and notifies nobody.
func (s *Store) Remove(i int) error {
	if i < 0 || i >= len(s.pts) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(s.pts))
	}
	s.pts = append(s.pts[:i], s.pts[i+1:]...)
	s.notify(Change{Op: OpRemove, Index: i, Len: len(s.pts)})
	return nil
}

// Clear empties the store. Calling it on an empty store still notifies.
func (s *Store) Clear() {
	s.pts = nil
	s.notify(Change{Op: OpClear, Index: -1, Len: 0})
}

func (s *Store) Len() int { return len(s.pts) }

// At returns the point at storage index i.
func (s *Store) At(i int) (Point, bool) {
	if i < 0 || i >= len(s.pts) {
		return Point{}, false
	}
	return s.pts[i], true
}

// Points returns a copy of the sequence in path order.
func (s *Store) Points() []Point {
	out := make([]Point, len(s.pts))
	copy(out, s.pts)
	return out
}

// CanRender reports whether there are enough points for a remote render.
func (s *Store) CanRender() bool {
	return len(s.pts) >= MinRenderPoints
}

// Describe formats the list row for storage index i using the 1-based
// display index.
func (s *Store) Describe(i int) string {
	p, ok := s.At(i)
	if !ok {
		return ""
	}
	return DescribePoint(i, p)
}

// DescribePoint formats p as the row at storage index i.
func DescribePoint(i int, p Point) string {
	row := fmt.Sprintf("Point %d: (%s, %s)", i+1, formatCoord(p.X), formatCoord(p.Y))
	if p.HasState() {
		row += " [" + p.State.String() + "]"
	}
	return row
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
