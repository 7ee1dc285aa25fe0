package points

import (
	"errors"
	"testing"
)

func TestStoreRemoveShiftsLaterPoints(t *testing.T) {
	cases := []struct {
		name string
		n    int
		k    int
	}{
		{"first", 5, 0},
		{"middle", 5, 2},
		{"last", 5, 4},
		{"single", 1, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewStore()
			orig := make([]Point, 0, c.n)
			for i := 0; i < c.n; i++ {
				p := Point{X: float64(i), Y: float64(i * 10)}
				orig = append(orig, p)
				s.Add(p)
			}
			if err := s.Remove(c.k); err != nil {
				t.Fatalf("Remove(%d): %v", c.k, err)
			}
			if s.Len() != c.n-1 {
				t.Fatalf("expected len %d, got %d", c.n-1, s.Len())
			}
			want := append(append([]Point{}, orig[:c.k]...), orig[c.k+1:]...)
			got := s.Points()
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("index %d: got %+v, want %+v", i, got[i], want[i])
				}
			}
			// every later element moved down by exactly one
			for j := c.k + 1; j < c.n; j++ {
				p, ok := s.At(j - 1)
				if !ok || p != orig[j] {
					t.Fatalf("original %d should now be at %d, got %+v", j, j-1, p)
				}
			}
		})
	}
}

func TestStoreRemoveScenario(t *testing.T) {
	s := NewStore()
	s.Add(Point{X: 1, Y: 1, State: StateMoving})
	s.Add(Point{X: 2, Y: 2})
	s.Add(Point{X: 3, Y: 3, State: StateIdle})

	if err := s.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := []Point{{X: 1, Y: 1, State: StateMoving}, {X: 3, Y: 3, State: StateIdle}}
	got := s.Points()
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
	if row := s.Describe(0); row != "Point 1: (1, 1) [moving]" {
		t.Fatalf("unexpected row 0: %q", row)
	}
	if row := s.Describe(1); row != "Point 2: (3, 3) [idle]" {
		t.Fatalf("unexpected row 1: %q", row)
	}
}

func TestStoreRemoveOutOfRange(t *testing.T) {
	s := NewStore()
	s.Add(Point{X: 1, Y: 2})
	s.Add(Point{X: 3, Y: 4})
	calls := 0
	s.OnChange(func(Change) { calls++ })

	for _, idx := range []int{-1, 2, 100} {
		err := s.Remove(idx)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Remove(%d): expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
	if calls != 0 {
		t.Fatalf("rejected removals must not notify, got %d calls", calls)
	}
	if got := s.Points(); len(got) != 2 || got[0].X != 1 || got[1].X != 3 {
		t.Fatalf("store corrupted: %+v", got)
	}
}

func TestStoreNotifiesEachListenerOncePerMutation(t *testing.T) {
	s := NewStore()
	var redraws, lists int
	var ops []Op
	s.OnChange(func(c Change) { redraws++; ops = append(ops, c.Op) })
	s.OnChange(func(Change) { lists++ })

	s.Add(Point{X: 1})
	s.Add(Point{X: 2})
	_ = s.Remove(0)
	s.Clear()
	s.Clear()

	if redraws != 5 || lists != 5 {
		t.Fatalf("expected 5 notifications per listener, got redraw=%d list=%d", redraws, lists)
	}
	want := []Op{OpAdd, OpAdd, OpRemove, OpClear, OpClear}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("op %d: got %v, want %v", i, ops[i], want[i])
		}
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store after clear")
	}
}

func TestStoreSnapshotIsIndependent(t *testing.T) {
	s := NewStore()
	s.Add(Point{X: 10, Y: 10})
	s.Add(Point{X: 50, Y: 50})
	snap := s.Points()
	s.Add(Point{X: 90, Y: 10})
	_ = s.Remove(0)
	if len(snap) != 2 || snap[0].X != 10 || snap[1].X != 50 {
		t.Fatalf("snapshot changed after mutation: %+v", snap)
	}
}

func TestStoreAllowsDuplicates(t *testing.T) {
	s := NewStore()
	p := Point{X: 5, Y: 5, State: StateIdle}
	s.Add(p)
	s.Add(p)
	if s.Len() != 2 {
		t.Fatalf("duplicates should be kept, got len %d", s.Len())
	}
	if s.CanRender() != true {
		t.Fatalf("two points should be renderable")
	}
}

func TestParseState(t *testing.T) {
	cases := []struct {
		in      string
		want    State
		wantErr bool
	}{
		{"", StateNone, false},
		{"idle", StateIdle, false},
		{" Moving ", StateMoving, false},
		{"INTAKING", StateIntaking, false},
		{"wingpushing", StateWingpushing, false},
		{"releasing", StateReleasing, false},
		{"flying", StateNone, true},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := ParseState(c.in)
			if c.wantErr {
				if !errors.Is(err, ErrUnknownState) {
					t.Fatalf("expected ErrUnknownState, got %v", err)
				}
				return
			}
			if err != nil || got != c.want {
				t.Fatalf("ParseState(%q) = %v, %v", c.in, got, err)
			}
		})
	}
	if StateWingpushing.Title() != "Wingpushing" {
		t.Fatalf("unexpected title %q", StateWingpushing.Title())
	}
}
