package coords

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestToCanvasNonUniformScale(t *testing.T) {
	// 800x400 canvas displayed at 400x400: x is compressed 2:1, y is 1:1
	screen := Rect{X: 10, Y: 20, W: 400, H: 400}
	cases := []struct {
		name   string
		px, py float64
		wantX  int
		wantY  int
	}{
		{"origin", 10, 20, 0, 0},
		{"center", 210, 220, 400, 200},
		{"subpixel_rounds", 10.3, 20.6, 1, 1},
		{"last_pixel", 409.9, 419.9, 799, 399},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			x, y := ToCanvas(c.px, c.py, screen, 800, 400)
			if x != c.wantX || y != c.wantY {
				t.Fatalf("ToCanvas(%v,%v) = (%d,%d), want (%d,%d)", c.px, c.py, x, y, c.wantX, c.wantY)
			}
		})
	}
}

func TestToCanvasStaysInsideBounds(t *testing.T) {
	screens := []Rect{
		{X: 0, Y: 0, W: 640, H: 480},
		{X: 13, Y: 7, W: 333, H: 911},
		{X: 100, Y: 50, W: 1280, H: 200},
	}
	const w, h = 720, 360
	for _, s := range screens {
		for px := s.X; px < s.X+s.W; px += 0.75 {
			for _, py := range []float64{s.Y, s.Y + s.H/2, s.Y + s.H - 0.01} {
				x, y := ToCanvas(px, py, s, w, h)
				if x < 0 || x >= w || y < 0 || y >= h {
					t.Fatalf("screen %+v: (%v,%v) mapped outside canvas: (%d,%d)", s, px, py, x, y)
				}
			}
		}
	}
}

func TestToCanvasDegenerateRect(t *testing.T) {
	x, y := ToCanvas(5, 5, Rect{W: 0, H: 10}, 100, 100)
	if x != 0 || y != 0 {
		t.Fatalf("expected origin for empty rect, got (%d,%d)", x, y)
	}
}

func TestToScreenRoundTrip(t *testing.T) {
	screen := Rect{X: 40, Y: 30, W: 500, H: 250}
	sx, sy := ToScreen(360, 180, screen, 720, 360)
	x, y := ToCanvas(sx, sy, screen, 720, 360)
	if x != 360 || y != 180 {
		t.Fatalf("round trip got (%d,%d)", x, y)
	}
}

func TestFitRect(t *testing.T) {
	area := Rect{X: 0, Y: 0, W: 1000, H: 500}
	t.Run("stretch", func(t *testing.T) {
		if got := FitRect(area, 720, 720, FitStretch); got != area {
			t.Fatalf("stretch should fill area, got %+v", got)
		}
	})
	t.Run("contain", func(t *testing.T) {
		got := FitRect(area, 720, 720, FitContain)
		want := Rect{X: 250, Y: 0, W: 500, H: 500}
		if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.W, want.W) || !near(got.H, want.H) {
			t.Fatalf("contain got %+v, want %+v", got, want)
		}
	})
}
