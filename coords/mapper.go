// Package coords converts pointer positions on screen into canvas space.
//
// The canvas is displayed inside an on-screen rectangle whose size may differ
// from the canvas' intrinsic pixel size, and the two axes may be stretched by
// different amounts. Each axis therefore gets its own scale factor.
package coords

import (
	"github.com/milk9111/fieldpath/common"
)

// Rect is an on-screen rectangle in screen pixels.
type Rect struct {
	X, Y float64
	W, H float64
}

// Contains reports whether (px, py) lies inside r. The right and bottom edges
// are exclusive.
func (r Rect) Contains(px, py float64) bool {
	return px >= r.X && py >= r.Y && px < r.X+r.W && py < r.Y+r.H
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Scale returns the independent horizontal and vertical scale factors that map
// screen distances inside r to canvas distances.
func Scale(screen Rect, intrinsicW, intrinsicH int) (sx, sy float64) {
	if screen.Empty() {
		return 0, 0
	}
	return float64(intrinsicW) / screen.W, float64(intrinsicH) / screen.H
}

// ToCanvas maps a pointer position (px, py) to integer canvas coordinates.
// Positions inside screen land in [0, intrinsicW) x [0, intrinsicH).
// Positions outside are mapped with the same transform and are not clamped.
func ToCanvas(px, py float64, screen Rect, intrinsicW, intrinsicH int) (int, int) {
	sx, sy := Scale(screen, intrinsicW, intrinsicH)
	if sx == 0 || sy == 0 {
		return 0, 0
	}
	x := common.RoundInt((px - screen.X) * sx)
	y := common.RoundInt((py - screen.Y) * sy)
	if screen.Contains(px, py) {
		// rounding can push the last screen pixel onto the far edge
		x = common.ClampInt(x, 0, intrinsicW-1)
		y = common.ClampInt(y, 0, intrinsicH-1)
	}
	return x, y
}

// ToScreen is the inverse of ToCanvas without rounding.
func ToScreen(cx, cy float64, screen Rect, intrinsicW, intrinsicH int) (float64, float64) {
	if intrinsicW <= 0 || intrinsicH <= 0 {
		return screen.X, screen.Y
	}
	return screen.X + cx*screen.W/float64(intrinsicW), screen.Y + cy*screen.H/float64(intrinsicH)
}

// FitMode selects how a canvas is laid out inside an available area.
type FitMode int

const (
	// FitStretch fills the area, allowing a different scale on each axis.
	FitStretch FitMode = iota
	// FitContain keeps the aspect ratio and centers the canvas.
	FitContain
)

func (m FitMode) String() string {
	switch m {
	case FitStretch:
		return "stretch"
	case FitContain:
		return "contain"
	default:
		return "unknown"
	}
}

// FitRect returns the on-screen rectangle a canvas of the given intrinsic size
// occupies inside area.
func FitRect(area Rect, intrinsicW, intrinsicH int, mode FitMode) Rect {
	if area.Empty() || intrinsicW <= 0 || intrinsicH <= 0 {
		return Rect{X: area.X, Y: area.Y}
	}
	if mode == FitStretch {
		return area
	}
	s := area.W / float64(intrinsicW)
	if hs := area.H / float64(intrinsicH); hs < s {
		s = hs
	}
	w := float64(intrinsicW) * s
	h := float64(intrinsicH) * s
	return Rect{
		X: area.X + (area.W-w)/2,
		Y: area.Y + (area.H-h)/2,
		W: w,
		H: h,
	}
}
