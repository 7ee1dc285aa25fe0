package session

// Mode selects where new points come from.
type Mode int

const (
	// ModeClick places points by clicking the canvas.
	ModeClick Mode = iota
	// ModeManual places points from typed coordinates; the canvas is inert.
	ModeManual
)

func (m Mode) String() string {
	switch m {
	case ModeClick:
		return "click"
	case ModeManual:
		return "manual"
	default:
		return "unknown"
	}
}

func (m Mode) Toggle() Mode {
	if m == ModeClick {
		return ModeManual
	}
	return ModeClick
}

func (m Mode) AcceptsClicks() bool { return m == ModeClick }

func (m Mode) ShowsManualFields() bool { return m == ModeManual }

// Cursor is the pointer affordance over the canvas.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorCrosshair
	CursorNotAllowed
)

func (m Mode) Cursor() Cursor {
	if m.AcceptsClicks() {
		return CursorCrosshair
	}
	return CursorNotAllowed
}

// View is which screen the session shows.
type View int

const (
	ViewEditor View = iota
	ViewResult
)

func (v View) String() string {
	if v == ViewResult {
		return "result"
	}
	return "editor"
}
