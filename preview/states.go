package preview

import (
	"fmt"
	"image/color"

	"github.com/milk9111/fieldpath/points"
	"github.com/milk9111/fieldpath/presets"
)

// StateStyle is how one behavior state is drawn.
type StateStyle struct {
	Color color.Color
	Icon  string
}

// StateTable maps behavior states to their marker style.
type StateTable map[points.State]StateStyle

func DefaultStateTable() StateTable {
	return StateTable{
		points.StateIdle:        {Color: color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, Icon: "○"},
		points.StateMoving:      {Color: color.NRGBA{R: 0x1e, G: 0x90, B: 0xff, A: 0xff}, Icon: "●"},
		points.StateIntaking:    {Color: color.NRGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}, Icon: "⬇"},
		points.StateWingpushing: {Color: color.NRGBA{R: 0xff, G: 0x45, B: 0x00, A: 0xff}, Icon: "➤"},
		points.StateReleasing:   {Color: color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}, Icon: "⬆"},
	}
}

// StateTableFromSpec overlays spec entries on DefaultStateTable.
func StateTableFromSpec(specs map[string]presets.StateSpec) (StateTable, error) {
	table := DefaultStateTable()
	for name, spec := range specs {
		state, err := points.ParseState(name)
		if err != nil {
			return nil, fmt.Errorf("preview: state table: %w", err)
		}
		if state == points.StateNone {
			return nil, fmt.Errorf("preview: state table: empty state name")
		}
		entry := table[state]
		entry.Color = spec.Color.Or(entry.Color)
		if spec.Icon != "" {
			entry.Icon = spec.Icon
		}
		table[state] = entry
	}
	return table, nil
}

// Color returns the color for s, or fallback when s has no entry.
func (t StateTable) Color(s points.State, fallback color.Color) color.Color {
	if entry, ok := t[s]; ok && entry.Color != nil {
		return entry.Color
	}
	return fallback
}

func (t StateTable) Icon(s points.State) string {
	return t[s].Icon
}
