// Package dispatch builds render requests from the authored path and sends
// them to the remote rendering service.
package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/milk9111/fieldpath/points"
	"github.com/milk9111/fieldpath/presets"
)

var (
	ErrTooFewPoints            = errors.New("dispatch: too few points")
	ErrInvalidMethod           = errors.New("dispatch: invalid method")
	ErrInvalidCoordinateSystem = errors.New("dispatch: invalid coordinate system")
	ErrInvalidStyle            = errors.New("dispatch: invalid style")
)

// Method selects how the service turns points into a path.
type Method string

const (
	MethodPolyline Method = "polyline"
	MethodBezier   Method = "bezier"
	MethodSpline   Method = "spline"
	MethodAStar    Method = "astar"
	MethodHeatline Method = "heatline"
)

var Methods = []Method{MethodPolyline, MethodBezier, MethodSpline, MethodAStar, MethodHeatline}

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// CoordinateSystem tells the service how to interpret point values.
type CoordinateSystem string

const (
	CoordPixel CoordinateSystem = "pixel"
	CoordField CoordinateSystem = "field"
)

var CoordinateSystems = []CoordinateSystem{CoordPixel, CoordField}

func ParseCoordinateSystem(s string) (CoordinateSystem, error) {
	cs := CoordinateSystem(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range CoordinateSystems {
		if cs == known {
			return cs, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCoordinateSystem, s)
}

// Style is the path style applied by the service.
type Style struct {
	Color           string  `json:"color"`
	Width           int     `json:"width"`
	Opacity         float64 `json:"opacity"`
	Arrow           bool    `json:"arrow"`
	ShowStateLabels bool    `json:"show_state_labels"`
	StateIconSize   int     `json:"state_icon_size"`
}

func DefaultStyle() Style {
	return Style{
		Color:           "#FF0000",
		Width:           3,
		Opacity:         0.8,
		Arrow:           true,
		ShowStateLabels: true,
		StateIconSize:   20,
	}
}

// StyleFromSpec fills unset spec fields from DefaultStyle. Booleans are
// taken as written.
func StyleFromSpec(spec presets.StyleSpec) Style {
	s := DefaultStyle()
	if spec.Color != "" {
		s.Color = spec.Color
	}
	if spec.Width > 0 {
		s.Width = spec.Width
	}
	if spec.Opacity > 0 {
		s.Opacity = spec.Opacity
	}
	if spec.StateIconSize > 0 {
		s.StateIconSize = spec.StateIconSize
	}
	s.Arrow = spec.Arrow
	s.ShowStateLabels = spec.ShowStateLabels
	return s
}

func (s Style) Validate() error {
	if _, err := presets.ParseHexColor(s.Color); err != nil {
		return fmt.Errorf("%w: color %q", ErrInvalidStyle, s.Color)
	}
	if s.Width <= 0 {
		return fmt.Errorf("%w: width %d", ErrInvalidStyle, s.Width)
	}
	if s.Opacity < 0 || s.Opacity > 1 {
		return fmt.Errorf("%w: opacity %v", ErrInvalidStyle, s.Opacity)
	}
	if s.StateIconSize < 0 {
		return fmt.Errorf("%w: state icon size %d", ErrInvalidStyle, s.StateIconSize)
	}
	return nil
}

// WirePoint is a point as the service expects it. State is omitted for
// unannotated points.
type WirePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	State string  `json:"state,omitempty"`
}

// Request is the render request body. It is a value snapshot and shares no
// memory with the store it was built from.
type Request struct {
	Method           Method           `json:"method"`
	Points           []WirePoint      `json:"points"`
	CoordinateSystem CoordinateSystem `json:"coordinate_system"`
	Style            Style            `json:"style"`
	ReturnImage      bool             `json:"return_image"`
	MapFilename      string           `json:"map_filename,omitempty"`
}

// Build validates its inputs and snapshots pts into a Request.
func Build(pts []points.Point, method Method, cs CoordinateSystem, style Style) (Request, error) {
	if len(pts) < points.MinRenderPoints {
		return Request{}, fmt.Errorf("%w: have %d, need %d", ErrTooFewPoints, len(pts), points.MinRenderPoints)
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return Request{}, err
	}
	if _, err := ParseCoordinateSystem(string(cs)); err != nil {
		return Request{}, err
	}
	if err := style.Validate(); err != nil {
		return Request{}, err
	}

	wire := make([]WirePoint, len(pts))
	for i, p := range pts {
		wire[i] = WirePoint{X: p.X, Y: p.Y, State: p.State.String()}
	}

	return Request{
		Method:           method,
		Points:           wire,
		CoordinateSystem: cs,
		Style:            style,
		ReturnImage:      true,
	}, nil
}
