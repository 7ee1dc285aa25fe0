package presets

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	PreviewFile = "preview.yaml"
	StyleFile   = "style.yaml"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("presets: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("presets: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// PreviewSpec drives the local canvas preview and the placeholder background.
type PreviewSpec struct {
	Name        string               `yaml:"name"`
	Blank       *YAMLColor           `yaml:"blank"`
	Segment     SegmentSpec          `yaml:"segment"`
	Marker      MarkerSpec           `yaml:"marker"`
	Placeholder PlaceholderSpec      `yaml:"placeholder"`
	States      map[string]StateSpec `yaml:"states"`
}

type SegmentSpec struct {
	Color *YAMLColor `yaml:"color"`
	Width float64    `yaml:"width"`
	Dash  []float64  `yaml:"dash"`
}

type MarkerSpec struct {
	Radius          float64    `yaml:"radius"`
	DefaultColor    *YAMLColor `yaml:"default_color"`
	OutlineColor    *YAMLColor `yaml:"outline_color"`
	IndexColor      *YAMLColor `yaml:"index_color"`
	IndexSize       float64    `yaml:"index_size"`
	LabelSize       float64    `yaml:"label_size"`
	LabelColor      *YAMLColor `yaml:"label_color"`
	LabelBackground *YAMLColor `yaml:"label_background"`
	LabelPadding    float64    `yaml:"label_padding"`
	LabelGap        float64    `yaml:"label_gap"`
}

type PlaceholderSpec struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Background *YAMLColor `yaml:"background"`
	GridColor  *YAMLColor `yaml:"grid_color"`
	GridCells  int        `yaml:"grid_cells"`
	Label      string     `yaml:"label"`
	LabelColor *YAMLColor `yaml:"label_color"`
	LabelSize  float64    `yaml:"label_size"`
}

type StateSpec struct {
	Color *YAMLColor `yaml:"color"`
	Icon  string     `yaml:"icon"`
}

// StyleSpec is the default render style and selectors for remote renders.
type StyleSpec struct {
	Name             string  `yaml:"name"`
	Method           string  `yaml:"method"`
	CoordinateSystem string  `yaml:"coordinate_system"`
	Color            string  `yaml:"color"`
	Width            int     `yaml:"width"`
	Opacity          float64 `yaml:"opacity"`
	Arrow            bool    `yaml:"arrow"`
	ShowStateLabels  bool    `yaml:"show_state_labels"`
	StateIconSize    int     `yaml:"state_icon_size"`
}

func LoadPreviewSpec() (PreviewSpec, error) {
	return LoadSpec[PreviewSpec](PreviewFile)
}

func LoadStyleSpec() (StyleSpec, error) {
	return LoadSpec[StyleSpec](StyleFile)
}

type YAMLColor struct {
	color.Color
}

// Or returns the wrapped color, or fallback when c is unset.
func (c *YAMLColor) Or(fallback color.Color) color.Color {
	if c == nil || c.Color == nil {
		return fallback
	}
	return c.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	col, err := ParseHexColor(value.Value)
	if err != nil {
		return err
	}
	c.Color = col
	return nil
}

// ParseHexColor parses #rrggbb or #rrggbbaa.
func ParseHexColor(v string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(v), "#")

	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color format: %s", v)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return color.NRGBA{}, err
	}
	g, err := parse(2)
	if err != nil {
		return color.NRGBA{}, err
	}
	b, err := parse(4)
	if err != nil {
		return color.NRGBA{}, err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return color.NRGBA{}, err
		}
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
