// Package preview draws the live canvas: background, dashed segments between
// consecutive points, and a numbered marker per point colored by its state.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/milk9111/fieldpath/common"
	"github.com/milk9111/fieldpath/points"
	"github.com/milk9111/fieldpath/presets"
	xdraw "golang.org/x/image/draw"
)

var ErrCanvasSize = errors.New("preview: canvas size must be positive")

// MarkerStyle holds the fixed look of segments, markers and labels.
type MarkerStyle struct {
	Blank color.Color

	SegmentColor color.Color
	SegmentWidth float64
	Dash         []float64

	Radius       float64
	DefaultColor color.Color
	OutlineColor color.Color
	IndexColor   color.Color
	IndexSize    float64

	ShowLabels      bool
	LabelSize       float64
	LabelColor      color.Color
	LabelBackground color.Color
	LabelPadding    float64
	LabelGap        float64
}

func DefaultMarkerStyle() MarkerStyle {
	return MarkerStyle{
		Blank:           color.NRGBA{R: 0x2f, G: 0x6b, B: 0x3a, A: 0xff},
		SegmentColor:    color.White,
		SegmentWidth:    2,
		Dash:            []float64{8, 6},
		Radius:          10,
		DefaultColor:    color.NRGBA{R: 0x3c, G: 0x78, B: 0xff, A: 0xff},
		OutlineColor:    color.Black,
		IndexColor:      color.White,
		IndexSize:       11,
		ShowLabels:      true,
		LabelSize:       11,
		LabelColor:      color.White,
		LabelBackground: color.NRGBA{A: 0xb4},
		LabelPadding:    3,
		LabelGap:        4,
	}
}

// MarkerStyleFromSpec fills unset spec fields from DefaultMarkerStyle.
func MarkerStyleFromSpec(spec presets.PreviewSpec) MarkerStyle {
	m := DefaultMarkerStyle()
	m.Blank = spec.Blank.Or(m.Blank)

	m.SegmentColor = spec.Segment.Color.Or(m.SegmentColor)
	if spec.Segment.Width > 0 {
		m.SegmentWidth = spec.Segment.Width
	}
	if spec.Segment.Dash != nil {
		m.Dash = append([]float64(nil), spec.Segment.Dash...)
	}

	mk := spec.Marker
	if mk.Radius > 0 {
		m.Radius = mk.Radius
	}
	m.DefaultColor = mk.DefaultColor.Or(m.DefaultColor)
	m.OutlineColor = mk.OutlineColor.Or(m.OutlineColor)
	m.IndexColor = mk.IndexColor.Or(m.IndexColor)
	if mk.IndexSize > 0 {
		m.IndexSize = mk.IndexSize
	}
	if mk.LabelSize > 0 {
		m.LabelSize = mk.LabelSize
	}
	m.LabelColor = mk.LabelColor.Or(m.LabelColor)
	m.LabelBackground = mk.LabelBackground.Or(m.LabelBackground)
	if mk.LabelPadding > 0 {
		m.LabelPadding = mk.LabelPadding
	}
	if mk.LabelGap > 0 {
		m.LabelGap = mk.LabelGap
	}
	return m
}

// Renderer repaints the whole canvas on every call. It holds no drawing
// state between calls, so the same inputs always give the same pixels.
type Renderer struct {
	Table  StateTable
	Marker MarkerStyle
}

func NewRenderer(spec presets.PreviewSpec) (*Renderer, error) {
	table, err := StateTableFromSpec(spec.States)
	if err != nil {
		return nil, err
	}
	return &Renderer{Table: table, Marker: MarkerStyleFromSpec(spec)}, nil
}

func DefaultRenderer() *Renderer {
	return &Renderer{Table: DefaultStateTable(), Marker: DefaultMarkerStyle()}
}

// Render draws bg (scaled to w x h, or the blank fill when nil) and pts in
// store order. Each point draws its segment to the previous point and then
// its marker, so later points sit on top of earlier segments.
func (r *Renderer) Render(bg image.Image, w, h int, pts []points.Point) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasSize, w, h)
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()

	st := r.Marker
	if bg != nil {
		base := image.NewRGBA(image.Rect(0, 0, w, h))
		if bg.Bounds().Dx() == w && bg.Bounds().Dy() == h {
			xdraw.Draw(base, base.Bounds(), bg, bg.Bounds().Min, xdraw.Src)
		} else {
			xdraw.ApproxBiLinear.Scale(base, base.Bounds(), bg, bg.Bounds(), xdraw.Src, nil)
		}
		copy(dc.ResizeTarget().Data(), base.Pix)
	} else {
		dc.ClearWithColor(gg.FromColor(orColor(st.Blank, color.Black)))
	}

	indexFace := common.Face(st.IndexSize)
	labelFace := common.Face(st.LabelSize)

	var errs []error
	for i, p := range pts {
		if i > 0 {
			prev := pts[i-1]
			errs = append(errs, r.segment(dc, prev, p))
		}
		errs = append(errs, r.marker(dc, i, p, indexFace, labelFace))
	}

	if err := dc.FlushGPU(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("preview: render: %w", err)
	}

	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("preview: render: unexpected image type %T", dc.Image())
	}
	return img, nil
}

func (r *Renderer) segment(dc *gg.Context, from, to points.Point) error {
	st := r.Marker
	dc.SetColor(orColor(st.SegmentColor, color.White))
	dc.SetLineWidth(st.SegmentWidth)
	if len(st.Dash) > 0 {
		dc.SetDash(st.Dash...)
	}
	dc.DrawLine(from.X, from.Y, to.X, to.Y)
	err := dc.Stroke()
	dc.ClearDash()
	return err
}

func (r *Renderer) marker(dc *gg.Context, i int, p points.Point, indexFace, labelFace text.Face) error {
	st := r.Marker

	dc.DrawCircle(p.X, p.Y, st.Radius)
	dc.SetColor(r.Table.Color(p.State, orColor(st.DefaultColor, color.White)))
	if err := dc.FillPreserve(); err != nil {
		dc.ClearPath()
		return err
	}
	dc.SetColor(orColor(st.OutlineColor, color.Black))
	dc.SetLineWidth(1.5)
	if err := dc.Stroke(); err != nil {
		return err
	}

	if indexFace != nil {
		dc.SetFont(indexFace)
		dc.SetColor(orColor(st.IndexColor, color.White))
		dc.DrawStringAnchored(strconv.Itoa(i+1), p.X, p.Y, 0.5, 0.5)
	}

	if !st.ShowLabels || !p.HasState() || labelFace == nil {
		return nil
	}

	name := p.State.Title()
	dc.SetFont(labelFace)
	tw, th := dc.MeasureString(name)
	pad := st.LabelPadding
	boxW := tw + 2*pad
	boxH := th + 2*pad
	boxX := p.X - boxW/2
	boxY := p.Y - st.Radius - st.LabelGap - boxH

	dc.DrawRoundedRectangle(boxX, boxY, boxW, boxH, 3)
	dc.SetColor(orColor(st.LabelBackground, color.Black))
	if err := dc.Fill(); err != nil {
		return err
	}
	dc.SetColor(orColor(st.LabelColor, color.White))
	dc.DrawStringAnchored(name, p.X, boxY+boxH/2, 0.5, 0.5)
	return nil
}

func orColor(c, fallback color.Color) color.Color {
	if c == nil {
		return fallback
	}
	return c
}
