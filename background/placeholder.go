package background

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/gogpu/gg"
	"github.com/milk9111/fieldpath/common"
	"github.com/milk9111/fieldpath/presets"
)

const (
	DefaultPlaceholderWidth  = 720
	DefaultPlaceholderHeight = 720
)

// Placeholder describes the synthesized background used when no field image
// can be loaded: a solid fill, an evenly spaced grid and a centered label.
type Placeholder struct {
	Width, Height int
	Background    color.Color
	Grid          color.Color
	Cells         int
	Label         string
	LabelColor    color.Color
	LabelSize     float64
}

func DefaultPlaceholder() Placeholder {
	return Placeholder{
		Width:      DefaultPlaceholderWidth,
		Height:     DefaultPlaceholderHeight,
		Background: color.NRGBA{R: 0x2f, G: 0x6b, B: 0x3a, A: 0xff},
		Grid:       color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x40},
		Cells:      6,
		Label:      "Field image not found - click to place points",
		LabelColor: color.White,
		LabelSize:  20,
	}
}

// PlaceholderFromSpec fills unset spec fields from DefaultPlaceholder.
func PlaceholderFromSpec(spec presets.PlaceholderSpec) Placeholder {
	p := DefaultPlaceholder()
	if spec.Width > 0 {
		p.Width = spec.Width
	}
	if spec.Height > 0 {
		p.Height = spec.Height
	}
	if spec.GridCells > 0 {
		p.Cells = spec.GridCells
	}
	if spec.Label != "" {
		p.Label = spec.Label
	}
	if spec.LabelSize > 0 {
		p.LabelSize = spec.LabelSize
	}
	p.Background = spec.Background.Or(p.Background)
	p.Grid = spec.GridColor.Or(p.Grid)
	p.LabelColor = spec.LabelColor.Or(p.LabelColor)
	return p
}

// Image draws the placeholder. It never fails; a size below one pixel is
// raised to the default.
func (p Placeholder) Image() *image.RGBA {
	w, h := p.Width, p.Height
	if w <= 0 {
		w = DefaultPlaceholderWidth
	}
	if h <= 0 {
		h = DefaultPlaceholderHeight
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()

	dc.ClearWithColor(gg.FromColor(orColor(p.Background, color.Black)))

	if p.Cells > 0 {
		dc.SetColor(orColor(p.Grid, color.White))
		dc.SetLineWidth(1)
		for i := 1; i < p.Cells; i++ {
			t := float64(i) / float64(p.Cells)
			x := common.Lerp(0, float64(w), t)
			y := common.Lerp(0, float64(h), t)
			dc.DrawLine(x, 0, x, float64(h))
			dc.DrawLine(0, y, float64(w), y)
		}
		if err := dc.Stroke(); err != nil {
			log.Printf("placeholder: grid: %v", err)
		}
	}

	if face := common.Face(p.LabelSize); face != nil && p.Label != "" {
		dc.SetFont(face)
		dc.SetColor(orColor(p.LabelColor, color.White))
		dc.DrawStringAnchored(p.Label, float64(w)/2, float64(h)/2, 0.5, 0.5)
	}

	if err := dc.FlushGPU(); err != nil {
		log.Printf("placeholder: flush: %v", err)
	}
	return toRGBA(dc.Image())
}

func (p Placeholder) String() string {
	return fmt.Sprintf("placeholder %dx%d", p.Width, p.Height)
}

func orColor(c, fallback color.Color) color.Color {
	if c == nil {
		return fallback
	}
	return c
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
