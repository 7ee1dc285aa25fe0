// Package export writes render results to disk: the raw image, or a PDF
// sheet with the image and a table of the path points.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/h2non/filetype"
	"github.com/jung-kurt/gofpdf"
	"github.com/milk9111/fieldpath/points"
	"github.com/milk9111/fieldpath/preview"
)

var (
	ErrNoImage          = errors.New("export: no image data")
	ErrUnsupportedImage = errors.New("export: unsupported image type")
)

// SavePNG writes an already encoded image to path, creating parent
// directories as needed.
func SavePNG(path string, data []byte) error {
	if len(data) == 0 {
		return ErrNoImage
	}
	if !filetype.IsImage(data) {
		return fmt.Errorf("%w: %s", ErrUnsupportedImage, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: mkdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// Sheet is everything printed on a path sheet.
type Sheet struct {
	Title            string
	Image            []byte
	Method           string
	CoordinateSystem string
	Points           []points.Point
	States           preview.StateTable
	Generated        time.Time
}

// WritePathSheet renders s as an A4 PDF into w.
func WritePathSheet(w io.Writer, s Sheet) error {
	if len(s.Image) == 0 {
		return ErrNoImage
	}
	imageType, err := pdfImageType(s.Image)
	if err != nil {
		return err
	}
	if s.States == nil {
		s.States = preview.DefaultStateTable()
	}
	if s.Title == "" {
		s.Title = "Path sheet"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(s.Title, true)
	pdf.SetCreator("fieldpath", true)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, s.Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	meta := fmt.Sprintf("method %s, %s coordinates, %d points", s.Method, s.CoordinateSystem, len(s.Points))
	if !s.Generated.IsZero() {
		meta += ", " + s.Generated.Format("2006-01-02 15:04")
	}
	pdf.CellFormat(contentW, 6, meta, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	opts := gofpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader("render", opts, bytes.NewReader(s.Image))
	if pdf.Err() {
		return fmt.Errorf("export: register image: %w", pdf.Error())
	}
	imgW := contentW
	imgH := imgW
	if info.Width() > 0 {
		imgH = imgW * info.Height() / info.Width()
	}
	if imgH > 150 {
		imgW = imgW * 150 / imgH
		imgH = 150
	}
	pdf.ImageOptions("render", left+(contentW-imgW)/2, pdf.GetY(), imgW, imgH, true, opts, 0, "")
	pdf.Ln(4)

	cols := []struct {
		title string
		width float64
	}{
		{"#", 12},
		{"X", 35},
		{"Y", 35},
		{"State", 40},
		{"", 8},
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i, p := range s.Points {
		state := p.State.String()
		if state == "" {
			state = "-"
		}
		pdf.CellFormat(cols[0].width, 6, strconv.Itoa(i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(cols[1].width, 6, strconv.FormatFloat(p.X, 'f', -1, 64), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cols[2].width, 6, strconv.FormatFloat(p.Y, 'f', -1, 64), "1", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3].width, 6, state, "1", 0, "L", false, 0, "")

		fill := false
		if p.HasState() {
			r, g, b, _ := s.States.Color(p.State, color.Gray{Y: 0x80}).RGBA()
			pdf.SetFillColor(int(r>>8), int(g>>8), int(b>>8))
			fill = true
		}
		pdf.CellFormat(cols[4].width, 6, "", "1", 1, "C", fill, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}

// PathSheetPDF writes the sheet to path.
func PathSheetPDF(path string, s Sheet) error {
	var buf bytes.Buffer
	if err := WritePathSheet(&buf, s); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: mkdir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

func pdfImageType(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("export: sniff image: %w", err)
	}
	switch kind.MIME.Value {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, kind.MIME.Value)
}
