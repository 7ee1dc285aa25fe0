// Command pathrender renders a path without the editor: it resolves the
// field image, draws the local preview and optionally sends the path to the
// render service.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/milk9111/fieldpath/background"
	"github.com/milk9111/fieldpath/config"
	"github.com/milk9111/fieldpath/dispatch"
	"github.com/milk9111/fieldpath/export"
	"github.com/milk9111/fieldpath/macros"
	"github.com/milk9111/fieldpath/points"
	"github.com/milk9111/fieldpath/presets"
	"github.com/milk9111/fieldpath/preview"
)

func main() {
	cfg, err := config.Load(config.PathFromArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.BindFlags(flag.CommandLine)
	pointsPath := flag.String("points", "", "YAML or JSON point list")
	macroPath := flag.String("macro", "", "Tengo macro producing the points")
	previewOut := flag.String("preview", "", "Write the local preview PNG here")
	send := flag.Bool("send", false, "Send the path to the render service")
	pngOut := flag.String("png", "path.png", "Where the service render is saved")
	sheetOut := flag.String("sheet", "", "Also write a PDF path sheet here")
	flag.Parse()

	if err := cfg.Normalize(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	presets.Dir = cfg.PresetsDir

	previewSpec, err := presets.LoadPreviewSpec()
	if err != nil {
		log.Fatalf("load preview preset: %v", err)
	}
	styleSpec, err := presets.LoadStyleSpec()
	if err != nil {
		log.Fatalf("load style preset: %v", err)
	}
	renderer, err := preview.NewRenderer(previewSpec)
	if err != nil {
		log.Fatalf("preview preset: %v", err)
	}

	ctx := context.Background()

	placeholder := background.PlaceholderFromSpec(previewSpec.Placeholder)
	placeholder.Width = cfg.PlaceholderWidth
	placeholder.Height = cfg.PlaceholderHeight
	resolver := &background.Resolver{
		Candidates:  cfg.Candidates(),
		Timeout:     cfg.CandidateTimeout,
		Placeholder: placeholder,
	}
	bg := resolver.Resolve(ctx)
	log.Printf("%s (%s)", bg.Status, bg.Location)
	w, h := bg.Size()

	method := cfg.Method
	cs := cfg.CoordinateSystem
	var pts []points.Point
	switch {
	case *pointsPath != "":
		pf, loaded, err := loadPathFile(*pointsPath)
		if err != nil {
			log.Fatalf("points: %v", err)
		}
		pts = loaded
		if pf.Method != "" {
			method = pf.Method
		}
		if pf.CoordinateSystem != "" {
			cs = pf.CoordinateSystem
		}
	case *macroPath != "":
		pts, err = macros.RunFile(ctx, *macroPath, macros.Env{Width: w, Height: h})
		if err != nil {
			log.Fatalf("macro: %v", err)
		}
	default:
		log.Fatal("one of -points or -macro is required")
	}

	store := points.NewStore()
	for _, p := range pts {
		store.Add(p)
	}
	for i := 0; i < store.Len(); i++ {
		p, _ := store.At(i)
		icon := renderer.Table.Icon(p.State)
		if icon == "" {
			icon = " "
		}
		fmt.Printf("%s %s\n", icon, store.Describe(i))
	}

	if *previewOut != "" {
		img, err := renderer.Render(bg.Image, w, h, store.Points())
		if err != nil {
			log.Fatalf("preview: %v", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			log.Fatalf("encode preview: %v", err)
		}
		if err := export.SavePNG(*previewOut, buf.Bytes()); err != nil {
			log.Fatalf("preview: %v", err)
		}
		log.Printf("wrote preview to %s", *previewOut)
	}

	if !*send {
		return
	}

	m, err := dispatch.ParseMethod(method)
	if err != nil {
		log.Fatalf("method: %v", err)
	}
	c, err := dispatch.ParseCoordinateSystem(cs)
	if err != nil {
		log.Fatalf("coordinate system: %v", err)
	}
	req, err := dispatch.Build(store.Points(), m, c, dispatch.StyleFromSpec(styleSpec))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.MapFilename = cfg.MapFilename

	client := dispatch.NewClient(cfg.Endpoint, cfg.RequestTimeout)
	res, err := client.Send(ctx, req)
	if err != nil {
		log.Fatalf("render: %v", err)
	}
	if err := export.SavePNG(*pngOut, res.Data); err != nil {
		log.Fatalf("save render: %v", err)
	}
	log.Printf("saved render to %s", *pngOut)

	if *sheetOut != "" {
		err := export.PathSheetPDF(*sheetOut, export.Sheet{
			Title:            "Path " + res.RequestID[:8],
			Image:            res.Data,
			Method:           string(m),
			CoordinateSystem: string(c),
			Points:           store.Points(),
			States:           renderer.Table,
			Generated:        time.Now(),
		})
		if err != nil {
			log.Fatalf("path sheet: %v", err)
		}
		log.Printf("saved path sheet to %s", *sheetOut)
	}
}
