package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/fieldpath/background"
	"github.com/milk9111/fieldpath/config"
	"github.com/milk9111/fieldpath/dispatch"
	"github.com/milk9111/fieldpath/presets"
	"github.com/milk9111/fieldpath/preview"
	"github.com/milk9111/fieldpath/session"
)

func main() {
	cfg, err := config.Load(config.PathFromArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.BindFlags(flag.CommandLine)
	macroPath := flag.String("macro", "", "Tengo macro offered by the Run macro button")
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

	// Validate already accepted both values.
	method, _ := dispatch.ParseMethod(cfg.Method)
	cs, _ := dispatch.ParseCoordinateSystem(cfg.CoordinateSystem)

	sess := session.New(session.Options{
		Method:           method,
		CoordinateSystem: cs,
		Style:            dispatch.StyleFromSpec(styleSpec),
		MapFilename:      cfg.MapFilename,
	})

	placeholder := background.PlaceholderFromSpec(previewSpec.Placeholder)
	placeholder.Width = cfg.PlaceholderWidth
	placeholder.Height = cfg.PlaceholderHeight

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess.ResolveBackground(ctx, &background.Resolver{
		Candidates:  cfg.Candidates(),
		Timeout:     cfg.CandidateTimeout,
		Loader:      background.MultiLoader{},
		Placeholder: placeholder,
		Trace: func(s background.Stage) {
			log.Printf("field image: %s", s)
		},
	})

	game := NewPathEditor(ctx, cfg, sess, renderer, *macroPath)
	defer game.Close()

	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("Path Editor")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
