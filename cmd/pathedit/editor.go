package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ebitenui/ebitenui"
	ebuiinput "github.com/ebitenui/ebitenui/input"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/fieldpath/config"
	"github.com/milk9111/fieldpath/coords"
	"github.com/milk9111/fieldpath/dispatch"
	"github.com/milk9111/fieldpath/points"
	"github.com/milk9111/fieldpath/presets"
	"github.com/milk9111/fieldpath/preview"
	"github.com/milk9111/fieldpath/session"
	"golang.design/x/clipboard"
)

const (
	baseWidth  = 1280
	baseHeight = 800
	statusH    = 24
)

// PathEditor is the ebiten game hosting one authoring session.
type PathEditor struct {
	cfg      config.Config
	ctx      context.Context
	sess     *session.Session
	client   *dispatch.Client
	renderer *preview.Renderer
	watcher  *presets.Watcher

	ui    *ebitenui.UI
	panel *editorPanel

	macroPath    string
	clipboardOK  bool
	shownMode    session.Mode
	shownView    session.View
	rowsDirty    bool
	canvasRev    uint64
	rendererGen  int
	drawnGen     int
	canvas       *ebiten.Image
	resultImg    *ebiten.Image
	shownResult  *dispatch.Result
	canvasArea   coords.Rect
	canvasRect   coords.Rect
	lastCursor   ebiten.CursorShapeType
	needsPreview bool
}

func NewPathEditor(ctx context.Context, cfg config.Config, sess *session.Session, renderer *preview.Renderer, macroPath string) *PathEditor {
	g := &PathEditor{
		cfg:          cfg,
		ctx:          ctx,
		sess:         sess,
		client:       dispatch.NewClient(cfg.Endpoint, cfg.RequestTimeout),
		renderer:     renderer,
		macroPath:    macroPath,
		needsPreview: true,
		canvasArea: coords.Rect{
			X: panelWidth + 16,
			Y: 16,
			W: baseWidth - panelWidth - 32,
			H: baseHeight - 32 - statusH,
		},
	}

	g.ui, g.panel = buildEditorUI(uiHandlers{
		onToggleMode:    func() { g.sess.ToggleMode() },
		onStateSelected: func(st points.State) { g.sess.SetNextState(st) },
		onAddManual:     g.addManual,
		onRemove:        func(i int) { _ = g.sess.Remove(i) },
		onClear:         func() { _ = g.sess.Clear() },
		onMethod:        func(m dispatch.Method) { g.sess.Method = m },
		onCoords:        func(cs dispatch.CoordinateSystem) { g.sess.CoordinateSystem = cs },
		onRender:        g.render,
		onCopyRequest:   g.copyRequest,
		onRunMacro:      g.runMacro,
		onEditAgain:     func() { g.sess.EditAgain() },
		onDownload:      g.download,
		onDownloadSheet: g.downloadSheet,
		onCopyImage:     g.copyImage,
	}, sess.Method, sess.CoordinateSystem, macroPath != "")
	g.shownMode = sess.Mode()
	sess.OnChange(func(points.Change) { g.rowsDirty = true })
	g.shownView = sess.View()

	if err := clipboard.Init(); err != nil {
		log.Printf("clipboard unavailable: %v", err)
	} else {
		g.clipboardOK = true
	}

	dirs := []string{}
	if info, err := os.Stat(presets.Dir); err == nil && info.IsDir() {
		dirs = append(dirs, presets.Dir)
	}
	if macroPath != "" {
		dirs = append(dirs, filepath.Dir(macroPath))
	}
	if len(dirs) > 0 {
		w, err := presets.NewWatcher(dirs...)
		if err != nil {
			log.Printf("hot reload disabled: %v", err)
		} else {
			g.watcher = w
		}
	}

	return g
}

func (g *PathEditor) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *PathEditor) Update() error {
	g.sess.Pump()
	g.pollWatcher()

	g.ui.Update()

	// Hotkeys stay off while a text field has focus.
	suppressHotkeys := false
	if fw := g.ui.GetFocusedWidget(); fw != nil {
		if _, ok := fw.(*widget.TextInput); ok {
			suppressHotkeys = true
		}
	}
	if !suppressHotkeys {
		if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
			os.Exit(0)
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
			g.sess.ToggleMode()
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) && g.sess.View() == session.ViewEditor {
			g.render()
		}
	}

	g.syncPanel()

	w, h := g.sess.CanvasSize()
	g.canvasRect = coords.FitRect(g.canvasArea, w, h, coords.FitContain)

	mx, my := ebiten.CursorPosition()
	overCanvas := !ebuiinput.UIHovered && g.canvasRect.Contains(float64(mx), float64(my))
	if overCanvas && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if p, ok := g.sess.Click(float64(mx), float64(my), g.canvasRect); ok {
			log.Printf("added point (%g, %g)", p.X, p.Y)
		}
	}
	g.updateCursor(overCanvas)

	return g.refreshImages()
}

func (g *PathEditor) syncPanel() {
	if m := g.sess.Mode(); m != g.shownMode {
		g.shownMode = m
		g.panel.SetMode(m)
	}
	if v := g.sess.View(); v != g.shownView {
		g.shownView = v
		g.panel.SetView(v)
	}
	if g.rowsDirty {
		g.rowsDirty = false
		g.panel.SetRows(g.sess.Rows())
	}
}

func (g *PathEditor) updateCursor(overCanvas bool) {
	shape := ebiten.CursorShapeDefault
	if overCanvas && g.sess.View() == session.ViewEditor {
		switch g.sess.Mode().Cursor() {
		case session.CursorCrosshair:
			shape = ebiten.CursorShapeCrosshair
		case session.CursorNotAllowed:
			shape = ebiten.CursorShapeNotAllowed
		}
	}
	if shape != g.lastCursor {
		ebiten.SetCursorShape(shape)
		g.lastCursor = shape
	}
}

// refreshImages repaints the live canvas after any session or preset change
// and uploads a new render result once.
func (g *PathEditor) refreshImages() error {
	if res := g.sess.Result(); res != g.shownResult {
		g.shownResult = res
		g.resultImg = nil
		if res != nil && res.Image != nil {
			g.resultImg = ebiten.NewImageFromImage(res.Image)
		}
	}

	rev := g.sess.Revision()
	if !g.needsPreview && rev == g.canvasRev && g.rendererGen == g.drawnGen {
		return nil
	}
	img, err := g.sess.Preview(g.renderer)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if g.canvas != nil && g.canvas.Bounds().Size() == img.Bounds().Size() {
		g.canvas.WritePixels(img.Pix)
	} else {
		g.canvas = ebiten.NewImageFromImage(img)
	}
	g.canvasRev = rev
	g.drawnGen = g.rendererGen
	g.needsPreview = false
	return nil
}

func (g *PathEditor) Draw(screen *ebiten.Image) {
	screen.Fill(canvasAreaColor)

	img := g.canvas
	if g.sess.View() == session.ViewResult && g.resultImg != nil {
		img = g.resultImg
	}
	if img != nil {
		b := img.Bounds()
		rect := coords.FitRect(g.canvasArea, b.Dx(), b.Dy(), coords.FitContain)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(rect.W/float64(b.Dx()), rect.H/float64(b.Dy()))
		op.GeoM.Translate(rect.X, rect.Y)
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(img, op)
	}

	g.ui.Draw(screen)

	statusY := baseHeight - statusH
	info := fmt.Sprintf("%d points  mode %s  method %s  coords %s", g.sess.Len(), g.sess.Mode(), g.sess.Method, g.sess.CoordinateSystem)
	if g.sess.Rendering() {
		info += "  rendering..."
	}
	ebitenutil.DebugPrintAt(screen, info, panelWidth+16, statusY)
	if st := g.sess.Status(); st.Active(time.Now()) {
		ebitenutil.DebugPrintAt(screen, statusPrefix(st.Kind)+st.Text, panelWidth+360, statusY)
	}
}

func (g *PathEditor) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}

func statusPrefix(k session.StatusKind) string {
	switch k {
	case session.StatusError:
		return "[error] "
	case session.StatusSuccess:
		return "[ok] "
	default:
		return ""
	}
}

func (g *PathEditor) addManual(x, y string) {
	if _, err := g.sess.AddManual(x, y, g.sess.NextState()); err == nil {
		g.panel.ClearManualInputs()
	}
}

func (g *PathEditor) render() {
	if err := g.sess.Render(g.ctx, g.client); err != nil {
		log.Printf("render not sent: %v", err)
	}
}

func (g *PathEditor) copyRequest() {
	data, err := g.sess.RequestJSON()
	if err != nil {
		g.sess.Notify(session.StatusError, "Error: "+err.Error())
		return
	}
	if !g.clipboardOK {
		g.sess.Notify(session.StatusError, "Clipboard unavailable")
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	g.sess.Notify(session.StatusSuccess, "Request JSON copied")
}

func (g *PathEditor) copyImage() {
	res := g.sess.Result()
	if res == nil {
		return
	}
	if !g.clipboardOK {
		g.sess.Notify(session.StatusError, "Clipboard unavailable")
		return
	}
	clipboard.Write(clipboard.FmtImage, res.Data)
	g.sess.Notify(session.StatusSuccess, "Image copied")
}

func (g *PathEditor) outputPath(ext string) string {
	name := fmt.Sprintf("path-%s.%s", time.Now().Format("20060102-150405"), ext)
	return filepath.Join(g.cfg.OutputDir, name)
}

func (g *PathEditor) download() {
	path := g.outputPath("png")
	if err := g.sess.Download(path); err != nil {
		log.Printf("download failed: %v", err)
		return
	}
	log.Printf("saved render to %s", path)
}

func (g *PathEditor) downloadSheet() {
	path := g.outputPath("pdf")
	if err := g.sess.DownloadSheet(path, g.renderer.Table); err != nil {
		log.Printf("path sheet failed: %v", err)
		return
	}
	log.Printf("saved path sheet to %s", path)
}

func (g *PathEditor) runMacro() {
	if g.macroPath == "" {
		return
	}
	src, err := os.ReadFile(g.macroPath)
	if err != nil {
		g.sess.Notify(session.StatusError, "Error: "+err.Error())
		return
	}
	if err := g.sess.RunMacro(g.ctx, filepath.Base(g.macroPath), string(src)); err != nil {
		log.Printf("macro not run: %v", err)
	}
}

// pollWatcher applies preset edits and re-offers macros without blocking the
// frame.
func (g *PathEditor) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case ev, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			switch ev.Kind {
			case presets.ChangePreset:
				g.reloadPresets(ev.Path)
			case presets.ChangeMacro:
				if filepath.Clean(ev.Path) == filepath.Clean(g.macroPath) {
					g.sess.Notify(session.StatusInfo, "Macro changed: "+filepath.Base(ev.Path))
				}
			}
		case err, ok := <-g.watcher.Errors:
			if ok && err != nil {
				log.Printf("watch error: %v", err)
			}
			return
		default:
			return
		}
	}
}

func (g *PathEditor) reloadPresets(path string) {
	switch filepath.Base(path) {
	case presets.PreviewFile:
		spec, err := presets.LoadPreviewSpec()
		if err != nil {
			g.sess.Notify(session.StatusError, "Preview preset: "+err.Error())
			return
		}
		r, err := preview.NewRenderer(spec)
		if err != nil {
			g.sess.Notify(session.StatusError, "Preview preset: "+err.Error())
			return
		}
		g.renderer = r
		g.rendererGen++
		g.sess.Notify(session.StatusInfo, "Preview preset reloaded")
	case presets.StyleFile:
		spec, err := presets.LoadStyleSpec()
		if err != nil {
			g.sess.Notify(session.StatusError, "Style preset: "+err.Error())
			return
		}
		g.sess.Style = dispatch.StyleFromSpec(spec)
		g.sess.Notify(session.StatusInfo, "Style preset reloaded")
	}
}

