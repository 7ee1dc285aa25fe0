package main

import (
	"bytes"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/fieldpath/dispatch"
	"github.com/milk9111/fieldpath/points"
	"github.com/milk9111/fieldpath/session"
	"golang.org/x/image/font/gofont/goregular"
)

const panelWidth = 300

// uiHandlers are the callbacks the panel invokes. Nil handlers are skipped.
type uiHandlers struct {
	onToggleMode    func()
	onStateSelected func(st points.State)
	onAddManual     func(x, y string)
	onRemove        func(index int)
	onClear         func()
	onMethod        func(m dispatch.Method)
	onCoords        func(cs dispatch.CoordinateSystem)
	onRender        func()
	onCopyRequest   func()
	onRunMacro      func()
	onEditAgain     func()
	onDownload      func()
	onDownloadSheet func()
	onCopyImage     func()
}

// editorPanel holds the widgets the game updates after building the UI.
type editorPanel struct {
	root   *widget.Container
	editor *widget.Container
	manual *widget.Container
	result *widget.Container

	modeBtn   *widget.Button
	methodBtn *widget.Button
	coordsBtn *widget.Button
	xInput    *widget.TextInput
	yInput    *widget.TextInput
	pointList *widget.List

	states      *stateSelector
	macroButton *widget.Button
}

func buildEditorUI(h uiHandlers, method dispatch.Method, cs dispatch.CoordinateSystem, hasMacro bool) (*ebitenui.UI, *editorPanel) {
	ui := &ebitenui.UI{}

	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic("Failed to load font: " + err.Error())
	}

	var fontFace text.Face = &text.GoTextFace{Source: s, Size: 14}
	ui.PrimaryTheme = newEditorTheme(&fontFace)
	theme := ui.PrimaryTheme

	panel := &editorPanel{}

	left := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(panelWidth, 400),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(panelColor)),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
	)

	panel.editor = widget.NewContainer(
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
	)
	addModeSection(panel, theme, &fontFace, h)
	addManualSection(panel, theme, &fontFace, h)
	addPointsSection(panel, theme, &fontFace, h)
	addRenderSection(panel, theme, &fontFace, h, method, cs, hasMacro)
	left.AddChild(panel.editor)

	addResultSection(panel, theme, &fontFace, h)
	left.AddChild(panel.result)

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	left.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionStart,
		VerticalPosition:   widget.AnchorLayoutPositionStart,
		StretchVertical:    true,
	}
	root.AddChild(left)
	ui.Container = root
	panel.root = root

	panel.SetMode(session.ModeClick)
	panel.SetView(session.ViewEditor)
	return ui, panel
}

func (p *editorPanel) SetMode(m session.Mode) {
	if t := p.modeBtn.Text(); t != nil {
		t.Label = "Mode: " + m.String()
	}
	setVisible(p.manual, m.ShowsManualFields())
	p.root.RequestRelayout()
}

func (p *editorPanel) SetView(v session.View) {
	setVisible(p.editor, v == session.ViewEditor)
	setVisible(p.result, v == session.ViewResult)
	p.root.RequestRelayout()
}

func (p *editorPanel) SetMethod(m dispatch.Method) {
	if t := p.methodBtn.Text(); t != nil {
		t.Label = "Method: " + string(m)
	}
}

func (p *editorPanel) SetCoords(cs dispatch.CoordinateSystem) {
	if t := p.coordsBtn.Text(); t != nil {
		t.Label = "Coords: " + string(cs)
	}
}

// SetRows replaces the point list.
func (p *editorPanel) SetRows(rows []string) {
	entries := make([]any, len(rows))
	for i, r := range rows {
		entries[i] = pointEntry{Index: i, Label: r}
	}
	p.pointList.SetEntries(entries)
}

func (p *editorPanel) ClearManualInputs() {
	p.xInput.SetText("")
	p.yInput.SetText("")
}
