package main

import (
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/fieldpath/dispatch"
	"github.com/milk9111/fieldpath/points"
)

type pointEntry struct {
	Index int
	Label string
}

func newButton(theme *widget.Theme, fontFace *text.Face, label string, minW int, onClick func()) *widget.Button {
	return widget.NewButton(
		widget.ButtonOpts.Image(theme.ButtonTheme.Image),
		widget.ButtonOpts.Text(label, fontFace, theme.ButtonTheme.TextColor),
		widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.MinSize(minW, 28)),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			if onClick != nil {
				onClick()
			}
		}),
	)
}

func newLabel(fontFace *text.Face, s string) *widget.Label {
	return widget.NewLabel(widget.LabelOpts.Text(s, fontFace, labelColor))
}

func newCoordInput(fontFace *text.Face, onSubmit func()) *widget.TextInput {
	return widget.NewTextInput(
		widget.TextInputOpts.WidgetOpts(widget.WidgetOpts.MinSize(90, 28)),
		widget.TextInputOpts.Image(textInputImage()),
		widget.TextInputOpts.Color(textInputColor()),
		widget.TextInputOpts.Face(fontFace),
		widget.TextInputOpts.SubmitOnEnter(true),
		widget.TextInputOpts.SubmitHandler(func(args *widget.TextInputChangedEventArgs) {
			if onSubmit != nil {
				onSubmit()
			}
		}),
	)
}

func addModeSection(p *editorPanel, theme *widget.Theme, fontFace *text.Face, h uiHandlers) {
	sec := newSection(6)
	sec.AddChild(newLabel(fontFace, "Input"))
	p.modeBtn = newButton(theme, fontFace, "Mode: click", panelWidth-28, h.onToggleMode)
	sec.AddChild(p.modeBtn)

	sec.AddChild(newLabel(fontFace, "State for new points"))
	p.states = newStateSelector(sec, theme, fontFace, h.onStateSelected)
	p.editor.AddChild(sec)
}

func addManualSection(p *editorPanel, theme *widget.Theme, fontFace *text.Face, h uiHandlers) {
	sec := newSection(6)
	sec.AddChild(newLabel(fontFace, "Manual point"))

	add := func() {
		if h.onAddManual != nil {
			h.onAddManual(p.xInput.GetText(), p.yInput.GetText())
		}
	}
	p.xInput = newCoordInput(fontFace, add)
	p.yInput = newCoordInput(fontFace, add)

	row := newRow(6)
	row.AddChild(newLabel(fontFace, "X"))
	row.AddChild(p.xInput)
	row.AddChild(newLabel(fontFace, "Y"))
	row.AddChild(p.yInput)
	sec.AddChild(row)
	sec.AddChild(newButton(theme, fontFace, "Add point", 120, add))

	p.manual = sec
	p.editor.AddChild(sec)
}

func addPointsSection(p *editorPanel, theme *widget.Theme, fontFace *text.Face, h uiHandlers) {
	sec := newSection(6)
	sec.AddChild(newLabel(fontFace, "Path points"))

	p.pointList = widget.NewList(
		widget.ListOpts.Entries([]any{}),
		widget.ListOpts.EntryLabelFunc(func(e any) string {
			if entry, ok := e.(pointEntry); ok {
				return entry.Label
			}
			return ""
		}),
		widget.ListOpts.ContainerOpts(widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(panelWidth-28, 220),
		)),
	)
	sec.AddChild(p.pointList)

	row := newRow(6)
	row.AddChild(newButton(theme, fontFace, "Remove", 100, func() {
		if h.onRemove == nil {
			return
		}
		if sel, ok := p.pointList.SelectedEntry().(pointEntry); ok {
			h.onRemove(sel.Index)
		}
	}))
	row.AddChild(newButton(theme, fontFace, "Clear all", 100, h.onClear))
	sec.AddChild(row)
	p.editor.AddChild(sec)
}

func addRenderSection(p *editorPanel, theme *widget.Theme, fontFace *text.Face, h uiHandlers, method dispatch.Method, cs dispatch.CoordinateSystem, hasMacro bool) {
	sec := newSection(6)
	sec.AddChild(newLabel(fontFace, "Render"))

	current := method
	p.methodBtn = newButton(theme, fontFace, "Method: "+string(method), panelWidth-28, func() {
		current = nextMethod(current)
		p.SetMethod(current)
		if h.onMethod != nil {
			h.onMethod(current)
		}
	})
	sec.AddChild(p.methodBtn)

	currentCS := cs
	p.coordsBtn = newButton(theme, fontFace, "Coords: "+string(cs), panelWidth-28, func() {
		currentCS = nextCoordinateSystem(currentCS)
		p.SetCoords(currentCS)
		if h.onCoords != nil {
			h.onCoords(currentCS)
		}
	})
	sec.AddChild(p.coordsBtn)

	row := newRow(6)
	row.AddChild(newButton(theme, fontFace, "Render path", 130, h.onRender))
	row.AddChild(newButton(theme, fontFace, "Copy JSON", 110, h.onCopyRequest))
	sec.AddChild(row)

	if hasMacro {
		p.macroButton = newButton(theme, fontFace, "Run macro", 130, h.onRunMacro)
		sec.AddChild(p.macroButton)
	}
	p.editor.AddChild(sec)
}

func addResultSection(p *editorPanel, theme *widget.Theme, fontFace *text.Face, h uiHandlers) {
	sec := newSection(6)
	sec.AddChild(newLabel(fontFace, "Rendered path"))
	sec.AddChild(newButton(theme, fontFace, "Edit again", panelWidth-28, h.onEditAgain))
	sec.AddChild(newButton(theme, fontFace, "Download PNG", panelWidth-28, h.onDownload))
	sec.AddChild(newButton(theme, fontFace, "Download path sheet", panelWidth-28, h.onDownloadSheet))
	sec.AddChild(newButton(theme, fontFace, "Copy image", panelWidth-28, h.onCopyImage))
	p.result = sec
}

func nextMethod(m dispatch.Method) dispatch.Method {
	for i, known := range dispatch.Methods {
		if known == m {
			return dispatch.Methods[(i+1)%len(dispatch.Methods)]
		}
	}
	return dispatch.Methods[0]
}

func nextCoordinateSystem(cs dispatch.CoordinateSystem) dispatch.CoordinateSystem {
	for i, known := range dispatch.CoordinateSystems {
		if known == cs {
			return dispatch.CoordinateSystems[(i+1)%len(dispatch.CoordinateSystems)]
		}
	}
	return dispatch.CoordinateSystems[0]
}

// stateSelector is a radio group with one toggle button per state plus
// "none".
type stateSelector struct {
	group   *widget.RadioGroup
	buttons []*widget.Button
	states  []points.State
}

func newStateSelector(parent *widget.Container, theme *widget.Theme, fontFace *text.Face, onSelected func(st points.State)) *stateSelector {
	sel := &stateSelector{states: append([]points.State{points.StateNone}, points.States...)}

	row := newRow(4)
	for i, st := range sel.states {
		label := st.Title()
		if st == points.StateNone {
			label = "None"
		}
		btn := widget.NewButton(
			widget.ButtonOpts.Image(theme.ButtonTheme.Image),
			widget.ButtonOpts.Text(label, fontFace, theme.ButtonTheme.TextColor),
			widget.ButtonOpts.ToggleMode(),
			widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.MinSize(84, 26)),
		)
		sel.buttons = append(sel.buttons, btn)
		row.AddChild(btn)
		if i%3 == 2 {
			parent.AddChild(row)
			row = newRow(4)
		}
	}
	if len(sel.states)%3 != 0 {
		parent.AddChild(row)
	}

	elements := make([]widget.RadioGroupElement, 0, len(sel.buttons))
	for _, b := range sel.buttons {
		elements = append(elements, b)
	}
	sel.group = widget.NewRadioGroup(
		widget.RadioGroupOpts.Elements(elements...),
		widget.RadioGroupOpts.ChangedHandler(func(args *widget.RadioGroupChangedEventArgs) {
			if onSelected == nil {
				return
			}
			for i, b := range sel.buttons {
				if args.Active == b {
					onSelected(sel.states[i])
					return
				}
			}
		}),
	)
	sel.group.SetActive(sel.buttons[0])
	return sel
}
