// Package session is one authoring session: the point store, input mode,
// background and render result, with a handler per user action. All
// handlers must be called from the goroutine that owns the session;
// blocking work runs through Go and its result is applied by Pump.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/milk9111/fieldpath/background"
	"github.com/milk9111/fieldpath/coords"
	"github.com/milk9111/fieldpath/dispatch"
	"github.com/milk9111/fieldpath/export"
	"github.com/milk9111/fieldpath/macros"
	"github.com/milk9111/fieldpath/points"
	"github.com/milk9111/fieldpath/preview"
)

var (
	ErrInvalidCoordinates = errors.New("session: invalid coordinates")
	ErrWrongMode          = errors.New("session: manual entry is only available in manual mode")
	ErrNotEditing         = errors.New("session: editor is not active")
	ErrRenderInFlight     = errors.New("session: render already in progress")
	ErrNoResult           = errors.New("session: no render result")
)

const (
	msgInvalidCoordinates = "Please enter valid coordinates"
	msgTooFewPoints       = "Please add at least 2 points"
	msgRendering          = "Rendering path..."
	msgRendered           = "Path rendered successfully"
)

// Dispatcher sends a render request. *dispatch.Client implements it.
type Dispatcher interface {
	Send(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
}

type Options struct {
	Method           dispatch.Method
	CoordinateSystem dispatch.CoordinateSystem
	Style            dispatch.Style
	MapFilename      string

	// Now defaults to time.Now.
	Now func() time.Time
}

type Session struct {
	ID string

	Method           dispatch.Method
	CoordinateSystem dispatch.CoordinateSystem
	Style            dispatch.Style
	MapFilename      string

	now func() time.Time

	store     *points.Store
	listeners []points.Listener
	mode      Mode
	view      View
	nextState points.State

	background    background.Result
	hasBackground bool

	rendering    bool
	requested    []points.Point
	result       *dispatch.Result
	resultPoints []points.Point

	status   Status
	revision uint64

	mu       sync.Mutex
	queue    []func()
	wake     chan struct{}
	inflight int
}

func New(opts Options) *Session {
	if opts.Method == "" {
		opts.Method = dispatch.MethodPolyline
	}
	if opts.CoordinateSystem == "" {
		opts.CoordinateSystem = dispatch.CoordPixel
	}
	if opts.Style == (dispatch.Style{}) {
		opts.Style = dispatch.DefaultStyle()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		ID:               uuid.NewString(),
		Method:           opts.Method,
		CoordinateSystem: opts.CoordinateSystem,
		Style:            opts.Style,
		MapFilename:      opts.MapFilename,
		now:              opts.Now,
		wake:             make(chan struct{}, 1),
	}
	s.attach(points.NewStore())
	return s
}

func (s *Session) attach(store *points.Store) {
	s.store = store
	store.OnChange(func(points.Change) { s.revision++ })
	for _, l := range s.listeners {
		store.OnChange(l)
	}
}

// OnChange registers a listener on the current store and on every store
// installed by EditAgain.
func (s *Session) OnChange(l points.Listener) {
	if l == nil {
		return
	}
	s.listeners = append(s.listeners, l)
	s.store.OnChange(l)
}

// Revision increases whenever anything visible changes.
func (s *Session) Revision() uint64 { return s.revision }

func (s *Session) Points() []points.Point { return s.store.Points() }

func (s *Session) Len() int { return s.store.Len() }

// Rows returns the point list display text.
func (s *Session) Rows() []string {
	rows := make([]string, s.store.Len())
	for i := range rows {
		rows[i] = s.store.Describe(i)
	}
	return rows
}

func (s *Session) Mode() Mode { return s.mode }

func (s *Session) SetMode(m Mode) {
	if s.mode == m {
		return
	}
	s.mode = m
	s.revision++
}

func (s *Session) ToggleMode() Mode {
	s.SetMode(s.mode.Toggle())
	return s.mode
}

func (s *Session) View() View { return s.view }

// NextState is the annotation given to the next clicked point.
func (s *Session) NextState() points.State { return s.nextState }

func (s *Session) SetNextState(st points.State) { s.nextState = st }

func (s *Session) Status() Status { return s.status }

// Notify shows a status message from outside the session handlers.
func (s *Session) Notify(kind StatusKind, text string) {
	s.setStatus(kind, text)
}

func (s *Session) setStatus(kind StatusKind, text string) {
	s.status = Status{Kind: kind, Text: text, At: s.now()}
	s.revision++
	log.Printf("session %s: %s: %s", s.ID[:8], kind, text)
}

func (s *Session) Background() (background.Result, bool) {
	return s.background, s.hasBackground
}

// CanvasSize is the intrinsic size of the background, or the default
// placeholder size before one has been resolved.
func (s *Session) CanvasSize() (int, int) {
	if s.hasBackground {
		if w, h := s.background.Size(); w > 0 && h > 0 {
			return w, h
		}
	}
	return background.DefaultPlaceholderWidth, background.DefaultPlaceholderHeight
}

func (s *Session) SetBackground(res background.Result) {
	s.background = res
	s.hasBackground = true
	if res.Fallback {
		s.setStatus(StatusInfo, res.Status)
	} else {
		s.setStatus(StatusSuccess, res.Status)
	}
}

// ResolveBackground runs r off the owner goroutine and installs its result.
func (s *Session) ResolveBackground(ctx context.Context, r *background.Resolver) {
	s.Go(func() func() {
		res := r.Resolve(ctx)
		return func() { s.SetBackground(res) }
	})
}

// Click adds a point at the screen position when the session is in click
// mode, the editor is showing, and the position lies inside rect, the
// canvas's on-screen rectangle.
func (s *Session) Click(px, py float64, rect coords.Rect) (points.Point, bool) {
	if s.view != ViewEditor || !s.mode.AcceptsClicks() || !rect.Contains(px, py) {
		return points.Point{}, false
	}
	w, h := s.CanvasSize()
	x, y := coords.ToCanvas(px, py, rect, w, h)
	p := points.Point{X: float64(x), Y: float64(y), State: s.nextState}
	s.store.Add(p)
	return p, true
}

// AddManual parses typed coordinates and appends a point.
func (s *Session) AddManual(xText, yText string, state points.State) (points.Point, error) {
	if s.view != ViewEditor {
		return points.Point{}, ErrNotEditing
	}
	if !s.mode.ShowsManualFields() {
		return points.Point{}, ErrWrongMode
	}

	x, errX := parseCoordinate(xText)
	y, errY := parseCoordinate(yText)
	if errX != nil || errY != nil {
		s.setStatus(StatusError, msgInvalidCoordinates)
		return points.Point{}, fmt.Errorf("%w: (%q, %q)", ErrInvalidCoordinates, xText, yText)
	}

	p := points.Point{X: x, Y: y, State: state}
	s.store.Add(p)
	return p, nil
}

func parseCoordinate(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidCoordinates
	}
	return v, nil
}

func (s *Session) Remove(i int) error {
	if s.view != ViewEditor {
		return ErrNotEditing
	}
	if err := s.store.Remove(i); err != nil {
		s.setStatus(StatusError, fmt.Sprintf("No point %d to remove", i+1))
		return err
	}
	return nil
}

func (s *Session) Clear() error {
	if s.view != ViewEditor {
		return ErrNotEditing
	}
	s.store.Clear()
	return nil
}

// BuildRequest snapshots the store into a request without changing any
// session state.
func (s *Session) BuildRequest() (dispatch.Request, error) {
	req, err := dispatch.Build(s.store.Points(), s.Method, s.CoordinateSystem, s.Style)
	if err != nil {
		return dispatch.Request{}, err
	}
	req.MapFilename = s.MapFilename
	return req, nil
}

// RequestJSON is the indented request body, for copying.
func (s *Session) RequestJSON() ([]byte, error) {
	req, err := s.BuildRequest()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(req, "", "  ")
}

// PrepareRender validates and snapshots a render request. Validation
// failures become an error status; nothing is sent.
func (s *Session) PrepareRender() (dispatch.Request, error) {
	if s.view != ViewEditor {
		return dispatch.Request{}, ErrNotEditing
	}
	if s.rendering {
		return dispatch.Request{}, ErrRenderInFlight
	}

	req, err := s.BuildRequest()
	if err != nil {
		if errors.Is(err, dispatch.ErrTooFewPoints) {
			s.setStatus(StatusError, msgTooFewPoints)
		} else {
			s.setStatus(StatusError, "Error: "+err.Error())
		}
		return dispatch.Request{}, err
	}

	s.rendering = true
	s.requested = s.store.Points()
	s.setStatus(StatusInfo, msgRendering)
	return req, nil
}

// ApplyRender installs the outcome of a request from PrepareRender. On
// failure the store and canvas are left as they were.
func (s *Session) ApplyRender(res *dispatch.Result, err error) {
	s.rendering = false
	requested := s.requested
	s.requested = nil

	if err == nil && res == nil {
		err = ErrNoResult
	}
	if err != nil {
		s.setStatus(StatusError, "Error: "+err.Error())
		return
	}

	s.result = res
	s.resultPoints = requested
	s.view = ViewResult
	s.setStatus(StatusSuccess, msgRendered)
}

// Render sends the current path through d without blocking the caller.
func (s *Session) Render(ctx context.Context, d Dispatcher) error {
	req, err := s.PrepareRender()
	if err != nil {
		return err
	}
	s.Go(func() func() {
		res, err := d.Send(ctx, req)
		return func() { s.ApplyRender(res, err) }
	})
	return nil
}

func (s *Session) Rendering() bool { return s.rendering }

func (s *Session) Result() *dispatch.Result { return s.result }

// ResultPoints is the path the current result was rendered from.
func (s *Session) ResultPoints() []points.Point {
	return append([]points.Point(nil), s.resultPoints...)
}

// EditAgain drops the result and starts over with an empty store.
func (s *Session) EditAgain() {
	if s.view != ViewResult {
		return
	}
	s.result = nil
	s.resultPoints = nil
	s.view = ViewEditor
	s.attach(points.NewStore())
	for _, l := range s.listeners {
		l(points.Change{Op: points.OpClear, Index: -1, Len: 0})
	}
	s.revision++
}

// Download writes the rendered image to path.
func (s *Session) Download(path string) error {
	if s.result == nil {
		s.setStatus(StatusError, "Nothing to download")
		return ErrNoResult
	}
	if err := export.SavePNG(path, s.result.Data); err != nil {
		s.setStatus(StatusError, "Error: "+err.Error())
		return err
	}
	s.setStatus(StatusSuccess, "Saved "+filepath.Base(path))
	return nil
}

// DownloadSheet writes a PDF with the rendered image and the point table.
func (s *Session) DownloadSheet(path string, states preview.StateTable) error {
	if s.result == nil {
		s.setStatus(StatusError, "Nothing to download")
		return ErrNoResult
	}
	err := export.PathSheetPDF(path, export.Sheet{
		Title:            "Path " + s.ID[:8],
		Image:            s.result.Data,
		Method:           string(s.Method),
		CoordinateSystem: string(s.CoordinateSystem),
		Points:           s.resultPoints,
		States:           states,
		Generated:        s.now(),
	})
	if err != nil {
		s.setStatus(StatusError, "Error: "+err.Error())
		return err
	}
	s.setStatus(StatusSuccess, "Saved "+filepath.Base(path))
	return nil
}

// RunMacro runs a route script off the owner goroutine and appends the
// points it produces.
func (s *Session) RunMacro(ctx context.Context, name, src string) error {
	if s.view != ViewEditor {
		return ErrNotEditing
	}
	w, h := s.CanvasSize()
	s.Go(func() func() {
		pts, err := macros.Run(ctx, src, macros.Env{Width: w, Height: h})
		return func() { s.applyMacro(name, pts, err) }
	})
	return nil
}

func (s *Session) applyMacro(name string, pts []points.Point, err error) {
	if err != nil {
		s.setStatus(StatusError, fmt.Sprintf("Macro %s: %v", name, err))
		return
	}
	if s.view != ViewEditor {
		s.setStatus(StatusError, fmt.Sprintf("Macro %s finished after leaving the editor", name))
		return
	}
	for _, p := range pts {
		s.store.Add(p)
	}
	s.setStatus(StatusSuccess, fmt.Sprintf("Macro %s added %d points", name, len(pts)))
}

// Preview draws the live canvas with r.
func (s *Session) Preview(r *preview.Renderer) (*image.RGBA, error) {
	w, h := s.CanvasSize()
	var bg image.Image
	if s.hasBackground {
		bg = s.background.Image
	}
	return r.Render(bg, w, h, s.store.Points())
}

// Go runs work on a new goroutine. The function it returns is applied on
// the owner goroutine by the next Pump or Wait.
func (s *Session) Go(work func() func()) {
	s.inflight++
	go func() {
		apply := work()
		s.mu.Lock()
		s.queue = append(s.queue, apply)
		s.mu.Unlock()
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}()
}

// Pump applies finished work and returns how many completions ran.
func (s *Session) Pump() int {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, apply := range queue {
		s.inflight--
		if apply != nil {
			apply()
		}
	}
	return len(queue)
}

// Pending is the number of Go calls not yet applied.
func (s *Session) Pending() int { return s.inflight }

// Wait pumps until all outstanding work has been applied or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	for {
		s.Pump()
		if s.inflight == 0 {
			return nil
		}
		select {
		case <-s.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
