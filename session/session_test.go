package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/milk9111/fieldpath/background"
	"github.com/milk9111/fieldpath/coords"
	"github.com/milk9111/fieldpath/dispatch"
	"github.com/milk9111/fieldpath/points"
	"github.com/milk9111/fieldpath/preview"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	reqs []dispatch.Request
	res  *dispatch.Result
	err  error
}

func (f *fakeDispatcher) Send(ctx context.Context, req dispatch.Request) (*dispatch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

func (f *fakeDispatcher) Requests() []dispatch.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatch.Request(nil), f.reqs...)
}

var pngResult = func() *dispatch.Result {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return &dispatch.Result{Data: buf.Bytes(), ContentType: "image/png", Image: img, RequestID: "test"}
}()

func withBackground(t *testing.T, w, h int) *Session {
	t.Helper()
	s := New(Options{})
	s.SetBackground(background.Result{Image: image.NewRGBA(image.Rect(0, 0, w, h)), Index: 0})
	return s
}

func waitAll(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestModeToggle(t *testing.T) {
	m := ModeClick
	if !m.AcceptsClicks() || m.ShowsManualFields() || m.Cursor() != CursorCrosshair {
		t.Fatalf("click mode affordances wrong")
	}
	m = m.Toggle()
	if m != ModeManual || m.AcceptsClicks() || !m.ShowsManualFields() || m.Cursor() != CursorNotAllowed {
		t.Fatalf("manual mode affordances wrong")
	}
	if m.Toggle() != ModeClick {
		t.Fatal("toggle is not an involution")
	}
}

func TestClickMapsThroughRect(t *testing.T) {
	s := withBackground(t, 3600, 3600)
	rect := coords.Rect{X: 100, Y: 50, W: 720, H: 720}
	s.SetNextState(points.StateIntaking)

	p, ok := s.Click(100+360, 50+72, rect)
	if !ok {
		t.Fatal("click inside the canvas was ignored")
	}
	if p != (points.Point{X: 1800, Y: 360, State: points.StateIntaking}) {
		t.Fatalf("point = %+v", p)
	}

	if _, ok := s.Click(10, 10, rect); ok {
		t.Fatal("click outside the canvas added a point")
	}

	s.SetMode(ModeManual)
	if _, ok := s.Click(200, 200, rect); ok {
		t.Fatal("click in manual mode added a point")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestAddManual(t *testing.T) {
	s := New(Options{})

	if _, err := s.AddManual("1", "2", points.StateNone); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("err = %v, want ErrWrongMode", err)
	}

	s.SetMode(ModeManual)
	p, err := s.AddManual(" 12.5 ", "-3", points.StateMoving)
	if err != nil {
		t.Fatalf("AddManual: %v", err)
	}
	if p != (points.Point{X: 12.5, Y: -3, State: points.StateMoving}) {
		t.Fatalf("point = %+v", p)
	}

	for _, bad := range [][2]string{{"", "1"}, {"abc", "1"}, {"1", "NaN"}, {"Inf", "2"}} {
		before := s.Points()
		if _, err := s.AddManual(bad[0], bad[1], points.StateNone); !errors.Is(err, ErrInvalidCoordinates) {
			t.Fatalf("AddManual(%q, %q) err = %v", bad[0], bad[1], err)
		}
		if st := s.Status(); st.Kind != StatusError || st.Text != "Please enter valid coordinates" {
			t.Fatalf("status = %+v", st)
		}
		if !reflect.DeepEqual(s.Points(), before) {
			t.Fatal("invalid input changed the store")
		}
	}
}

func TestRemoveScenario(t *testing.T) {
	s := New(Options{})
	s.SetMode(ModeManual)
	s.AddManual("1", "1", points.StateMoving)
	s.AddManual("2", "2", points.StateNone)
	s.AddManual("3", "3", points.StateIdle)

	if err := s.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := []string{"Point 1: (1, 1) [moving]", "Point 2: (3, 3) [idle]"}
	if got := s.Rows(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Rows = %q, want %q", got, want)
	}

	if err := s.Remove(5); !errors.Is(err, points.ErrIndexOutOfRange) {
		t.Fatalf("err = %v, want ErrIndexOutOfRange", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d after bad remove", s.Len())
	}
}

func TestRenderTooFewPointsNeverSends(t *testing.T) {
	s := New(Options{})
	s.SetMode(ModeManual)
	s.AddManual("1", "1", points.StateNone)

	d := &fakeDispatcher{res: pngResult}
	if err := s.Render(context.Background(), d); !errors.Is(err, dispatch.ErrTooFewPoints) {
		t.Fatalf("err = %v, want ErrTooFewPoints", err)
	}
	waitAll(t, s)
	if n := len(d.Requests()); n != 0 {
		t.Fatalf("dispatcher called %d times", n)
	}
	if st := s.Status(); st.Text != "Please add at least 2 points" || st.Kind != StatusError {
		t.Fatalf("status = %+v", st)
	}
}

func TestRenderSuccessShowsResult(t *testing.T) {
	s := New(Options{MapFilename: "pushback_map.png"})
	s.SetMode(ModeManual)
	s.AddManual("10", "10", points.StateNone)
	s.AddManual("50", "50", points.StateNone)
	s.AddManual("90", "10", points.StateNone)

	d := &fakeDispatcher{res: pngResult}
	if err := s.Render(context.Background(), d); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !s.Rendering() {
		t.Fatal("Rendering not set while in flight")
	}
	if err := s.Render(context.Background(), d); !errors.Is(err, ErrRenderInFlight) {
		t.Fatalf("second render err = %v", err)
	}
	waitAll(t, s)

	reqs := d.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Method != dispatch.MethodPolyline || req.CoordinateSystem != dispatch.CoordPixel || req.MapFilename != "pushback_map.png" {
		t.Fatalf("request = %+v", req)
	}
	wantPts := []dispatch.WirePoint{{X: 10, Y: 10}, {X: 50, Y: 50}, {X: 90, Y: 10}}
	if !reflect.DeepEqual(req.Points, wantPts) {
		t.Fatalf("points = %+v", req.Points)
	}

	if s.View() != ViewResult || s.Result() != pngResult {
		t.Fatalf("view = %v result = %v", s.View(), s.Result())
	}
	if st := s.Status(); st.Kind != StatusSuccess {
		t.Fatalf("status = %+v", st)
	}
	if _, ok := s.Click(5, 5, coords.Rect{W: 100, H: 100}); ok {
		t.Fatal("canvas accepted a click while the result is shown")
	}
	if len(s.ResultPoints()) != 3 {
		t.Fatalf("ResultPoints = %v", s.ResultPoints())
	}
}

func TestRenderFailureKeepsStore(t *testing.T) {
	s := New(Options{})
	s.SetMode(ModeManual)
	s.AddManual("1", "1", points.StateNone)
	s.AddManual("2", "2", points.StateNone)
	before := s.Points()

	d := &fakeDispatcher{err: &dispatch.StatusError{Code: 500, Message: "Failed to generate image"}}
	if err := s.Render(context.Background(), d); err != nil {
		t.Fatalf("Render: %v", err)
	}
	waitAll(t, s)

	if s.View() != ViewEditor || s.Rendering() {
		t.Fatalf("view = %v rendering = %v", s.View(), s.Rendering())
	}
	if !reflect.DeepEqual(s.Points(), before) {
		t.Fatal("failed render changed the store")
	}
	if st := s.Status(); st.Kind != StatusError || st.Text != "Error: render failed: 500 Failed to generate image" {
		t.Fatalf("status = %+v", st)
	}

	d.err, d.res = nil, pngResult
	if err := s.Render(context.Background(), d); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	waitAll(t, s)
	if s.View() != ViewResult {
		t.Fatal("resubmit did not show the result")
	}
}

func TestEditAgainStartsFresh(t *testing.T) {
	s := New(Options{})
	var changes []points.Change
	s.OnChange(func(c points.Change) { changes = append(changes, c) })

	s.SetMode(ModeManual)
	s.AddManual("1", "1", points.StateNone)
	s.AddManual("2", "2", points.StateNone)
	s.ApplyRender(pngResult, nil)
	if s.View() != ViewResult {
		t.Fatal("expected result view")
	}

	s.EditAgain()
	if s.View() != ViewEditor || s.Len() != 0 || s.Result() != nil {
		t.Fatalf("view = %v len = %d", s.View(), s.Len())
	}
	if len(changes) != 3 || changes[2].Op != points.OpClear {
		t.Fatalf("changes = %+v", changes)
	}

	s.AddManual("5", "5", points.StateNone)
	if len(changes) != 4 {
		t.Fatal("listener not re-attached to the fresh store")
	}
}

func TestDownload(t *testing.T) {
	s := New(Options{})
	dir := t.TempDir()

	if err := s.Download(filepath.Join(dir, "none.png")); !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}

	s.ApplyRender(pngResult, nil)
	path := filepath.Join(dir, "path.png")
	if err := s.Download(path); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	if err := s.DownloadSheet(filepath.Join(dir, "path.pdf"), preview.DefaultStateTable()); err != nil {
		t.Fatalf("DownloadSheet: %v", err)
	}
}

func TestRunMacro(t *testing.T) {
	s := withBackground(t, 200, 100)
	src := `add(0, 0, "idle")
add(field.width, field.height, "releasing")`
	if err := s.RunMacro(context.Background(), "corners", src); err != nil {
		t.Fatalf("RunMacro: %v", err)
	}
	waitAll(t, s)

	want := []points.Point{{X: 0, Y: 0, State: points.StateIdle}, {X: 200, Y: 100, State: points.StateReleasing}}
	if got := s.Points(); !reflect.DeepEqual(got, want) {
		t.Fatalf("points = %+v", got)
	}

	if err := s.RunMacro(context.Background(), "broken", `add(1, 1, "flying")`); err != nil {
		t.Fatal(err)
	}
	waitAll(t, s)
	if s.Status().Kind != StatusError || s.Len() != 2 {
		t.Fatalf("status = %+v len = %d", s.Status(), s.Len())
	}
}

func TestResolveBackgroundPlaceholder(t *testing.T) {
	s := New(Options{})
	r := &background.Resolver{Candidates: []string{"missing.png"}, Timeout: 50 * time.Millisecond,
		Loader: background.FSLoader{FS: os.DirFS(t.TempDir())}}
	s.ResolveBackground(context.Background(), r)
	waitAll(t, s)

	bg, ok := s.Background()
	if !ok || !bg.Fallback {
		t.Fatalf("background = %+v ok = %v", bg, ok)
	}
	if st := s.Status(); st.Kind != StatusInfo {
		t.Fatalf("placeholder reported as %v", st.Kind)
	}
	if w, h := s.CanvasSize(); w != 720 || h != 720 {
		t.Fatalf("CanvasSize = %dx%d", w, h)
	}

	img, err := s.Preview(preview.DefaultRenderer())
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if img.Bounds().Dx() != 720 {
		t.Fatalf("preview width = %d", img.Bounds().Dx())
	}
}

func TestStatusExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(Options{Now: func() time.Time { return now }})
	s.SetMode(ModeManual)
	s.AddManual("x", "1", points.StateNone)

	st := s.Status()
	if !st.Active(now.Add(4 * time.Second)) {
		t.Fatal("status expired early")
	}
	if st.Active(now.Add(5 * time.Second)) {
		t.Fatal("status still active after 5s")
	}
}

func TestPreviewBlankBeforeBackground(t *testing.T) {
	s := New(Options{})
	r := preview.DefaultRenderer()
	img, err := s.Preview(r)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	got := img.RGBAAt(1, 1)
	want := color.RGBAModel.Convert(r.Marker.Blank).(color.RGBA)
	if d := int(got.G) - int(want.G); d < -2 || d > 2 {
		t.Fatalf("pixel = %v, want blank %v", got, want)
	}
}
