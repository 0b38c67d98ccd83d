package linux

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/storm/internal/gpu"
	"github.com/1broseidon/storm/internal/platform"
	"github.com/1broseidon/storm/internal/x11"
)

const (
	atomProtocols = xproto.Atom(300)
	atomDelete    = xproto.Atom(301)
)

type fakeDisplay struct {
	next    xproto.Window
	live    map[xproto.Window]bool
	mapped  map[xproto.Window]bool
	specs   []x11.WindowSpec
	events  []xgb.Event
	calls   []string
	failOn  string
	closed  int
	monitor *x11.Monitor

	// windows that registered WM_DELETE_WINDOW
	deletable []xproto.Window
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		next:   100,
		live:   map[xproto.Window]bool{},
		mapped: map[xproto.Window]bool{},
	}
}

func (d *fakeDisplay) fail(op string) error {
	d.calls = append(d.calls, op)
	if d.failOn == op {
		return errors.New(op + " failed")
	}
	return nil
}

func (d *fakeDisplay) CreateWindow(spec x11.WindowSpec) (xproto.Window, error) {
	if err := d.fail("create"); err != nil {
		return 0, err
	}
	d.next++
	d.live[d.next] = true
	d.specs = append(d.specs, spec)
	return d.next, nil
}

func (d *fakeDisplay) SetTitle(xproto.Window, string) error { return d.fail("title") }

func (d *fakeDisplay) Resize(xproto.Window, uint16, uint16, bool) error { return d.fail("resize") }

func (d *fakeDisplay) Map(win xproto.Window) error {
	if err := d.fail("map"); err != nil {
		return err
	}
	d.mapped[win] = true
	return nil
}

func (d *fakeDisplay) Unmap(win xproto.Window) error {
	if err := d.fail("unmap"); err != nil {
		return err
	}
	d.mapped[win] = false
	return nil
}

func (d *fakeDisplay) Destroy(win xproto.Window) {
	d.calls = append(d.calls, "destroy")
	delete(d.live, win)
}

func (d *fakeDisplay) Sync() error { return d.fail("sync") }

func (d *fakeDisplay) WindowValid(win xproto.Window) error {
	if err := d.fail("valid"); err != nil {
		return err
	}
	if !d.live[win] {
		return errors.New("BadWindow")
	}
	return nil
}

func (d *fakeDisplay) WaitForMap(xproto.Window, time.Duration) error {
	d.calls = append(d.calls, "wait")
	switch d.failOn {
	case "wait":
		return errors.New("wait failed")
	case "timeout":
		return x11.ErrMapTimeout
	}
	return nil
}

func (d *fakeDisplay) SetProtocols(win xproto.Window, _ ...string) error {
	if err := d.fail("protocols"); err != nil {
		return err
	}
	d.deletable = append(d.deletable, win)
	return nil
}

func (d *fakeDisplay) Atom(name string) (xproto.Atom, error) {
	if err := d.fail("atom"); err != nil {
		return 0, err
	}
	if name == "WM_PROTOCOLS" {
		return atomProtocols, nil
	}
	return atomDelete, nil
}

func (d *fakeDisplay) NextEvent() (xgb.Event, error) {
	if len(d.events) == 0 {
		return nil, x11.ErrConnectionClosed
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return ev, nil
}

func (d *fakeDisplay) ActiveMonitor() (x11.Monitor, error) {
	if d.monitor == nil {
		return x11.Monitor{}, errors.New("no monitors")
	}
	return *d.monitor, nil
}

func (d *fakeDisplay) Close() { d.closed++ }

type fakeRenderer struct {
	draws    [][]gpu.Quad
	viewport gpu.Viewport
	released int
	log      *[]string
}

func (r *fakeRenderer) Draw(quads []gpu.Quad, viewport gpu.Viewport) error {
	r.draws = append(r.draws, append([]gpu.Quad(nil), quads...))
	r.viewport = viewport
	return nil
}

func (r *fakeRenderer) Release() {
	r.released++
	if r.log != nil {
		*r.log = append(*r.log, "release renderer")
	}
}

func newTestApp(t *testing.T) (*Application, *fakeDisplay, *[]*fakeRenderer) {
	t.Helper()
	d := newFakeDisplay()
	renderers := &[]*fakeRenderer{}
	app := NewWithDisplay(d, Options{
		MapTimeout: 10 * time.Millisecond,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Renderer: func(display string, win xproto.Window, width, height uint32) (gpu.Renderer, error) {
			if d.failOn == "renderer" {
				return nil, errors.New("no vulkan device")
			}
			r := &fakeRenderer{log: &d.calls}
			*renderers = append(*renderers, r)
			return r, nil
		},
	})
	return app, d, renderers
}

func deleteEvent(win xproto.Window) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   atomProtocols,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(atomDelete), 0, 0, 0, 0}),
	}
}

func TestNewWindowCreationOrder(t *testing.T) {
	app, d, renderers := newTestApp(t)

	w, err := app.NewWindow("demo", 800, 600, platform.DefaultWindowOptions())
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}

	want := []string{"create", "map", "wait", "sync", "valid"}
	if !reflect.DeepEqual(d.calls, want) {
		t.Errorf("calls = %v, want %v", d.calls, want)
	}
	if len(*renderers) != 1 {
		t.Fatalf("renderers created = %d, want 1", len(*renderers))
	}
	if w.Renderer() != (*renderers)[0] {
		t.Error("window is not bound to the created renderer")
	}
	spec := d.specs[0]
	if spec.Title != "demo" || spec.Class != WMClass || spec.Width != 800 || spec.Height != 600 {
		t.Errorf("unexpected spec %+v", spec)
	}
	if !spec.Resizable || !spec.Decorations || spec.AlwaysOnTop {
		t.Errorf("spec styling %+v does not follow default options", spec)
	}
}

func TestNewWindowRejectsInvalidSize(t *testing.T) {
	app, d, _ := newTestApp(t)

	for _, size := range [][2]uint32{{0, 10}, {10, 0}, {70000, 10}} {
		_, err := app.NewWindow("x", size[0], size[1], platform.DefaultWindowOptions())
		if !errors.Is(err, platform.ErrWindowCreation) {
			t.Errorf("NewWindow(%v) error = %v, want ErrWindowCreation", size, err)
		}
	}
	if len(d.calls) != 0 {
		t.Errorf("invalid sizes reached the display: %v", d.calls)
	}
}

func TestNewWindowFailureDestroysWindow(t *testing.T) {
	tests := []struct {
		failOn string
		want   error
	}{
		{"map", platform.ErrWindowCreation},
		{"wait", platform.ErrWindowCreation},
		{"timeout", platform.ErrTimeout},
		{"sync", platform.ErrWindowCreation},
		{"valid", platform.ErrWindowCreation},
		{"renderer", platform.ErrGPU},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			app, d, _ := newTestApp(t)
			d.failOn = tt.failOn

			w, err := app.NewWindow("x", 10, 10, platform.DefaultWindowOptions())
			if w != nil {
				t.Fatal("NewWindow returned a window on failure")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if len(d.live) != 0 {
				t.Errorf("live windows after failure = %d, want 0", len(d.live))
			}
		})
	}
}

func TestNewWindowCreateFailure(t *testing.T) {
	app, d, _ := newTestApp(t)
	d.failOn = "create"

	_, err := app.NewWindow("x", 10, 10, platform.DefaultWindowOptions())
	if !errors.Is(err, platform.ErrWindowCreation) {
		t.Errorf("error = %v, want ErrWindowCreation", err)
	}
}

func TestNewWindowHiddenUnmapsAfterRenderer(t *testing.T) {
	app, d, _ := newTestApp(t)
	opts := platform.DefaultWindowOptions()
	opts.Visible = false

	w, err := app.NewWindow("x", 10, 10, opts)
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	if d.mapped[w.ID()] {
		t.Error("hidden window is still mapped")
	}
}

func TestNewWindowCentred(t *testing.T) {
	app, d, _ := newTestApp(t)
	app.opts.Centered = true
	d.monitor = &x11.Monitor{X: 1920, Width: 1920, Height: 1080}

	if _, err := app.NewWindow("x", 1000, 600, platform.DefaultWindowOptions()); err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	if spec := d.specs[0]; spec.X != 2380 || spec.Y != 240 {
		t.Errorf("origin = (%d, %d), want (2380, 240)", spec.X, spec.Y)
	}
}

func TestCreateThenCloseLeaksNothing(t *testing.T) {
	app, d, renderers := newTestApp(t)

	w, err := app.NewWindow("x", 10, 10, platform.DefaultWindowOptions())
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	d.calls = nil
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if len(d.live) != 0 {
		t.Errorf("live windows = %d, want 0", len(d.live))
	}
	want := []string{"release renderer", "destroy"}
	if !reflect.DeepEqual(d.calls, want) {
		t.Errorf("teardown order = %v, want %v", d.calls, want)
	}
	if (*renderers)[0].released != 1 {
		t.Errorf("renderer released %d times, want 1", (*renderers)[0].released)
	}
}

func TestApplicationCloseOrder(t *testing.T) {
	app, d, _ := newTestApp(t)
	w, _ := app.NewWindow("x", 10, 10, platform.DefaultWindowOptions())
	if err := app.SetWindow(w); err != nil {
		t.Fatalf("SetWindow() error = %v", err)
	}
	d.calls = nil

	if err := app.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if d.closed != 1 {
		t.Errorf("display closed %d times, want 1", d.closed)
	}
	want := []string{"release renderer", "destroy"}
	if !reflect.DeepEqual(d.calls, want) {
		t.Errorf("teardown order = %v, want %v", d.calls, want)
	}
}

func TestSetWindowRejectsForeignAndNil(t *testing.T) {
	app, _, _ := newTestApp(t)
	other, _, _ := newTestApp(t)
	own, _ := app.NewWindow("own", 10, 10, platform.DefaultWindowOptions())
	if err := app.SetWindow(own); err != nil {
		t.Fatalf("SetWindow(own) error = %v", err)
	}
	foreign, _ := other.NewWindow("foreign", 10, 10, platform.DefaultWindowOptions())

	if err := app.SetWindow(nil); !errors.Is(err, platform.ErrWindowCreation) {
		t.Errorf("SetWindow(nil) error = %v, want ErrWindowCreation", err)
	}
	if err := app.SetWindow(foreign); !errors.Is(err, platform.ErrWindowCreation) {
		t.Errorf("SetWindow(foreign) error = %v, want ErrWindowCreation", err)
	}
	if app.Window() != own {
		t.Error("rejected attach changed the attached window")
	}
	if own.closed {
		t.Error("rejected attach closed the attached window")
	}
}

func TestSetWindowReplacesAndClosesPrevious(t *testing.T) {
	app, d, _ := newTestApp(t)
	first, _ := app.NewWindow("first", 10, 10, platform.DefaultWindowOptions())
	second, _ := app.NewWindow("second", 10, 10, platform.DefaultWindowOptions())

	if err := app.SetWindow(first); err != nil {
		t.Fatalf("SetWindow(first) error = %v", err)
	}
	if err := app.SetWindow(second); err != nil {
		t.Fatalf("SetWindow(second) error = %v", err)
	}

	if app.Window() != second {
		t.Error("second window is not attached")
	}
	if !first.closed || d.live[first.ID()] {
		t.Error("previous window was not closed")
	}
	if err := app.SetWindow(first); !errors.Is(err, platform.ErrWindowCreation) {
		t.Errorf("attaching a closed window error = %v, want ErrWindowCreation", err)
	}
}

func TestSetupWithoutWindow(t *testing.T) {
	app, _, _ := newTestApp(t)

	if err := app.Setup(); !errors.Is(err, platform.ErrNoWindowSet) {
		t.Errorf("Setup() error = %v, want ErrNoWindowSet", err)
	}
	if err := app.Run(); !errors.Is(err, platform.ErrNoWindowSet) {
		t.Errorf("Run() error = %v, want ErrNoWindowSet", err)
	}
}

func TestSetupInvalidWindow(t *testing.T) {
	app, d, _ := newTestApp(t)
	w, _ := app.NewWindow("x", 10, 10, platform.DefaultWindowOptions())
	_ = app.SetWindow(w)
	delete(d.live, w.ID())

	if err := app.Setup(); !errors.Is(err, platform.ErrNoWindowSet) {
		t.Errorf("Setup() error = %v, want ErrNoWindowSet", err)
	}
}

func TestRunBeforeSetup(t *testing.T) {
	app, _, _ := newTestApp(t)
	w, _ := app.NewWindow("x", 10, 10, platform.DefaultWindowOptions())
	_ = app.SetWindow(w)

	err := app.Run()
	if !errors.Is(err, platform.ErrNoWindowSet) || !strings.Contains(err.Error(), "before setup") {
		t.Errorf("Run() error = %v, want ErrNoWindowSet before setup", err)
	}
}

func readyApp(t *testing.T) (*Application, *fakeDisplay, *Window, *fakeRenderer) {
	t.Helper()
	app, d, renderers := newTestApp(t)
	w, err := app.NewWindow("x", 640, 480, platform.DefaultWindowOptions())
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	if err := app.SetWindow(w); err != nil {
		t.Fatalf("SetWindow() error = %v", err)
	}
	if err := app.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	return app, d, w, (*renderers)[0]
}

func TestRunReturnsOnlyOnDelete(t *testing.T) {
	app, d, w, _ := readyApp(t)
	d.events = []xgb.Event{
		xproto.ConfigureNotifyEvent{Window: w.ID()},
		xproto.MapNotifyEvent{Window: w.ID()},
		deleteEvent(w.ID() + 1),
		xproto.KeyPressEvent{Event: w.ID()},
		deleteEvent(w.ID()),
		xproto.ExposeEvent{Window: w.ID()},
	}

	if err := app.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(d.events) != 1 {
		t.Errorf("Run consumed events past the delete message, %d left", len(d.events))
	}
	if err := app.Run(); !errors.Is(err, platform.ErrEvent) {
		t.Errorf("Run() after termination error = %v, want ErrEvent", err)
	}
}

func TestReplacingWindowAfterSetupRequiresSetup(t *testing.T) {
	app, d, first, _ := readyApp(t)
	second, err := app.NewWindow("second", 320, 240, platform.DefaultWindowOptions())
	if err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}
	if err := app.SetWindow(second); err != nil {
		t.Fatalf("SetWindow(second) error = %v", err)
	}
	if !first.closed {
		t.Error("previous window was not closed")
	}

	d.events = []xgb.Event{deleteEvent(second.ID())}
	if err := app.Run(); !errors.Is(err, platform.ErrNoWindowSet) {
		t.Fatalf("Run() on replaced window error = %v, want ErrNoWindowSet", err)
	}

	if err := app.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if got := d.deletable[len(d.deletable)-1]; got != second.ID() {
		t.Errorf("delete protocol registered on %d, want %d", got, second.ID())
	}
	if err := app.Run(); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRunConnectionLost(t *testing.T) {
	app, d, w, _ := readyApp(t)
	d.events = []xgb.Event{xproto.ConfigureNotifyEvent{Window: w.ID()}}

	if err := app.Run(); !errors.Is(err, platform.ErrEvent) {
		t.Errorf("Run() error = %v, want ErrEvent", err)
	}
}

func TestRunRedrawsOnExpose(t *testing.T) {
	app, d, w, r := readyApp(t)
	quads := []gpu.Quad{{Origin: [2]float32{100, 100}, Size: [2]float32{200, 200}, Color: [4]float32{1, 0, 0, 1}}}
	if err := w.Draw(quads); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	d.events = []xgb.Event{
		xproto.ExposeEvent{Window: w.ID(), Count: 1},
		xproto.ExposeEvent{Window: w.ID()},
		deleteEvent(w.ID()),
	}

	if err := app.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(r.draws) != 2 {
		t.Fatalf("draws = %d, want 2 (Draw plus one Expose)", len(r.draws))
	}
	if !reflect.DeepEqual(r.draws[1], quads) {
		t.Errorf("Expose redraw quads = %v, want %v", r.draws[1], quads)
	}
	if r.viewport != (gpu.Viewport{Width: 640, Height: 480}) {
		t.Errorf("viewport = %v, want 640x480", r.viewport)
	}
}

func TestRunReturnsWhenWindowDestroyed(t *testing.T) {
	app, d, w, _ := readyApp(t)
	d.events = []xgb.Event{xproto.DestroyNotifyEvent{Window: w.ID()}}

	if err := app.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	d.calls = nil
	_ = app.Close()
	for _, c := range d.calls {
		if c == "destroy" {
			t.Error("already destroyed window was destroyed again")
		}
	}
}

func TestShowMapsAndDraws(t *testing.T) {
	app, d, w, r := readyApp(t)
	_ = w.Hide()
	if d.mapped[w.ID()] {
		t.Fatal("Hide did not unmap")
	}

	if err := app.Show(); err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if !d.mapped[w.ID()] {
		t.Error("Show did not map")
	}
	if len(r.draws) != 1 {
		t.Errorf("Show issued %d draws, want 1", len(r.draws))
	}
}

func TestSetTitleAndSize(t *testing.T) {
	_, d, w, r := readyApp(t)

	if err := w.SetTitle("renamed"); err != nil {
		t.Fatalf("SetTitle() error = %v", err)
	}
	if w.Title() != "renamed" {
		t.Errorf("Title() = %q", w.Title())
	}
	if err := w.SetSize(320, 200); err != nil {
		t.Fatalf("SetSize() error = %v", err)
	}
	if width, height := w.Size(); width != 320 || height != 200 {
		t.Errorf("Size() = %dx%d, want 320x200", width, height)
	}
	if err := w.SetSize(0, 200); !errors.Is(err, platform.ErrWindowCreation) {
		t.Errorf("SetSize(0, 200) error = %v, want ErrWindowCreation", err)
	}

	d.failOn = "title"
	if err := w.SetTitle("again"); err == nil {
		t.Error("SetTitle should surface display errors")
	}
	_ = w.Draw(nil)
	if r.viewport != (gpu.Viewport{Width: 320, Height: 200}) {
		t.Errorf("viewport after resize = %v", r.viewport)
	}
}

func TestClosedWindowOperationsFail(t *testing.T) {
	_, _, w, _ := readyApp(t)
	_ = w.Close()

	for name, op := range map[string]func() error{
		"show":  w.Show,
		"hide":  w.Hide,
		"title": func() error { return w.SetTitle("x") },
		"size":  func() error { return w.SetSize(1, 1) },
		"draw":  func() error { return w.Draw(nil) },
	} {
		if err := op(); !errors.Is(err, platform.ErrWindowCreation) {
			t.Errorf("%s on closed window error = %v, want ErrWindowCreation", name, err)
		}
	}
}
