package paint

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"

	"github.com/ayusman/rangoli/internal/canvas"
	"github.com/ayusman/rangoli/internal/detector"
	"github.com/ayusman/rangoli/internal/gesture"
	"github.com/ayusman/rangoli/internal/notify"
)

var (
	blueInk   = color.RGBA{B: 0xff, A: 0xff}
	greenInk  = color.RGBA{G: 0x80, A: 0xff}
	blueFill  = color.RGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}
	eraseFill = color.RGBA{R: 0x95, G: 0xa5, B: 0xa6, A: 0xff}
)

type recorder struct {
	mu  sync.Mutex
	got []notify.Notification
}

func (r *recorder) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	for i, n := range r.got {
		out[i] = n.Message
	}
	return out
}

func scenarioZones(t *testing.T) *gesture.ZoneSet {
	t.Helper()
	zones, err := gesture.NewZoneSet([]gesture.Zone{
		{Label: "Blue", Tool: gesture.ToolBlue, Fill: blueFill, Ink: blueInk, Rect: gesture.Rect{X1: 30, Y1: 30, X2: 130, Y2: 130}},
		{Label: "Green", Tool: gesture.ToolGreen, Ink: greenInk, Rect: gesture.Rect{X1: 160, Y1: 30, X2: 260, Y2: 130}},
		{Label: "Eraser", Tool: gesture.ToolEraser, Fill: eraseFill, Rect: gesture.Rect{X1: 420, Y1: 30, X2: 520, Y2: 130}},
	})
	if err != nil {
		t.Fatalf("NewZoneSet() error = %v", err)
	}
	return zones
}

func newController(t *testing.T) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	c := New(canvas.New(800, 600), scenarioZones(t), Config{Cap: canvas.CapRound, InitialTool: gesture.ToolBlue}, rec)
	return c, rec
}

func pinchAt(x, y float64) *detector.HandLandmarks {
	h := detector.HandAt(x, y, x+5, y, 800, 600)
	return &h
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestController_Scenario(t *testing.T) {
	c, rec := newController(t)

	// Frame 1: pinch inside Blue.
	ev := c.Process(pinchAt(50, 50))
	if ev.Kind != gesture.KindSelectZone || ev.Tool != gesture.ToolBlue {
		t.Fatalf("frame 1 event = %v, want SelectZone(blue)", ev)
	}
	if tool := c.Tool(); tool.ActiveColor != blueInk || tool.Erasing {
		t.Errorf("frame 1 tool = %+v, want blue ink, not erasing", tool)
	}

	// Frame 2: first trace point only sets the cursor.
	ev = c.Process(pinchAt(300, 300))
	if ev.Kind != gesture.KindTraceAt || !near(ev.X, 300) || !near(ev.Y, 300) {
		t.Fatalf("frame 2 event = %v, want TraceAt(300,300)", ev)
	}
	if c.Stats().Segments != 0 {
		t.Error("frame 2 must not draw a segment")
	}
	if p, ok := c.Cursor(); !ok || !near(p.X, 300) || !near(p.Y, 300) {
		t.Errorf("frame 2 cursor = %v, %v; want (300,300)", p, ok)
	}

	// Frame 3: one blue segment from (300,300) to (310,310).
	ev = c.Process(pinchAt(310, 310))
	if ev.Kind != gesture.KindTraceAt {
		t.Fatalf("frame 3 event = %v, want TraceAt", ev)
	}
	if got := c.Stats().Segments; got != 1 {
		t.Fatalf("frame 3 segments = %d, want 1", got)
	}
	img := c.Surface().Snapshot()
	if got := img.RGBAAt(305, 305); got != blueInk {
		t.Errorf("segment midpoint = %v, want %v", got, blueInk)
	}
	// Width 5: a point 5px off the line is clear.
	if got := img.RGBAAt(309, 301).A; got != 0 {
		t.Errorf("pixel beside the 5px stroke has alpha %d", got)
	}

	// Frame 4: spread fingers lift the pen.
	h := detector.HandAt(500, 500, 600, 500, 800, 600)
	if ev := c.Process(&h); ev.Kind != gesture.KindIdle {
		t.Fatalf("frame 4 event = %v, want Idle", ev)
	}
	if _, ok := c.Cursor(); ok {
		t.Error("frame 4 should reset the cursor")
	}

	if msgs := rec.messages(); len(msgs) != 1 || msgs[0] != "Blue Selected" {
		t.Errorf("notifications = %v, want [Blue Selected]", msgs)
	}
}

func TestController_IdleEventsNeverDraw(t *testing.T) {
	seqs := [][]gesture.Event{
		{gesture.NoHand()},
		{gesture.Idle()},
		{gesture.NoHand(), gesture.Idle(), gesture.NoHand()},
		{gesture.Idle(), gesture.Idle(), gesture.Idle(), gesture.NoHand()},
	}

	for _, seq := range seqs {
		c, _ := newController(t)
		c.Handle(gesture.TraceAt(100, 300))
		c.Handle(gesture.TraceAt(200, 300))
		before := c.Surface().Snapshot()

		for _, ev := range seq {
			c.Handle(ev)
		}

		if _, ok := c.Cursor(); ok {
			t.Errorf("cursor still set after %v", seq)
		}
		if !bytes.Equal(before.Pix, c.Surface().Snapshot().Pix) {
			t.Errorf("%v changed the surface", seq)
		}
	}
}

func TestController_NoPhantomSegments(t *testing.T) {
	tests := []struct {
		name  string
		reset gesture.Event
	}{
		{"after NoHand", gesture.NoHand()},
		{"after Idle", gesture.Idle()},
		{"after selection", gesture.SelectZone(1, gesture.ToolGreen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newController(t)
			c.Handle(gesture.TraceAt(100, 400))
			c.Handle(gesture.TraceAt(120, 400))
			if c.Stats().Segments != 1 {
				t.Fatal("setup should draw one segment")
			}

			c.Handle(tt.reset)
			before := c.Surface().Snapshot()

			c.Handle(gesture.TraceAt(600, 500))
			if c.Stats().Segments != 1 {
				t.Error("first trace after a reset committed a segment")
			}
			if !bytes.Equal(before.Pix, c.Surface().Snapshot().Pix) {
				t.Error("first trace after a reset changed the surface")
			}

			c.Handle(gesture.TraceAt(650, 500))
			if c.Stats().Segments != 2 {
				t.Errorf("second trace should commit exactly one segment, total = %d", c.Stats().Segments)
			}
		})
	}
}

func TestController_ZeroCoordinateCursor(t *testing.T) {
	c, _ := newController(t)
	c.Handle(gesture.TraceAt(0, 0))

	if p, ok := c.Cursor(); !ok || p != (canvas.Point{}) {
		t.Fatalf("cursor = %v, %v; want (0,0), true", p, ok)
	}

	c.Handle(gesture.TraceAt(0, 40))
	if c.Stats().Segments != 1 {
		t.Error("a cursor at (0,0) is a real point and must connect to the next trace")
	}
}

func TestController_Selection(t *testing.T) {
	c, rec := newController(t)

	if tool := c.Tool(); tool.ActiveColor != blueInk || tool.Erasing || tool.Zone != -1 {
		t.Errorf("initial tool = %+v, want first colour ink", tool)
	}

	c.Handle(gesture.SelectZone(2, gesture.ToolEraser))
	tool := c.Tool()
	if !tool.Erasing || tool.Tool != gesture.ToolEraser || tool.Zone != 2 {
		t.Errorf("eraser tool = %+v", tool)
	}
	if tool.ActiveColor != blueInk {
		t.Error("selecting the eraser should keep the last ink")
	}

	c.Handle(gesture.SelectZone(1, gesture.ToolGreen))
	tool = c.Tool()
	if tool.Erasing || tool.ActiveColor != greenInk {
		t.Errorf("green tool = %+v", tool)
	}

	want := []string{"Eraser Selected", "Green Selected"}
	got := rec.messages()
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestController_SelectionIsIdempotent(t *testing.T) {
	c, _ := newController(t)

	c.Handle(gesture.SelectZone(1, gesture.ToolGreen))
	first := c.Tool()

	c.Handle(gesture.TraceAt(300, 300))
	for i := 1; i <= 5; i++ {
		c.Handle(gesture.TraceAt(300+float64(i*10), 300))
	}
	c.Handle(gesture.SelectZone(1, gesture.ToolGreen))

	if got := c.Tool(); got != first {
		t.Errorf("tool after re-selection = %+v, want %+v", got, first)
	}
}

func TestController_UnknownZoneIgnored(t *testing.T) {
	c, rec := newController(t)
	c.Handle(gesture.TraceAt(300, 300))
	before := c.Tool()

	c.Handle(gesture.SelectZone(9, gesture.ToolGreen))

	if c.Tool() != before {
		t.Error("unknown zone must not change the tool")
	}
	if c.Tracing() {
		t.Error("selection events always lift the pen")
	}
	if len(rec.messages()) != 0 {
		t.Error("unknown zone must not notify")
	}
}

func TestController_Erase(t *testing.T) {
	c, _ := newController(t)
	c.Handle(gesture.TraceAt(200, 300))
	c.Handle(gesture.TraceAt(400, 300))
	if c.Surface().Snapshot().RGBAAt(300, 300) != blueInk {
		t.Fatal("setup stroke missing")
	}

	c.Handle(gesture.SelectZone(2, gesture.ToolEraser))
	c.Handle(gesture.TraceAt(300, 250))
	c.Handle(gesture.TraceAt(300, 350))

	img := c.Surface().Snapshot()
	if got := img.RGBAAt(300, 300).A; got != 0 {
		t.Errorf("erased pixel alpha = %d, want 0", got)
	}
	if got := img.RGBAAt(250, 300); got != blueInk {
		t.Errorf("pixel outside the 20px eraser = %v, want untouched", got)
	}
}

func TestController_Reset(t *testing.T) {
	c, rec := newController(t)
	c.Handle(gesture.SelectZone(1, gesture.ToolGreen))
	c.Handle(gesture.TraceAt(100, 300))
	c.Handle(gesture.TraceAt(700, 300))
	tool := c.Tool()

	c.Reset()

	img := c.Surface().Snapshot()
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			t.Fatal("surface not blank after Reset")
		}
	}
	if c.Tracing() {
		t.Error("Reset should lift the pen")
	}
	if c.Tool() != tool {
		t.Error("Reset must not change the tool")
	}
	msgs := rec.messages()
	if msgs[len(msgs)-1] != "Canvas has been reset!" {
		t.Errorf("last notification = %q", msgs[len(msgs)-1])
	}
	if c.Stats().Resets != 1 {
		t.Errorf("Resets = %d, want 1", c.Stats().Resets)
	}
}

func TestController_ExportAfterReset(t *testing.T) {
	c, rec := newController(t)
	c.Handle(gesture.TraceAt(100, 100))
	c.Handle(gesture.TraceAt(500, 500))
	c.Reset()

	data, err := c.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 800, 600) {
		t.Errorf("bounds = %v, want 800x600", img.Bounds())
	}
	for y := 0; y < 600; y += 4 {
		for x := 0; x < 800; x += 4 {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				t.Fatalf("pixel (%d,%d) not blank", x, y)
			}
		}
	}

	msgs := rec.messages()
	if msgs[len(msgs)-1] != "Drawing saved!" {
		t.Errorf("last notification = %q, want Drawing saved!", msgs[len(msgs)-1])
	}
}

func TestController_ExportIsReadOnly(t *testing.T) {
	c, _ := newController(t)
	c.Handle(gesture.TraceAt(100, 100))
	before := c.Surface().Snapshot()
	cursor, _ := c.Cursor()

	if _, err := c.Export(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before.Pix, c.Surface().Snapshot().Pix) {
		t.Error("Export changed the surface")
	}
	if p, ok := c.Cursor(); !ok || p != cursor {
		t.Error("Export changed the cursor")
	}
}

func TestController_ExportFailureWrapsErrEncode(t *testing.T) {
	// A zero-size surface cannot be encoded as PNG.
	c := New(canvas.New(0, 0), scenarioZones(t), Config{}, nil)

	_, err := c.Export()
	if !errors.Is(err, canvas.ErrEncode) {
		t.Fatalf("Export() error = %v, want ErrEncode", err)
	}
	if c.Stats().Exports != 0 {
		t.Error("failed export should not count")
	}
}

func TestController_ConcurrentControlPath(t *testing.T) {
	c, _ := newController(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			c.Process(pinchAt(200+float64(i%100)*4, 400))
			if i%25 == 0 {
				c.Process(nil)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			c.Reset()
			if _, err := c.Export(); err != nil {
				t.Errorf("Export() error = %v", err)
			}
		}
	}()
	wg.Wait()

	st := c.Stats()
	if st.Frames != 208 {
		t.Errorf("Frames = %d, want 208", st.Frames)
	}
	if st.Resets != 10 || st.Exports != 10 {
		t.Errorf("stats = %+v", st)
	}
}
