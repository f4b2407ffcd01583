// Package paint owns the drawing state machine: the active tool, the stroke
// cursor, and the commits they make to the canvas surface.
package paint

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"github.com/ayusman/rangoli/internal/canvas"
	"github.com/ayusman/rangoli/internal/detector"
	"github.com/ayusman/rangoli/internal/gesture"
	"github.com/ayusman/rangoli/internal/log"
	"github.com/ayusman/rangoli/internal/notify"
)

// Default stroke widths in pixels.
const (
	DefaultDrawingThickness = 5.0
	DefaultEraserThickness  = 20.0
)

// Config tunes a Controller.
type Config struct {
	DrawingThickness  float64
	EraserThickness   float64
	Cap               canvas.Cap
	DistanceThreshold float64
	// InitialInk is the colour used before any selection. A zero value
	// uses the first colour zone's ink.
	InitialInk  color.RGBA
	InitialTool gesture.Tool
}

// ToolState is the active drawing tool.
type ToolState struct {
	ActiveColor color.RGBA
	Erasing     bool
	Tool        gesture.Tool
	// Zone is the index of the last selected zone, or -1.
	Zone int
}

// Stats counts what the controller has done since creation.
type Stats struct {
	Frames     uint64
	Segments   uint64
	Selections uint64
	Resets     uint64
	Exports    uint64
}

// Controller consumes one gesture event per frame. Frame handling, Reset and
// Export are serialized by a single lock, so a reset or export never lands
// in the middle of a frame.
type Controller struct {
	mu        sync.Mutex
	surface   *canvas.Surface
	zones     *gesture.ZoneSet
	interp    *gesture.Interpreter
	cfg       Config
	sink      notify.Sink
	tool      ToolState
	cursor    canvas.Point
	hasCursor bool
	stats     Stats
	logger    *slog.Logger
}

// New returns a Controller drawing onto surface. The interpreter scales
// landmarks into the surface's dimensions. A nil sink discards notifications.
func New(surface *canvas.Surface, zones *gesture.ZoneSet, cfg Config, sink notify.Sink) *Controller {
	if cfg.DrawingThickness <= 0 {
		cfg.DrawingThickness = DefaultDrawingThickness
	}
	if cfg.EraserThickness <= 0 {
		cfg.EraserThickness = DefaultEraserThickness
	}
	if sink == nil {
		sink = notify.Discard
	}

	ink := cfg.InitialInk
	if ink.A == 0 {
		ink, _ = zones.DefaultInk()
	}

	b := surface.Bounds()
	return &Controller{
		surface: surface,
		zones:   zones,
		interp: gesture.NewInterpreter(zones, gesture.InterpreterConfig{
			Width:             b.Dx(),
			Height:            b.Dy(),
			DistanceThreshold: cfg.DistanceThreshold,
		}),
		cfg:    cfg,
		sink:   sink,
		tool:   ToolState{ActiveColor: ink, Tool: cfg.InitialTool, Zone: -1},
		logger: log.WithComponent("paint"),
	}
}

// Process interprets one frame's hand (nil when none was detected) and
// handles the resulting event, which it returns.
func (c *Controller) Process(hand *detector.HandLandmarks) gesture.Event {
	ev := c.interp.Interpret(hand)
	c.Handle(ev)
	return ev
}

// Handle applies one event.
func (c *Controller) Handle(ev gesture.Event) {
	c.mu.Lock()
	c.stats.Frames++
	n, ok := c.apply(ev)
	c.mu.Unlock()

	if ok {
		c.sink.Notify(n)
	}
}

func (c *Controller) apply(ev gesture.Event) (notify.Notification, bool) {
	switch ev.Kind {
	case gesture.KindSelectZone:
		c.hasCursor = false
		if ev.Zone < 0 || ev.Zone >= c.zones.Len() {
			c.logger.Warn("selection of unknown zone", slog.Int("zone", ev.Zone))
			return notify.Notification{}, false
		}
		z := c.zones.At(ev.Zone)
		c.tool.Zone = ev.Zone
		c.tool.Tool = z.Tool
		c.tool.Erasing = z.IsEraser()
		if !c.tool.Erasing {
			c.tool.ActiveColor = z.Ink
		}
		c.stats.Selections++
		c.logger.Info("tool selected", slog.String("tool", string(z.Tool)), slog.String("zone", z.Label))
		return notify.Selected(z.Label, string(z.Tool), z.IsEraser()), true

	case gesture.KindTraceAt:
		p := canvas.Point{X: ev.X, Y: ev.Y}
		if c.hasCursor && c.surface.Stroke(c.cursor, p, c.brush()) {
			c.stats.Segments++
			c.logger.Debug("segment",
				slog.Float64("x0", c.cursor.X), slog.Float64("y0", c.cursor.Y),
				slog.Float64("x1", p.X), slog.Float64("y1", p.Y),
				slog.Bool("erase", c.tool.Erasing))
		}
		c.cursor, c.hasCursor = p, true

	default:
		c.hasCursor = false
	}
	return notify.Notification{}, false
}

func (c *Controller) brush() canvas.Brush {
	if c.tool.Erasing {
		return canvas.Brush{Width: c.cfg.EraserThickness, Composite: canvas.CompositeErase, Cap: c.cfg.Cap}
	}
	return canvas.Brush{
		Color:     c.tool.ActiveColor,
		Width:     c.cfg.DrawingThickness,
		Composite: canvas.CompositeOver,
		Cap:       c.cfg.Cap,
	}
}

// Reset clears the surface and lifts the pen. The tool is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.surface.Clear()
	c.hasCursor = false
	c.stats.Resets++
	c.mu.Unlock()

	c.logger.Info("canvas reset")
	c.sink.Notify(notify.Cleared())
}

// Export encodes the surface as PNG. It does not change any state; on
// failure the error wraps canvas.ErrEncode.
func (c *Controller) Export() ([]byte, error) {
	c.mu.Lock()
	data, err := c.surface.PNG()
	if err == nil {
		c.stats.Exports++
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("export failed", slog.Any("err", err))
		return nil, fmt.Errorf("export drawing: %w", err)
	}
	c.logger.Info("drawing exported", slog.Int("bytes", len(data)))
	c.sink.Notify(notify.Saved())
	return data, nil
}

// Tool returns the active tool.
func (c *Controller) Tool() ToolState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tool
}

// Cursor returns the stroke cursor, or false when the pen is up.
func (c *Controller) Cursor() (canvas.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor, c.hasCursor
}

// Tracing reports whether the next trace point will commit a segment.
func (c *Controller) Tracing() bool {
	_, ok := c.Cursor()
	return ok
}

// Stats returns the activity counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Surface returns the surface the controller draws on.
func (c *Controller) Surface() *canvas.Surface { return c.surface }

// Zones returns the zone set.
func (c *Controller) Zones() *gesture.ZoneSet { return c.zones }
