// Package gesture turns per-frame hand landmarks into drawing events:
// pinch-and-hover zone selection, single-finger tracing, and pen-up.
package gesture

import (
	"errors"
	"fmt"
	"image/color"
)

// Tool identifies what a zone selects.
type Tool string

const (
	// ToolBlue selects blue ink.
	ToolBlue Tool = "blue"
	// ToolGreen selects green ink.
	ToolGreen Tool = "green"
	// ToolYellow selects yellow ink.
	ToolYellow Tool = "yellow"
	// ToolEraser switches to erasing.
	ToolEraser Tool = "eraser"
)

var (
	// ErrNoZones is returned when a zone set is built from an empty list.
	ErrNoZones = errors.New("no zones configured")
	// ErrNoEraserZone is returned when no zone selects the eraser.
	ErrNoEraserZone = errors.New("no eraser zone configured")
)

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// Contains reports whether (x, y) lies strictly inside the rectangle.
// Points on the border are outside.
func (r Rect) Contains(x, y float64) bool {
	return x > r.X1 && x < r.X2 && y > r.Y1 && y < r.Y2
}

// Overlaps reports whether the open interiors of r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.X1 < o.X2 && o.X1 < r.X2 && r.Y1 < o.Y2 && o.Y1 < r.Y2
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Zone is a fixed screen rectangle bound to a tool.
type Zone struct {
	Label string
	Tool  Tool
	Fill  color.RGBA // swatch colour shown in the overlay
	Ink   color.RGBA // stroke colour once selected; unused by the eraser
	Rect  Rect
}

// IsEraser reports whether selecting the zone switches to erasing.
func (z Zone) IsEraser() bool { return z.Tool == ToolEraser }

// ZoneSet is an immutable, ordered list of zones. Declaration order decides
// hit-test ties.
type ZoneSet struct {
	zones []Zone
}

// NewZoneSet validates zones and returns a set owning a copy of them.
func NewZoneSet(zones []Zone) (*ZoneSet, error) {
	if len(zones) == 0 {
		return nil, ErrNoZones
	}

	hasEraser := false
	for i, z := range zones {
		if z.Rect.X1 >= z.Rect.X2 || z.Rect.Y1 >= z.Rect.Y2 {
			return nil, fmt.Errorf("zone %d (%s): empty rectangle %+v", i, z.Label, z.Rect)
		}
		if z.Tool == "" {
			return nil, fmt.Errorf("zone %d (%s): missing tool", i, z.Label)
		}
		if z.IsEraser() {
			hasEraser = true
		}
	}
	if !hasEraser {
		return nil, ErrNoEraserZone
	}

	return &ZoneSet{zones: append([]Zone(nil), zones...)}, nil
}

// Len returns the number of zones.
func (s *ZoneSet) Len() int { return len(s.zones) }

// At returns the zone at index i.
func (s *ZoneSet) At(i int) Zone { return s.zones[i] }

// All returns a copy of the zones in declaration order.
func (s *ZoneSet) All() []Zone {
	return append([]Zone(nil), s.zones...)
}

// Hit returns the index of the first zone strictly containing (x, y).
func (s *ZoneSet) Hit(x, y float64) (int, bool) {
	for i, z := range s.zones {
		if z.Rect.Contains(x, y) {
			return i, true
		}
	}
	return -1, false
}

// Overlaps returns every pair of zone indices whose rectangles intersect.
func (s *ZoneSet) Overlaps() [][2]int {
	var pairs [][2]int
	for i := 0; i < len(s.zones); i++ {
		for j := i + 1; j < len(s.zones); j++ {
			if s.zones[i].Rect.Overlaps(s.zones[j].Rect) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// DefaultInk returns the ink of the first colour zone, used before any selection.
func (s *ZoneSet) DefaultInk() (color.RGBA, bool) {
	for _, z := range s.zones {
		if !z.IsEraser() {
			return z.Ink, true
		}
	}
	return color.RGBA{}, false
}

// Eraser returns the index of the first eraser zone.
func (s *ZoneSet) Eraser() (int, bool) {
	for i, z := range s.zones {
		if z.IsEraser() {
			return i, true
		}
	}
	return -1, false
}
