package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/ayusman/rangoli/internal/gesture"
)

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa or a CSS colour name.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return color.RGBA{}, errors.New("empty colour")
	}
	if !strings.HasPrefix(s, "#") {
		c, ok := colornames.Map[s]
		if !ok {
			return color.RGBA{}, fmt.Errorf("unknown colour name %q", s)
		}
		return c, nil
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("bad hex colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad hex colour %q", s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Validate checks every field and reports all problems at once, wrapped in
// ErrInvalid. Overlapping zones are allowed.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		bad("canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.Background != "" {
		if _, err := ParseColor(c.Canvas.Background); err != nil {
			bad("canvas.background: %v", err)
		}
	}
	if c.Drawing.DistanceThreshold <= 0 {
		bad("drawing.distance_threshold must be positive")
	}
	if c.Drawing.Thickness <= 0 {
		bad("drawing.thickness must be positive")
	}
	if c.Drawing.EraserThickness <= 0 {
		bad("drawing.eraser_thickness must be positive")
	}
	if c.Drawing.Cap != "round" && c.Drawing.Cap != "flat" {
		bad("drawing.cap %q must be round or flat", c.Drawing.Cap)
	}
	if _, err := ParseColor(c.Drawing.InitialInk); err != nil {
		bad("drawing.initial_ink: %v", err)
	}
	if _, err := c.GestureZones(); err != nil {
		errs = append(errs, err)
	}
	if c.Detector.MaxHands < 1 {
		bad("detector.max_hands must be at least 1")
	}
	for name, v := range map[string]float64{
		"min_detection_confidence": c.Detector.MinDetectionConfidence,
		"min_tracking_confidence":  c.Detector.MinTrackingConfidence,
	} {
		if v < 0 || v > 1 {
			bad("detector.%s %.2f outside [0,1]", name, v)
		}
	}
	if c.Camera.ActiveFPS <= 0 || c.Camera.IdleFPS <= 0 {
		bad("camera fps must be positive")
	}
	if c.Notify.DisplayMs < 0 || c.Notify.PluginTimeoutMs < 0 {
		bad("notify durations must not be negative")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		bad("data_dir is required")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// GestureZones converts the zone table, resolving colours. Ink falls back
// to Fill for colour zones.
func (c Config) GestureZones() ([]gesture.Zone, error) {
	zones := make([]gesture.Zone, 0, len(c.Zones))
	for i, zc := range c.Zones {
		fill, err := ParseColor(zc.Fill)
		if err != nil {
			return nil, fmt.Errorf("zone %d (%s) fill: %w", i, zc.Label, err)
		}
		z := gesture.Zone{
			Label: zc.Label,
			Tool:  gesture.Tool(zc.Tool),
			Fill:  fill,
			Rect:  gesture.Rect{X1: zc.X1, Y1: zc.Y1, X2: zc.X2, Y2: zc.Y2},
		}
		if !z.IsEraser() {
			z.Ink = fill
			if zc.Ink != "" {
				if z.Ink, err = ParseColor(zc.Ink); err != nil {
					return nil, fmt.Errorf("zone %d (%s) ink: %w", i, zc.Label, err)
				}
			}
		}
		zones = append(zones, z)
	}

	if _, err := gesture.NewZoneSet(zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// Ink returns the initial stroke colour.
func (c Config) Ink() color.RGBA {
	ink, err := ParseColor(c.Drawing.InitialInk)
	if err != nil {
		return color.RGBA{}
	}
	return ink
}

// Background returns the overlay background used when no camera frame is available.
func (c Config) Background() color.RGBA {
	bg, err := ParseColor(c.Canvas.Background)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return bg
}

// InitialTool returns the colour zone whose ink matches the initial ink,
// or an empty tool when none does.
func (c Config) InitialTool() gesture.Tool {
	zones, err := c.GestureZones()
	if err != nil {
		return ""
	}
	ink := c.Ink()
	for _, z := range zones {
		if !z.IsEraser() && z.Ink == ink {
			return z.Tool
		}
	}
	return ""
}
