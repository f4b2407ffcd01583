package canvas

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/ayusman/rangoli/internal/detector"
	"github.com/ayusman/rangoli/internal/gesture"
)

var swatch = color.RGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}

func testZones() []gesture.Zone {
	return []gesture.Zone{
		{Label: "Blue", Tool: gesture.ToolBlue, Fill: swatch, Ink: blueInk, Rect: gesture.Rect{X1: 30, Y1: 30, X2: 130, Y2: 130}},
		{Label: "Eraser", Tool: gesture.ToolEraser, Fill: color.RGBA{R: 0x95, G: 0xa5, B: 0xa6, A: 0xff}, Rect: gesture.Rect{X1: 420, Y1: 30, X2: 520, Y2: 130}},
	}
}

func TestCompose_ZonesAndSurface(t *testing.T) {
	s := New(800, 600)
	s.Stroke(Point{300, 300}, Point{400, 300}, pen(CapFlat))
	before := s.Snapshot()

	dst := image.NewRGBA(image.Rect(0, 0, 800, 600))
	Compose(dst, nil, s, testZones(), nil, OverlayOptions{Background: color.White})

	t.Run("zone fill", func(t *testing.T) {
		if got := dst.RGBAAt(80, 50); got != swatch {
			t.Errorf("zone interior = %v, want %v", got, swatch)
		}
	})

	t.Run("zone border", func(t *testing.T) {
		if got := dst.RGBAAt(30, 60); got != ZoneBorderColor {
			t.Errorf("left border = %v, want %v", got, ZoneBorderColor)
		}
		if got := dst.RGBAAt(80, 29); got != ZoneBorderColor {
			t.Errorf("top border = %v, want %v", got, ZoneBorderColor)
		}
	})

	t.Run("surface strokes", func(t *testing.T) {
		if got := dst.RGBAAt(350, 300); got != blueInk {
			t.Errorf("stroke pixel = %v, want %v", got, blueInk)
		}
	})

	t.Run("background", func(t *testing.T) {
		want := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
		if got := dst.RGBAAt(700, 500); got != want {
			t.Errorf("background = %v, want white", got)
		}
	})

	t.Run("surface untouched", func(t *testing.T) {
		if !bytes.Equal(before.Pix, s.Snapshot().Pix) {
			t.Error("Compose must not modify the surface")
		}
	})
}

func TestCompose_Idempotent(t *testing.T) {
	s := New(800, 600)
	s.Stroke(Point{200, 400}, Point{600, 450}, pen(CapRound))
	hand := detector.OpenPalmLandmarks()
	opts := OverlayOptions{Background: color.Black, Skeleton: true}

	first := image.NewRGBA(image.Rect(0, 0, 800, 600))
	second := image.NewRGBA(image.Rect(0, 0, 800, 600))
	Compose(first, nil, s, testZones(), &hand, opts)
	Compose(second, nil, s, testZones(), &hand, opts)

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("composing the same state twice should give identical frames")
	}
}

func TestCompose_Skeleton(t *testing.T) {
	hand := detector.OpenPalmLandmarks()
	dst := image.NewRGBA(image.Rect(0, 0, 800, 600))

	Compose(dst, nil, nil, nil, &hand, OverlayOptions{Skeleton: true})

	// Wrist at (0.5, 0.8) on 800x600.
	if got := dst.RGBAAt(400, 480); got != LandmarkColor {
		t.Errorf("wrist landmark = %v, want %v", got, LandmarkColor)
	}

	plain := image.NewRGBA(image.Rect(0, 0, 800, 600))
	Compose(plain, nil, nil, nil, &hand, OverlayOptions{Skeleton: false})
	if plain.RGBAAt(400, 480).A != 0 {
		t.Error("skeleton should not be drawn when disabled")
	}
}

func TestCompose_CameraBackground(t *testing.T) {
	grey := color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	cam := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for i := 0; i < len(cam.Pix); i += 4 {
		cam.Pix[i], cam.Pix[i+1], cam.Pix[i+2], cam.Pix[i+3] = grey.R, grey.G, grey.B, grey.A
	}

	dst := image.NewRGBA(image.Rect(0, 0, 800, 600))
	Compose(dst, cam, nil, nil, nil, OverlayOptions{})

	got := dst.RGBAAt(700, 500)
	if diff(got.R, grey.R) > 1 || diff(got.G, grey.G) > 1 || got.A != 0xff {
		t.Errorf("scaled camera pixel = %v, want about %v", got, grey)
	}
}

func diff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
