package canvas

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ayusman/rangoli/internal/detector"
	"github.com/ayusman/rangoli/internal/gesture"
)

// Overlay colours and widths.
var (
	ZoneBorderColor  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	ZoneLabelColor   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	ConnectorColor   = color.RGBA{G: 0xff, A: 0xff}
	LandmarkColor    = color.RGBA{R: 0xff, A: 0xff}
	zoneBorderWidth  = 2.0
	connectorWidth   = 2.0
	landmarkDiameter = 6.0
)

// OverlayOptions controls Compose.
type OverlayOptions struct {
	// Background fills the frame when no camera image is given.
	Background color.Color
	// Skeleton draws the detected hand's connectors and landmarks.
	Skeleton bool
}

// Compose renders one display frame into dst: the camera image (scaled to
// fit) or a flat background, the persistent surface, the zone palette, and
// optionally the hand skeleton. The surface itself is only read.
func Compose(dst *image.RGBA, camera image.Image, s *Surface, zones []gesture.Zone, hand *detector.HandLandmarks, opts OverlayOptions) {
	b := dst.Bounds()

	if camera != nil {
		draw.ApproxBiLinear.Scale(dst, b, camera, camera.Bounds(), draw.Src, nil)
	} else {
		bg := opts.Background
		if bg == nil {
			bg = color.Transparent
		}
		draw.Draw(dst, b, image.NewUniform(bg), image.Point{}, draw.Src)
	}

	if s != nil {
		s.DrawTo(dst, b)
	}

	var ras vector.Rasterizer
	for _, z := range zones {
		drawZone(&ras, dst, z)
	}

	if opts.Skeleton && hand != nil {
		if h, ok := detector.Sanitize(hand); ok {
			drawSkeleton(&ras, dst, h)
		}
	}
}

func drawZone(ras *vector.Rasterizer, dst *image.RGBA, z gesture.Zone) {
	r := image.Rect(
		int(math.Round(z.Rect.X1)), int(math.Round(z.Rect.Y1)),
		int(math.Round(z.Rect.X2)), int(math.Round(z.Rect.Y2)),
	)
	draw.Draw(dst, r.Intersect(dst.Bounds()), image.NewUniform(z.Fill), image.Point{}, draw.Over)

	border := Brush{Color: ZoneBorderColor, Width: zoneBorderWidth, Composite: CompositeOver, Cap: CapFlat}
	tl := Point{z.Rect.X1, z.Rect.Y1}
	tr := Point{z.Rect.X2, z.Rect.Y1}
	br := Point{z.Rect.X2, z.Rect.Y2}
	bl := Point{z.Rect.X1, z.Rect.Y2}
	// Extend horizontals by half the border so the corners close.
	h := zoneBorderWidth / 2
	strokeSegment(ras, dst, Point{tl.X - h, tl.Y}, Point{tr.X + h, tr.Y}, border)
	strokeSegment(ras, dst, tr, br, border)
	strokeSegment(ras, dst, Point{br.X + h, br.Y}, Point{bl.X - h, bl.Y}, border)
	strokeSegment(ras, dst, bl, tl, border)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ZoneLabelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(z.Rect.X1)+10, int(z.Rect.Y2)-10),
	}
	d.DrawString(z.Label)
}

func drawSkeleton(ras *vector.Rasterizer, dst *image.RGBA, h *detector.HandLandmarks) {
	w, ht := float64(dst.Bounds().Dx()), float64(dst.Bounds().Dy())
	px := func(i int) Point {
		p := h.Points[i]
		return Point{X: p.X * w, Y: p.Y * ht}
	}

	connector := Brush{Color: ConnectorColor, Width: connectorWidth, Cap: CapRound}
	for _, c := range detector.Connections {
		strokeSegment(ras, dst, px(c[0]), px(c[1]), connector)
	}

	dot := Brush{Color: LandmarkColor, Width: landmarkDiameter, Cap: CapRound}
	for i := 0; i < detector.NumLandmarks; i++ {
		p := px(i)
		strokeSegment(ras, dst, p, p, dot)
	}
}
