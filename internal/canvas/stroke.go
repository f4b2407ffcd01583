package canvas

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Point is a position in canvas pixels.
type Point struct {
	X, Y float64
}

// Composite is the pixel-blending rule used when committing a segment.
type Composite uint8

const (
	// CompositeOver paints the brush colour over existing pixels.
	CompositeOver Composite = iota
	// CompositeErase removes existing pixels under the brush
	// (destination-out): alpha is scaled by one minus brush coverage.
	CompositeErase
)

func (c Composite) String() string {
	if c == CompositeErase {
		return "erase"
	}
	return "over"
}

// Cap describes the ends of a stroked segment.
type Cap uint8

const (
	// CapRound ends segments with a half disc, so consecutive segments join smoothly.
	CapRound Cap = iota
	// CapFlat ends segments flush with their endpoints.
	CapFlat
)

// Brush describes how a segment is committed.
type Brush struct {
	Color     color.RGBA
	Width     float64
	Composite Composite
	Cap       Cap
}

// strokeSegment rasterizes the segment a-b with brush br onto dst using ras.
// It returns false when nothing was drawn.
func strokeSegment(ras *vector.Rasterizer, dst *image.RGBA, a, b Point, br Brush) bool {
	poly := outline(a, b, br.Width, br.Cap)
	if len(poly) < 3 {
		return false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range poly {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	r := image.Rect(
		int(math.Floor(minX))-1, int(math.Floor(minY))-1,
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	).Intersect(dst.Bounds())
	if r.Empty() {
		return false
	}

	// The rasterizer's origin is aligned with r.Min.
	ras.Reset(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	ras.MoveTo(float32(poly[0].X-ox), float32(poly[0].Y-oy))
	for _, p := range poly[1:] {
		ras.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	ras.ClosePath()

	var src image.Image
	if br.Composite == CompositeErase {
		// Src with a transparent source leaves dst * (1 - coverage).
		ras.DrawOp = draw.Src
		src = image.Transparent
	} else {
		ras.DrawOp = draw.Over
		src = image.NewUniform(br.Color)
	}
	ras.Draw(dst, r, src, image.Point{})
	return true
}

// outline returns the convex polygon covered by a segment of the given width.
// Round caps trace a capsule; flat caps a rectangle. A zero-length segment
// with a round cap is a disc and with a flat cap is empty.
func outline(a, b Point, width float64, c Cap) []Point {
	half := width / 2
	if half <= 0 {
		return nil
	}

	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)

	ux, uy := 1.0, 0.0
	if length > 0 {
		ux, uy = dx/length, dy/length
	} else if c == CapFlat {
		return nil
	}
	// Left-hand normal.
	nx, ny := -uy, ux

	if c == CapFlat {
		return []Point{
			{a.X + nx*half, a.Y + ny*half},
			{b.X + nx*half, b.Y + ny*half},
			{b.X - nx*half, b.Y - ny*half},
			{a.X - nx*half, a.Y - ny*half},
		}
	}

	steps := int(math.Max(8, math.Ceil(half*2)))
	poly := make([]Point, 0, 2*(steps+1))
	poly = appendArc(poly, b, half, math.Atan2(ny, nx), steps)
	poly = appendArc(poly, a, half, math.Atan2(-ny, -nx), steps)
	return poly
}

// appendArc appends a half circle around center starting at angle start and
// sweeping clockwise by pi.
func appendArc(poly []Point, center Point, radius, start float64, steps int) []Point {
	for k := 0; k <= steps; k++ {
		theta := start - math.Pi*float64(k)/float64(steps)
		poly = append(poly, Point{
			X: center.X + radius*math.Cos(theta),
			Y: center.Y + radius*math.Sin(theta),
		})
	}
	return poly
}
