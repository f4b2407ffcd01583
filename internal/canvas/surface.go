// Package canvas provides the persistent drawing surface and the per-frame
// overlay composed on top of it.
package canvas

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// ErrEncode is returned when the surface cannot be serialized.
var ErrEncode = errors.New("encode surface")

// Surface is a persistent RGBA raster that only changes through committed
// segments and Clear. All methods are safe for concurrent use; a stroke,
// a clear and an export never interleave.
type Surface struct {
	mu       sync.RWMutex
	img      *image.RGBA
	ras      vector.Rasterizer
	segments uint64
}

// New creates a transparent surface of the given size.
func New(width, height int) *Surface {
	return &Surface{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Bounds returns the surface rectangle.
func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Stroke commits one segment from a to b. It reports whether any pixel was touched.
func (s *Surface) Stroke(a, b Point, br Brush) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strokeSegment(&s.ras, s.img, a, b, br) {
		return false
	}
	s.segments++
	return true
}

// Segments returns the number of segments committed since creation.
func (s *Surface) Segments() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segments
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.img, s.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// Snapshot returns a copy of the current pixels.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// DrawTo composites the surface over dst within r.
func (s *Surface) DrawTo(dst draw.Image, r image.Rectangle) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draw.Draw(dst, r, s.img, s.img.Bounds().Min, draw.Over)
}

// EncodePNG writes a PNG of the surface to w. Failures are wrapped with ErrEncode.
func (s *Surface) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, s.Snapshot()); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

// PNG returns the surface encoded as PNG bytes.
func (s *Surface) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
