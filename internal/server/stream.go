package server

import (
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/rangoli/internal/log"
)

// DefaultStreamFPS is the MJPEG frame rate cap.
const DefaultStreamFPS = 15

// FrameSource publishes the latest composed display frame.
type FrameSource interface {
	Frame() image.Image
}

// StreamHandler serves composed frames as MJPEG.
type StreamHandler struct {
	source   FrameSource
	interval time.Duration
	logger   *slog.Logger
}

// NewStreamHandler creates a StreamHandler polling source at up to fps
// frames per second.
func NewStreamHandler(source FrameSource, fps int) *StreamHandler {
	if fps <= 0 {
		fps = DefaultStreamFPS
	}
	return &StreamHandler{
		source:   source,
		interval: time.Second / time.Duration(fps),
		logger:   log.WithComponent("stream"),
	}
}

// encodeJPEG converts img to a JPEG through OpenCV.
func encodeJPEG(img image.Image) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// ServeHTTP streams MJPEG frames to connected clients. Unchanged frames are
// not re-sent.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last image.Image
	for {
		if img := h.source.Frame(); img != nil && img != last {
			data, err := encodeJPEG(img)
			if err != nil {
				h.logger.Warn("encoding frame", slog.Any("err", err))
			} else {
				last = img
				fmt.Fprintf(w, "--frame\r\n")
				fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
				fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
				if _, err := w.Write(data); err != nil {
					return
				}
				fmt.Fprintf(w, "\r\n")
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
