package capture

import (
	"errors"
	"testing"
)

func TestNewCamera_Defaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantFPS int
	}{
		{"zero options", Options{}, DefaultFPS},
		{"device 1", Options{Device: 1}, DefaultFPS},
		{"custom fps", Options{FPS: 12}, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.opts)
			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
			if cam.IsOpen() {
				t.Error("camera should start closed")
			}

			dc := cam.(*deviceCamera)
			if dc.opts.Width != DefaultWidth || dc.opts.Height != DefaultHeight {
				t.Errorf("size = %dx%d, want %dx%d", dc.opts.Width, dc.opts.Height, DefaultWidth, DefaultHeight)
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(Options{})

	steps := []struct {
		set, want int
	}{
		{10, 10},
		{30, 30},
		{1, 1},
		{0, 1},
		{-5, 1},
	}
	for _, s := range steps {
		cam.SetFPS(s.set)
		if got := cam.FPS(); got != s.want {
			t.Errorf("after SetFPS(%d) FPS() = %d, want %d", s.set, got, s.want)
		}
	}
}

func TestCamera_ClosedOperations(t *testing.T) {
	cam := NewCamera(Options{})

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on a closed camera = %v", err)
	}
}

func TestToImage_Empty(t *testing.T) {
	if _, err := ToImage(nil); !errors.Is(err, ErrReadFrame) {
		t.Errorf("ToImage(nil) error = %v, want ErrReadFrame", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(Options{})
	if err := cam.Open(); err != nil {
		t.Skipf("camera not available: %v", err)
	}
	if !cam.IsOpen() {
		t.Error("IsOpen() should be true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() error = %v", err)
	} else {
		if mat.Cols() != DefaultWidth || mat.Rows() != DefaultHeight {
			t.Logf("frame is %dx%d; the device may not support %dx%d", mat.Cols(), mat.Rows(), DefaultWidth, DefaultHeight)
		}
		img, err := ToImage(mat)
		if err != nil {
			t.Errorf("ToImage() error = %v", err)
		} else if img.Bounds().Dx() != mat.Cols() {
			t.Errorf("image width = %d, want %d", img.Bounds().Dx(), mat.Cols())
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should be false after Close()")
	}
}
