package app

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/ayusman/rangoli/internal/canvas"
	"github.com/ayusman/rangoli/internal/capture"
	"github.com/ayusman/rangoli/internal/detector"
)

// captureLoop reads camera frames and feeds the drawing loop.
//
// Pipeline logic:
//  1. Start at the idle rate.
//  2. Diff each frame against the previous one; motion or a visible hand
//     switches to the active rate, two quiet seconds switch back.
//  3. Hands are only detected at the active rate; idle frames carry no hand.
//  4. The primary hand goes into the single frame slot. A frame arriving
//     while the previous one is still pending is dropped.
func (a *App) captureLoop(ctx context.Context, pacer *capture.Pacer) {
	ticker := time.NewTicker(pacer.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			mat, err := a.camera.ReadFrame()
			if err != nil {
				if errors.Is(err, capture.ErrNoFrames) {
					a.logger.Info("camera has no more frames")
					return
				}
				a.logger.Warn("reading frame", slog.Any("err", err))
				continue
			}

			moved, changed := a.motion.Detect(mat)

			var hand *detector.HandLandmarks
			if pacer.Active() || moved {
				hands, err := a.detector.Detect(mat)
				if err != nil {
					a.logger.Warn("detecting hands", slog.Any("err", err))
				} else {
					hand = detector.Primary(hands)
				}
			}

			img, err := capture.ToImage(mat)
			mat.Close()
			if err != nil {
				a.logger.Warn("converting frame", slog.Any("err", err))
				img = nil
			}

			if fps, switched := pacer.Observe(now, moved, hand != nil); switched {
				a.camera.SetFPS(fps)
				ticker.Reset(pacer.Interval())
				a.logger.Debug("frame rate changed",
					slog.Int("fps", fps),
					slog.Bool("active", pacer.Active()),
					slog.Float64("changed_pct", changed))
			}

			a.submit(frame{hand: hand, camera: img})
		}
	}
}

// drawLoop consumes the frame slot one frame at a time, so no two frames'
// gesture logic ever overlap.
func (a *App) drawLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-a.frames:
			a.draw(f)
		}
	}
}

// draw applies one frame and publishes the display frame. Frames from
// before a pause or stop are discarded so they cannot put the pen back down.
func (a *App) draw(f frame) {
	a.drawMu.Lock()
	defer a.drawMu.Unlock()

	if !a.current(f) {
		a.countDrop()
		a.logger.Debug("stale frame dropped")
		return
	}
	ev := a.ctrl.Process(f.hand)
	a.logger.Debug("frame", slog.String("event", ev.String()))
	a.compose(f)
}

// compose renders a fresh display frame and publishes it. Callers hold
// drawMu, except New before any goroutine starts.
func (a *App) compose(f frame) {
	dst := image.NewRGBA(a.surface.Bounds())
	canvas.Compose(dst, f.camera, a.surface, a.zones.All(), f.hand, canvas.OverlayOptions{
		Background: a.config.Background,
		Skeleton:   a.config.Skeleton,
	})

	a.frameMu.Lock()
	a.latest = dst
	a.frameMu.Unlock()
}
