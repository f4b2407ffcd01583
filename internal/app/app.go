// Package app wires the camera, detector and drawing controller into the
// running rangoli service.
package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ayusman/rangoli/internal/canvas"
	"github.com/ayusman/rangoli/internal/capture"
	"github.com/ayusman/rangoli/internal/detector"
	"github.com/ayusman/rangoli/internal/gesture"
	"github.com/ayusman/rangoli/internal/log"
	"github.com/ayusman/rangoli/internal/notify"
	"github.com/ayusman/rangoli/internal/paint"
	"github.com/ayusman/rangoli/internal/plugin"
	"github.com/ayusman/rangoli/internal/store"
)

// DefaultPluginTimeout bounds a single notifier plugin run.
const DefaultPluginTimeout = 5 * time.Second

// Config holds configuration options for the application.
type Config struct {
	Width  int
	Height int
	Zones  []gesture.Zone
	Paint  paint.Config

	// Camera is optional. Without one, frames arrive only through Submit.
	Camera capture.Camera
	// Detector defaults to MediaPipe, falling back to the mock detector,
	// when a camera is set.
	Detector       detector.Detector
	DetectorConfig detector.Config
	DataDir        string

	MotionThresh float64
	ActiveFPS    int
	IdleFPS      int

	Background color.Color
	Skeleton   bool

	Store         *store.Store
	NotifyDisplay time.Duration
	PluginDir     string
	PluginTimeout time.Duration
}

// App runs the drawing pipeline and exposes the control path.
type App struct {
	config  Config
	surface *canvas.Surface
	zones   *gesture.ZoneSet
	ctrl    *paint.Controller
	hub     *notify.Hub

	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector

	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	pluginSink *notify.PluginSink

	// frames is the single pending-frame slot between delivery and drawing.
	frames chan frame

	// drawMu serializes frame application, pen lifts and Reset.
	drawMu sync.Mutex

	mu      sync.RWMutex
	enabled bool
	// gen advances on every pause and stop; frames stamped with an older
	// generation are discarded by the drawing loop.
	gen     uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	dropped uint64

	frameMu sync.RWMutex
	latest  *image.RGBA

	logger *slog.Logger
}

// frame is one unit of drawing work: the primary hand, if any, and the
// camera image it was detected on, if any.
type frame struct {
	hand   *detector.HandLandmarks
	camera image.Image
	gen    uint64
}

// New builds an App. It fails only on an invalid zone table.
func New(config Config) (*App, error) {
	if config.Width <= 0 {
		config.Width = capture.DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = capture.DefaultHeight
	}
	if config.MotionThresh <= 0 {
		config.MotionThresh = 1.0
	}
	if config.PluginTimeout <= 0 {
		config.PluginTimeout = DefaultPluginTimeout
	}

	zones, err := gesture.NewZoneSet(config.Zones)
	if err != nil {
		return nil, fmt.Errorf("zones: %w", err)
	}

	a := &App{
		config:  config,
		surface: canvas.New(config.Width, config.Height),
		zones:   zones,
		hub:     notify.NewHub(config.NotifyDisplay),
		camera:  config.Camera,
		motion:  capture.NewMotionDetector(config.MotionThresh),
		frames:  make(chan frame, 1),
		enabled: true,
		logger:  log.WithComponent("app"),
	}

	for _, pair := range zones.Overlaps() {
		a.logger.Warn("zones overlap; the first one wins",
			slog.String("first", zones.At(pair[0]).Label),
			slog.String("second", zones.At(pair[1]).Label))
	}

	a.hub.AddSink(notify.NewLogSink(log.WithComponent("notify")))
	if config.Store != nil {
		a.hub.AddSink(notify.SinkFunc(a.recordNotification))
	}
	if config.PluginDir != "" {
		a.pluginMgr = plugin.NewManager(config.PluginDir)
		a.pluginExec = plugin.NewExecutor(config.PluginTimeout)
		a.pluginSink = notify.NewPluginSink(a.pluginMgr, a.pluginExec)
		a.hub.AddSink(a.pluginSink)
	}

	a.ctrl = paint.New(a.surface, zones, config.Paint, a.hub)

	if a.camera != nil {
		a.detector = config.Detector
		if a.detector == nil {
			a.detector = defaultDetector(config.DetectorConfig, config.DataDir, a.logger)
		}
	}

	a.compose(frame{})
	return a, nil
}

func defaultDetector(cfg detector.Config, dataDir string, logger *slog.Logger) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(cfg, dataDir)
	if err != nil {
		logger.Warn("MediaPipe not available, using mock detector", slog.Any("err", err))
		return detector.NewMockDetector()
	}
	logger.Info("using MediaPipe hand detection")
	return mp
}

// DiscoverPlugins scans the plugin directory for notifier plugins.
func (a *App) DiscoverPlugins() error {
	if a.pluginMgr == nil {
		return nil
	}
	if err := a.pluginMgr.Discover(); err != nil {
		return err
	}
	a.logger.Info("plugins discovered", slog.Int("count", len(a.pluginMgr.List())))
	return nil
}

// SetEnabled enables or disables frame processing. Disabling lifts the pen
// so a later frame never connects to a stroke from before the pause.
func (a *App) SetEnabled(enabled bool) {
	a.drawMu.Lock()
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	if changed && !enabled {
		a.gen++
	}
	a.mu.Unlock()

	if changed && !enabled {
		a.ctrl.Handle(gesture.NoHand())
	}
	a.drawMu.Unlock()

	if changed {
		a.logger.Info("drawing toggled", slog.Bool("enabled", enabled))
	}
}

// IsEnabled returns whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Running reports whether the pipeline goroutines are active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cancel != nil
}

// Start opens the camera, if any, and starts the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	pacer := capture.NewPacer(a.config.ActiveFPS, a.config.IdleFPS, capture.DefaultIdleTimeout)
	if a.camera != nil {
		if err := a.camera.Open(); err != nil {
			return fmt.Errorf("open camera: %w", err)
		}
		a.camera.SetFPS(pacer.FPS())
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.drawLoop(ctx)
	}()

	if a.camera != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.captureLoop(ctx, pacer)
		}()
	}

	if a.pluginSink != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.pluginSink.Run(ctx)
		}()
	}

	a.logger.Info("pipeline started", slog.Bool("camera", a.camera != nil))
	return nil
}

// Stop halts the pipeline and closes the camera. It may be restarted.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	if cancel != nil {
		a.gen++
	}
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	a.wg.Wait()

	select {
	case <-a.frames:
		a.countDrop()
	default:
	}

	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			a.logger.Error("closing camera", slog.Any("err", err))
		}
	}
	a.motion.Reset()
	a.drawMu.Lock()
	a.ctrl.Handle(gesture.NoHand())
	a.drawMu.Unlock()

	a.logger.Info("pipeline stopped")
}

// Close stops the pipeline and releases the detector and notification hub.
func (a *App) Close() error {
	a.Stop()
	a.motion.Close()
	a.hub.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			return fmt.Errorf("close detector: %w", err)
		}
	}
	return nil
}

// Submit hands one frame's primary hand (nil for no hand) to the drawing
// loop. It never blocks: when a frame is already pending, drawing is
// disabled or the pipeline is stopped, the frame is dropped and Submit
// returns false.
func (a *App) Submit(hand *detector.HandLandmarks) bool {
	return a.submit(frame{hand: hand})
}

func (a *App) submit(f frame) bool {
	a.mu.RLock()
	accepting := a.enabled && a.cancel != nil
	f.gen = a.gen
	a.mu.RUnlock()
	if !accepting {
		return false
	}
	select {
	case a.frames <- f:
		return true
	default:
		a.countDrop()
		a.logger.Debug("frame dropped; previous frame still pending")
		return false
	}
}

// current reports whether f was submitted since the last pause or stop.
func (a *App) current(f frame) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return f.gen == a.gen
}

func (a *App) countDrop() {
	a.mu.Lock()
	a.dropped++
	a.mu.Unlock()
}

// Dropped returns how many submitted frames were discarded.
func (a *App) Dropped() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dropped
}

// Reset clears the drawing and republishes the display frame.
func (a *App) Reset() {
	a.drawMu.Lock()
	defer a.drawMu.Unlock()
	a.ctrl.Reset()
	a.compose(frame{})
}

// Export encodes the drawing as PNG and records it.
func (a *App) Export() ([]byte, error) {
	data, err := a.ctrl.Export()
	if err != nil {
		return nil, err
	}
	a.recordExport(len(data), "", store.SourceAPI)
	return data, nil
}

// SaveDrawing exports the drawing into dir as drawing-<timestamp>.png and
// returns the file path.
func (a *App) SaveDrawing(dir string) (string, error) {
	data, err := a.ctrl.Export()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("drawing-%s.png", time.Now().Format("20060102-150405.000")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write drawing: %w", err)
	}
	a.recordExport(len(data), path, store.SourceTray)
	return path, nil
}

func (a *App) recordExport(size int, path, source string) {
	if a.config.Store == nil {
		return
	}
	b := a.surface.Bounds()
	e := &store.Export{Width: b.Dx(), Height: b.Dy(), Bytes: size, Path: path, Source: source}
	if err := a.config.Store.Exports().Create(e); err != nil {
		a.logger.Warn("recording export", slog.Any("err", err))
	}
}

func (a *App) recordNotification(n notify.Notification) {
	rec := &store.Notification{
		Message:   n.Message,
		Category:  string(n.Category),
		Tool:      n.Tool,
		Accent:    n.Accent,
		CreatedAt: n.At,
	}
	if err := a.config.Store.Notifications().Record(rec); err != nil {
		a.logger.Warn("recording notification", slog.Any("err", err))
	}
}

// Frame returns the latest composed display frame. The image is never
// modified after it is returned.
func (a *App) Frame() image.Image {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.latest
}

// Controller returns the drawing controller.
func (a *App) Controller() *paint.Controller {
	return a.ctrl
}

// Hub returns the notification hub.
func (a *App) Hub() *notify.Hub {
	return a.hub
}

// Zones returns the selection zones.
func (a *App) Zones() *gesture.ZoneSet {
	return a.zones
}

// Store returns the history store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// PluginManager returns the plugin manager, or nil without a plugin dir.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Camera returns the camera, which may be nil.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector, which is nil without a camera.
func (a *App) Detector() detector.Detector {
	return a.detector
}
