package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/rangoli/internal/app"
	"github.com/ayusman/rangoli/internal/capture"
	"github.com/ayusman/rangoli/internal/config"
	"github.com/ayusman/rangoli/internal/log"
	"github.com/ayusman/rangoli/internal/notify"
	"github.com/ayusman/rangoli/internal/paint"
	"github.com/ayusman/rangoli/internal/server"
	"github.com/ayusman/rangoli/internal/store"
	"github.com/ayusman/rangoli/internal/tray"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML config file")
	noCamera := flag.Bool("no-camera", false, "take landmarks only from /api/landmarks")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	writeConfig := flag.Bool("write-config", false, "write the effective config to -config and exit")
	flag.Parse()

	if err := run(*configPath, *noCamera, *noTray, *writeConfig); err != nil {
		fmt.Fprintf(os.Stderr, "rangoli: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, noCamera, noTray, writeConfig bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if writeConfig {
		return config.Save(configPath, cfg)
	}

	log.Init(cfg.LogOptions())
	logger := log.WithComponent("main")
	logger.Info("Rangoli - gesture drawing", slog.String("config", configPath))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	zones, err := cfg.GestureZones()
	if err != nil {
		return err
	}

	appCfg := app.Config{
		Width:  cfg.Canvas.Width,
		Height: cfg.Canvas.Height,
		Zones:  zones,
		Paint: paint.Config{
			DrawingThickness:  cfg.Drawing.Thickness,
			EraserThickness:   cfg.Drawing.EraserThickness,
			Cap:               cfg.StrokeCap(),
			DistanceThreshold: cfg.Drawing.DistanceThreshold,
			InitialInk:        cfg.Ink(),
			InitialTool:       cfg.InitialTool(),
		},
		DetectorConfig: cfg.DetectorOptions(),
		DataDir:        cfg.DataDir,
		MotionThresh:   cfg.Camera.MotionThreshold,
		ActiveFPS:      cfg.Camera.ActiveFPS,
		IdleFPS:        cfg.Camera.IdleFPS,
		Background:     cfg.Background(),
		Skeleton:       cfg.Canvas.Skeleton,
		Store:          st,
		NotifyDisplay:  cfg.NotifyDisplay(),
		PluginTimeout:  cfg.PluginTimeout(),
	}
	if !noCamera {
		appCfg.Camera = capture.NewCamera(capture.Options{
			Device: cfg.Camera.Device,
			Width:  cfg.Canvas.Width,
			Height: cfg.Canvas.Height,
			FPS:    cfg.Camera.IdleFPS,
		})
	}
	if cfg.Notify.Plugins {
		appCfg.PluginDir = cfg.PluginDir()
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.DiscoverPlugins(); err != nil {
		logger.Warn("plugin discovery failed", slog.Any("err", err))
	}
	if err := a.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	webDir := findWebDir(cfg.Server.StaticDir, cfg.DataDir)
	if webDir != "" {
		logger.Info("serving static files", slog.String("dir", webDir))
	}
	srv := server.New(server.Config{StaticDir: webDir, App: a})

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Run(ctx, cfg.Server.Addr)
	}()

	if noTray {
		select {
		case <-ctx.Done():
		case err := <-srvErr:
			return serveErr(err)
		}
		return serveErr(<-srvErr)
	}

	t := newTray(a, cfg, stop, logger)
	go func() {
		if err := <-srvErr; err != nil {
			logger.Error("server stopped", slog.Any("err", err))
		}
		stop()
	}()
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
	return nil
}

func serveErr(err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("server: %w", err)
}

func newTray(a *app.App, cfg config.Config, stop func(), logger *slog.Logger) *tray.Tray {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnReset(a.Reset)
	t.OnSave(func() {
		path, err := a.SaveDrawing(cfg.ExportDir())
		if err != nil {
			logger.Error("saving drawing", slog.Any("err", err))
			return
		}
		logger.Info("drawing saved", slog.String("path", path))
	})
	t.OnOpenCanvas(func() {
		if err := openBrowser(canvasURL(cfg.Server.Addr)); err != nil {
			logger.Warn("opening browser", slog.Any("err", err))
		}
	})
	t.OnQuit(stop)

	events, _ := a.Hub().Subscribe()
	go func() {
		for n := range events {
			if n.Category == notify.CategorySelection {
				t.SetTool(n.Tool)
			}
		}
	}()
	return t
}

// canvasURL turns a listen address into a browsable URL.
func canvasURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir returns the first existing directory among the configured
// static dir, "web", "../web", "../../web" and <data dir>/web.
func findWebDir(configured, dataDir string) string {
	candidates := []string{configured, "web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
