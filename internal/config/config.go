// Package config loads Rangoli's YAML configuration and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/rangoli/internal/canvas"
	"github.com/ayusman/rangoli/internal/detector"
	"github.com/ayusman/rangoli/internal/log"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Env var names used as overrides.
const (
	EnvAddr              = "RANGOLI_ADDR"
	EnvCamera            = "RANGOLI_CAMERA"
	EnvDistanceThreshold = "RANGOLI_DISTANCE_THRESHOLD"
	EnvDataDir           = "RANGOLI_DATA_DIR"
)

// CanvasConfig sizes the drawing surface and its overlay.
type CanvasConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"`
	Skeleton   bool   `yaml:"skeleton"`
}

// DrawingConfig tunes the pinch gesture and stroke widths.
type DrawingConfig struct {
	DistanceThreshold float64 `yaml:"distance_threshold"`
	Thickness         float64 `yaml:"thickness"`
	EraserThickness   float64 `yaml:"eraser_thickness"`
	Cap               string  `yaml:"cap"` // "round" | "flat"
	InitialInk        string  `yaml:"initial_ink"`
}

// ZoneConfig is one palette rectangle. Ink defaults to Fill.
type ZoneConfig struct {
	Label string  `yaml:"label"`
	Tool  string  `yaml:"tool"`
	X1    float64 `yaml:"x1"`
	Y1    float64 `yaml:"y1"`
	X2    float64 `yaml:"x2"`
	Y2    float64 `yaml:"y2"`
	Fill  string  `yaml:"fill"`
	Ink   string  `yaml:"ink,omitempty"`
}

// DetectorConfig is passed to the hand detector.
type DetectorConfig struct {
	MaxHands               int     `yaml:"max_hands"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
}

// CameraConfig selects the capture device and its frame rates.
type CameraConfig struct {
	Device          int     `yaml:"device"`
	ActiveFPS       int     `yaml:"active_fps"`
	IdleFPS         int     `yaml:"idle_fps"`
	MotionThreshold float64 `yaml:"motion_threshold"`
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// NotifyConfig controls notification display and plugin delivery.
type NotifyConfig struct {
	DisplayMs       int  `yaml:"display_ms"`
	Plugins         bool `yaml:"plugins"`
	PluginTimeoutMs int  `yaml:"plugin_timeout_ms"`
}

// LoggingConfig maps onto log.Options.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Config is the rangoli configuration file.
type Config struct {
	ConfigVersion int            `yaml:"config_version"`
	DataDir       string         `yaml:"data_dir"`
	Canvas        CanvasConfig   `yaml:"canvas"`
	Drawing       DrawingConfig  `yaml:"drawing"`
	Zones         []ZoneConfig   `yaml:"zones"`
	Detector      DetectorConfig `yaml:"detector"`
	Camera        CameraConfig   `yaml:"camera"`
	Server        ServerConfig   `yaml:"server"`
	Notify        NotifyConfig   `yaml:"notify"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// DefaultZones is the stock palette: three colours and an eraser across
// the top of an 800x600 canvas.
func DefaultZones() []ZoneConfig {
	return []ZoneConfig{
		{Label: "Blue", Tool: "blue", X1: 30, Y1: 30, X2: 130, Y2: 130, Fill: "#3498db", Ink: "blue"},
		{Label: "Green", Tool: "green", X1: 160, Y1: 30, X2: 260, Y2: 130, Fill: "#2ecc71", Ink: "green"},
		{Label: "Yellow", Tool: "yellow", X1: 290, Y1: 30, X2: 390, Y2: 130, Fill: "#f1c40f", Ink: "yellow"},
		{Label: "Eraser", Tool: "eraser", X1: 420, Y1: 30, X2: 520, Y2: 130, Fill: "#95a5a6"},
	}
}

// Defaults returns the application defaults.
func Defaults() Config {
	det := detector.DefaultConfig()
	return Config{
		ConfigVersion: 1,
		DataDir:       defaultDataDir(),
		Canvas:        CanvasConfig{Width: 800, Height: 600, Background: "black", Skeleton: true},
		Drawing: DrawingConfig{
			DistanceThreshold: 60,
			Thickness:         5,
			EraserThickness:   20,
			Cap:               "round",
			InitialInk:        "blue",
		},
		Zones: DefaultZones(),
		Detector: DetectorConfig{
			MaxHands:               det.MaxHands,
			MinDetectionConfidence: det.MinConfidence,
			MinTrackingConfidence:  det.MinTrackingConf,
		},
		Camera:  CameraConfig{Device: 0, ActiveFPS: 30, IdleFPS: 5, MotionThreshold: 1.0},
		Server:  ServerConfig{Addr: ":8080", StaticDir: "web"},
		Notify:  NotifyConfig{DisplayMs: 3000, Plugins: true, PluginTimeoutMs: 5000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".rangoli"
	}
	return filepath.Join(home, ".rangoli")
}

// DefaultPath returns the config file inside the default data directory.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func normalize(cfg *Config) {
	cfg.Drawing.Cap = strings.ToLower(strings.TrimSpace(cfg.Drawing.Cap))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	if strings.HasPrefix(cfg.DataDir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, cfg.DataDir[2:])
		}
	}
	for i := range cfg.Zones {
		cfg.Zones[i].Tool = strings.ToLower(strings.TrimSpace(cfg.Zones[i].Tool))
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCamera)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Camera.Device = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDistanceThreshold)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Drawing.DistanceThreshold = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(log.EnvLevel)); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(log.EnvFormat)); v != "" {
		cfg.Logging.Format = v
	}
	if v := strings.TrimSpace(os.Getenv(log.EnvSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(log.EnvFile)); v != "" {
		cfg.Logging.File = v
	}
}

// LogOptions converts the logging section for log.Init.
func (c Config) LogOptions() log.Options {
	return log.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

// DetectorOptions converts the detector section.
func (c Config) DetectorOptions() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinDetectionConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
	}
}

// StrokeCap returns the configured segment cap.
func (c Config) StrokeCap() canvas.Cap {
	if c.Drawing.Cap == "flat" {
		return canvas.CapFlat
	}
	return canvas.CapRound
}

// NotifyDisplay returns how long notifications should stay visible.
func (c Config) NotifyDisplay() time.Duration {
	return time.Duration(c.Notify.DisplayMs) * time.Millisecond
}

// PluginTimeout returns the notifier plugin deadline.
func (c Config) PluginTimeout() time.Duration {
	return time.Duration(c.Notify.PluginTimeoutMs) * time.Millisecond
}

// ExportDir is where tray-saved drawings go.
func (c Config) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// PluginDir is where notifier plugins are discovered.
func (c Config) PluginDir() string {
	return filepath.Join(c.DataDir, "plugins")
}

// DBPath is the SQLite database file.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "rangoli.db")
}
