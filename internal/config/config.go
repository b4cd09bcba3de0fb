// Package config loads the airvoxel YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/airvoxel/internal/canvas"
	"github.com/ayusman/airvoxel/internal/detector"
	"github.com/ayusman/airvoxel/internal/gesture"
	"github.com/ayusman/airvoxel/internal/session"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Keys under which runtime tuning is persisted in the settings table.
const (
	SettingPinchThreshold = "gesture.pinch_threshold"
	SettingFistThreshold  = "gesture.fist_threshold"
	SettingDwellMs        = "gesture.dwell_ms"
)

// Config is the complete application configuration.
type Config struct {
	Gesture  GestureConfig  `yaml:"gesture"`
	Grid     GridConfig     `yaml:"grid"`
	Canvas   CanvasConfig   `yaml:"canvas"`
	Detector DetectorConfig `yaml:"detector"`
	Camera   CameraConfig   `yaml:"camera"`
	Server   ServerConfig   `yaml:"server"`
	Tray     TrayConfig     `yaml:"tray"`
	DataDir  string         `yaml:"data_dir"` // defaults to ~/.airvoxel
}

// GestureConfig holds classifier thresholds and the grab dwell.
type GestureConfig struct {
	PinchThreshold float64 `yaml:"pinch_threshold"` // normalized thumb-index distance
	FistThreshold  float64 `yaml:"fist_threshold"`  // normalized fingertip-wrist distance
	DwellMs        int     `yaml:"dwell_ms"`
}

// GridConfig holds the voxel cell size.
type GridConfig struct {
	Size int `yaml:"size"` // pixels per cell edge
}

// CanvasConfig holds the display canvas size.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DetectorConfig holds hand detector settings.
type DetectorConfig struct {
	MaxHands              int     `yaml:"max_hands"`
	MinConfidence         float64 `yaml:"min_confidence"`
	MinTrackingConfidence float64 `yaml:"min_tracking_confidence"`
}

// CameraConfig holds capture settings.
type CameraConfig struct {
	DeviceID        int     `yaml:"device_id"`
	MotionThreshold float64 `yaml:"motion_threshold"` // percent of pixels changed
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// TrayConfig controls the system tray.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	d := detector.DefaultConfig()
	return Config{
		Gesture: GestureConfig{
			PinchThreshold: gesture.DefaultPinchThreshold,
			FistThreshold:  gesture.DefaultFistThreshold,
			DwellMs:        int(gesture.DefaultDwell / time.Millisecond),
		},
		Grid:   GridConfig{Size: canvas.DefaultGridSize},
		Canvas: CanvasConfig{Width: canvas.DefaultWidth, Height: canvas.DefaultHeight},
		Detector: DetectorConfig{
			MaxHands:              d.MaxHands,
			MinConfidence:         d.MinConfidence,
			MinTrackingConfidence: d.MinTrackingConf,
		},
		Camera: CameraConfig{DeviceID: 0, MotionThreshold: 1.0},
		Server: ServerConfig{Addr: "127.0.0.1:8080", StaticDir: "web"},
		Tray:   TrayConfig{Enabled: true},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field that has a valid range.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Gesture.PinchThreshold > 0 && c.Gesture.PinchThreshold < 1, "gesture.pinch_threshold %v not in (0,1)", c.Gesture.PinchThreshold)
	check(c.Gesture.FistThreshold > 0 && c.Gesture.FistThreshold < 1, "gesture.fist_threshold %v not in (0,1)", c.Gesture.FistThreshold)
	check(c.Gesture.DwellMs > 0, "gesture.dwell_ms %d must be positive", c.Gesture.DwellMs)
	check(c.Grid.Size > 0, "grid.size %d must be positive", c.Grid.Size)
	check(c.Canvas.Width > 0 && c.Canvas.Height > 0, "canvas %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	check(c.Detector.MaxHands > 0, "detector.max_hands %d must be positive", c.Detector.MaxHands)
	check(c.Camera.MotionThreshold >= 0, "camera.motion_threshold %v must not be negative", c.Camera.MotionThreshold)
	check(c.Server.Addr != "", "server.addr is empty")

	return errors.Join(errs...)
}

// Dwell returns the grab dwell as a duration.
func (c Config) Dwell() time.Duration {
	return time.Duration(c.Gesture.DwellMs) * time.Millisecond
}

// SessionConfig projects the configuration onto the gesture core.
func (c Config) SessionConfig() session.Config {
	return session.Config{
		Thresholds: gesture.Thresholds{
			Pinch: c.Gesture.PinchThreshold,
			Fist:  c.Gesture.FistThreshold,
		},
		Dwell:    c.Dwell(),
		GridSize: c.Grid.Size,
		Width:    c.Canvas.Width,
		Height:   c.Canvas.Height,
		MaxHands: c.Detector.MaxHands,
	}
}

// HandDetector returns the hand detector configuration.
func (c Config) HandDetector() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
	}
}

// ResolveDataDir returns DataDir, or ~/.airvoxel when it is unset.
func (c Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".airvoxel"), nil
}

// ApplySettings overlays persisted tuning onto the configuration. Unknown
// keys are ignored. The result is validated.
func (c *Config) ApplySettings(settings map[string]string) error {
	for key, value := range settings {
		var err error
		switch key {
		case SettingPinchThreshold:
			c.Gesture.PinchThreshold, err = strconv.ParseFloat(value, 64)
		case SettingFistThreshold:
			c.Gesture.FistThreshold, err = strconv.ParseFloat(value, 64)
		case SettingDwellMs:
			c.Gesture.DwellMs, err = strconv.Atoi(value)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: setting %s=%q: %v", ErrInvalid, key, value, err)
		}
	}
	return c.Validate()
}

// TuningSettings encodes live tuning as settings rows.
func TuningSettings(t session.Tuning) map[string]string {
	return map[string]string{
		SettingPinchThreshold: strconv.FormatFloat(t.PinchThreshold, 'f', -1, 64),
		SettingFistThreshold:  strconv.FormatFloat(t.FistThreshold, 'f', -1, 64),
		SettingDwellMs:        strconv.FormatInt(t.Dwell.Milliseconds(), 10),
	}
}
