// Package config handles shrimpy configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Faultbox/shrimpy/internal/engine/animation"
	"github.com/Faultbox/shrimpy/internal/engine/render"
	"github.com/Faultbox/shrimpy/pkg/formats"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Atlas     AtlasConfig     `yaml:"atlas"`
	Animation AnimationConfig `yaml:"animation"`
	Audio     AudioConfig     `yaml:"audio"`
	Render    RenderConfig    `yaml:"render"`
	Headless  HeadlessConfig  `yaml:"headless"`
	Game      GameConfig      `yaml:"game"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Surface    string `yaml:"surface"` // sdl, gl or headless
}

// AtlasConfig selects the sprite sheet.
type AtlasConfig struct {
	Path        string       `yaml:"path"`         // JSON atlas descriptor
	Texture     string       `yaml:"texture"`      // Overrides the descriptor's image
	ColorKey    bool         `yaml:"color_key"`    // Magenta becomes transparent
	StripFrames int          `yaml:"strip_frames"` // >0 ignores Path and slices a horizontal strip
	StripRegion formats.Rect `yaml:"strip_region"` // First frame of the strip
}

// AnimationConfig holds frame sequencing settings.
type AnimationConfig struct {
	Mode     string `yaml:"mode"`      // wrap or pingpong
	TickRate int    `yaml:"tick_rate"` // Ticks per second
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	Source     string `yaml:"source"` // mic or file
	File       string `yaml:"file"`
	Loop       bool   `yaml:"loop"`
	SampleRate int    `yaml:"sample_rate"`
	Samples    int    `yaml:"samples"` // Batch size, also the level window
	Device     string `yaml:"device"`  // Empty selects the default capture device
	RecordPath string `yaml:"record_path"`
}

// RenderConfig holds level-to-scale mapping settings.
type RenderConfig struct {
	Curve   string  `yaml:"curve"`
	Gain    float64 `yaml:"gain"`
	Floor   float64 `yaml:"floor"`
	OffsetX int     `yaml:"offset_x"`
	OffsetY int     `yaml:"offset_y"`
}

// HeadlessConfig holds offscreen surface settings.
type HeadlessConfig struct {
	SnapshotDir   string `yaml:"snapshot_dir"`
	SnapshotEvery int    `yaml:"snapshot_every"`
}

// GameConfig holds loop settings.
type GameConfig struct {
	MaxTicks      int    `yaml:"max_ticks"` // 0 runs until quit
	ShowFPS       bool   `yaml:"show_fps"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:   "shrimpy",
			Width:   800,
			Height:  600,
			VSync:   true,
			Surface: "sdl",
		},
		Atlas: AtlasConfig{
			Path:        "assets/shrimpy.json",
			StripRegion: formats.Rect{W: 286, H: 602},
		},
		Animation: AnimationConfig{
			Mode:     "pingpong",
			TickRate: 60,
		},
		Audio: AudioConfig{
			Source:     "mic",
			Loop:       true,
			SampleRate: 44100,
			Samples:    1024,
		},
		Render: RenderConfig{
			Curve: render.DefaultCurve,
			Gain:  1.0,
		},
		Game: GameConfig{
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var surfaceKinds = []string{"sdl", "gl", "headless"}

// maxAudioSamples is the largest batch an SDL audio spec can request.
const maxAudioSamples = math.MaxUint16

// Validate checks names and sizes.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		add("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if !contains(surfaceKinds, c.Window.Surface) {
		add("window.surface %q (want one of %s)", c.Window.Surface, strings.Join(surfaceKinds, ", "))
	}

	if c.Atlas.StripFrames > 0 {
		if c.Atlas.StripRegion.W <= 0 || c.Atlas.StripRegion.H <= 0 {
			add("atlas.strip_region %+v", c.Atlas.StripRegion)
		}
		if c.Atlas.Texture == "" {
			add("atlas.texture is required with strip_frames")
		}
	} else if c.Atlas.Path == "" {
		add("atlas.path is empty")
	}

	if _, err := animation.ParseMode(c.Animation.Mode); err != nil {
		add("animation.mode: %v", err)
	}
	if c.Animation.TickRate <= 0 {
		add("animation.tick_rate %d", c.Animation.TickRate)
	}

	switch c.Audio.Source {
	case "mic":
	case "file":
		if c.Audio.File == "" {
			add("audio.file is required with source file")
		}
	default:
		add("audio.source %q (want mic or file)", c.Audio.Source)
	}
	if c.Audio.SampleRate <= 0 || c.Audio.Samples <= 0 {
		add("audio sample_rate %d, samples %d", c.Audio.SampleRate, c.Audio.Samples)
	}
	if c.Audio.Samples > maxAudioSamples {
		add("audio.samples %d exceeds %d", c.Audio.Samples, maxAudioSamples)
	}

	if _, err := render.Curve(c.Render.Curve); err != nil {
		add("render.curve: %v", err)
	}
	if c.Render.Gain < 0 {
		add("render.gain %v", c.Render.Gain)
	}

	if c.Game.MaxTicks < 0 {
		add("game.max_ticks %d", c.Game.MaxTicks)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == strings.ToLower(s) {
			return true
		}
	}
	return false
}
