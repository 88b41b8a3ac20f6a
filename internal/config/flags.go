package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagAtlas      = flag.String("atlas", "", "Path to the atlas descriptor")
	flagMode       = flag.String("mode", "", "Animation mode: wrap or pingpong")
	flagSurface    = flag.String("surface", "", "Surface: sdl, gl or headless")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagAudioFile  = flag.String("audio-file", "", "Drive the animation from an audio file instead of the microphone")
	flagCurve      = flag.String("curve", "", "Scale curve: identity, sqrt, constant or raw")
	flagMaxTicks   = flag.Int("max-ticks", 0, "Stop after this many ticks")
	flagSaveConfig = flag.Bool("save-config", false, "Write the effective config to the user config dir and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether -save-config was given.
func SaveRequested() bool {
	return *flagSaveConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Game.ShowFPS = true
	}
	if *flagAtlas != "" {
		cfg.Atlas.Path = *flagAtlas
		cfg.Atlas.StripFrames = 0
	}
	if *flagMode != "" {
		cfg.Animation.Mode = *flagMode
	}
	if *flagSurface != "" {
		cfg.Window.Surface = *flagSurface
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagAudioFile != "" {
		cfg.Audio.Source = "file"
		cfg.Audio.File = *flagAudioFile
	}
	if *flagCurve != "" {
		cfg.Render.Curve = *flagCurve
	}
	if *flagMaxTicks > 0 {
		cfg.Game.MaxTicks = *flagMaxTicks
	}
}
