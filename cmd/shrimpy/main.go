// Package main is the entry point for shrimpy, a sprite animation that
// grows and shrinks with microphone input.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/assets"
	"github.com/Faultbox/shrimpy/internal/config"
	"github.com/Faultbox/shrimpy/internal/engine/audio"
	"github.com/Faultbox/shrimpy/internal/engine/input"
	"github.com/Faultbox/shrimpy/internal/engine/surface"
	"github.com/Faultbox/shrimpy/internal/game"
	"github.com/Faultbox/shrimpy/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if config.SaveRequested() {
		path, err := cfg.Save()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", path)
		return
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("=== shrimpy ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("shrimpy failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("closed normally")
	logger.Sync()
}

func run(cfg *config.Config) error {
	manager := assets.NewManager(".")
	sheet, err := manager.LoadSheet(cfg.Atlas)
	manager.Close()
	if err != nil {
		return err
	}

	surf, err := surface.Open(cfg.Window.Surface, surface.Config{
		Title:         cfg.Window.Title,
		Width:         cfg.Window.Width,
		Height:        cfg.Window.Height,
		Fullscreen:    cfg.Window.Fullscreen,
		VSync:         cfg.Window.VSync,
		SnapshotDir:   cfg.Headless.SnapshotDir,
		SnapshotEvery: cfg.Headless.SnapshotEvery,
	}, sheet.Texture)
	if err != nil {
		return fmt.Errorf("opening surface: %w", err)
	}

	deps := game.Deps{
		Atlas:   sheet.Atlas,
		Surface: surf,
		Input:   newInput(cfg.Window.Surface),
		Capture: newCapture(cfg.Audio),
	}
	if cfg.Audio.RecordPath != "" {
		deps.Recorder, err = audio.NewRecorder(cfg.Audio.RecordPath, cfg.Audio.SampleRate)
		if err != nil {
			surf.Close()
			return err
		}
	}

	g, err := game.New(cfg, deps)
	if err != nil {
		surf.Close()
		if deps.Recorder != nil {
			deps.Recorder.Close()
		}
		return fmt.Errorf("creating game: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := g.Run(ctx)
	if err := g.Close(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	return runErr
}

// newInput polls SDL only when a window exists.
func newInput(kind string) input.Source {
	if kind == surface.KindHeadless {
		return input.None{}
	}
	return input.NewSDL()
}

func newCapture(cfg config.AudioConfig) audio.CaptureSource {
	if cfg.Source == "file" {
		return audio.NewFileCapture(cfg.File, cfg.Loop)
	}
	return audio.NewSDLCapture(cfg.Device)
}
