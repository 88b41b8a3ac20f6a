// Package game implements the fixed-rate animation loop.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/config"
	"github.com/Faultbox/shrimpy/internal/engine/animation"
	"github.com/Faultbox/shrimpy/internal/engine/audio"
	"github.com/Faultbox/shrimpy/internal/engine/debug"
	"github.com/Faultbox/shrimpy/internal/engine/input"
	"github.com/Faultbox/shrimpy/internal/engine/render"
	"github.com/Faultbox/shrimpy/internal/engine/surface"
	"github.com/Faultbox/shrimpy/internal/logger"
	"github.com/Faultbox/shrimpy/pkg/formats"
)

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("missing game dependency")

// Deps are the collaborators the loop drives. Capture and Recorder are
// optional; without Capture the level stays 0.
type Deps struct {
	Atlas    *formats.Atlas
	Surface  surface.Surface
	Input    input.Source
	Capture  audio.CaptureSource
	Recorder *audio.Recorder
}

// Game is the main loop instance.
type Game struct {
	cfg      *config.Config
	deps     Deps
	log      *zap.Logger
	animator *animation.Animator
	monitor  *audio.Monitor
	mapper   *render.Mapper
	sink     audio.Sink
	shots    *debug.Screenshots

	tickDuration time.Duration
	ticks        int
	last         render.Params
	closed       bool
}

// New wires the animator, level monitor and mapper, and opens the capture
// source so the monitor can adopt the negotiated batch size.
func New(cfg *config.Config, deps Deps) (*Game, error) {
	if deps.Atlas == nil || deps.Atlas.Len() == 0 {
		return nil, fmt.Errorf("%w: atlas", ErrMissingDependency)
	}
	if deps.Surface == nil {
		return nil, fmt.Errorf("%w: surface", ErrMissingDependency)
	}
	if deps.Input == nil {
		deps.Input = input.None{}
	}

	mode, err := animation.ParseMode(cfg.Animation.Mode)
	if err != nil {
		return nil, err
	}
	curve, err := render.Curve(cfg.Render.Curve)
	if err != nil {
		return nil, err
	}
	if cfg.Render.Gain != 1 {
		curve = render.WithGain(curve, cfg.Render.Gain)
	}
	if cfg.Render.Floor > 0 {
		curve = render.WithFloor(curve, cfg.Render.Floor)
	}

	rate := cfg.Animation.TickRate
	if rate <= 0 {
		rate = 60
	}

	g := &Game{
		cfg:          cfg,
		deps:         deps,
		log:          logger.Named("game"),
		animator:     animation.New(deps.Atlas, mode),
		monitor:      audio.NewMonitor(cfg.Audio.Samples),
		mapper:       render.NewMapper(curve, render.Point{X: cfg.Render.OffsetX, Y: cfg.Render.OffsetY}),
		shots:        debug.NewScreenshots(cfg.Game.ScreenshotDir, "shrimpy"),
		tickDuration: time.Second / time.Duration(rate),
	}

	sinks := []audio.Sink{g.monitor}
	if deps.Recorder != nil {
		sinks = append(sinks, deps.Recorder)
	}
	g.sink = audio.Tee(sinks...)

	if deps.Capture != nil {
		requested := audio.CaptureSpec{
			SampleRate: cfg.Audio.SampleRate,
			Channels:   1,
			Samples:    cfg.Audio.Samples,
		}
		negotiated, err := deps.Capture.Open(requested)
		if err != nil {
			return nil, fmt.Errorf("opening capture: %w", err)
		}
		if err := audio.ConfigureMonitor(g.monitor, requested, negotiated); err != nil {
			if c, ok := deps.Capture.(io.Closer); ok {
				err = multierr.Append(err, c.Close())
			}
			return nil, err
		}
	}

	g.log.Info("game initialized",
		zap.Int("frames", deps.Atlas.Len()),
		zap.Stringer("mode", mode),
		zap.String("curve", cfg.Render.Curve),
		zap.Int("tick_rate", rate),
		zap.Bool("capture", deps.Capture != nil),
	)
	return g, nil
}

// Run ticks until a quit event, ctx cancellation or the configured tick
// limit. The capture source is stopped before Run returns.
func (g *Game) Run(ctx context.Context) error {
	if g.deps.Capture != nil {
		if err := g.deps.Capture.Resume(ctx, g.sink); err != nil {
			return fmt.Errorf("starting capture: %w", err)
		}
		defer func() {
			if err := g.deps.Capture.Stop(); err != nil {
				g.log.Warn("stopping capture", zap.Error(err))
			}
		}()
	}

	frameCount := 0
	fpsTimer := time.Now()

	g.log.Info("starting loop")

	for {
		start := time.Now()

		if ctx.Err() != nil {
			g.log.Info("loop cancelled")
			return nil
		}
		if !g.handleEvents() {
			g.log.Info("quit requested", zap.Int("ticks", g.ticks))
			return nil
		}

		if err := g.tick(); err != nil {
			return err
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			g.logStats(frameCount)
			frameCount = 0
			fpsTimer = time.Now()
		}

		if limit := g.cfg.Game.MaxTicks; limit > 0 && g.ticks >= limit {
			g.log.Info("tick limit reached", zap.Int("ticks", g.ticks))
			return nil
		}

		// Fixed cadence: sleep off the rest of the tick, never catch up.
		if remaining := g.tickDuration - time.Since(start); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}
}

// tick advances one frame and presents it.
func (g *Game) tick() error {
	g.animator.Advance()
	level := g.monitor.Level()

	w, h := g.deps.Surface.Size()
	p := g.mapper.Compute(g.animator.Rect(), w, h, level)

	if err := g.deps.Surface.Render(p.Src, p.Dst, render.ClearColor(g.ticks)); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	g.last = p
	g.ticks++
	return nil
}

// handleEvents applies pending input. Returns false when the loop should stop.
func (g *Game) handleEvents() bool {
	for _, event := range g.deps.Input.Poll() {
		switch event.Type {
		case input.EventQuit:
			return false
		case input.EventWindowResize:
			g.deps.Surface.Resize(event.Width, event.Height)
		case input.EventKeyDown:
			switch event.Key {
			case input.KeyEscape, input.KeyQ:
				return false
			case input.KeyM:
				g.toggleMode()
			case input.KeyR:
				g.animator.Reset()
			case input.KeyD:
				g.toggleDebug()
			case input.KeyS:
				g.screenshot()
			}
		}
	}
	return true
}

func (g *Game) toggleMode() {
	next := animation.ModePingPong
	if g.animator.Mode() == animation.ModePingPong {
		next = animation.ModeWrap
	}
	g.animator.SetMode(next)
	g.log.Info("animation mode changed", zap.Stringer("mode", next))
}

func (g *Game) toggleDebug() {
	name := "debug"
	if logger.Level() == zap.DebugLevel {
		name = g.cfg.Logging.Level
		if name == "" || name == "debug" {
			name = "info"
		}
	}
	if err := logger.SetLevel(name); err != nil {
		g.log.Warn("changing log level", zap.Error(err))
		return
	}
	g.log.Info("log level changed", zap.String("level", name))
}

func (g *Game) screenshot() {
	snap, ok := g.deps.Surface.(surface.Snapshotter)
	if !ok {
		g.log.Warn("surface cannot take screenshots")
		return
	}
	img, err := snap.Snapshot()
	if err != nil {
		g.log.Warn("reading frame", zap.Error(err))
		return
	}
	path, err := g.shots.Save(img)
	if err != nil {
		g.log.Warn("saving screenshot", zap.Error(err))
		return
	}
	g.log.Info("screenshot saved", zap.String("path", path))
}

func (g *Game) logStats(frames int) {
	fields := []zap.Field{
		zap.Int("fps", frames),
		zap.Float64("level", g.monitor.Level()),
		zap.Int("frame", g.animator.State().Index),
		zap.Float64("scale", g.last.Scale),
	}
	if g.deps.Recorder != nil {
		fields = append(fields, zap.Int64("recorder_dropped", g.deps.Recorder.Dropped()))
	}
	if g.cfg.Game.ShowFPS {
		if t, ok := g.deps.Surface.(surface.Titler); ok {
			t.SetTitle(fmt.Sprintf("%s - %d FPS, %s, level %.1f%%",
				g.cfg.Window.Title, frames, g.animator.Mode(), g.monitor.Level()))
		}
		g.log.Info("stats", fields...)
		return
	}
	g.log.Debug("stats", fields...)
}

// Ticks returns how many frames have been presented.
func (g *Game) Ticks() int {
	return g.ticks
}

// Level returns the current audio level in [0, 100].
func (g *Game) Level() float64 {
	return g.monitor.Level()
}

// Animator returns the frame sequencer.
func (g *Game) Animator() *animation.Animator {
	return g.animator
}

// LastParams returns the render parameters of the most recent tick.
func (g *Game) LastParams() render.Params {
	return g.last
}

// Close stops capture and releases every collaborator, reporting all
// failures together.
func (g *Game) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.log.Info("closing game")

	var err error
	if g.deps.Capture != nil {
		err = multierr.Append(err, g.deps.Capture.Stop())
		if c, ok := g.deps.Capture.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	if g.deps.Recorder != nil {
		err = multierr.Append(err, g.deps.Recorder.Close())
	}
	err = multierr.Append(err, g.deps.Surface.Close())
	return err
}
