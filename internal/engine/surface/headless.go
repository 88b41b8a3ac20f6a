package surface

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"
	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/engine/render"
	"github.com/Faultbox/shrimpy/internal/logger"
	"github.com/Faultbox/shrimpy/pkg/formats"
)

// Headless renders into an offscreen gg context. With SnapshotDir and
// SnapshotEvery set it writes every Nth frame as a PNG.
type Headless struct {
	ctx    *gg.Context
	tex    *gg.ImageBuf
	bounds image.Rectangle

	snapshotDir   string
	snapshotEvery int
	frame         int
	snapshots     int
}

// NewHeadless creates an offscreen surface. It needs no display.
func NewHeadless(cfg Config, tex *image.RGBA) (*Headless, error) {
	if cfg.SnapshotDir != "" && cfg.SnapshotEvery > 0 {
		if err := os.MkdirAll(cfg.SnapshotDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating snapshot dir: %v", ErrBackend, err)
		}
	}

	h := &Headless{
		ctx:           gg.NewContext(cfg.Width, cfg.Height),
		tex:           gg.ImageBufFromImage(tex),
		bounds:        tex.Bounds(),
		snapshotDir:   cfg.SnapshotDir,
		snapshotEvery: cfg.SnapshotEvery,
	}

	logger.Info("headless surface ready",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.String("snapshot_dir", cfg.SnapshotDir),
		zap.Int("snapshot_every", cfg.SnapshotEvery),
	)
	return h, nil
}

// Render draws into the offscreen context and snapshots when due.
func (h *Headless) Render(src, dst formats.Rect, clear render.Color) error {
	h.ctx.ClearWithColor(gg.RGBA2(
		float64(clear.R)/255,
		float64(clear.G)/255,
		float64(clear.B)/255,
		float64(clear.A)/255,
	))

	// gg treats a zero destination size as "use the source size".
	if r := clip(src, h.bounds); !dst.Empty() && !r.Empty() {
		h.ctx.DrawImageEx(h.tex, gg.DrawImageOptions{
			X:         float64(dst.X),
			Y:         float64(dst.Y),
			DstWidth:  float64(dst.W),
			DstHeight: float64(dst.H),
			SrcRect:   &r,
		})
	}

	h.frame++
	if h.snapshotDir == "" || h.snapshotEvery <= 0 || h.frame%h.snapshotEvery != 0 {
		return nil
	}
	path := filepath.Join(h.snapshotDir, fmt.Sprintf("frame_%06d.png", h.frame))
	if err := h.ctx.SavePNG(path); err != nil {
		return fmt.Errorf("%w: saving snapshot: %v", ErrBackend, err)
	}
	h.snapshots++
	logger.Debug("snapshot saved", zap.String("path", path))
	return nil
}

// Image returns the last rendered frame.
func (h *Headless) Image() image.Image {
	return h.ctx.Image()
}

// Snapshot returns the last rendered frame.
func (h *Headless) Snapshot() (image.Image, error) {
	return h.ctx.Image(), nil
}

// Frames returns how many frames were rendered.
func (h *Headless) Frames() int {
	return h.frame
}

// Size returns the context size.
func (h *Headless) Size() (int, int) {
	return h.ctx.Width(), h.ctx.Height()
}

// Resize reallocates the offscreen buffer. Invalid sizes are ignored.
func (h *Headless) Resize(width, height int) {
	if err := h.ctx.Resize(width, height); err != nil {
		logger.Warn("headless resize rejected", zap.Error(err))
	}
}

// Close releases the context.
func (h *Headless) Close() error {
	logger.Info("headless surface closed",
		zap.Int("frames", h.frame),
		zap.Int("snapshots", h.snapshots),
	)
	return h.ctx.Close()
}
