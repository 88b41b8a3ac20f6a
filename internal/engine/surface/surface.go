// Package surface draws one sprite region per tick onto a window or an
// offscreen buffer.
package surface

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/Faultbox/shrimpy/internal/engine/render"
	"github.com/Faultbox/shrimpy/pkg/formats"
)

// ErrBackend wraps failures reported by the windowing or graphics backend.
var ErrBackend = errors.New("surface backend error")

// ErrUnknownKind is returned by Open for unregistered surface kinds.
var ErrUnknownKind = errors.New("unknown surface kind")

// Surface kinds accepted by Open.
const (
	KindSDL      = "sdl"
	KindGL       = "gl"
	KindHeadless = "headless"
)

// Surface presents frames. Render clears to the given color, copies src
// from the atlas texture into dst and presents. An empty dst only clears.
type Surface interface {
	Render(src, dst formats.Rect, clear render.Color) error
	Size() (int, int)
	Resize(width, height int)
	Close() error
}

// Snapshotter is implemented by surfaces that can read back the last
// presented frame.
type Snapshotter interface {
	Snapshot() (image.Image, error)
}

// Titler is implemented by surfaces shown in a titled window.
type Titler interface {
	SetTitle(title string)
}

// Config holds surface configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool

	// Headless only.
	SnapshotDir   string
	SnapshotEvery int
}

type opener func(cfg Config, tex *image.RGBA) (Surface, error)

var openers = map[string]opener{
	KindSDL:      func(cfg Config, tex *image.RGBA) (Surface, error) { return NewSDL(cfg, tex) },
	KindGL:       func(cfg Config, tex *image.RGBA) (Surface, error) { return NewGL(cfg, tex) },
	KindHeadless: func(cfg Config, tex *image.RGBA) (Surface, error) { return NewHeadless(cfg, tex) },
}

// Kinds lists the surface kinds Open accepts.
func Kinds() []string {
	kinds := make([]string, 0, len(openers))
	for k := range openers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Open creates a surface of the named kind with tex as its atlas texture.
func Open(kind string, cfg Config, tex *image.RGBA) (Surface, error) {
	open, ok := openers[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownKind, kind, strings.Join(Kinds(), ", "))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrBackend, cfg.Width, cfg.Height)
	}
	if tex == nil {
		return nil, fmt.Errorf("%w: nil texture", ErrBackend)
	}
	return open(cfg, tex)
}

// clip intersects src with the texture bounds.
func clip(src formats.Rect, tex image.Rectangle) image.Rectangle {
	return image.Rect(src.X, src.Y, src.X+src.W, src.Y+src.H).Intersect(tex)
}
