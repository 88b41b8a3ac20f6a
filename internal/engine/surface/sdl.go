package surface

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/engine/render"
	"github.com/Faultbox/shrimpy/internal/engine/window"
	"github.com/Faultbox/shrimpy/internal/logger"
	"github.com/Faultbox/shrimpy/pkg/formats"
)

// SDL draws through an SDL2 accelerated renderer.
type SDL struct {
	win      *window.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	bounds   image.Rectangle
}

// NewSDL opens a window with an SDL renderer and uploads tex.
func NewSDL(cfg Config, tex *image.RGBA) (*SDL, error) {
	win, err := window.New(window.Config{
		Title:      cfg.Title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Fullscreen: cfg.Fullscreen,
		VSync:      cfg.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	flags := uint32(sdl.RENDERER_ACCELERATED)
	if cfg.VSync {
		flags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(win.SDL(), -1, flags)
	if err != nil {
		win.Close()
		return nil, fmt.Errorf("%w: SDL_CreateRenderer: %v", ErrBackend, err)
	}

	s := &SDL{win: win, renderer: renderer, bounds: tex.Bounds()}
	if err := s.upload(tex); err != nil {
		s.Close()
		return nil, err
	}

	logger.Info("SDL surface ready",
		zap.Int("texture_width", tex.Bounds().Dx()),
		zap.Int("texture_height", tex.Bounds().Dy()),
	)
	return s, nil
}

func (s *SDL) upload(tex *image.RGBA) error {
	b := tex.Bounds()
	t, err := s.renderer.CreateTexture(uint32(sdl.PIXELFORMAT_ABGR8888), sdl.TEXTUREACCESS_STATIC, int32(b.Dx()), int32(b.Dy()))
	if err != nil {
		return fmt.Errorf("%w: SDL_CreateTexture: %v", ErrBackend, err)
	}
	if len(tex.Pix) > 0 {
		if err := t.Update(nil, unsafe.Pointer(&tex.Pix[0]), tex.Stride); err != nil {
			t.Destroy()
			return fmt.Errorf("%w: SDL_UpdateTexture: %v", ErrBackend, err)
		}
	}
	if err := t.SetBlendMode(sdl.BLENDMODE_BLEND); err != nil {
		logger.Warn("texture blending unavailable", zap.Error(err))
	}
	s.texture = t
	return nil
}

// Render clears, copies the sprite region and presents.
func (s *SDL) Render(src, dst formats.Rect, clear render.Color) error {
	if err := s.renderer.SetDrawColor(clear.R, clear.G, clear.B, clear.A); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if err := s.renderer.Clear(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if r := clip(src, s.bounds); !dst.Empty() && !r.Empty() {
		srcRect := sdl.Rect{X: int32(r.Min.X), Y: int32(r.Min.Y), W: int32(r.Dx()), H: int32(r.Dy())}
		dstRect := sdl.Rect{X: int32(dst.X), Y: int32(dst.Y), W: int32(dst.W), H: int32(dst.H)}
		if err := s.renderer.Copy(s.texture, &srcRect, &dstRect); err != nil {
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}

	s.renderer.Present()
	return nil
}

// SetTitle updates the window title.
func (s *SDL) SetTitle(title string) {
	s.win.SetTitle(title)
}

// Size returns the renderer output size.
func (s *SDL) Size() (int, int) {
	w, h, err := s.renderer.GetOutputSize()
	if err != nil {
		return s.win.Size()
	}
	return int(w), int(h)
}

// Resize is a no-op; the SDL renderer tracks the window itself.
func (s *SDL) Resize(width, height int) {
	logger.Debug("SDL surface resized", zap.Int("width", width), zap.Int("height", height))
}

// Close releases the texture, renderer and window.
func (s *SDL) Close() error {
	if s.texture != nil {
		s.texture.Destroy()
		s.texture = nil
	}
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.win != nil {
		s.win.Close()
		s.win = nil
	}
	return nil
}
