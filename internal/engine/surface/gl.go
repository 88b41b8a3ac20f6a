package surface

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/engine/debug"
	"github.com/Faultbox/shrimpy/internal/engine/render"
	"github.com/Faultbox/shrimpy/internal/engine/window"
	"github.com/Faultbox/shrimpy/internal/logger"
	"github.com/Faultbox/shrimpy/pkg/formats"
)

const spriteVertexShader = `
#version 410 core

layout (location = 0) in vec2 aPos; // pixels, origin top-left
layout (location = 1) in vec2 aUV;

uniform vec2 uScreen;

out vec2 vUV;

void main() {
	vec2 ndc = aPos / uScreen * 2.0 - 1.0;
	gl_Position = vec4(ndc.x, -ndc.y, 0.0, 1.0);
	vUV = aUV;
}
`

const spriteFragmentShader = `
#version 410 core

in vec2 vUV;
out vec4 FragColor;

uniform sampler2D uTexture;

void main() {
	FragColor = texture(uTexture, vUV);
}
`

// quadFloats is 4 vertices of (x, y, u, v).
const quadFloats = 16

// GL draws a textured quad through a manually created OpenGL 4.1 context.
type GL struct {
	win     *window.Window
	program uint32
	vao     uint32
	vbo     uint32
	texture uint32
	bounds  image.Rectangle
	screen  int32 // uScreen location
	width   int
	height  int
	quad    [quadFloats]float32
	last    glFrame
}

// glFrame is what the last Render drew, kept so Snapshot can redraw it.
type glFrame struct {
	src, dst formats.Rect
	clear    render.Color
	drawn    bool
}

// NewGL opens a window with an OpenGL context and uploads tex.
// Must run on the main thread.
func NewGL(cfg Config, tex *image.RGBA) (*GL, error) {
	win, err := window.New(window.Config{
		Title:      cfg.Title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Fullscreen: cfg.Fullscreen,
		VSync:      cfg.VSync,
		OpenGL:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if err := gl.Init(); err != nil {
		win.Close()
		return nil, fmt.Errorf("%w: initializing OpenGL: %v", ErrBackend, err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	s := &GL{win: win, bounds: tex.Bounds()}
	if s.program, err = compileProgram(spriteVertexShader, spriteFragmentShader); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	s.screen = gl.GetUniformLocation(s.program, gl.Str("uScreen\x00"))

	s.createQuad()
	s.upload(tex)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	w, h := win.Size()
	s.Resize(w, h)
	return s, nil
}

func (s *GL) createQuad() {
	gl.GenVertexArrays(1, &s.vao)
	gl.BindVertexArray(s.vao)

	gl.GenBuffers(1, &s.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, quadFloats*4, nil, gl.DYNAMIC_DRAW)

	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, unsafe.Pointer(uintptr(2*4)))
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

func (s *GL) upload(tex *image.RGBA) {
	gl.GenTextures(1, &s.texture)
	gl.BindTexture(gl.TEXTURE_2D, s.texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(tex.Stride/4))

	b := tex.Bounds()
	var pix unsafe.Pointer
	if len(tex.Pix) > 0 {
		pix = gl.Ptr(tex.Pix)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, pix)

	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Render clears, draws the sprite quad and swaps buffers.
func (s *GL) Render(src, dst formats.Rect, clear render.Color) error {
	if err := s.draw(src, dst, clear); err != nil {
		return err
	}
	s.last = glFrame{src: src, dst: dst, clear: clear, drawn: true}
	s.win.SwapBuffers()
	return nil
}

// draw renders one frame into the back buffer.
func (s *GL) draw(src, dst formats.Rect, clear render.Color) error {
	gl.ClearColor(float32(clear.R)/255, float32(clear.G)/255, float32(clear.B)/255, float32(clear.A)/255)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	if r := clip(src, s.bounds); !dst.Empty() && !r.Empty() {
		s.fillQuad(r, dst)

		gl.UseProgram(s.program)
		gl.Uniform2f(s.screen, float32(s.width), float32(s.height))
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, s.texture)

		gl.BindVertexArray(s.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, quadFloats*4, gl.Ptr(&s.quad[0]))
		gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
		gl.BindBuffer(gl.ARRAY_BUFFER, 0)
		gl.BindVertexArray(0)
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%w: GL error 0x%x", ErrBackend, code)
	}
	return nil
}

// fillQuad writes a triangle strip for dst sampling r of the texture.
func (s *GL) fillQuad(r image.Rectangle, dst formats.Rect) {
	tw := float32(s.bounds.Dx())
	th := float32(s.bounds.Dy())
	u0, v0 := float32(r.Min.X-s.bounds.Min.X)/tw, float32(r.Min.Y-s.bounds.Min.Y)/th
	u1, v1 := float32(r.Max.X-s.bounds.Min.X)/tw, float32(r.Max.Y-s.bounds.Min.Y)/th

	x0, y0 := float32(dst.X), float32(dst.Y)
	x1, y1 := float32(dst.X+dst.W), float32(dst.Y+dst.H)

	s.quad = [quadFloats]float32{
		x0, y0, u0, v0,
		x1, y0, u1, v0,
		x0, y1, u0, v1,
		x1, y1, u1, v1,
	}
}

// Snapshot redraws the last presented frame into the back buffer and reads
// it back. The front buffer is not read; its contents are undefined under
// most compositors once swapped.
func (s *GL) Snapshot() (image.Image, error) {
	if !s.last.drawn {
		return nil, fmt.Errorf("%w: no frame rendered yet", ErrBackend)
	}
	if s.width <= 0 || s.height <= 0 {
		return nil, fmt.Errorf("%w: empty drawable", ErrBackend)
	}
	if err := s.draw(s.last.src, s.last.dst, s.last.clear); err != nil {
		return nil, err
	}

	pixels := make([]byte, s.width*s.height*4)
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(s.width), int32(s.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	img, err := debug.FromBottomUp(pixels, s.width, s.height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return img, nil
}

// SetTitle updates the window title.
func (s *GL) SetTitle(title string) {
	s.win.SetTitle(title)
}

// Size returns the drawable size in pixels.
func (s *GL) Size() (int, int) {
	return s.width, s.height
}

// Resize updates the viewport to the drawable size.
func (s *GL) Resize(width, height int) {
	// Window events report points; the viewport needs pixels.
	width, height = s.win.Size()
	s.width, s.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("GL surface resized", zap.Int("width", width), zap.Int("height", height))
}

// Close deletes GL objects and closes the window.
func (s *GL) Close() error {
	if s.texture != 0 {
		gl.DeleteTextures(1, &s.texture)
	}
	if s.vbo != 0 {
		gl.DeleteBuffers(1, &s.vbo)
	}
	if s.vao != 0 {
		gl.DeleteVertexArrays(1, &s.vao)
	}
	if s.program != 0 {
		gl.DeleteProgram(s.program)
	}
	if s.win != nil {
		s.win.Close()
		s.win = nil
	}
	return nil
}

func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vert)

	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(frag)

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", gl.GoStr(&log[0]))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile: %s", gl.GoStr(&log[0]))
	}
	return shader, nil
}
