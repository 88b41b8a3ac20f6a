// Package render turns the current animation frame and audio level into the
// rectangles a surface draws.
package render

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Faultbox/shrimpy/pkg/formats"
)

// ErrUnknownCurve is returned by Curve for unregistered names.
var ErrUnknownCurve = errors.New("unknown scale curve")

// DefaultCurve is the curve used when none is configured.
const DefaultCurve = "identity"

// ScaleCurve maps an audio level in [0, 100] to a sprite scale factor.
// Curves must be monotonic non-decreasing.
type ScaleCurve func(level float64) float64

var curves = map[string]ScaleCurve{
	// 100% level draws the sprite at its natural size.
	"identity": func(level float64) float64 { return level * 0.01 },
	// Emphasizes quiet input; 25% level is already half size.
	"sqrt": func(level float64) float64 { return math.Sqrt(math.Max(level, 0) / 100) },
	// Ignores audio entirely.
	"constant": func(float64) float64 { return 1 },
	// Level used directly as the multiplier.
	"raw": func(level float64) float64 { return level },
}

// Curve looks up a named scale curve.
func Curve(name string) (ScaleCurve, error) {
	c, ok := curves[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownCurve, name, strings.Join(CurveNames(), ", "))
	}
	return c, nil
}

// CurveNames lists the registered curve names in sorted order.
func CurveNames() []string {
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithGain multiplies a curve's output by gain. Negative gains are treated as 0.
func WithGain(c ScaleCurve, gain float64) ScaleCurve {
	gain = math.Max(gain, 0)
	return func(level float64) float64 { return c(level) * gain }
}

// WithFloor keeps a curve's output at or above floor.
func WithFloor(c ScaleCurve, floor float64) ScaleCurve {
	return func(level float64) float64 { return math.Max(c(level), floor) }
}

// Point is a screen-space offset in pixels.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Params is what the surface needs to draw one tick.
type Params struct {
	Src   formats.Rect // Region of the atlas texture
	Dst   formats.Rect // Screen rectangle
	Scale float64
}

// Mapper computes Params from a frame and an audio level.
type Mapper struct {
	Curve  ScaleCurve
	Offset Point // Shift from the screen center
}

// NewMapper creates a mapper for a curve; nil selects the default curve.
func NewMapper(curve ScaleCurve, offset Point) *Mapper {
	if curve == nil {
		curve = curves[DefaultCurve]
	}
	return &Mapper{Curve: curve, Offset: offset}
}

// Compute scales the frame by the curve applied to level and centers it on
// the screen plus Offset. Zero-size frames give a zero-size destination.
func (m *Mapper) Compute(frame formats.Rect, screenW, screenH int, level float64) Params {
	curve := m.Curve
	if curve == nil {
		curve = curves[DefaultCurve]
	}

	scale := curve(level)
	if math.IsNaN(scale) || scale < 0 {
		scale = 0
	}

	w := scaleDim(frame.W, scale)
	h := scaleDim(frame.H, scale)
	cx := screenW/2 + m.Offset.X
	cy := screenH/2 + m.Offset.Y

	return Params{
		Src:   frame,
		Dst:   formats.Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h},
		Scale: scale,
	}
}

func scaleDim(n int, scale float64) int {
	if n <= 0 {
		return 0
	}
	v := math.Round(float64(n) * scale)
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// ClearColor returns the background for a tick: red ramps up while blue
// ramps down, repeating every 255 ticks.
func ClearColor(tick int) Color {
	i := tick % 255
	if i < 0 {
		i += 255
	}
	return Color{R: uint8(i), G: 64, B: uint8(255 - i), A: 255}
}
