// Package texture loads sprite sheet images into RGBA pixel buffers.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// Load reads and decodes an image file. See Decode.
func Load(path string, colorKey bool) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading texture: %w", err)
	}
	return Decode(path, data, colorKey)
}

// Decode converts encoded image data into RGBA. TGA is chosen by the
// extension of name since it has no magic number; everything else goes
// through image.Decode. When colorKey is set, magenta pixels become
// transparent.
func Decode(name string, data []byte, colorKey bool) (*image.RGBA, error) {
	var rgba *image.RGBA
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		rgba = img
	} else {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		rgba = ToRGBA(img)
	}

	if colorKey {
		ApplyMagentaKey(rgba)
	}
	return rgba, nil
}

// ToRGBA returns img as *image.RGBA with its origin at (0, 0), copying when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// IsMagentaKey reports whether an RGB color is the magenta transparency key.
// The tolerance absorbs lossy re-encoding.
func IsMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// ApplyMagentaKey makes magenta pixels transparent black in place, so
// filtering does not bleed the key color into sprite edges.
func ApplyMagentaKey(img *image.RGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if IsMagentaKey(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 0, 0
		}
	}
}
