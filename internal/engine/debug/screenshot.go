// Package debug provides screenshot capture for running surfaces.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Screenshots writes numbered, timestamped PNG files into a directory.
type Screenshots struct {
	outputDir string
	prefix    string
	count     int
	now       func() time.Time
}

// NewScreenshots creates a screenshot writer. An empty outputDir writes to
// the working directory.
func NewScreenshots(outputDir, prefix string) *Screenshots {
	return &Screenshots{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Save encodes img as PNG and returns the file path.
func (s *Screenshots) Save(img image.Image) (string, error) {
	if s.outputDir != "" {
		if err := os.MkdirAll(s.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	path := s.nextName()
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	s.count++
	return path, nil
}

// Count returns how many screenshots were written.
func (s *Screenshots) Count() int {
	return s.count
}

func (s *Screenshots) nextName() string {
	timestamp := s.now().Format("2006-01-02_15-04-05")
	name := fmt.Sprintf("%s_%s_%03d.png", s.prefix, timestamp, s.count)
	return filepath.Join(s.outputDir, name)
}

// FromBottomUp builds an image from tightly packed RGBA rows stored bottom
// row first, as glReadPixels returns them.
func FromBottomUp(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}
