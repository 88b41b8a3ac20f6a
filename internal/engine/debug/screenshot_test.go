package debug

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScreenshots_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s := NewScreenshots(dir, "shrimpy")
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(2, 1, color.RGBA{9, 8, 7, 255})

	first, err := s.Save(img)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second, err := s.Save(img)
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	if want := filepath.Join(dir, "shrimpy_2026-01-02_03-04-05_000.png"); first != want {
		t.Errorf("first path = %s, want %s", first, want)
	}
	if first == second {
		t.Error("screenshots in the same second must not overwrite each other")
	}
	if s.Count() != 2 {
		t.Errorf("Count() = %d, want 2", s.Count())
	}

	f, err := os.Open(first)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, g, b, _ := decoded.At(2, 1).RGBA(); r>>8 != 9 || g>>8 != 8 || b>>8 != 7 {
		t.Errorf("pixel = %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestFromBottomUp(t *testing.T) {
	// 1x2: bottom row red, top row blue.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	img, err := FromBottomUp(pixels, 1, 2)
	if err != nil {
		t.Fatalf("FromBottomUp failed: %v", err)
	}
	if c := img.RGBAAt(0, 0); c != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("top pixel = %v, want blue", c)
	}
	if c := img.RGBAAt(0, 1); c != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("bottom pixel = %v, want red", c)
	}

	if _, err := FromBottomUp(pixels, 2, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}
