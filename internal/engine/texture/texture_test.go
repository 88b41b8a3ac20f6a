package texture

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// tgaHeaderBytes builds an 18-byte header for a true-color TGA.
func tgaHeaderBytes(imageType byte, w, h, bpp int, topToBottom bool) []byte {
	hdr := make([]byte, tgaHeaderSize)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = byte(bpp)
	if topToBottom {
		hdr[17] = 0x20
	}
	return hdr
}

func TestDecodeTGA_Uncompressed(t *testing.T) {
	// 2x2, bottom-to-top, 24 bit BGR.
	data := tgaHeaderBytes(TGATypeUncompressed, 2, 2, 24, false)
	data = append(data,
		0, 0, 255, 0, 255, 0, // bottom row: red, green
		255, 0, 0, 255, 255, 255, // top row: blue, white
	)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{0, 0, 255, 255}},
		{1, 0, color.RGBA{255, 255, 255, 255}},
		{0, 1, color.RGBA{255, 0, 0, 255}},
		{1, 1, color.RGBA{0, 255, 0, 255}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDecodeTGA_RLE(t *testing.T) {
	// 3x1, top-to-bottom, 32 bit: a run of 2 followed by 1 raw pixel.
	data := tgaHeaderBytes(TGATypeRLE, 3, 1, 32, true)
	data = append(data,
		0x81, 10, 20, 30, 128,
		0x00, 1, 2, 3, 4,
	)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}

	want := []color.RGBA{{30, 20, 10, 128}, {30, 20, 10, 128}, {3, 2, 1, 4}}
	for x, w := range want {
		if got := img.RGBAAt(x, 0); got != w {
			t.Errorf("pixel %d = %v, want %v", x, got, w)
		}
	}
}

func TestDecodeTGA_Errors(t *testing.T) {
	colorMapped := tgaHeaderBytes(TGATypeUncompressed, 1, 1, 24, false)
	colorMapped[1] = 1

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", []byte{0, 0, 2}, ErrTGATruncated},
		{"color mapped", colorMapped, ErrTGAUnsupported},
		{"grayscale", tgaHeaderBytes(3, 1, 1, 8, false), ErrTGAUnsupported},
		{"16 bit", tgaHeaderBytes(TGATypeUncompressed, 1, 1, 16, false), ErrTGAUnsupported},
		{"missing pixels", tgaHeaderBytes(TGATypeUncompressed, 4, 4, 24, false), ErrTGATruncated},
	}

	for _, tt := range tests {
		if _, err := DecodeTGA(tt.data); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestApplyMagentaKey(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 255, 255})
	img.SetRGBA(1, 0, color.RGBA{200, 0, 200, 255})

	ApplyMagentaKey(img)

	if got := img.RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Errorf("magenta pixel = %v, want transparent", got)
	}
	if got := img.RGBAAt(1, 0); got.A != 255 {
		t.Errorf("non-key pixel was keyed: %v", got)
	}
}

func TestToRGBA_RebasesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(2, 2, color.RGBA{1, 2, 3, 255})
	sub := src.SubImage(image.Rect(2, 2, 4, 4))

	got := ToRGBA(sub)
	if got.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("bounds = %v, want 2x2 at origin", got.Bounds())
	}
	if c := got.RGBAAt(0, 0); c != (color.RGBA{1, 2, 3, 255}) {
		t.Errorf("pixel (0,0) = %v", c)
	}
	if ToRGBA(src) != src {
		t.Error("ToRGBA should return an origin-based RGBA unchanged")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "sheet.png")
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 1, color.NRGBA{255, 0, 255, 255})
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	img, err := Load(pngPath, true)
	if err != nil {
		t.Fatalf("Load(png) failed: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if c := img.RGBAAt(1, 1); c.A != 0 {
		t.Errorf("color key not applied: %v", c)
	}

	tgaPath := filepath.Join(dir, "sheet.TGA")
	data := append(tgaHeaderBytes(TGATypeUncompressed, 1, 1, 24, false), 1, 2, 3)
	if err := os.WriteFile(tgaPath, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(tgaPath, false); err != nil {
		t.Errorf("Load(tga) failed: %v", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.png"), false); err == nil {
		t.Error("expected error for missing file")
	}
}
