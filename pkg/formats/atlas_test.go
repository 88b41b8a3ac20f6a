package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildSyntheticAtlas returns a descriptor with n sprites, each 10px wide,
// laid out left to right.
func buildSyntheticAtlas(n int) []byte {
	var sb strings.Builder
	sb.WriteString(`{"textures":[{"image":"sheet.png","sprites":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb,
			`{"filename":"f%d.png","region":{"x":%d,"y":0,"w":10,"h":20},"margin":{"x":1,"y":2,"w":3,"h":4}}`,
			i, i*10)
	}
	sb.WriteString(`]}]}`)
	return []byte(sb.String())
}

func TestParseAtlas_FileOrder(t *testing.T) {
	for _, n := range []int{1, 2, 7, 18} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			atlas, err := ParseAtlas(buildSyntheticAtlas(n))
			if err != nil {
				t.Fatalf("failed to parse atlas: %v", err)
			}
			if atlas.Len() != n {
				t.Fatalf("expected %d frames, got %d", n, atlas.Len())
			}
			for i, f := range atlas.Frames {
				if f.Filename != fmt.Sprintf("f%d.png", i) {
					t.Errorf("frame %d: expected f%d.png, got %s", i, i, f.Filename)
				}
				if f.Region.X != i*10 {
					t.Errorf("frame %d: expected x=%d, got %d", i, i*10, f.Region.X)
				}
				if f.Margin != (Rect{X: 1, Y: 2, W: 3, H: 4}) {
					t.Errorf("frame %d: margin not preserved: %+v", i, f.Margin)
				}
			}
			if atlas.Image != "sheet.png" {
				t.Errorf("expected image sheet.png, got %q", atlas.Image)
			}
		})
	}
}

func TestParseAtlas_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"zero sprites", `{"textures":[{"sprites":[]}]}`, ErrNoSprites},
		{"missing sprites", `{"textures":[{"image":"x.png"}]}`, ErrNoSprites},
		{"missing textures", `{"frames":{}}`, ErrNoTextures},
		{"empty textures", `{"textures":[]}`, ErrNoTextures},
		{"malformed json", `{"textures":[`, nil},
		{"sprites wrong shape", `{"textures":[{"sprites":{"a":1}}]}`, nil},
		{"textures wrong shape", `{"textures":{"sprites":[]}}`, nil},
		{"region wrong type", `{"textures":[{"sprites":[{"filename":"a","region":{"x":"1"}}]}]}`, nil},
		{"missing filename", `{"textures":[{"sprites":[{"region":{"x":0,"y":0,"w":1,"h":1}}]}]}`, ErrInvalidSprite},
		{"missing region", `{"textures":[{"sprites":[{"filename":"a"}]}]}`, ErrInvalidSprite},
		{"negative size", `{"textures":[{"sprites":[{"filename":"a","region":{"x":0,"y":0,"w":-1,"h":1}}]}]}`, ErrInvalidSprite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAtlas([]byte(tt.data))
			if !errors.Is(err, ErrAtlasParse) {
				t.Fatalf("expected ErrAtlasParse, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseAtlas_IgnoresExtraTextures(t *testing.T) {
	data := `{"textures":[
		{"sprites":[{"filename":"a","region":{"x":0,"y":0,"w":4,"h":4}}]},
		{"sprites":"not an array"}
	]}`

	atlas, err := ParseAtlas([]byte(data))
	if err != nil {
		t.Fatalf("failed to parse atlas: %v", err)
	}
	if atlas.Len() != 1 {
		t.Errorf("expected 1 frame, got %d", atlas.Len())
	}
	if atlas.Frames[0].Margin != (Rect{}) {
		t.Errorf("expected zero margin when absent, got %+v", atlas.Frames[0].Margin)
	}
}

func TestLoadAtlas_Testdata(t *testing.T) {
	path := filepath.Join("testdata", "shrimpy.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("test file not found, run: go run testdata/generate_atlas.go")
	}

	atlas, err := LoadAtlas(path)
	if err != nil {
		t.Fatalf("failed to load atlas: %v", err)
	}
	if atlas.Len() != 18 {
		t.Fatalf("expected 18 frames, got %d", atlas.Len())
	}

	last, ok := atlas.Frame(17)
	if !ok {
		t.Fatal("frame 17 not found")
	}
	if last.Filename != "shrimpy-17.png" {
		t.Errorf("expected shrimpy-17.png, got %s", last.Filename)
	}
	if last.Region != (Rect{X: 5 * 286, Y: 2 * 602, W: 286, H: 602}) {
		t.Errorf("unexpected region for frame 17: %+v", last.Region)
	}
}

func TestLoadAtlas_Missing(t *testing.T) {
	_, err := LoadAtlas("/nonexistent/path/atlas.json")
	if !errors.Is(err, ErrAtlasParse) {
		t.Errorf("expected ErrAtlasParse for missing file, got %v", err)
	}
}

func TestAtlasFrame_OutOfRange(t *testing.T) {
	atlas, err := ParseAtlas(buildSyntheticAtlas(3))
	if err != nil {
		t.Fatalf("failed to parse atlas: %v", err)
	}
	for _, i := range []int{-1, 3, 100} {
		if _, ok := atlas.Frame(i); ok {
			t.Errorf("Frame(%d) should miss", i)
		}
	}
}

func TestStripAtlas(t *testing.T) {
	atlas, err := StripAtlas(Rect{X: 0, Y: 0, W: 286, H: 602}, 18)
	if err != nil {
		t.Fatalf("failed to build strip: %v", err)
	}
	if atlas.Len() != 18 {
		t.Fatalf("expected 18 frames, got %d", atlas.Len())
	}
	f, _ := atlas.Frame(3)
	if f.Region != (Rect{X: 3 * 286, Y: 0, W: 286, H: 602}) {
		t.Errorf("unexpected region for frame 3: %+v", f.Region)
	}

	if _, err := StripAtlas(Rect{W: 10, H: 10}, 0); !errors.Is(err, ErrAtlasParse) {
		t.Errorf("expected ErrAtlasParse for empty strip, got %v", err)
	}
}

func TestRectEmpty(t *testing.T) {
	tests := []struct {
		r    Rect
		want bool
	}{
		{Rect{W: 1, H: 1}, false},
		{Rect{W: 0, H: 5}, true},
		{Rect{W: 5, H: 0}, true},
		{Rect{X: 3, Y: 3}, true},
	}
	for _, tt := range tests {
		if got := tt.r.Empty(); got != tt.want {
			t.Errorf("%+v.Empty() = %v, want %v", tt.r, got, tt.want)
		}
	}
}
