package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Atlas format errors.
var (
	ErrAtlasParse    = errors.New("atlas parse error")
	ErrNoTextures    = errors.New("atlas has no textures")
	ErrNoSprites     = errors.New("atlas texture has no sprites")
	ErrInvalidSprite = errors.New("invalid sprite entry")
)

// Rect is an integer rectangle in texture or screen pixels.
type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// FrameRegion is one sub-image of the shared atlas texture.
// Margin is the trim margin recorded by the packer; rendering ignores it.
type FrameRegion struct {
	Filename string
	Region   Rect
	Margin   Rect
}

// Atlas is the ordered list of frames packed into one texture.
// Frame order is playback order.
type Atlas struct {
	Image  string // Texture file named by the descriptor (may be empty)
	Frames []FrameRegion
}

// Len returns the number of frames.
func (a *Atlas) Len() int {
	return len(a.Frames)
}

// Frame returns the frame at index i.
func (a *Atlas) Frame(i int) (FrameRegion, bool) {
	if i < 0 || i >= len(a.Frames) {
		return FrameRegion{}, false
	}
	return a.Frames[i], true
}

// On-disk descriptor layout. Pointers distinguish missing fields from zero values.
type atlasFile struct {
	Textures *[]json.RawMessage `json:"textures"`
}

type atlasTexture struct {
	Image   string         `json:"image"`
	Sprites *[]atlasSprite `json:"sprites"`
}

type atlasSprite struct {
	Filename *string `json:"filename"`
	Region   *Rect   `json:"region"`
	Margin   *Rect   `json:"margin"`
}

// LoadAtlas reads and parses an atlas descriptor file.
func LoadAtlas(path string) (*Atlas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrAtlasParse, path, err)
	}
	atlas, err := ParseAtlas(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return atlas, nil
}

// ParseAtlas parses an atlas descriptor from raw JSON.
// Only textures[0] is read; further textures are ignored.
func ParseAtlas(data []byte) (*Atlas, error) {
	var file atlasFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAtlasParse, err)
	}

	if file.Textures == nil || len(*file.Textures) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAtlasParse, ErrNoTextures)
	}
	var tex atlasTexture
	if err := json.Unmarshal((*file.Textures)[0], &tex); err != nil {
		return nil, fmt.Errorf("%w: textures[0]: %v", ErrAtlasParse, err)
	}
	if tex.Sprites == nil || len(*tex.Sprites) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAtlasParse, ErrNoSprites)
	}

	atlas := &Atlas{
		Image:  tex.Image,
		Frames: make([]FrameRegion, 0, len(*tex.Sprites)),
	}
	for i, s := range *tex.Sprites {
		frame, err := s.frame()
		if err != nil {
			return nil, fmt.Errorf("%w: sprite %d: %w", ErrAtlasParse, i, err)
		}
		atlas.Frames = append(atlas.Frames, frame)
	}

	return atlas, nil
}

func (s atlasSprite) frame() (FrameRegion, error) {
	if s.Filename == nil {
		return FrameRegion{}, fmt.Errorf("%w: missing filename", ErrInvalidSprite)
	}
	if s.Region == nil {
		return FrameRegion{}, fmt.Errorf("%w: %s: missing region", ErrInvalidSprite, *s.Filename)
	}
	if s.Region.W < 0 || s.Region.H < 0 {
		return FrameRegion{}, fmt.Errorf("%w: %s: negative region size %dx%d",
			ErrInvalidSprite, *s.Filename, s.Region.W, s.Region.H)
	}

	frame := FrameRegion{
		Filename: *s.Filename,
		Region:   *s.Region,
	}
	if s.Margin != nil {
		frame.Margin = *s.Margin
	}
	return frame, nil
}

// StripAtlas builds an atlas for a sheet of count equally sized frames laid
// out left to right, starting at first.
func StripAtlas(first Rect, count int) (*Atlas, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: strip needs at least one frame, got %d", ErrAtlasParse, count)
	}
	if first.W < 0 || first.H < 0 {
		return nil, fmt.Errorf("%w: negative strip frame size %dx%d", ErrAtlasParse, first.W, first.H)
	}

	atlas := &Atlas{Frames: make([]FrameRegion, count)}
	for i := range atlas.Frames {
		atlas.Frames[i] = FrameRegion{
			Filename: fmt.Sprintf("frame_%02d", i),
			Region: Rect{
				X: first.X + i*first.W,
				Y: first.Y,
				W: first.W,
				H: first.H,
			},
		}
	}
	return atlas, nil
}
