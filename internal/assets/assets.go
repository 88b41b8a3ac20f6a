// Package assets handles sprite sheet loading and caching.
package assets

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/shrimpy/internal/config"
	"github.com/Faultbox/shrimpy/internal/engine/texture"
	"github.com/Faultbox/shrimpy/internal/logger"
	"github.com/Faultbox/shrimpy/pkg/formats"
)

// ErrNotFound is returned when no search directory holds an asset.
var ErrNotFound = errors.New("asset not found")

// Manager resolves asset names against search directories.
// Directories are searched in reverse order (last added = highest priority).
type Manager struct {
	dirs  []string
	cache *Cache
	mu    sync.RWMutex
}

// NewManager creates a manager searching dirs.
func NewManager(dirs ...string) *Manager {
	m := &Manager{cache: NewCache()}
	for _, d := range dirs {
		m.AddDir(d)
	}
	return m
}

// AddDir adds a search directory.
func (m *Manager) AddDir(dir string) {
	m.mu.Lock()
	m.dirs = append(m.dirs, dir)
	m.mu.Unlock()
}

// Resolve returns the path an asset name refers to. Absolute names are
// returned as-is if they exist.
func (m *Manager) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return name, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.dirs) - 1; i >= 0; i-- {
		path := filepath.Join(m.dirs[i], name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Load reads an asset, serving repeats from the cache.
func (m *Manager) Load(name string) ([]byte, error) {
	if data, ok := m.cache.Get(name); ok {
		return data, nil
	}

	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m.cache.Set(name, data)
	return data, nil
}

// Close drops cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs = nil
	m.cache.Clear()
}

// Sheet is an atlas with its decoded texture.
type Sheet struct {
	Atlas   *formats.Atlas
	Texture *image.RGBA
	Source  string // Texture asset name
}

// LoadSheet loads the atlas descriptor (or builds a strip atlas) and its
// texture. Without an explicit texture the descriptor's image is used,
// relative to the descriptor.
func (m *Manager) LoadSheet(cfg config.AtlasConfig) (*Sheet, error) {
	var (
		atlas *formats.Atlas
		err   error
	)
	if cfg.StripFrames > 0 {
		atlas, err = formats.StripAtlas(cfg.StripRegion, cfg.StripFrames)
	} else {
		var data []byte
		data, err = m.Load(cfg.Path)
		if err == nil {
			atlas, err = formats.ParseAtlas(data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("loading atlas: %w", err)
	}

	texName := cfg.Texture
	if texName == "" {
		if atlas.Image == "" {
			return nil, fmt.Errorf("%w: atlas %s names no image and no texture is configured", ErrNotFound, cfg.Path)
		}
		texName = filepath.Join(filepath.Dir(cfg.Path), atlas.Image)
	}

	data, err := m.Load(texName)
	if err != nil {
		return nil, fmt.Errorf("loading texture: %w", err)
	}
	tex, err := texture.Decode(texName, data, cfg.ColorKey)
	if err != nil {
		return nil, fmt.Errorf("loading texture: %w", err)
	}

	bounds := tex.Bounds()
	for i := 0; i < atlas.Len(); i++ {
		f, _ := atlas.Frame(i)
		r := image.Rect(f.Region.X, f.Region.Y, f.Region.X+f.Region.W, f.Region.Y+f.Region.H)
		if !r.In(bounds) {
			logger.Warn("frame exceeds texture",
				zap.String("frame", f.Filename),
				zap.Stringer("region", r),
				zap.Stringer("texture", bounds),
			)
		}
	}

	logger.Info("sprite sheet loaded",
		zap.Int("frames", atlas.Len()),
		zap.String("texture", texName),
		zap.Int("texture_width", bounds.Dx()),
		zap.Int("texture_height", bounds.Dy()),
	)
	return &Sheet{Atlas: atlas, Texture: tex, Source: texName}, nil
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}
