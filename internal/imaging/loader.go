package imaging

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Load decodes the image at path, applies any EXIF orientation, and returns it
// as a zero-origin RGBA frame. PNG, JPEG, GIF, BMP and TIFF are supported.
func Load(path string) (*image.RGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return ToRGBA(img), nil
}

// ImageCache provides thread-safe caching of decoded frames to avoid redundant
// disk reads.
//
// The cache stores frames keyed by their file path. Once a frame is loaded,
// subsequent Load() calls for the same path return the cached copy without
// disk I/O. Callers must treat returned frames as read-only.
//
// # Memory Management
//
// Cached frames remain in memory until explicitly removed via Evict() or
// Clear(). Full-resolution video stills are large; long-running servers should
// evict paths once a request is finished with them.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*image.RGBA
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.RGBA),
	}
}

// Load retrieves a frame from the cache or decodes it from disk if not cached.
//
// The frame is cached using the exact path string provided. Different paths to
// the same file (e.g., relative vs absolute) result in separate cache entries.
func (c *ImageCache) Load(path string) (*image.RGBA, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len reports how many frames are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all frames from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*image.RGBA)
	c.mu.Unlock()
}

// Evict removes a specific frame from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}
