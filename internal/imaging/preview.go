package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/disintegration/imaging"
)

// Preview is a thumbnail of one item sized to the current zoom.
type Preview struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int    `json:"size"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	img image.Image
}

// Image returns the decoded thumbnail.
func (p *Preview) Image() image.Image {
	return p.img
}

// Thumbnail fits img inside a size x size box, preserving aspect ratio.
// Images already smaller than the box are returned unscaled.
func Thumbnail(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, size, size, imaging.Lanczos)
}

// PreviewCache holds one thumbnail per key at a single target size.
//
// Changing the size drops every cached thumbnail; they are regenerated lazily
// on the next Get. Thumbnails are built from the shared ImageCache.
type PreviewCache struct {
	mu      sync.Mutex
	source  *ImageCache
	size    int
	entries map[string]*Preview
}

// NewPreviewCache creates a preview cache at the given size.
func NewPreviewCache(source *ImageCache, size int) *PreviewCache {
	if source == nil {
		source = NewImageCache()
	}
	return &PreviewCache{
		source:  source,
		size:    size,
		entries: make(map[string]*Preview),
	}
}

// Size returns the current target size.
func (c *PreviewCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// SetSize changes the target size. It reports whether the size changed,
// in which case all cached thumbnails were invalidated.
func (c *PreviewCache) SetSize(size int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if size == c.size {
		return false
	}
	c.size = size
	c.entries = make(map[string]*Preview)
	return true
}

// Get returns the thumbnail for key, building it from path if needed.
func (c *PreviewCache) Get(key, path string) (*Preview, error) {
	c.mu.Lock()
	if p, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return p, nil
	}
	size := c.size
	c.mu.Unlock()

	src, err := c.source.Load(path)
	if err != nil {
		return nil, err
	}
	p, err := encodePreview(Thumbnail(src, size), size)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent SetSize makes this thumbnail stale; hand it out but don't keep it.
	if c.size == size {
		c.entries[key] = p
	}
	return p, nil
}

// Regenerate rebuilds thumbnails for every key in paths at the current size.
// It returns the first error but keeps going for the remaining keys.
func (c *PreviewCache) Regenerate(paths map[string]string) error {
	var first error
	for key, path := range paths {
		c.Evict(key)
		if _, err := c.Get(key, path); err != nil && first == nil {
			first = fmt.Errorf("preview %s: %w", key, err)
		}
	}
	return first
}

// Evict drops the thumbnail for key.
func (c *PreviewCache) Evict(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of cached thumbnails.
func (c *PreviewCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func encodePreview(thumb image.Image, size int) (*Preview, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return &Preview{
		Width:       thumb.Bounds().Dx(),
		Height:      thumb.Bounds().Dy(),
		Size:        size,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		img:         thumb,
	}, nil
}
