package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h, size   int
		wantW, wantH int
	}{
		{"landscape", 400, 200, 200, 200, 100},
		{"portrait", 300, 600, 150, 75, 150},
		{"already small", 80, 60, 200, 80, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got := Thumbnail(img, tt.size)
			assert.Equal(t, tt.wantW, got.Bounds().Dx())
			assert.Equal(t, tt.wantH, got.Bounds().Dy())
		})
	}
}

func TestPreviewCache_GetCaches(t *testing.T) {
	path := createTestImage(t, 400, 200, color.RGBA{10, 20, 30, 255})
	c := NewPreviewCache(NewImageCache(), 200)

	p1, err := c.Get("item-1", path)
	require.NoError(t, err)
	assert.Equal(t, 200, p1.Width)
	assert.Equal(t, 100, p1.Height)
	assert.Equal(t, 200, p1.Size)
	assert.Equal(t, "image/png", p1.MimeType)

	data, err := base64.StdEncoding.DecodeString(p1.ImageBase64)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())

	p2, err := c.Get("item-1", path)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}

func TestPreviewCache_SetSizeInvalidates(t *testing.T) {
	path := createTestImage(t, 400, 400, color.White)
	c := NewPreviewCache(nil, 200)

	_, err := c.Get("a", path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	assert.False(t, c.SetSize(200), "same size is not a change")
	assert.Equal(t, 1, c.Len())

	assert.True(t, c.SetSize(300))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 300, c.Size())

	p, err := c.Get("a", path)
	require.NoError(t, err)
	assert.Equal(t, 300, p.Width)
}

func TestPreviewCache_Regenerate(t *testing.T) {
	a := createTestImage(t, 120, 120, color.White)
	b := createTestImage(t, 120, 120, color.Black)
	c := NewPreviewCache(nil, 100)

	err := c.Regenerate(map[string]string{"a": a, "b": b, "missing": "/nope.png"})
	assert.Error(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestPreviewCache_Concurrent(t *testing.T) {
	path := createTestImage(t, 300, 300, color.White)
	c := NewPreviewCache(nil, 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				c.SetSize(100 + i)
			}
			if _, err := c.Get("k", path); err != nil {
				t.Errorf("Get: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
