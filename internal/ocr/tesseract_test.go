package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont.
func drawText(img draw.Image, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// renderText renders text at 7x13 in fg over bg and scales it up by
// pixel replication so Tesseract has something legible to read.
func renderText(text string, scale int, fg, bg color.Color) *image.RGBA {
	w := len(text)*7 + 40
	h := 40
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	drawText(small, 20, 25, text, fg)

	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ocr-text.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func skipWithoutTesseract(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "tesseract") || strings.Contains(msg, "library") || strings.Contains(msg, "language") {
		t.Skipf("Tesseract not available: %v", err)
	}
}

func TestTesseract_RecognizesRenderedText(t *testing.T) {
	for _, preprocess := range []bool{false, true} {
		path := writePNG(t, renderText("HELLO WORLD", 4, color.Black, color.White))

		text, err := NewTesseract("eng", preprocess).Recognize(context.Background(), path)
		skipWithoutTesseract(t, err)
		require.NoError(t, err)
		assert.Contains(t, strings.ToUpper(text), "HELLO", "preprocess=%v", preprocess)
		assert.Equal(t, strings.TrimRight(text, " \n\f"), text, "trailing whitespace is stripped")
	}
}

func TestTesseract_DarkBackground(t *testing.T) {
	path := writePNG(t, renderText("INVERTED", 4, color.White, color.Black))

	text, err := NewTesseract("eng", true).Recognize(context.Background(), path)
	skipWithoutTesseract(t, err)
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(text), "INVERTED")
}

func TestTesseract_NonExistentFile(t *testing.T) {
	for _, preprocess := range []bool{false, true} {
		_, err := NewTesseract("eng", preprocess).Recognize(context.Background(), "/nonexistent/path/image.png")
		assert.Error(t, err)
	}
}

func TestTesseract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Tesseract{}).Recognize(ctx, "/whatever.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello\n\f", "hello"},
		{"  indented\nlines \n\n", "  indented\nlines"},
		{"cafe\u0301", "caf\u00e9"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in))
	}
}

func TestPreprocess_InvertsDarkPages(t *testing.T) {
	dark := renderText("X", 1, color.White, color.Black)
	out := Preprocess(dark)

	// Corner pixel was black background; after inversion it is light.
	r, g, b, _ := out.At(0, 0).RGBA()
	assert.Greater(t, r>>8, uint32(200))
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)

	light := renderText("X", 1, color.Black, color.White)
	out = Preprocess(light)
	r, _, _, _ = out.At(0, 0).RGBA()
	assert.Greater(t, r>>8, uint32(200), "light pages stay light")
}

func TestRecognizerFunc(t *testing.T) {
	var rec Recognizer = RecognizerFunc(func(_ context.Context, p string) (string, error) {
		return "text of " + p, nil
	})
	got, err := rec.Recognize(context.Background(), "a.png")
	require.NoError(t, err)
	assert.Equal(t, "text of a.png", got)
}
