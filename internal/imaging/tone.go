package imaging

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// darkThreshold is the mean CIE L* (0..1) below which a page is treated as
// light text on a dark background.
const darkThreshold = 0.45

// ToneResult summarizes the brightness of an image.
type ToneResult struct {
	// MeanLightness is the average CIE L* of the sampled pixels, 0 (black) to 1 (white).
	MeanLightness float64 `json:"mean_lightness"`

	// Dark is true when the image is mostly dark, e.g. a negative scan or
	// a screenshot of a dark-themed window.
	Dark bool `json:"dark"`

	Samples int `json:"samples"`
}

// Tone samples img on a grid of at most maxSamples points and reports its
// mean perceptual lightness. Fully transparent pixels are skipped.
func Tone(img image.Image, maxSamples int) ToneResult {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return ToneResult{}
	}
	if maxSamples <= 0 {
		maxSamples = 4096
	}

	step := 1
	for (w/step)*(h/step) > maxSamples {
		step++
	}

	var sum float64
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			l, _, _ := c.Lab()
			sum += l
			n++
		}
	}
	if n == 0 {
		return ToneResult{}
	}

	mean := sum / float64(n)
	return ToneResult{
		MeanLightness: mean,
		Dark:          mean < darkThreshold,
		Samples:       n,
	}
}
