package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/text/unicode/norm"

	localimaging "github.com/ironsheep/scanstack/internal/imaging"
)

// DefaultLanguage is used when Tesseract.Language is empty.
const DefaultLanguage = "eng"

// contrastBoost is the bild contrast change applied during preprocessing.
const contrastBoost = 0.2

// Recognizer turns one image file into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, imagePath string) (string, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, imagePath string) (string, error) {
	return f(ctx, imagePath)
}

// Tesseract recognizes text with a fresh gosseract client per image.
//
// A zero Tesseract is usable: English, no preprocessing, default tessdata.
type Tesseract struct {
	// Language is the Tesseract language code, e.g. "eng" or "eng+deu".
	Language string

	// TessdataPrefix overrides the tessdata directory when non-empty.
	TessdataPrefix string

	// Preprocess enables grayscale, dark-page inversion and contrast.
	Preprocess bool
}

// NewTesseract creates a recognizer for the given language.
func NewTesseract(language string, preprocess bool) *Tesseract {
	return &Tesseract{Language: language, Preprocess: preprocess}
}

// Recognize performs OCR on the image at imagePath.
//
// Tesseract itself cannot be interrupted; ctx is checked before work starts.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	lang := t.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}

	if t.Preprocess {
		data, err := preprocessFile(imagePath)
		if err != nil {
			return "", err
		}
		if err := client.SetImageFromBytes(data); err != nil {
			return "", fmt.Errorf("failed to set image: %w", err)
		}
	} else {
		if err := client.SetImage(imagePath); err != nil {
			return "", fmt.Errorf("failed to set image: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return CleanText(text), nil
}

// CleanText NFC-normalizes text and strips trailing whitespace and form feeds.
func CleanText(text string) string {
	return strings.TrimRight(norm.NFC.String(text), " \t\r\n\f")
}

// Preprocess returns a grayscale, contrast-boosted copy of img, inverted
// first if the page is predominantly dark.
func Preprocess(img image.Image) image.Image {
	out := image.Image(effect.Grayscale(img))
	if localimaging.Tone(out, 0).Dark {
		out = effect.Invert(out)
	}
	return adjust.Contrast(out, contrastBoost)
}

func preprocessFile(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Preprocess(img)); err != nil {
		return nil, fmt.Errorf("failed to encode preprocessed image: %w", err)
	}
	return buf.Bytes(), nil
}

// Info describes the OCR subsystem.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language"`
	Backend   string `json:"backend"`
}

// Info reports the linked Tesseract version.
func (t *Tesseract) Info() Info {
	client := gosseract.NewClient()
	defer client.Close()

	lang := t.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	version := client.Version()
	return Info{
		Available: version != "",
		Version:   version,
		Language:  lang,
		Backend:   "gosseract",
	}
}
