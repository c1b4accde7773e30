// Package config holds scanstack's runtime settings.
//
// Settings come from Default, are overridden by SCANSTACK_* environment
// variables in FromEnv, and finally by command-line flags in cmd/scanstack.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/scanstack/internal/apperr"
)

// Defaults.
const (
	DefaultLanguage      = "eng"
	DefaultPreviewSize   = 200
	MinPreviewSize       = 100
	MaxPreviewSize       = 300
	DefaultRasterDPI     = 200
	DefaultPdftoppmPath  = "pdftoppm"
	DefaultLogLevel      = "info"
	DefaultPDFMargin     = 14.0 // mm, ~40pt
	DefaultPDFLineHeight = 5.3  // mm, ~15pt
	DefaultPDFFontSize   = 11.0
)

// Environment variable names.
const (
	EnvLanguage     = "SCANSTACK_LANGUAGE"
	EnvPreviewSize  = "SCANSTACK_PREVIEW_SIZE"
	EnvRasterDPI    = "SCANSTACK_RASTER_DPI"
	EnvPdftoppmPath = "SCANSTACK_PDFTOPPM"
	EnvWorkDir      = "SCANSTACK_WORK_DIR"
	EnvLogLevel     = "SCANSTACK_LOG_LEVEL"
	EnvPreprocess   = "SCANSTACK_PREPROCESS"
)

// Config holds application configuration.
type Config struct {
	// Language is the tesseract language code, e.g. "eng" or "eng+deu".
	Language string `json:"language"`

	// PreviewSize is the thumbnail bounding box in pixels (zoom).
	PreviewSize int `json:"preview_size"`

	// RasterDPI is the resolution document pages are rasterized at.
	RasterDPI int `json:"raster_dpi"`

	// PdftoppmPath locates the poppler rasterizer. Empty disables it.
	PdftoppmPath string `json:"pdftoppm_path"`

	// WorkDir is the parent directory for per-process page images.
	// Empty means the OS temp dir.
	WorkDir string `json:"work_dir"`

	LogLevel string `json:"log_level"`

	// Preprocess enables grayscale/contrast cleanup before recognition.
	Preprocess bool `json:"preprocess"`

	PDFMargin     float64 `json:"pdf_margin"`
	PDFLineHeight float64 `json:"pdf_line_height"`
	PDFFontSize   float64 `json:"pdf_font_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Language:      DefaultLanguage,
		PreviewSize:   DefaultPreviewSize,
		RasterDPI:     DefaultRasterDPI,
		PdftoppmPath:  DefaultPdftoppmPath,
		LogLevel:      DefaultLogLevel,
		Preprocess:    true,
		PDFMargin:     DefaultPDFMargin,
		PDFLineHeight: DefaultPDFLineHeight,
		PDFFontSize:   DefaultPDFFontSize,
	}
}

// FromEnv applies SCANSTACK_* overrides to a copy of base.
// Unparseable numeric values are ignored.
func FromEnv(base *Config) *Config {
	c := *base

	if v := os.Getenv(EnvLanguage); v != "" {
		c.Language = v
	}
	if v := os.Getenv(EnvPreviewSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PreviewSize = n
		}
	}
	if v := os.Getenv(EnvRasterDPI); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RasterDPI = n
		}
	}
	if v, ok := os.LookupEnv(EnvPdftoppmPath); ok {
		c.PdftoppmPath = v
	}
	if v := os.Getenv(EnvWorkDir); v != "" {
		c.WorkDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPreprocess); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Preprocess = b
		}
	}
	return &c
}

// Load is Default followed by FromEnv.
func Load() *Config {
	return FromEnv(Default())
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Language) == "" {
		return apperr.New(apperr.KindInvalidInput, "language must not be empty")
	}
	if c.PreviewSize < MinPreviewSize || c.PreviewSize > MaxPreviewSize {
		return apperr.New(apperr.KindInvalidInput, "preview size %d outside %d..%d",
			c.PreviewSize, MinPreviewSize, MaxPreviewSize)
	}
	if c.RasterDPI < 72 || c.RasterDPI > 1200 {
		return apperr.New(apperr.KindInvalidInput, "raster dpi %d outside 72..1200", c.RasterDPI)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return apperr.New(apperr.KindInvalidInput, "unknown log level %q", c.LogLevel)
	}
	if c.PDFMargin < 0 || c.PDFLineHeight <= 0 || c.PDFFontSize <= 0 {
		return apperr.New(apperr.KindInvalidInput, "pdf layout values must be positive")
	}
	return nil
}

// ClampPreviewSize limits n to the zoom range.
func ClampPreviewSize(n int) int {
	if n < MinPreviewSize {
		return MinPreviewSize
	}
	if n > MaxPreviewSize {
		return MaxPreviewSize
	}
	return n
}
