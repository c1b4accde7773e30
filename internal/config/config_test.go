package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/scanstack/internal/apperr"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "eng", c.Language)
	assert.Equal(t, 200, c.PreviewSize)
	assert.True(t, c.Preprocess)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLanguage, "deu")
	t.Setenv(EnvPreviewSize, "250")
	t.Setenv(EnvRasterDPI, "not-a-number")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvPreprocess, "false")
	t.Setenv(EnvPdftoppmPath, "")

	base := Default()
	c := FromEnv(base)

	assert.Equal(t, "deu", c.Language)
	assert.Equal(t, 250, c.PreviewSize)
	assert.Equal(t, DefaultRasterDPI, c.RasterDPI, "bad number is ignored")
	assert.Equal(t, "debug", c.LogLevel)
	assert.False(t, c.Preprocess)
	assert.Equal(t, "", c.PdftoppmPath, "explicitly empty disables pdftoppm")

	// base is untouched
	assert.Equal(t, "eng", base.Language)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty language", func(c *Config) { c.Language = " " }},
		{"preview too small", func(c *Config) { c.PreviewSize = 50 }},
		{"preview too large", func(c *Config) { c.PreviewSize = 301 }},
		{"dpi too low", func(c *Config) { c.RasterDPI = 10 }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"zero line height", func(c *Config) { c.PDFLineHeight = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
		})
	}
}

func TestClampPreviewSize(t *testing.T) {
	assert.Equal(t, 100, ClampPreviewSize(10))
	assert.Equal(t, 150, ClampPreviewSize(150))
	assert.Equal(t, 300, ClampPreviewSize(999))
}
