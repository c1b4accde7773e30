package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/scanstack/internal/apperr"
)

func TestParseSwaps(t *testing.T) {
	pairs, err := parseSwaps([]string{"1:3", " 2 : 4 "})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 4}}, pairs)

	for _, bad := range []string{"1", "a:2", "1:b", ""} {
		_, err := parseSwaps([]string{bad})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, bad)
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "scanstack dev")
}

func TestSetupAppliesChangedFlagsOnly(t *testing.T) {
	t.Setenv("SCANSTACK_LANGUAGE", "deu")
	t.Setenv("SCANSTACK_PREVIEW_SIZE", "150")
	t.Setenv("SCANSTACK_RASTER_DPI", "300")

	a := &app{}
	root := a.rootCmd()
	require.NoError(t, root.ParseFlags([]string{"--preview-size", "250", "--dpi", "150"}))
	require.NoError(t, a.setup(root, nil))

	assert.Equal(t, "deu", a.cfg.Language, "unset flag keeps the environment value")
	assert.Equal(t, 250, a.cfg.PreviewSize)
	assert.Equal(t, 150, a.cfg.RasterDPI)
	assert.NotNil(t, a.log)
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	a := &app{}
	root := a.rootCmd()
	require.NoError(t, root.ParseFlags([]string{"--log-level", "loud"}))
	assert.ErrorIs(t, a.setup(root, nil), apperr.ErrInvalidInput)
	assert.Nil(t, a.cfg)
}

func TestRunCommand_NoOCRInputsFail(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--work-dir", dir, "--pdftoppm", "", filepath.Join(dir, "nothing-*.png")})

	err := root.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, apperr.ErrInvalidInput, "an empty list cannot be batched")
}

func writePage(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(1, 1, color.Black)
	path := filepath.Join(dir, "p.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestRunCommand_BadSwap(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--work-dir", dir, "--swap", "1:2", path})

	err := root.Execute()
	assert.ErrorIs(t, err, apperr.ErrOutOfRange)
}

func TestRunCommand_UnsupportedOutputFailsBeforeRecognition(t *testing.T) {
	dir := t.TempDir()
	path := writePage(t, dir)
	dest := filepath.Join(dir, "out.xyz")

	root := newRootCmd()
	var stderr bytes.Buffer
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&stderr)
	root.SetArgs([]string{"run", "--work-dir", dir, "-o", dest, path})

	err := root.Execute()
	assert.ErrorIs(t, err, apperr.ErrUnsupportedFormat)
	assert.NotContains(t, stderr.String(), "(1/1)", "no batch progress is reported")
	assert.NoFileExists(t, dest)
}
