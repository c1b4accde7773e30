package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Layout constants for the thumbnail grid, in pixels.
const (
	cellPadding = 20 // horizontal padding per side of a thumbnail
	labelHeight = 60 // room under a thumbnail for its position number
)

// SheetTile is one thumbnail placed on a contact sheet.
type SheetTile struct {
	Position int
	Image    image.Image
}

// ContactSheetResult is the rendered thumbnail grid.
type ContactSheetResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Columns     int    `json:"columns"`
	Rows        int    `json:"rows"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// MaxColumns returns how many thumbnails of the given size fit side by side
// in canvasWidth pixels. The result is at least 1.
func MaxColumns(canvasWidth, size int) int {
	cell := size + 2*cellPadding
	if cell <= 0 {
		return 1
	}
	cols := canvasWidth / cell
	if cols < 1 {
		return 1
	}
	return cols
}

// GridPosition returns the 0-based row and column of the tile at a 1-based
// position in a grid with cols columns.
func GridPosition(position, cols int) (row, col int) {
	idx := position - 1
	return idx / cols, idx % cols
}

// ContactSheet renders tiles into a grid of size x size cells, each labelled
// with its position number, laid out left to right then top to bottom.
func ContactSheet(tiles []SheetTile, size, columns int) (*ContactSheetResult, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("no tiles to render")
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid tile size %d", size)
	}
	if columns < 1 {
		columns = 1
	}
	if columns > len(tiles) {
		columns = len(tiles)
	}
	rows := (len(tiles) + columns - 1) / columns

	cellW := size + 2*cellPadding
	cellH := size + labelHeight
	sheet := imaging.New(columns*cellW, rows*cellH, color.White)

	for i, tile := range tiles {
		row, col := GridPosition(i+1, columns)
		x0 := col * cellW
		y0 := row * cellH

		thumb := Thumbnail(tile.Image, size)
		tb := thumb.Bounds()
		offX := x0 + (cellW-tb.Dx())/2
		offY := y0 + (size-tb.Dy())/2
		sheet = imaging.Paste(sheet, thumb, image.Pt(offX, offY))

		label := strconv.Itoa(tile.Position)
		labelX := x0 + (cellW-len(label)*basicfont.Face7x13.Advance)/2
		drawLabel(sheet, labelX, y0+size+labelHeight/2, label, color.Black)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sheet); err != nil {
		return nil, fmt.Errorf("failed to encode contact sheet: %w", err)
	}

	return &ContactSheetResult{
		Width:       sheet.Bounds().Dx(),
		Height:      sheet.Bounds().Dy(),
		Columns:     columns,
		Rows:        rows,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// drawLabel draws text with its baseline at (x, y).
func drawLabel(dst draw.Image, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
