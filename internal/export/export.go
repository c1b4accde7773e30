// Package export writes recognized text to .txt, .pdf or .docx files.
//
// The format is chosen from the destination's extension and validated before
// any writer runs. A writer failure is reported as ExportFailed and never
// touches the caller's text, so the same text can be exported again to a
// different destination.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/gomutex/godocx"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/ironsheep/scanstack/internal/apperr"
	"github.com/ironsheep/scanstack/internal/logging"
)

// PDFLayout controls how text is laid out on PDF pages. Lengths are in
// millimetres.
type PDFLayout struct {
	PageSize   string
	Margin     float64
	LineHeight float64
	FontSize   float64
}

// DefaultPDFLayout places lines on Letter pages starting 14mm (about 40pt)
// from the top-left corner, 5.3mm (about 15pt) apart.
func DefaultPDFLayout() PDFLayout {
	return PDFLayout{
		PageSize:   "Letter",
		Margin:     14,
		LineHeight: 5.3,
		FontSize:   11,
	}
}

// Dispatcher routes text to the writer for a destination's format.
type Dispatcher struct {
	layout PDFLayout
	log    *zap.SugaredLogger
}

// NewDispatcher creates a dispatcher. Zero layout fields take their defaults.
func NewDispatcher(layout PDFLayout, log *zap.SugaredLogger) *Dispatcher {
	def := DefaultPDFLayout()
	if layout.PageSize == "" {
		layout.PageSize = def.PageSize
	}
	if layout.Margin <= 0 {
		layout.Margin = def.Margin
	}
	if layout.LineHeight <= 0 {
		layout.LineHeight = def.LineHeight
	}
	if layout.FontSize <= 0 {
		layout.FontSize = def.FontSize
	}
	return &Dispatcher{layout: layout, log: logging.OrNop(log)}
}

// Export writes text to path in the format its extension names.
func (d *Dispatcher) Export(text, path string) (Format, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return 0, err
	}
	return format, d.ExportAs(text, path, format)
}

// ExportAs writes text to path in an explicit format.
func (d *Dispatcher) ExportAs(text, path string, format Format) error {
	var err error
	switch format {
	case PlainText:
		err = writeText(text, path)
	case PDF:
		err = d.writePDF(text, path)
	case Document:
		err = writeDocx(text, path)
	default:
		return apperr.New(apperr.KindUnsupportedFormat, "unsupported export format %d", int(format)).WithPath(path)
	}

	if err != nil {
		d.log.Errorw("export failed", "path", path, "format", format.String(), "error", err)
		return apperr.Wrap(err, apperr.KindExportFailed, "cannot write %s", filepath.Base(path)).WithPath(path)
	}
	d.log.Infow("exported text", "path", path, "format", format.String(), "bytes", len(text))
	return nil
}

func writeText(text, path string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

// writePDF lays text out one line per row, starting a new page when the
// next row would cross the bottom margin. Over-long lines wrap at the
// right margin.
//
// The core fonts are single-byte cp1252. Lines are NFKC-folded (so
// ligatures become their letters) and translated before they are measured;
// runes with no cp1252 glyph print as '.'.
func (d *Dispatcher) writePDF(text, path string) error {
	l := d.layout
	doc := fpdf.New("P", "mm", l.PageSize, "")
	doc.SetMargins(l.Margin, l.Margin, l.Margin)
	doc.SetAutoPageBreak(false, l.Margin)
	doc.SetFont("Helvetica", "", l.FontSize)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := doc.GetPageSize()
	width := pageW - 2*l.Margin
	bottom := pageH - l.Margin

	doc.AddPage()
	y := l.Margin
	for _, line := range splitLines(text) {
		for _, row := range wrapLine(tr(norm.NFKC.String(line)), width, doc.GetStringWidth) {
			if y > bottom {
				doc.AddPage()
				y = l.Margin
			}
			doc.Text(l.Margin, y, row)
			y += l.LineHeight
		}
	}

	if err := doc.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// wrapLine breaks an already translated single-byte line into rows no wider
// than width, preferring spaces. A word wider than a row is split. An empty
// line is one empty row.
func wrapLine(line string, width float64, measure func(string) float64) []string {
	var rows []string
	cur := ""
	for i, word := range strings.Split(line, " ") {
		if i > 0 {
			if cand := cur + " " + word; measure(cand) <= width {
				cur = cand
				continue
			}
			rows = append(rows, cur)
		}
		for len(word) > 1 && measure(word) > width {
			n := 1
			for n < len(word) && measure(word[:n+1]) <= width {
				n++
			}
			rows = append(rows, word[:n])
			word = word[n:]
		}
		cur = word
	}
	return append(rows, cur)
}

// splitLines splits text into lines, dropping the empty row after a final
// newline.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// writeDocx stores text as a single paragraph, one run per line with a
// line break between runs.
func writeDocx(text, path string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	p := doc.AddEmptyParagraph()
	lines := splitLines(text)
	for i, line := range lines {
		run := p.AddText(line)
		if i < len(lines)-1 {
			run.AddBreak(nil)
		}
	}

	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}
