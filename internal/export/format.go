package export

import (
	"path/filepath"
	"strings"

	"github.com/ironsheep/scanstack/internal/apperr"
)

// Format is an export file type.
type Format int

const (
	// PlainText is UTF-8 text written verbatim.
	PlainText Format = iota + 1
	// PDF is a paginated page-layout document.
	PDF
	// Document is a word-processor (.docx) file.
	Document
)

var extensions = map[string]Format{
	".txt":  PlainText,
	".pdf":  PDF,
	".docx": Document,
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case PlainText:
		return "text"
	case PDF:
		return "pdf"
	case Document:
		return "docx"
	default:
		return "unknown"
	}
}

// Extension returns the canonical file extension, including the dot.
func (f Format) Extension() string {
	switch f {
	case PlainText:
		return ".txt"
	case PDF:
		return ".pdf"
	case Document:
		return ".docx"
	default:
		return ""
	}
}

// FormatFromPath infers the format from the destination's extension,
// ignoring case. Any other extension fails with UnsupportedFormat.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	if ext == "" {
		return 0, apperr.New(apperr.KindUnsupportedFormat, "destination has no extension; use .txt, .pdf or .docx").WithPath(path)
	}
	return 0, apperr.New(apperr.KindUnsupportedFormat, "unsupported export format %q; use .txt, .pdf or .docx", ext).WithPath(path)
}
