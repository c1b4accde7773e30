package ingest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/scanstack/internal/apperr"
	"github.com/ironsheep/scanstack/internal/imaging"
)

// Class is the ingestion category of a dropped path.
type Class int

const (
	// Rejected paths are not ingested.
	Rejected Class = iota
	// DirectImage paths become one item each.
	DirectImage
	// Document paths are rasterized into one item per page.
	Document
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case DirectImage:
		return "image"
	case Document:
		return "document"
	default:
		return "rejected"
	}
}

// imageExtensions maps accepted image extensions to the decoder format
// their content must sniff as.
var imageExtensions = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
}

var pdfMagic = []byte("%PDF-")

// SupportedExtensions lists the extensions Classify can accept.
func SupportedExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".pdf"}
}

// Classify decides how path is ingested.
//
// The extension selects the candidate class and the file header must agree
// with it; a GIF renamed to .png is rejected just like a .gif. A Rejected
// class always comes with an InvalidInput error naming the path.
func Classify(path string) (Class, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if want, ok := imageExtensions[ext]; ok {
		info, err := imaging.Sniff(path)
		if err != nil {
			return Rejected, invalid(path, err, "%s is not a valid image", filepath.Base(path))
		}
		if info.Format != want {
			return Rejected, invalid(path, nil, "%s contains %s data, not %s", filepath.Base(path), info.Format, want)
		}
		return DirectImage, nil
	}

	if ext == ".pdf" {
		ok, err := hasPDFHeader(path)
		if err != nil {
			return Rejected, invalid(path, err, "cannot read %s", filepath.Base(path))
		}
		if !ok {
			return Rejected, invalid(path, nil, "%s is not a PDF document", filepath.Base(path))
		}
		return Document, nil
	}

	return Rejected, invalid(path, nil, "%s is not a valid image or PDF", filepath.Base(path))
}

// hasPDFHeader looks for the %PDF- marker in the first KiB, where readers
// tolerate leading garbage.
func hasPDFHeader(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 1024)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return bytes.Contains(head[:n], pdfMagic), nil
}

// invalid builds an InvalidInput error naming path. cause may be nil.
func invalid(path string, cause error, format string, args ...interface{}) error {
	e := apperr.New(apperr.KindInvalidInput, format, args...).WithPath(path)
	e.Cause = cause
	return e
}
