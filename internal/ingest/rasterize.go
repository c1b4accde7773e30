package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	pdfcpuAPI "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff" // Register TIFF decoder for embedded scans
)

// Rasterizer turns every page of a document into one image file in outDir.
// The returned paths are in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, docPath, outDir string) ([]string, error)
}

// PageCount opens a PDF and returns its number of pages.
func PageCount(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}

// Pdftoppm rasterizes with poppler's pdftoppm binary.
type Pdftoppm struct {
	// Path to the binary; "pdftoppm" looks it up on PATH.
	Path string
	// DPI is the output resolution. Zero uses pdftoppm's default (150).
	DPI int
}

// Available reports whether the binary can be found.
func (p *Pdftoppm) Available() bool {
	if p.Path == "" {
		return false
	}
	_, err := exec.LookPath(p.Path)
	return err == nil
}

// Rasterize runs `pdftoppm -png [-r DPI] doc outDir/page` and collects
// outDir/page-N.png ordered by N.
func (p *Pdftoppm) Rasterize(ctx context.Context, docPath, outDir string) ([]string, error) {
	if !p.Available() {
		return nil, fmt.Errorf("pdftoppm not found at %q", p.Path)
	}

	prefix := filepath.Join(outDir, "page")
	args := []string{"-png"}
	if p.DPI > 0 {
		args = append(args, "-r", strconv.Itoa(p.DPI))
	}
	args = append(args, docPath, prefix)

	cmd := exec.CommandContext(ctx, p.Path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	return sortByPageNumber(matches, prefix+"-"), nil
}

// sortByPageNumber orders pdftoppm outputs, whose page numbers are
// zero-padded to the width of the page count.
func sortByPageNumber(paths []string, prefix string) []string {
	num := func(p string) int {
		s := strings.TrimSuffix(strings.TrimPrefix(p, prefix), ".png")
		n, err := strconv.Atoi(s)
		if err != nil {
			return -1
		}
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
	return paths
}

// EmbeddedImages extracts the largest embedded image of every page with
// pdfcpu. It suits scanned documents, where each page is a single image,
// and needs no external binary.
type EmbeddedImages struct{}

// Rasterize writes outDir/page-N.png for each page, failing if any page
// carries no decodable image.
func (EmbeddedImages) Rasterize(ctx context.Context, docPath, outDir string) ([]string, error) {
	content, err := os.ReadFile(docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.EXTRACTIMAGES
	pdfCtx, err := pdfcpuAPI.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	var out []string
	for page := 1; page <= pdfCtx.PageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		images, err := pdfcpu.ExtractPageImages(pdfCtx, page, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		var best image.Image
		for _, img := range images {
			if img.Reader == nil {
				continue
			}
			decoded, err := decodeEmbedded(img.Reader)
			if err != nil {
				continue
			}
			if best == nil || area(decoded) > area(best) {
				best = decoded
			}
		}
		if best == nil {
			return nil, fmt.Errorf("page %d has no embedded image", page)
		}

		path := filepath.Join(outDir, fmt.Sprintf("page-%d.png", page))
		if err := writePNG(path, best); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, nil
}

func decodeEmbedded(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create page image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode page image: %w", err)
	}
	return f.Close()
}

// Chain tries each rasterizer in turn and returns the first success.
type Chain []Rasterizer

// Rasterize implements Rasterizer.
func (c Chain) Rasterize(ctx context.Context, docPath, outDir string) ([]string, error) {
	if len(c) == 0 {
		return nil, errors.New("no rasterizer configured")
	}
	var errs []error
	for _, r := range c {
		pages, err := r.Rasterize(ctx, docPath, outDir)
		if err == nil && len(pages) > 0 {
			return pages, nil
		}
		if err == nil {
			err = errors.New("no pages produced")
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}
