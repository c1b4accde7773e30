// Package ingest turns dropped paths into registry items.
//
// A path is classified as a direct image, a multi-page document or a
// rejection. Images become one item each. Documents are rasterized into a
// Workspace, one image per page, and each page becomes an item in page
// order. A rejected path is reported with an InvalidInput error and the
// remaining paths are still ingested.
package ingest

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ironsheep/scanstack/internal/apperr"
	"github.com/ironsheep/scanstack/internal/logging"
	"github.com/ironsheep/scanstack/internal/registry"
)

// Rejection records one path that could not be ingested.
type Rejection struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Message returns the error text for display.
func (r Rejection) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Report is the outcome of one Ingest call.
type Report struct {
	Accepted []registry.Item
	Rejected []Rejection
}

// Err joins the rejection errors, or returns nil if every path was accepted.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Rejected))
	for _, rej := range r.Rejected {
		errs = append(errs, rej.Err)
	}
	return errors.Join(errs...)
}

// Ingester appends classified sources to a registry.
type Ingester struct {
	reg        *registry.Registry
	workspace  *Workspace
	rasterizer Rasterizer
	log        *zap.SugaredLogger
}

// NewIngester wires an ingester. workspace and rasterizer may be nil, in
// which case documents are rejected.
func NewIngester(reg *registry.Registry, workspace *Workspace, rasterizer Rasterizer, log *zap.SugaredLogger) *Ingester {
	return &Ingester{
		reg:        reg,
		workspace:  workspace,
		rasterizer: rasterizer,
		log:        logging.OrNop(log),
	}
}

// Ingest classifies each path in order and appends the resulting items.
//
// A failure on one path never stops the others. A document is appended only
// once all of its pages have been rasterized, so a failed document leaves the
// registry untouched. Cancelling ctx rejects the paths not yet reached.
func (in *Ingester) Ingest(ctx context.Context, paths ...string) *Report {
	report := &Report{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			report.Rejected = append(report.Rejected, Rejection{Path: path, Err: err})
			continue
		}

		items, err := in.ingestOne(ctx, path)
		if err != nil {
			in.log.Warnw("rejected source", "path", path, "error", err)
			report.Rejected = append(report.Rejected, Rejection{Path: path, Err: err})
			continue
		}

		for _, it := range items {
			report.Accepted = append(report.Accepted, in.reg.Append(it))
		}
		in.log.Infow("accepted source", "path", path, "items", len(items))
	}

	return report
}

func (in *Ingester) ingestOne(ctx context.Context, path string) ([]registry.Item, error) {
	class, err := Classify(path)
	if err != nil {
		return nil, err
	}

	switch class {
	case DirectImage:
		return []registry.Item{{Path: path, Source: path, Origin: registry.OriginImage}}, nil
	case Document:
		return in.expandDocument(ctx, path)
	default:
		return nil, invalid(path, nil, "%s is not a valid image or PDF", filepath.Base(path))
	}
}

// expandDocument rasterizes every page of a document into the workspace.
func (in *Ingester) expandDocument(ctx context.Context, path string) ([]registry.Item, error) {
	if in.workspace == nil || in.rasterizer == nil {
		return nil, invalid(path, nil, "documents are not supported without a rasterizer")
	}

	expected, err := PageCount(path)
	if err != nil {
		// Some valid files defeat the page-count parser but still rasterize.
		in.log.Debugw("page count unavailable", "path", path, "error", err)
		expected = 0
	}

	dir, err := in.workspace.NewDir(filepath.Base(path))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalidInput, "cannot stage pages of %s", filepath.Base(path)).WithPath(path)
	}

	pages, err := in.rasterizer.Rasterize(ctx, path, dir)
	if err != nil {
		return nil, invalid(path, err, "cannot rasterize %s", filepath.Base(path))
	}
	if len(pages) == 0 {
		return nil, invalid(path, nil, "%s has no pages", filepath.Base(path))
	}
	if expected > 0 && expected != len(pages) {
		in.log.Warnw("page count mismatch", "path", path, "expected", expected, "rasterized", len(pages))
	}

	items := make([]registry.Item, 0, len(pages))
	for i, page := range pages {
		items = append(items, registry.Item{
			Path:   page,
			Source: path,
			Page:   i + 1,
			Origin: registry.OriginDocumentPage,
		})
	}
	return items, nil
}
