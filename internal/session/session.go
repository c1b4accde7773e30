// Package session is the single owner of a scanstack run's state.
//
// A Session bundles the item registry, the workspace holding rasterized
// document pages, the preview caches, the batch coordinator and the export
// dispatcher. Shells (the stdio tool server and the command line) drive the
// session and never touch the registry directly.
//
// While a batch is in flight the registry is frozen: reorder requests fail
// with BatchInFlight and the batch works from the snapshot taken when it
// started. Ingesting more files is still allowed; they join the next batch.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/scanstack/internal/apperr"
	"github.com/ironsheep/scanstack/internal/batch"
	"github.com/ironsheep/scanstack/internal/config"
	"github.com/ironsheep/scanstack/internal/export"
	"github.com/ironsheep/scanstack/internal/imaging"
	"github.com/ironsheep/scanstack/internal/ingest"
	"github.com/ironsheep/scanstack/internal/logging"
	"github.com/ironsheep/scanstack/internal/ocr"
	"github.com/ironsheep/scanstack/internal/registry"
)

// DefaultSheetWidth is the canvas width used to pick contact sheet columns
// when the caller does not ask for a column count.
const DefaultSheetWidth = 1000

// Options configures New. Nil collaborators are built from Config.
type Options struct {
	Config     *config.Config
	Recognizer ocr.Recognizer
	Rasterizer ingest.Rasterizer
	Log        *zap.SugaredLogger
}

// Session owns every piece of state for one run of the tool.
type Session struct {
	cfg       *config.Config
	reg       *registry.Registry
	workspace *ingest.Workspace
	ingester  *ingest.Ingester
	images    *imaging.ImageCache
	previews  *imaging.PreviewCache
	coord     *batch.Coordinator
	exporter  *export.Dispatcher
	rec       ocr.Recognizer
	log       *zap.SugaredLogger

	mu      sync.Mutex
	job     *batch.Job
	release func()
	last    *batch.Result
	lastErr error
}

// New creates a session and its workspace directory.
func New(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := logging.OrNop(opts.Log)

	ws, err := ingest.NewWorkspace(cfg.WorkDir, log)
	if err != nil {
		return nil, err
	}

	coord, err := batch.NewCoordinator(log)
	if err != nil {
		ws.Close()
		return nil, err
	}

	rec := opts.Recognizer
	if rec == nil {
		rec = ocr.NewTesseract(cfg.Language, cfg.Preprocess)
	}
	rast := opts.Rasterizer
	if rast == nil {
		rast = DefaultRasterizer(cfg)
	}

	reg := registry.New()
	images := imaging.NewImageCache()

	return &Session{
		cfg:       cfg,
		reg:       reg,
		workspace: ws,
		ingester:  ingest.NewIngester(reg, ws, rast, log),
		images:    images,
		previews:  imaging.NewPreviewCache(images, config.ClampPreviewSize(cfg.PreviewSize)),
		coord:     coord,
		exporter: export.NewDispatcher(export.PDFLayout{
			Margin:     cfg.PDFMargin,
			LineHeight: cfg.PDFLineHeight,
			FontSize:   cfg.PDFFontSize,
		}, log),
		rec: rec,
		log: log,
	}, nil
}

// DefaultRasterizer prefers pdftoppm and falls back to extracting embedded
// page images.
func DefaultRasterizer(cfg *config.Config) ingest.Rasterizer {
	var chain ingest.Chain
	if cfg.PdftoppmPath != "" {
		chain = append(chain, &ingest.Pdftoppm{Path: cfg.PdftoppmPath, DPI: cfg.RasterDPI})
	}
	return append(chain, ingest.EmbeddedImages{})
}

// Close stops the batch worker and removes the workspace with every
// rasterized page image.
func (s *Session) Close() error {
	s.coord.Close()
	s.images.Clear()
	return s.workspace.Close()
}

// Config returns the session's configuration.
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Ingest adds each path to the end of the registry.
func (s *Session) Ingest(ctx context.Context, paths ...string) *ingest.Report {
	return s.ingester.Ingest(ctx, paths...)
}

// Items returns the current items in position order.
func (s *Session) Items() []registry.Item {
	return s.reg.Snapshot().Items()
}

// Len returns the number of items.
func (s *Session) Len() int {
	return s.reg.Len()
}

// Reorder exchanges the items at positions a and b.
//
// Unlike Registry.Swap, asking for an item's own position is rejected with
// InvalidPosition. Out-of-range positions fail with OutOfRange, which also
// matches InvalidPosition. The arrangement is untouched on failure.
func (s *Session) Reorder(a, b int) error {
	s.mu.Lock()
	s.collectLocked()
	s.mu.Unlock()

	// Swap validates before the degenerate check and is a no-op for a == b.
	if err := s.reg.Swap(a, b); err != nil {
		return err
	}
	if a == b {
		return apperr.New(apperr.KindInvalidPosition, "item is already at position %d", a)
	}
	s.log.Infow("reordered items", "a", a, "b", b)
	return nil
}

// MoveItem gives the item id the position newPos; the item holding newPos
// takes id's old position.
func (s *Session) MoveItem(id registry.ItemID, newPos int) error {
	cur, err := s.reg.PositionOf(id)
	if err != nil {
		return err
	}
	return s.Reorder(cur, newPos)
}

// PreviewSize returns the current thumbnail size.
func (s *Session) PreviewSize() int {
	return s.previews.Size()
}

// SetPreviewSize changes the zoom, clamped to the supported range, and
// regenerates every item's thumbnail if it changed. It returns the size in
// effect.
func (s *Session) SetPreviewSize(size int) (int, error) {
	size = config.ClampPreviewSize(size)
	if !s.previews.SetSize(size) {
		return size, nil
	}
	s.log.Debugw("preview size changed", "size", size)
	return size, s.RegeneratePreviews()
}

// RegeneratePreviews rebuilds the thumbnail of every item at the current
// size.
func (s *Session) RegeneratePreviews() error {
	items := s.Items()
	paths := make(map[string]string, len(items))
	for _, it := range items {
		paths[string(it.ID)] = it.Path
	}
	return s.previews.Regenerate(paths)
}

// Preview returns the thumbnail of one item.
func (s *Session) Preview(id registry.ItemID) (*imaging.Preview, error) {
	it, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}
	p, err := s.previews.Get(string(id), it.Path)
	if err != nil {
		return nil, fmt.Errorf("preview of item %d: %w", it.Position, err)
	}
	return p, nil
}

// ContactSheet renders every item's thumbnail into a labelled grid. A
// columns value below 1 fits as many columns as DefaultSheetWidth allows.
func (s *Session) ContactSheet(columns int) (*imaging.ContactSheetResult, error) {
	snap := s.reg.Snapshot()
	if snap.Len() == 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "no files to show")
	}

	size := s.previews.Size()
	if columns < 1 {
		columns = imaging.MaxColumns(DefaultSheetWidth, size)
	}

	tiles := make([]imaging.SheetTile, 0, snap.Len())
	for _, it := range snap.Items() {
		p, err := s.previews.Get(string(it.ID), it.Path)
		if err != nil {
			return nil, fmt.Errorf("preview of item %d: %w", it.Position, err)
		}
		tiles = append(tiles, imaging.SheetTile{Position: it.Position, Image: p.Image()})
	}
	return imaging.ContactSheet(tiles, size, columns)
}

// Recognizer returns the engine batches run with.
func (s *Session) Recognizer() ocr.Recognizer {
	return s.rec
}
