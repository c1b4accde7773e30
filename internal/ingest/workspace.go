package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/scanstack/internal/logging"
)

// Workspace owns the temporary page images rasterized from documents.
//
// One workspace lives as long as the process's session: every directory it
// hands out sits under a single root that Close removes. Nothing survives a
// clean shutdown.
type Workspace struct {
	mu     sync.Mutex
	root   string
	seq    int
	closed bool
	log    *zap.SugaredLogger
}

// NewWorkspace creates a fresh root directory under parent (the OS temp dir
// when parent is empty).
func NewWorkspace(parent string, log *zap.SugaredLogger) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create work dir: %w", err)
		}
	}
	root, err := os.MkdirTemp(parent, "scanstack-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	log = logging.OrNop(log)
	log.Debugw("created workspace", "root", root)
	return &Workspace{root: root, log: log}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// NewDir creates a numbered subdirectory for one document's pages.
func (w *Workspace) NewDir(prefix string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return "", fmt.Errorf("workspace %s is closed", w.root)
	}
	w.seq++
	dir := filepath.Join(w.root, fmt.Sprintf("%03d-%s", w.seq, sanitize(prefix)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create page dir: %w", err)
	}
	return dir, nil
}

// Close removes the workspace and every page image in it. It is safe to
// call more than once.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if err := os.RemoveAll(w.root); err != nil {
		w.log.Warnw("failed to remove workspace", "root", w.root, "error", err)
		return fmt.Errorf("failed to remove workspace %s: %w", w.root, err)
	}
	w.log.Debugw("removed workspace", "root", w.root)
	return nil
}

// sanitize keeps a file stem usable as a directory name on every platform.
func sanitize(name string) string {
	stem := name[:len(name)-len(filepath.Ext(name))]
	out := make([]rune, 0, len(stem))
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "doc"
	}
	if len(out) > 40 {
		out = out[:40]
	}
	return string(out)
}
