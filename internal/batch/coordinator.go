// Package batch runs recognition over a registry snapshot.
//
// A batch walks the snapshot once, strictly in position order, and asks the
// recognizer for each item's text. A failing item contributes a visible
// error marker instead of text and the batch carries on. Progress is
// reported after every item as an integer percentage that never decreases
// and ends at exactly 100.
//
// # Concurrency
//
// A Coordinator owns one background worker. Start hands the batch to that
// worker and returns immediately; Run executes on the caller's goroutine.
// Only one batch may be in flight per Coordinator: a second Run or Start
// fails with BatchInFlight until the first returns.
package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/ironsheep/scanstack/internal/apperr"
	"github.com/ironsheep/scanstack/internal/logging"
	"github.com/ironsheep/scanstack/internal/ocr"
	"github.com/ironsheep/scanstack/internal/registry"
)

// Coordinator runs at most one batch at a time.
type Coordinator struct {
	pool    *ants.Pool
	running atomic.Bool
	log     *zap.SugaredLogger
}

// NewCoordinator creates a coordinator with a single background worker.
func NewCoordinator(log *zap.SugaredLogger) (*Coordinator, error) {
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch worker: %w", err)
	}
	return &Coordinator{pool: pool, log: logging.OrNop(log)}, nil
}

// Close releases the background worker. A batch already running finishes.
func (c *Coordinator) Close() {
	c.pool.Release()
}

// Running reports whether a batch is in flight.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// Run processes snap synchronously, calling progress (if non-nil) after
// every item.
//
// An empty snapshot fails with InvalidInput. Cancelling ctx stops the batch
// between items; the partial result is returned together with ctx's error.
func (c *Coordinator) Run(ctx context.Context, snap registry.Snapshot, rec ocr.Recognizer, progress func(Progress)) (*Result, error) {
	if err := c.acquire(snap); err != nil {
		return nil, err
	}
	defer c.running.Store(false)
	return c.process(ctx, snap, rec, progress)
}

// Start hands snap to the background worker and returns a Job to follow it.
func (c *Coordinator) Start(ctx context.Context, snap registry.Snapshot, rec ocr.Recognizer) (*Job, error) {
	if err := c.acquire(snap); err != nil {
		return nil, err
	}

	job := newJob(snap.Len())
	err := c.pool.Submit(func() {
		res, err := c.process(ctx, snap, rec, job.publish)
		// Clear the in-flight flag before waking waiters.
		c.running.Store(false)
		job.finish(res, err)
	})
	if err != nil {
		c.running.Store(false)
		return nil, fmt.Errorf("failed to start batch: %w", err)
	}
	return job, nil
}

func (c *Coordinator) acquire(snap registry.Snapshot) error {
	if snap.Len() == 0 {
		return apperr.New(apperr.KindInvalidInput, "no files to process")
	}
	if !c.running.CompareAndSwap(false, true) {
		return apperr.New(apperr.KindBatchInFlight, "a batch is already running")
	}
	return nil
}

func (c *Coordinator) process(ctx context.Context, snap registry.Snapshot, rec ocr.Recognizer, progress func(Progress)) (*Result, error) {
	items := snap.Items()
	total := len(items)
	res := &Result{Entries: make([]Entry, 0, total), Started: time.Now()}

	c.log.Infow("batch started", "items", total)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(res.Started)
			c.log.Warnw("batch cancelled", "completed", i, "total", total)
			return res, err
		}

		res.Entries = append(res.Entries, c.recognize(ctx, rec, item))
		if progress != nil {
			progress(newProgress(i+1, total))
		}
	}

	res.Duration = time.Since(res.Started)
	c.log.Infow("batch finished", "items", total, "failures", res.Failures(), "duration", res.Duration)
	return res, nil
}

// recognize never fails: errors and panics become the entry's marker text.
func (c *Coordinator) recognize(ctx context.Context, rec ocr.Recognizer, item registry.Item) (entry Entry) {
	entry.Item = item

	fail := func(cause error) {
		entry.Err = apperr.Wrap(cause, apperr.KindRecognitionFailure, "recognition failed").WithPath(item.Path)
		entry.Text = failureMarker(item.Path, cause)
		c.log.Warnw("recognition failed", "position", item.Position, "path", item.Path, "error", cause)
	}

	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("recognizer panic: %v", r))
		}
	}()

	text, err := rec.Recognize(ctx, item.Path)
	if err != nil {
		fail(err)
		return entry
	}
	entry.Text = text
	c.log.Debugw("recognized item", "position", item.Position, "path", item.Path, "chars", len(text))
	return entry
}

// Job follows a batch running on the background worker.
type Job struct {
	progress chan Progress
	done     chan struct{}

	mu     sync.Mutex
	latest Progress
	result *Result
	err    error
}

func newJob(total int) *Job {
	return &Job{
		// One slot per item, so publishing never blocks the worker.
		progress: make(chan Progress, total),
		done:     make(chan struct{}),
		latest:   Progress{Total: total},
	}
}

func (j *Job) publish(p Progress) {
	j.mu.Lock()
	j.latest = p
	j.mu.Unlock()
	j.progress <- p
}

func (j *Job) finish(res *Result, err error) {
	j.mu.Lock()
	j.result, j.err = res, err
	j.mu.Unlock()
	close(j.progress)
	close(j.done)
}

// Progress streams one event per completed item and is closed when the
// batch ends.
func (j *Job) Progress() <-chan Progress {
	return j.progress
}

// Latest returns the most recent progress without consuming the stream.
func (j *Job) Latest() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.latest
}

// Done is closed when the batch ends.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the batch ends and returns its result.
func (j *Job) Wait() (*Result, error) {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// Finished reports whether the batch has ended.
func (j *Job) Finished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}
