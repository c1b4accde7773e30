package session

import (
	"context"

	"github.com/ironsheep/scanstack/internal/apperr"
	"github.com/ironsheep/scanstack/internal/batch"
	"github.com/ironsheep/scanstack/internal/export"
)

// Batch states reported by BatchStatus.
const (
	StateIdle    = "idle"
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

// BatchStatus describes the current or most recent batch.
type BatchStatus struct {
	State    string         `json:"state"`
	Progress batch.Progress `json:"progress"`
	Failures int            `json:"failures"`
	Error    string         `json:"error,omitempty"`
}

// StartBatch freezes the registry, snapshots it and hands the snapshot to the
// background worker. The registry thaws when the batch ends.
func (s *Session) StartBatch(ctx context.Context) (*batch.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectLocked()

	release := s.reg.Freeze()
	job, err := s.coord.Start(ctx, s.reg.Snapshot(), s.rec)
	if err != nil {
		release()
		return nil, err
	}
	s.job, s.release = job, release

	go func() {
		<-job.Done()
		release()
	}()
	return job, nil
}

// RunBatch is StartBatch on the caller's goroutine, calling progress after
// every item.
func (s *Session) RunBatch(ctx context.Context, progress func(batch.Progress)) (*batch.Result, error) {
	s.mu.Lock()
	s.collectLocked()
	s.mu.Unlock()

	release := s.reg.Freeze()
	defer release()

	res, err := s.coord.Run(ctx, s.reg.Snapshot(), s.rec, progress)
	if res != nil {
		s.mu.Lock()
		s.record(res, err)
		s.mu.Unlock()
	}
	return res, err
}

// BatchStatus reports on the running or last batch.
func (s *Session) BatchStatus() BatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil && !s.job.Finished() {
		return BatchStatus{State: StateRunning, Progress: s.job.Latest()}
	}
	s.collectLocked()

	switch {
	case s.lastErr != nil:
		return BatchStatus{State: StateFailed, Error: s.lastErr.Error()}
	case s.last != nil:
		n := len(s.last.Entries)
		return BatchStatus{
			State:    StateDone,
			Progress: batch.Progress{Completed: n, Total: n, Percent: 100},
			Failures: s.last.Failures(),
		}
	default:
		return BatchStatus{State: StateIdle}
	}
}

// LastResult returns the result of the most recent completed batch.
func (s *Session) LastResult() (*batch.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectLocked()
	return s.last, s.last != nil
}

// Export writes the last batch's text to dest, choosing the format from its
// extension. The result stays available for another attempt on failure.
func (s *Session) Export(dest string) (export.Format, error) {
	if _, err := export.FormatFromPath(dest); err != nil {
		return 0, err
	}
	res, ok := s.LastResult()
	if !ok {
		return 0, apperr.New(apperr.KindInvalidInput, "no recognized text; run a batch first")
	}
	return s.exporter.Export(res.Text(), dest)
}

// ExportText writes caller-supplied text to dest.
func (s *Session) ExportText(text, dest string) (export.Format, error) {
	return s.exporter.Export(text, dest)
}

// collectLocked moves a finished background job's outcome into last and
// thaws the registry. Callers hold s.mu.
func (s *Session) collectLocked() {
	if s.job == nil || !s.job.Finished() {
		return
	}
	res, err := s.job.Wait()
	s.record(res, err)
	s.release()
	s.job, s.release = nil, nil
}

// record keeps a batch outcome. A cancelled batch keeps the previous
// complete result exportable. Callers hold s.mu.
func (s *Session) record(res *batch.Result, err error) {
	s.lastErr = err
	if err == nil {
		s.last = res
	}
}
