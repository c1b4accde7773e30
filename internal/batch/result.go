package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/scanstack/internal/registry"
)

// Entry is the outcome for one item of a batch.
type Entry struct {
	Item registry.Item `json:"item"`

	// Text is the recognized text, or the failure marker when Err is set.
	Text string `json:"text"`

	// Err is the RecognitionFailure captured for this item, if any.
	Err error `json:"-"`
}

// Failed reports whether recognition failed for this entry.
func (e Entry) Failed() bool {
	return e.Err != nil
}

// failureMarker is the visible text that stands in for a failed item.
func failureMarker(path string, err error) string {
	return fmt.Sprintf("Error processing %s: %v", path, err)
}

// Result is the ordered outcome of one batch. It is not modified after the
// batch returns it.
type Result struct {
	Entries  []Entry       `json:"entries"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// Text concatenates the entries in position order, each followed by a
// newline.
func (r *Result) Text() string {
	var sb strings.Builder
	for _, e := range r.Entries {
		sb.WriteString(e.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Failures counts the entries whose recognition failed.
func (r *Result) Failures() int {
	n := 0
	for _, e := range r.Entries {
		if e.Failed() {
			n++
		}
	}
	return n
}

// Progress is emitted after each item completes.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// Done reports whether every item has completed.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Completed == p.Total
}

func newProgress(completed, total int) Progress {
	return Progress{
		Completed: completed,
		Total:     total,
		Percent:   completed * 100 / total,
	}
}
