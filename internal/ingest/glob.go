package ingest

import (
	"errors"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ironsheep/scanstack/internal/apperr"
)

// ExpandGlobs expands shell-style patterns, including "**", into file paths.
//
// Arguments without glob metacharacters pass through untouched so Classify
// can report a missing file by name. Matches of each pattern are sorted and
// appended in argument order. Bad or empty patterns are reported in the
// returned error while the other arguments still expand.
func ExpandGlobs(patterns []string) ([]string, error) {
	var (
		out  []string
		errs []error
	)
	for _, p := range patterns {
		if !hasMeta(p) {
			out = append(out, p)
			continue
		}

		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			errs = append(errs, apperr.Wrap(err, apperr.KindInvalidInput, "bad pattern %q", p))
			continue
		}
		if len(matches) == 0 {
			errs = append(errs, apperr.New(apperr.KindInvalidInput, "pattern %q matched no files", p))
			continue
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, errors.Join(errs...)
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
