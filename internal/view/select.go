// Package view turns run records into the markup shown on the dashboard:
// filtering and ordering, escaping, log truncation and row rendering.
package view

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/patrickspencer/runboard/internal/record"
)

// Select returns the records matching query, most recently started first.
//
// A record matches when query is a case-insensitive substring of its id,
// filename and exit code joined by spaces. A blank query matches everything.
// Records with unparseable start times sort after all others; ties keep their
// input order. The input slice is not modified.
func Select(records []record.Run, query string) []record.Run {
	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(query))

	type keyed struct {
		run     record.Run
		started time.Time
		valid   bool
	}

	matched := make([]keyed, 0, len(records))
	for _, r := range records {
		if needle != "" && !strings.Contains(folder.String(haystack(r)), needle) {
			continue
		}
		started, ok := r.Started()
		matched = append(matched, keyed{run: r, started: started, valid: ok})
	}

	slices.SortStableFunc(matched, func(a, b keyed) int {
		switch {
		case a.valid && b.valid:
			return b.started.Compare(a.started)
		case a.valid:
			return -1
		case b.valid:
			return 1
		default:
			return 0
		}
	})

	out := make([]record.Run, len(matched))
	for i, k := range matched {
		out[i] = k.run
	}
	return out
}

func haystack(r record.Run) string {
	return r.ID + " " + r.Filename + " " + r.ExitCodeText()
}
