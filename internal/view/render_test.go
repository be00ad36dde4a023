package view

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickspencer/runboard/internal/record"
)

var fixedNow = time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

func newRenderer(layout Layout) Renderer {
	return Renderer{
		Mode:   Mode{Layout: layout},
		Limits: Limits{MaxLines: 80, MaxChars: 8000},
		Now:    func() time.Time { return fixedNow },
	}
}

func TestListEmpty(t *testing.T) {
	t.Parallel()

	table := newRenderer(LayoutTable).List(nil)
	assert.NotEmpty(t, table)
	assert.Contains(t, table, "No runs")
	assert.Contains(t, table, `colspan="11"`)

	cards := newRenderer(LayoutCards).List([]record.Run{})
	assert.Equal(t, `<p class="empty">No runs</p>`, cards)
}

func TestRowSuccessIndicator(t *testing.T) {
	t.Parallel()

	for _, layout := range []Layout{LayoutTable, LayoutCards} {
		rd := newRenderer(layout)

		ok := rd.Row(record.Run{ID: "1", ExitCode: record.Int(0)})
		assert.Contains(t, ok, "run--success", layout)
		assert.NotContains(t, ok, "run--failure", layout)

		failed := rd.Row(record.Run{ID: "2", ExitCode: record.Int(1)})
		assert.Contains(t, failed, "run--failure", layout)
		assert.NotContains(t, failed, "run--success", layout)
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "500 ms", FormatDuration(record.Int64(500)))
	assert.Equal(t, "2.50 s", FormatDuration(record.Int64(2500)))
	assert.Equal(t, "999 ms", FormatDuration(record.Int64(999)))
	assert.Equal(t, "1.00 s", FormatDuration(record.Int64(1000)))
	assert.Equal(t, Placeholder, FormatDuration(nil))
}

func TestRowIncludesAllFields(t *testing.T) {
	t.Parallel()

	r := record.Run{
		ID:              "77",
		Filename:        "alice_train.py",
		StartedAt:       "2025-03-01T10:00:00Z",
		DurationMs:      record.Int64(2500),
		ExitCode:        record.Int(0),
		MemoryCacheHits: record.Int64(11),
		DiskCacheHits:   record.Int64(22),
		ServerFetches:   record.Int64(33),
		Stdout:          "out text",
		Stderr:          "err text",
	}

	for _, layout := range []Layout{LayoutTable, LayoutCards} {
		row := newRenderer(layout).Row(r)
		for _, want := range []string{"77", "alice_train.py", "alice", "2025-03-01 10:00:00Z", "2.50 s", "11", "22", "33", "<details", "out text", "err text"} {
			assert.Contains(t, row, want, "layout %s", layout)
		}
	}

	card := newRenderer(LayoutCards).Row(r)
	assert.Contains(t, card, "2 days ago")
}

func TestRowPlaceholders(t *testing.T) {
	t.Parallel()

	row := newRenderer(LayoutTable).Row(record.Run{ID: "x", StartedAt: "garbage"})
	// started, owner, filename, duration, exit code and three counters
	assert.Equal(t, 8, strings.Count(row, Placeholder))
	assert.Contains(t, row, "run--failure")
	assert.Contains(t, row, "(empty)")
}

func TestRowEscapesEveryField(t *testing.T) {
	t.Parallel()

	evil := `<img src=x onerror="alert('x')">&`
	r := record.Run{
		ID:        evil,
		Filename:  evil,
		Username:  evil,
		StartedAt: evil,
		Stdout:    evil,
		Stderr:    evil,
		ExitCode:  record.Int(1),
	}

	for _, layout := range []Layout{LayoutTable, LayoutCards} {
		row := newRenderer(layout).Row(r)
		assert.NotContains(t, row, "<img", "layout %s", layout)
		assert.NotContains(t, row, `onerror="`, "layout %s", layout)
		assert.Contains(t, row, Escape(evil), "layout %s", layout)
	}
}

func TestRowTruncatesLogs(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 1; i <= 200; i++ {
		fmt.Fprintf(&b, "out-%03d\n", i)
	}

	row := newRenderer(LayoutTable).Row(record.Run{ID: "1", Stdout: b.String()})
	assert.Contains(t, row, "out-080")
	assert.NotContains(t, row, "out-081")
	assert.Contains(t, row, "… truncated: showing 80 of 200 lines")
	assert.Contains(t, row, `<pre class="truncated">`)
}

func TestErrorPlaceholderNamesEndpoint(t *testing.T) {
	t.Parallel()

	out := newRenderer(LayoutTable).Error("http://runs.example:8444/stats?a=<b>")
	assert.Contains(t, out, "Failed to load runs from http://runs.example:8444/stats?a=&lt;b&gt;")
	assert.Contains(t, out, `class="error"`)

	cards := newRenderer(LayoutCards).Error("/stats")
	assert.Equal(t, `<p class="error">Failed to load runs from /stats</p>`, cards)
}

func TestParseLayout(t *testing.T) {
	t.Parallel()

	l, err := ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, LayoutTable, l)

	l, err = ParseLayout(" Cards ")
	require.NoError(t, err)
	assert.Equal(t, LayoutCards, l)

	_, err = ParseLayout("grid")
	assert.Error(t, err)
}

func TestHeader(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 11, strings.Count(newRenderer(LayoutTable).Header(), "<th>"))
	assert.Empty(t, newRenderer(LayoutCards).Header())
}

func TestSelectAndRenderEndToEnd(t *testing.T) {
	t.Parallel()

	runs := []record.Run{
		{ID: "101", Filename: "a.py", StartedAt: "2025-03-01T09:00:00Z", ExitCode: record.Int(0)},
		{ID: "102", Filename: "b.py", StartedAt: "2025-03-03T09:00:00Z", ExitCode: record.Int(2)},
		{ID: "103", Filename: "c.py", StartedAt: "2025-03-02T09:00:00Z", ExitCode: record.Int(0)},
	}

	out := newRenderer(LayoutTable).List(Select(runs, ""))

	i102 := strings.Index(out, `data-run-id="102"`)
	i103 := strings.Index(out, `data-run-id="103"`)
	i101 := strings.Index(out, `data-run-id="101"`)
	require.True(t, i102 >= 0 && i103 >= 0 && i101 >= 0)
	assert.Less(t, i102, i103)
	assert.Less(t, i103, i101)

	rows := strings.Split(out, "</tr>")
	require.Len(t, rows, 4) // three rows plus the trailing remainder
	assert.Contains(t, rows[0], "run--failure")
	assert.Contains(t, rows[1], "run--success")
	assert.Contains(t, rows[2], "run--success")
}
