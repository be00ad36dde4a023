package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/patrickspencer/runboard/internal/record"
)

// Placeholder is shown for missing or malformed fields.
const Placeholder = "—"

// tableColumns is the number of cells in a table row, used for colspans.
const tableColumns = 11

// Layout selects how runs are laid out on the page.
type Layout string

const (
	LayoutTable Layout = "table"
	LayoutCards Layout = "cards"
)

// ParseLayout validates a layout name. An empty name means table.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutTable:
		return LayoutTable, nil
	case LayoutCards:
		return LayoutCards, nil
	default:
		return "", fmt.Errorf("unknown layout %q (want table or cards)", s)
	}
}

// Mode is the display configuration shared by every page variant.
type Mode struct {
	Layout       Layout
	ShowActivity bool
	ActivityDays int
}

// Renderer maps runs to markup. The zero value renders a table with the
// default log limits.
type Renderer struct {
	Mode   Mode
	Limits Limits
	// Now is used for relative times in cards. Defaults to time.Now.
	Now func() time.Time
}

func (rd Renderer) layout() Layout {
	if rd.Mode.Layout == LayoutCards {
		return LayoutCards
	}
	return LayoutTable
}

func (rd Renderer) now() time.Time {
	if rd.Now != nil {
		return rd.Now()
	}
	return time.Now()
}

// List renders runs in the given order. An empty set renders the "No runs"
// placeholder rather than an empty container.
func (rd Renderer) List(runs []record.Run) string {
	if len(runs) == 0 {
		return rd.message("empty", "No runs")
	}
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(rd.Row(r))
	}
	return b.String()
}

// Error renders the placeholder shown in place of the list when the runs
// could not be fetched from endpoint.
func (rd Renderer) Error(endpoint string) string {
	return rd.message("error", "Failed to load runs from "+endpoint)
}

func (rd Renderer) message(class, text string) string {
	if rd.layout() == LayoutCards {
		return fmt.Sprintf(`<p class="%s">%s</p>`, class, Escape(text))
	}
	return fmt.Sprintf(`<tr class="%s"><td colspan="%d">%s</td></tr>`, class, tableColumns, Escape(text))
}

// Header renders the table header row. Cards have no header.
func (rd Renderer) Header() string {
	if rd.layout() == LayoutCards {
		return ""
	}
	cols := []string{"", "Run", "Started", "User", "File", "Duration", "Exit", "Memory hits", "Disk hits", "Server fetches", "Logs"}
	var b strings.Builder
	b.WriteString("<tr>")
	for _, c := range cols {
		b.WriteString("<th>" + Escape(c) + "</th>")
	}
	b.WriteString("</tr>")
	return b.String()
}

// Row renders a single run.
func (rd Renderer) Row(r record.Run) string {
	if rd.layout() == LayoutCards {
		return rd.card(r)
	}
	return rd.tableRow(r)
}

func (rd Renderer) tableRow(r record.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<tr class="run %s" data-run-id="%s">`, statusClass(r), Escape(r.ID))
	b.WriteString(statusCell(r))
	fmt.Fprintf(&b, `<td class="mono">%s</td>`, Escape(orPlaceholder(r.ID)))
	fmt.Fprintf(&b, `<td class="mono">%s</td>`, Escape(FormatStarted(r)))
	fmt.Fprintf(&b, `<td>%s</td>`, Escape(orPlaceholder(r.Owner())))
	fmt.Fprintf(&b, `<td>%s</td>`, Escape(orPlaceholder(r.Filename)))
	fmt.Fprintf(&b, `<td class="mono">%s</td>`, Escape(FormatDuration(r.DurationMs)))
	fmt.Fprintf(&b, `<td class="mono">%s</td>`, Escape(orPlaceholder(r.ExitCodeText())))
	fmt.Fprintf(&b, `<td class="mono">%s</td>`, Escape(FormatCount(r.MemoryCacheHits)))
	fmt.Fprintf(&b, `<td class="mono">%s</td>`, Escape(FormatCount(r.DiskCacheHits)))
	fmt.Fprintf(&b, `<td class="mono">%s</td>`, Escape(FormatCount(r.ServerFetches)))
	fmt.Fprintf(&b, `<td class="logs">%s</td>`, rd.logs(r))
	b.WriteString("</tr>")
	return b.String()
}

func (rd Renderer) card(r record.Run) string {
	started := FormatStarted(r)
	if t, ok := r.Started(); ok {
		started += " (" + humanize.RelTime(t, rd.now(), "ago", "from now") + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<article class="run-card run %s" data-run-id="%s">`, statusClass(r), Escape(r.ID))
	fmt.Fprintf(&b, `<header>%s <span class="filename">%s</span> <span class="owner dim">%s</span></header>`,
		statusBadge(r), Escape(orPlaceholder(r.Filename)), Escape(orPlaceholder(r.Owner())))
	b.WriteString("<dl>")
	field := func(label, value string) {
		fmt.Fprintf(&b, `<dt>%s</dt><dd class="mono">%s</dd>`, Escape(label), Escape(value))
	}
	field("Run", orPlaceholder(r.ID))
	field("Started", started)
	field("Duration", FormatDuration(r.DurationMs))
	field("Exit code", orPlaceholder(r.ExitCodeText()))
	field("Memory hits", FormatCount(r.MemoryCacheHits))
	field("Disk hits", FormatCount(r.DiskCacheHits))
	field("Server fetches", FormatCount(r.ServerFetches))
	b.WriteString("</dl>")
	b.WriteString(rd.logs(r))
	b.WriteString("</article>")
	return b.String()
}

// logs renders the collapsible stdout/stderr section. Streams are truncated
// first and escaped second.
func (rd Renderer) logs(r record.Run) string {
	var b strings.Builder
	b.WriteString(`<details class="run-logs"><summary>logs</summary>`)
	for _, stream := range []struct{ name, text string }{
		{"stdout", r.Stdout},
		{"stderr", r.Stderr},
	} {
		fmt.Fprintf(&b, `<div class="log log--%s"><h4>%s</h4>`, stream.name, Escape(stream.name))
		if stream.text == "" {
			b.WriteString(`<pre class="dim">(empty)</pre>`)
		} else {
			text, cut := Truncate(stream.text, rd.Limits)
			class := ""
			if cut {
				class = ` class="truncated"`
			}
			fmt.Fprintf(&b, `<pre%s>%s</pre>`, class, Escape(text))
		}
		b.WriteString("</div>")
	}
	b.WriteString("</details>")
	return b.String()
}

func statusClass(r record.Run) string {
	if r.Succeeded() {
		return "run--success"
	}
	return "run--failure"
}

func statusBadge(r record.Run) string {
	if r.Succeeded() {
		return `<span class="status status--success" title="success">✓</span>`
	}
	return `<span class="status status--failure" title="failure">✗</span>`
}

func statusCell(r record.Run) string {
	return "<td>" + statusBadge(r) + "</td>"
}

// FormatDuration renders milliseconds below one second as "N ms" and
// anything longer as seconds with two decimals.
func FormatDuration(ms *int64) string {
	if ms == nil {
		return Placeholder
	}
	if *ms < 1000 {
		return fmt.Sprintf("%d ms", *ms)
	}
	return fmt.Sprintf("%.2f s", float64(*ms)/1000)
}

// FormatCount renders an optional counter.
func FormatCount(n *int64) string {
	if n == nil {
		return Placeholder
	}
	return fmt.Sprintf("%d", *n)
}

// FormatStarted renders the start time in UTC, or the placeholder when it
// cannot be parsed.
func FormatStarted(r record.Run) string {
	t, ok := r.Started()
	if !ok {
		return Placeholder
	}
	return t.UTC().Format("2006-01-02 15:04:05Z")
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
