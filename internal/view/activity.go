package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickspencer/runboard/internal/record"
)

// DefaultActivityDays is the sparkline window when none is configured.
const DefaultActivityDays = 14

const unknownOwner = "(unknown)"

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// OwnerActivity summarizes the runs of one owner.
type OwnerActivity struct {
	Owner    string
	Runs     int
	Failures int
	// Daily holds run counts per day, oldest first, ending today.
	Daily []int
}

// Activity groups runs by owner. Runs and Failures count every run; Daily
// only counts runs started within the last days days before now. Owners are
// ordered by run count, then name.
func Activity(runs []record.Run, now time.Time, days int) []OwnerActivity {
	if days <= 0 {
		days = DefaultActivityDays
	}

	byOwner := make(map[string]*OwnerActivity)
	for _, r := range runs {
		owner := r.Owner()
		if owner == "" {
			owner = unknownOwner
		}
		a, ok := byOwner[owner]
		if !ok {
			a = &OwnerActivity{Owner: owner, Daily: make([]int, days)}
			byOwner[owner] = a
		}
		a.Runs++
		if !r.Succeeded() {
			a.Failures++
		}

		started, ok := r.Started()
		if !ok || started.After(now) {
			continue
		}
		age := int(now.Sub(started) / (24 * time.Hour))
		if age < days {
			a.Daily[days-1-age]++
		}
	}

	out := make([]OwnerActivity, 0, len(byOwner))
	for _, a := range byOwner {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Runs != out[j].Runs {
			return out[i].Runs > out[j].Runs
		}
		return out[i].Owner < out[j].Owner
	})
	return out
}

// Sparkline draws counts with block characters scaled to the largest count.
// Zero renders as the lowest block.
func Sparkline(counts []int) string {
	peak := 0
	for _, c := range counts {
		if c > peak {
			peak = c
		}
	}

	var b strings.Builder
	for _, c := range counts {
		level := 0
		if c > 0 && peak > 0 {
			level = 1 + c*(len(sparkLevels)-2)/peak
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}

// Activity renders the per-owner activity panel.
func (rd Renderer) Activity(runs []record.Run) string {
	stats := Activity(runs, rd.now(), rd.Mode.ActivityDays)
	if len(stats) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<section class="activity"><h2>Activity</h2><ul>`)
	for _, a := range stats {
		fmt.Fprintf(&b, `<li><span class="owner">%s</span> <span class="spark mono">%s</span> <span class="dim">%s</span></li>`,
			Escape(a.Owner),
			Escape(Sparkline(a.Daily)),
			Escape(fmt.Sprintf("%d runs, %d failed", a.Runs, a.Failures)),
		)
	}
	b.WriteString("</ul></section>")
	return b.String()
}
