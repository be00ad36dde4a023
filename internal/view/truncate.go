package view

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Default log budgets.
const (
	DefaultMaxLines = 80
	DefaultMaxChars = 8000
)

// Limits bounds how much of a log stream is rendered.
// Zero or negative values fall back to the defaults.
type Limits struct {
	MaxLines int
	MaxChars int
}

func (l Limits) normalized() Limits {
	if l.MaxLines <= 0 {
		l.MaxLines = DefaultMaxLines
	}
	if l.MaxChars <= 0 {
		l.MaxChars = DefaultMaxChars
	}
	return l
}

// Truncate cuts text to the line budget and then to the character budget.
// When anything was dropped a single marker line is appended and the second
// result is true. Truncate works on raw text; escape its result, never its
// input, so entities are never split.
func Truncate(text string, limits Limits) (string, bool) {
	l := limits.normalized()

	body := strings.TrimSuffix(text, "\n")
	if body == "" {
		return text, false
	}

	lines := strings.Split(body, "\n")
	totalLines := len(lines)
	totalChars := utf8.RuneCountInString(body)
	if totalLines > l.MaxLines {
		kept := strings.Join(lines[:l.MaxLines], "\n")
		if utf8.RuneCountInString(kept) > l.MaxChars {
			return capChars(kept, l.MaxChars) + "\n" +
				fmt.Sprintf("… truncated: showing %d of %d characters (%d of %d lines)", l.MaxChars, totalChars, l.MaxLines, totalLines), true
		}
		return kept + "\n" + fmt.Sprintf("… truncated: showing %d of %d lines", l.MaxLines, totalLines), true
	}

	if totalChars > l.MaxChars {
		return capChars(body, l.MaxChars) + "\n" +
			fmt.Sprintf("… truncated: showing %d of %d characters", l.MaxChars, totalChars), true
	}
	return text, false
}

// capChars keeps the first limit runes of s, without a trailing newline.
func capChars(s string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSuffix(b.String(), "\n")
}
