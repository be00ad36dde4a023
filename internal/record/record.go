// Package record defines the run record reported by the runs endpoint.
package record

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Run is a single reported execution of a remote job.
//
// Runs are decoded once and never modified afterwards; every view over a set
// of runs is built into a new slice.
type Run struct {
	ID              string `json:"id"`
	StartedAt       string `json:"started_at"`
	Filename        string `json:"filename"`
	Username        string `json:"username,omitempty"`
	DurationMs      *int64 `json:"duration_ms,omitempty"`
	ExitCode        *int   `json:"exit_code,omitempty"`
	MemoryCacheHits *int64 `json:"memory_cache_hits,omitempty"`
	DiskCacheHits   *int64 `json:"disk_cache_hits,omitempty"`
	ServerFetches   *int64 `json:"server_fetches,omitempty"`
	Stdout          string `json:"stdout,omitempty"`
	Stderr          string `json:"stderr,omitempty"`
}

// timeLayouts are tried in order by Started.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Started parses StartedAt. The second result is false when the timestamp is
// missing or in an unknown layout.
func (r Run) Started() (time.Time, bool) {
	s := strings.TrimSpace(r.StartedAt)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Succeeded reports whether the run exited with code 0.
// A missing exit code counts as failure.
func (r Run) Succeeded() bool {
	return r.ExitCode != nil && *r.ExitCode == 0
}

// ExitCodeText returns the exit code in decimal, or "" when missing.
func (r Run) ExitCodeText() string {
	if r.ExitCode == nil {
		return ""
	}
	return strconv.Itoa(*r.ExitCode)
}

// Owner returns the user the run belongs to. An explicit Username wins;
// otherwise the filename prefix before the first '_' is used, so
// "alice_train.py" belongs to "alice". Filenames without '_' have no owner.
func (r Run) Owner() string {
	if u := strings.TrimSpace(r.Username); u != "" {
		return u
	}
	prefix, _, found := strings.Cut(r.Filename, "_")
	if !found {
		return ""
	}
	return strings.TrimSpace(prefix)
}

// UnmarshalJSON decodes a run leniently. A field with an unexpected type is
// treated as missing instead of failing the whole record.
func (r *Run) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = Run{
		ID:              text(fields["id"]),
		StartedAt:       text(fields["started_at"]),
		Filename:        text(fields["filename"]),
		Username:        text(fields["username"]),
		DurationMs:      integer(fields["duration_ms"]),
		MemoryCacheHits: integer(fields["memory_cache_hits"]),
		DiskCacheHits:   integer(fields["disk_cache_hits"]),
		ServerFetches:   integer(fields["server_fetches"]),
		Stdout:          text(fields["stdout"]),
		Stderr:          text(fields["stderr"]),
	}
	if v := integer(fields["exit_code"]); v != nil {
		code := int(*v)
		r.ExitCode = &code
	}
	return nil
}

// text returns strings as-is, other scalars as their JSON text and null or
// missing values as "".
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// integer accepts JSON numbers and numeric strings. Fractions are truncated.
func integer(raw json.RawMessage) *int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
		return nil
	}
	s := strings.TrimSpace(text(raw))
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int64(f)
	return &n
}

// Int64 returns a pointer to v. Handy for building fixtures.
func Int64(v int64) *int64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
