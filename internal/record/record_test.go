package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUnmarshalFullRecord(t *testing.T) {
	t.Parallel()

	payload := `{
		"id": 42,
		"filename": "alice_train.py",
		"started_at": "2025-03-01T10:00:00Z",
		"duration_ms": 2500,
		"stdout": "hello\n",
		"stderr": "",
		"exit_code": 0,
		"memory_cache_hits": 10,
		"disk_cache_hits": 3,
		"server_fetches": 1,
		"username": "alice"
	}`

	var r Run
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, "42", r.ID)
	assert.Equal(t, "alice_train.py", r.Filename)
	assert.Equal(t, "alice", r.Username)
	require.NotNil(t, r.DurationMs)
	assert.EqualValues(t, 2500, *r.DurationMs)
	require.NotNil(t, r.ExitCode)
	assert.Equal(t, 0, *r.ExitCode)
	require.NotNil(t, r.MemoryCacheHits)
	assert.EqualValues(t, 10, *r.MemoryCacheHits)
	assert.EqualValues(t, 3, *r.DiskCacheHits)
	assert.EqualValues(t, 1, *r.ServerFetches)
	assert.Equal(t, "hello\n", r.Stdout)
	assert.True(t, r.Succeeded())
}

func TestRunUnmarshalMalformedFields(t *testing.T) {
	t.Parallel()

	payload := `{
		"id": "run-7",
		"started_at": null,
		"duration_ms": "1200",
		"exit_code": "oops",
		"memory_cache_hits": {"nested": true},
		"disk_cache_hits": null,
		"stdout": null
	}`

	var r Run
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, "run-7", r.ID)
	assert.Empty(t, r.StartedAt)
	require.NotNil(t, r.DurationMs)
	assert.EqualValues(t, 1200, *r.DurationMs)
	assert.Nil(t, r.ExitCode)
	assert.Nil(t, r.MemoryCacheHits)
	assert.Nil(t, r.DiskCacheHits)
	assert.Nil(t, r.ServerFetches)
	assert.Empty(t, r.Stdout)
	assert.False(t, r.Succeeded(), "missing exit code is not a success")
	assert.Empty(t, r.ExitCodeText())
}

func TestRunUnmarshalRejectsNonObject(t *testing.T) {
	t.Parallel()

	var r Run
	assert.Error(t, json.Unmarshal([]byte(`"not a record"`), &r))
}

func TestRunStarted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-03-01T10:00:00Z", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), true},
		{"2025-03-01T10:00:00.123456789Z", time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.UTC), true},
		{"2025-03-01 10:00:00", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), true},
		{"2025-03-01T12:00:00+02:00", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), true},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := Run{StartedAt: tt.in}.Started()
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "input %q: got %s", tt.in, got)
		}
	}
}

func TestRunOwner(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bob", Run{Username: "bob", Filename: "alice_x.py"}.Owner())
	assert.Equal(t, "alice", Run{Filename: "alice_x.py"}.Owner())
	assert.Equal(t, "", Run{Filename: "train.py"}.Owner())
	assert.Equal(t, "", Run{Filename: "_hidden.py"}.Owner())
	assert.Equal(t, "carol", Run{Username: "  carol "}.Owner())
}

func TestRunExitCodeText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1", Run{ExitCode: Int(1)}.ExitCodeText())
	assert.Equal(t, "-1", Run{ExitCode: Int(-1)}.ExitCodeText())
	assert.False(t, Run{ExitCode: Int(1)}.Succeeded())
}
