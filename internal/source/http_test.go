package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickspencer/runboard/internal/config"
)

const statsBody = `[
  {"id": 2, "filename": "bob_job.py", "started_at": "2025-03-02T10:00:00Z", "duration_ms": 1200, "exit_code": 1, "stdout": "", "stderr": "boom"},
  {"id": "1", "filename": "alice_job.py", "started_at": "2025-03-01T10:00:00Z", "duration_ms": "oops", "exit_code": 0}
]`

func TestHTTPSourceFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, statsBody)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/stats", HTTPOptions{})
	runs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "2", runs[0].ID)
	assert.Equal(t, "boom", runs[0].Stderr)
	require.NotNil(t, runs[0].ExitCode)
	assert.Equal(t, 1, *runs[0].ExitCode)

	assert.Equal(t, "1", runs[1].ID)
	assert.Nil(t, runs[1].DurationMs, "malformed field decodes as missing")
	assert.True(t, runs[1].Succeeded())
	assert.Equal(t, srv.URL+"/stats", src.Endpoint())
}

func TestHTTPSourcePost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "[]", string(body))
		_, _ = io.WriteString(w, "[]")
	}))
	defer srv.Close()

	runs, err := NewHTTPSource(srv.URL, HTTPOptions{Method: "post"}).Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestHTTPSourceFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		"server error": {
			status: http.StatusInternalServerError,
			body:   "nope",
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusInternalServerError, se.Code)
			},
		},
		"object body": {
			status: http.StatusOK,
			body:   `{"runs": []}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotArray)
			},
		},
		"null body": {
			status: http.StatusOK,
			body:   `null`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotArray)
			},
		},
		"broken array": {
			status: http.StatusOK,
			body:   `[{"id": 1},`,
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrNotArray)
			},
		},
		"non-object element": {
			status: http.StatusOK,
			body:   `[1, 2]`,
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			runs, err := NewHTTPSource(srv.URL, HTTPOptions{}).Fetch(context.Background())
			require.Error(t, err)
			assert.Nil(t, runs)
			tc.check(t, err)
		})
	}
}

func TestHTTPSourceBodyLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "["+strings.Repeat(" ", 200)+"]")
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, HTTPOptions{MaxBodyBytes: 64}).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 64 bytes")
}

func TestHTTPSourceUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(url, HTTPOptions{Timeout: time.Second}).Fetch(context.Background())
	assert.Error(t, err)
}

func TestHTTPSourceCancelled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSource(srv.URL, HTTPOptions{}).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	src, err := New(config.SourceConfig{Kind: config.SourceHTTP, Endpoint: "http://example/stats", Timeout: "2s"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)

	src, err = New(config.SourceConfig{Kind: config.SourceSQLite, DBPath: "/tmp/runs.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/runs.db", src.Endpoint())

	_, err = New(config.SourceConfig{Kind: "ftp"})
	assert.Error(t, err)

	_, err = New(config.SourceConfig{Kind: config.SourceHTTP, Timeout: "soon"})
	assert.Error(t, err)
}
