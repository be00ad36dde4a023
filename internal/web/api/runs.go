package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/patrickspencer/runboard/internal/record"
	"github.com/patrickspencer/runboard/internal/refresh"
	"github.com/patrickspencer/runboard/internal/view"
)

type runsResponse struct {
	Generation uint64       `json:"generation"`
	SnapshotID string       `json:"snapshot_id"`
	Endpoint   string       `json:"endpoint"`
	FetchedAt  time.Time    `json:"fetched_at"`
	Total      int          `json:"total"`
	Runs       []record.Run `json:"runs"`
}

// ensureLoaded writes an error response and returns false when snap has no
// records to serve.
func (a *API) ensureLoaded(w http.ResponseWriter, snap refresh.Snapshot) bool {
	switch {
	case !snap.Loaded():
		a.writeError(w, http.StatusServiceUnavailable, "runs not loaded yet")
		return false
	case snap.Err != nil:
		a.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":    "Failed to load runs from " + snap.Endpoint,
			"endpoint": snap.Endpoint,
			"detail":   snap.Err.Error(),
		})
		return false
	}
	return true
}

func (a *API) handleListRuns(w http.ResponseWriter, r *http.Request) {
	snap := a.Runs.Current()
	if !a.ensureLoaded(w, snap) {
		return
	}

	q := r.URL.Query()
	query := q.Get("q")
	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	etag := listETag(snap.ID, query, offset, limit)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	selected := view.Select(snap.Records, query)
	total := len(selected)
	selected = selected[min(offset, len(selected)):]
	if limit > 0 && limit < len(selected) {
		selected = selected[:limit]
	}

	a.writeJSON(w, http.StatusOK, runsResponse{
		Generation: snap.Generation,
		SnapshotID: snap.ID,
		Endpoint:   snap.Endpoint,
		FetchedAt:  snap.FetchedAt.UTC(),
		Total:      total,
		Runs:       selected,
	})
}

// listETag names one page of one snapshot. The bare snapshot ID tags the
// unfiltered, unpaged list.
func listETag(snapshotID, query string, offset, limit int) string {
	if query == "" && offset == 0 && limit == 0 {
		return `"` + snapshotID + `"`
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%d\x00%d", query, offset, limit)
	return fmt.Sprintf(`"%s-%016x"`, snapshotID, h.Sum64())
}

func (a *API) handleGetRun(w http.ResponseWriter, r *http.Request) {
	snap := a.Runs.Current()
	if !a.ensureLoaded(w, snap) {
		return
	}

	id := chi.URLParam(r, "id")
	for _, run := range snap.Records {
		if run.ID == id {
			a.writeJSON(w, http.StatusOK, run)
			return
		}
	}
	a.writeError(w, http.StatusNotFound, "run not found")
}

type refreshResponse struct {
	Applied    bool   `json:"applied"`
	Generation uint64 `json:"generation"`
	SnapshotID string `json:"snapshot_id"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, applied := a.Runs.Refresh(r.Context())
	resp := refreshResponse{
		Applied:    applied,
		Generation: snap.Generation,
		SnapshotID: snap.ID,
		Count:      len(snap.Records),
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	a.writeJSON(w, http.StatusOK, resp)
}
