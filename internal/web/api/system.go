package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status     string     `json:"status"`
	Generation uint64     `json:"generation"`
	FetchedAt  *time.Time `json:"fetched_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if a.Runs != nil {
		snap := a.Runs.Current()
		resp.Generation = snap.Generation
		if !snap.FetchedAt.IsZero() {
			t := snap.FetchedAt.UTC()
			resp.FetchedAt = &t
		}
		if snap.Err != nil {
			resp.LastError = snap.Err.Error()
		}
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleConfig(w http.ResponseWriter, _ *http.Request) {
	if a.GetConfig == nil {
		a.writeError(w, http.StatusServiceUnavailable, "config provider unavailable")
		return
	}

	cfg := a.GetConfig()
	if cfg == nil {
		a.writeError(w, http.StatusServiceUnavailable, "config unavailable")
		return
	}

	a.writeJSON(w, http.StatusOK, cfg)
}
