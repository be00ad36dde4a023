// Package api serves the JSON and event-stream endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patrickspencer/runboard/internal/config"
	"github.com/patrickspencer/runboard/internal/realtime"
	"github.com/patrickspencer/runboard/internal/refresh"
)

// RunSet is the refresher as seen by the API.
type RunSet interface {
	Current() refresh.Snapshot
	Refresh(ctx context.Context) (refresh.Snapshot, bool)
}

// API holds dependencies for all API handlers.
type API struct {
	Runs      RunSet
	Events    *realtime.Broker
	GetConfig func() *config.Config
	Logger    *slog.Logger
}

// RegisterRoutes mounts the API under r.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/runs", a.handleListRuns)
	r.Get("/runs/{id}", a.handleGetRun)
	r.Post("/refresh", a.handleRefresh)
	r.Get("/events", a.handleEvents)
	r.Get("/config", a.handleConfig)
	r.Get("/health", a.handleHealth)
}

func (a *API) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// writeJSON writes a JSON response with the given status code.
func (a *API) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger().Error("failed to write JSON response", "error", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, map[string]string{"error": msg})
}
