// Package ui serves the HTML run list and its embedded assets.
package ui

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/patrickspencer/runboard/internal/refresh"
	"github.com/patrickspencer/runboard/internal/view"
)

//go:embed static/*
var assets embed.FS

// Static serves the embedded script and stylesheet.
func Static() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(sub))
}

// RunSet is the refresher as seen by the pages.
type RunSet interface {
	Current() refresh.Snapshot
	Refresh(ctx context.Context) (refresh.Snapshot, bool)
}

// Pages renders the run list as a full page or as a bare fragment.
type Pages struct {
	Runs     RunSet
	Renderer view.Renderer
	Title    string
	Logger   *slog.Logger
}

type pageData struct {
	Title      string
	Query      string
	Layout     string
	Endpoint   string
	SnapshotID string
	FetchedAt  string
	Count      int
	Header     template.HTML
	Rows       template.HTML
	Activity   template.HTML
}

// renderer applies the ?layout= override to the configured renderer.
func (p *Pages) renderer(r *http.Request) (view.Renderer, error) {
	rd := p.Renderer
	if raw := r.URL.Query().Get("layout"); raw != "" {
		layout, err := view.ParseLayout(raw)
		if err != nil {
			return rd, err
		}
		rd.Mode.Layout = layout
	}
	return rd, nil
}

// Fragment renders the selected runs of snap, or the error placeholder when
// the last refresh failed.
func Fragment(rd view.Renderer, snap refresh.Snapshot, query string) string {
	if snap.Err != nil {
		return rd.Error(snap.Endpoint)
	}
	return rd.List(view.Select(snap.Records, query))
}

// WritePage writes a complete HTML document listing the runs of snap that
// match query.
func WritePage(w io.Writer, rd view.Renderer, snap refresh.Snapshot, query, title string) error {
	data := pageData{
		Title:      title,
		Query:      query,
		Layout:     string(rd.Mode.Layout),
		Endpoint:   snap.Endpoint,
		SnapshotID: snap.ID,
		Count:      len(snap.Records),
		Header:     template.HTML(rd.Header()),
		Rows:       template.HTML(Fragment(rd, snap, query)),
	}
	if data.Layout == "" {
		data.Layout = string(view.LayoutTable)
	}
	if !snap.FetchedAt.IsZero() {
		data.FetchedAt = snap.FetchedAt.UTC().Format("2006-01-02 15:04:05Z")
	}
	if rd.Mode.ShowActivity && snap.Err == nil {
		data.Activity = template.HTML(rd.Activity(snap.Records))
	}
	return pageTemplate.ExecuteTemplate(w, "base", data)
}

// HandlePage serves GET /.
func (p *Pages) HandlePage(w http.ResponseWriter, r *http.Request) {
	rd, err := p.renderer(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := WritePage(w, rd, p.Runs.Current(), r.URL.Query().Get("q"), p.title()); err != nil {
		p.logger().Error("render page", "error", err)
	}
}

// HandleFragment serves GET /runs.
func (p *Pages) HandleFragment(w http.ResponseWriter, r *http.Request) {
	p.writeFragment(w, r, p.Runs.Current())
}

// HandleRefresh serves POST /refresh: it refreshes, then returns the fragment
// for whatever snapshot is current afterwards.
func (p *Pages) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, applied := p.Runs.Refresh(r.Context())
	if !applied {
		snap = p.Runs.Current()
	}
	p.writeFragment(w, r, snap)
}

func (p *Pages) writeFragment(w http.ResponseWriter, r *http.Request, snap refresh.Snapshot) {
	rd, err := p.renderer(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if snap.ID != "" {
		w.Header().Set("X-Snapshot-Id", snap.ID)
	}
	_, _ = w.Write([]byte(Fragment(rd, snap, r.URL.Query().Get("q"))))
}

func (p *Pages) title() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return "runboard"
}

func (p *Pages) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
