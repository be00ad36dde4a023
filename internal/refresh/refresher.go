// Package refresh owns the current run set and replaces it on each refresh.
package refresh

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/patrickspencer/runboard/internal/realtime"
	"github.com/patrickspencer/runboard/internal/record"
	"github.com/patrickspencer/runboard/internal/source"
)

// Snapshot is the outcome of one applied refresh. Records and Err are never
// both set.
type Snapshot struct {
	Generation uint64
	ID         string
	Records    []record.Run
	Err        error
	Endpoint   string
	FetchedAt  time.Time
}

// Loaded reports whether any refresh has been applied.
func (s Snapshot) Loaded() bool {
	return s.Generation > 0
}

// Publisher receives change notifications.
type Publisher interface {
	Publish(evt realtime.Event)
}

// Refresher fetches from a source and keeps only the latest result.
type Refresher struct {
	src    source.Source
	events Publisher
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	seq     uint64
	cancel  context.CancelFunc
	current Snapshot
}

// New creates a Refresher. events may be nil.
func New(src source.Source, events Publisher, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		src:     src,
		events:  events,
		logger:  logger,
		now:     time.Now,
		current: Snapshot{Endpoint: src.Endpoint()},
	}
}

func newSnapshotID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// Current returns the latest applied snapshot.
func (r *Refresher) Current() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Refresh fetches a fresh run set. Starting a refresh cancels the one in
// flight, and a result is applied only if no newer refresh started while it
// was fetching. A fetch that fails because ctx ended is discarded the same
// way, so a departed caller never replaces the run set with an error. The
// returned bool reports whether this call's result was applied; when it was
// not, the returned snapshot is the current one.
func (r *Refresher) Refresh(ctx context.Context) (Snapshot, bool) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	r.seq++
	gen := r.seq
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	r.mu.Unlock()

	start := r.now()
	runs, err := r.src.Fetch(fetchCtx)
	fetchedAt := r.now()

	snap := Snapshot{
		Generation: gen,
		ID:         newSnapshotID(fetchedAt),
		Endpoint:   r.src.Endpoint(),
		FetchedAt:  fetchedAt,
	}
	if err != nil {
		snap.Err = err
	} else {
		snap.Records = runs
	}

	r.mu.Lock()
	if gen != r.seq {
		cur := r.current
		r.mu.Unlock()
		r.logger.Debug("discarding stale refresh", "generation", gen, "latest", cur.Generation)
		return cur, false
	}
	if err != nil && ctx.Err() != nil {
		// The caller went away; the source is not at fault.
		r.cancel = nil
		cur := r.current
		r.mu.Unlock()
		r.logger.Debug("discarding abandoned refresh", "generation", gen, "error", err)
		return cur, false
	}
	r.current = snap
	r.cancel = nil
	r.mu.Unlock()

	elapsed := fetchedAt.Sub(start)
	evt := realtime.Event{
		Type:       realtime.TypeRefreshed,
		Generation: gen,
		SnapshotID: snap.ID,
		Count:      len(snap.Records),
		At:         fetchedAt.UTC(),
	}
	if err != nil {
		evt.Type = realtime.TypeFailed
		evt.Error = err.Error()
		r.logger.Warn("refresh failed", "endpoint", snap.Endpoint, "generation", gen, "duration", elapsed, "error", err)
	} else {
		r.logger.Info("refreshed runs", "endpoint", snap.Endpoint, "generation", gen, "count", len(runs), "duration", elapsed)
	}
	if r.events != nil {
		r.events.Publish(evt)
	}
	return snap, true
}
