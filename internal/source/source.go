// Package source fetches run records from a stats endpoint or a runs database.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickspencer/runboard/internal/config"
	"github.com/patrickspencer/runboard/internal/record"
)

// ErrNotArray is returned when a response body is not a JSON array.
var ErrNotArray = errors.New("response body is not a JSON array")

// Source produces the full current set of run records.
type Source interface {
	Fetch(ctx context.Context) ([]record.Run, error)
	// Endpoint names the source in error messages.
	Endpoint() string
}

// StatusError reports a non-2xx response from the stats endpoint.
type StatusError struct {
	Endpoint string
	Code     int
	Status   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %s", e.Endpoint, e.Status)
}

// New builds the Source described by cfg.
func New(cfg config.SourceConfig) (Source, error) {
	timeout, err := cfg.ParseTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid source timeout: %w", err)
	}

	switch cfg.Kind {
	case config.SourceHTTP, "":
		return NewHTTPSource(cfg.Endpoint, HTTPOptions{
			Method:       cfg.Method,
			Timeout:      timeout,
			MaxBodyBytes: cfg.MaxBodyBytes,
		}), nil
	case config.SourceSQLite:
		return NewSQLiteSource(cfg.DBPath), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// DefaultTimeout bounds a single fetch when no timeout is configured.
const DefaultTimeout = 10 * time.Second
