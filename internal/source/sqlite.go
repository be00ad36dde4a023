package source

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/patrickspencer/runboard/internal/record"
	_ "modernc.org/sqlite"
)

// SQLiteSource reads the runs table of a runner's log database. The database
// is opened read-only for each Fetch and is never written.
type SQLiteSource struct {
	path string
}

// NewSQLiteSource returns a source reading runs from the database at path.
func NewSQLiteSource(path string) *SQLiteSource {
	return &SQLiteSource{path: path}
}

// Endpoint returns the database path.
func (s *SQLiteSource) Endpoint() string {
	return s.path
}

// dsn builds a read-only SQLite URI. Each path segment is percent-escaped so
// '?', '#' and '%' in a file name cannot end the path or alter the query.
func (s *SQLiteSource) dsn() string {
	segments := strings.Split(filepath.ToSlash(s.path), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "file:" + strings.Join(segments, "/") + "?mode=ro"
}

// Fetch returns every row of the runs table, newest id first.
func (s *SQLiteSource) Fetch(ctx context.Context) ([]record.Run, error) {
	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", s.path, err)
	}
	defer db.Close()

	withUser, err := hasColumn(ctx, db, "runs", "username")
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", s.path, err)
	}

	userCol := "NULL"
	if withUser {
		userCol = "username"
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, filename, started_at, duration_ms, stdout, stderr, exit_code,
			memory_cache_hits, disk_cache_hits, server_fetches, `+userCol+`
		FROM runs
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs in %s: %w", s.path, err)
	}
	defer rows.Close()

	runs := []record.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run in %s: %w", s.path, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read runs in %s: %w", s.path, err)
	}
	return runs, nil
}

func hasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanRun(row interface{ Scan(...any) error }) (record.Run, error) {
	var id, filename, startedAt, stdout, stderr, username sql.NullString
	var durationMs, exitCode, memHits, diskHits, fetches sql.NullInt64

	err := row.Scan(
		&id,
		&filename,
		&startedAt,
		&durationMs,
		&stdout,
		&stderr,
		&exitCode,
		&memHits,
		&diskHits,
		&fetches,
		&username,
	)
	if err != nil {
		return record.Run{}, err
	}

	r := record.Run{
		ID:              id.String,
		Filename:        filename.String,
		StartedAt:       startedAt.String,
		Username:        username.String,
		Stdout:          stdout.String,
		Stderr:          stderr.String,
		DurationMs:      nullableInt64(durationMs),
		MemoryCacheHits: nullableInt64(memHits),
		DiskCacheHits:   nullableInt64(diskHits),
		ServerFetches:   nullableInt64(fetches),
	}
	if exitCode.Valid {
		r.ExitCode = record.Int(int(exitCode.Int64))
	}
	return r, nil
}

func nullableInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return record.Int64(v.Int64)
}
