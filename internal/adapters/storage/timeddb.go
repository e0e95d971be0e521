package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"gradebook/internal/adapters/http/perf"
)

// SQLDB is what the sheet store needs from a database.
// Both *sql.DB and *TimedDB satisfy it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery is the threshold above which a statement is logged as slow.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB times every statement of the sheet store. Each timing goes to the
// collector under "<op> <table>", and statements slower than the threshold
// are logged at warn level.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	slow      time.Duration
}

// NewTimedDB wraps db. A zero slow threshold uses DefaultSlowQuery; a nil
// collector only logs.
// PRE: db is open and migrated
func NewTimedDB(db *sql.DB, collector *perf.Collector, slow time.Duration) *TimedDB {
	if slow <= 0 {
		slow = DefaultSlowQuery
	}
	return &TimedDB{db: db, collector: collector, slow: slow}
}

// observe records one statement.
func (t *TimedDB) observe(op, query string, start time.Time, err error) {
	elapsed := time.Since(start)
	path := op
	if table := tableOf(query); table != "" {
		path += " " + table
	}
	ms := float64(elapsed.Microseconds()) / 1000.0

	switch {
	case err != nil:
		slog.Warn("query_failed", "op", path, "duration_ms", ms, "error", err)
	case elapsed >= t.slow:
		slog.Warn("slow_query", "op", path, "duration_ms", ms)
	default:
		slog.Debug("query", "op", path, "duration_ms", ms)
	}

	if t.collector != nil {
		t.collector.Record(perf.Entry{Kind: perf.KindQuery, Path: path, DurationMs: ms, Timestamp: start})
	}
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.db.ExecContext(ctx, query, args...)
	t.observe("exec", query, start, err)
	return res, err
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe("query", query, start, err)
	return rows, err
}

// QueryRowContext defers errors to Scan, so failures are not logged here.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe("query_row", query, start, nil)
	return row
}

// BeginTx times opening the transaction only; statements run on the
// returned *sql.Tx are not observed.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe("begin", "", start, err)
	return tx, err
}

// tableOf returns the first table named after FROM, INTO or UPDATE in query.
func tableOf(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields[:max(len(fields)-1, 0)] {
		switch strings.ToUpper(f) {
		case "FROM", "INTO", "UPDATE":
			return strings.Trim(fields[i+1], "(;`\"")
		}
	}
	return ""
}
