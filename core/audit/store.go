// Package audit keeps a queryable log of answered predictions.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/ridefair/core/metrics"
)

// ErrClosed is returned when appending to a closed store.
var ErrClosed = errors.New("audit store closed")

// LogRecord captures one prediction request and its answer.
type LogRecord struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Kind            string    `json:"kind"`
	DistanceKM      float64   `json:"distance_km,omitempty"`
	Hour            int       `json:"hour,omitempty"`
	IsWeekend       bool      `json:"is_weekend,omitempty"`
	PriceAsked      float64   `json:"price_asked,omitempty"`
	FairPrice       float64   `json:"fair_price,omitempty"`
	Verdict         string    `json:"verdict,omitempty"`
	ScamProbability float64   `json:"scam_probability,omitempty"`
	Hotspots        int       `json:"hotspots,omitempty"`
	Error           string    `json:"error,omitempty"`
	LatencyMS       float64   `json:"latency_ms"`
}

// FromEvent converts a prediction event to a log record.
func FromEvent(ev metrics.PredictionEvent) LogRecord {
	return LogRecord{
		ID:              ev.ID,
		Timestamp:       ev.Time.UTC(),
		Kind:            string(ev.Kind),
		DistanceKM:      ev.DistanceKM,
		Hour:            ev.Hour,
		IsWeekend:       ev.IsWeekend,
		PriceAsked:      ev.PriceAsked,
		FairPrice:       ev.FairPrice,
		Verdict:         ev.Verdict,
		ScamProbability: ev.Probability,
		Hotspots:        ev.Hotspots,
		Error:           ev.Err,
		LatencyMS:       float64(ev.Latency.Microseconds()) / 1000,
	}
}

// LogQuery defines filters for retrieving records. Zero values match everything.
type LogQuery struct {
	Start   time.Time
	End     time.Time
	Kind    string
	Verdict string
	Limit   int
}

// Match reports whether r satisfies the time, kind and verdict filters.
func (q LogQuery) Match(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.Verdict != "" && r.Verdict != q.Verdict {
		return false
	}
	return true
}

// truncate keeps the most recent Limit records.
func (q LogQuery) truncate(recs []LogRecord) []LogRecord {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// NopStore drops every record.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }

// Options selects and configures a store for Open.
type Options struct {
	Backend    string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Open creates the store named by opts.Backend: "none", "jsonl",
// "jsonl_rotating" or "sqlite".
func Open(opts Options) (LogStore, error) {
	var (
		store LogStore
		err   error
	)
	switch opts.Backend {
	case "", "none":
		return NopStore{}, nil
	case "jsonl":
		store, err = NewJSONLStore(opts.Path)
	case "jsonl_rotating":
		store, err = NewRotatingJSONLStore(opts.Path, opts.MaxSizeMB, opts.MaxBackups, opts.MaxAgeDays)
	case "sqlite":
		store, err = NewSQLiteStore(opts.Path)
	default:
		return nil, fmt.Errorf("unknown audit backend %q", opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s audit store: %w", opts.Backend, err)
	}
	return store, nil
}
