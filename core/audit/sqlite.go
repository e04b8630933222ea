package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS prediction_logs (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    ts INTEGER NOT NULL,
    kind TEXT NOT NULL,
    distance_km REAL,
    hour INTEGER,
    is_weekend INTEGER,
    price_asked REAL,
    fair_price REAL,
    verdict TEXT,
    scam_probability REAL,
    hotspots INTEGER,
    error TEXT,
    latency_ms REAL
)`

const sqliteIndex = `CREATE INDEX IF NOT EXISTS prediction_logs_ts ON prediction_logs (ts)`

// sqliteRow is the column layout of prediction_logs.
type sqliteRow struct {
	ID              string  `db:"id"`
	TS              int64   `db:"ts"`
	Kind            string  `db:"kind"`
	DistanceKM      float64 `db:"distance_km"`
	Hour            int     `db:"hour"`
	IsWeekend       bool    `db:"is_weekend"`
	PriceAsked      float64 `db:"price_asked"`
	FairPrice       float64 `db:"fair_price"`
	Verdict         string  `db:"verdict"`
	ScamProbability float64 `db:"scam_probability"`
	Hotspots        int     `db:"hotspots"`
	Error           string  `db:"error"`
	LatencyMS       float64 `db:"latency_ms"`
}

func toRow(r LogRecord) sqliteRow {
	return sqliteRow{
		ID: r.ID, TS: r.Timestamp.UnixNano(), Kind: r.Kind,
		DistanceKM: r.DistanceKM, Hour: r.Hour, IsWeekend: r.IsWeekend,
		PriceAsked: r.PriceAsked, FairPrice: r.FairPrice, Verdict: r.Verdict,
		ScamProbability: r.ScamProbability, Hotspots: r.Hotspots, Error: r.Error,
		LatencyMS: r.LatencyMS,
	}
}

func (row sqliteRow) record() LogRecord {
	return LogRecord{
		ID: row.ID, Timestamp: time.Unix(0, row.TS).UTC(), Kind: row.Kind,
		DistanceKM: row.DistanceKM, Hour: row.Hour, IsWeekend: row.IsWeekend,
		PriceAsked: row.PriceAsked, FairPrice: row.FairPrice, Verdict: row.Verdict,
		ScamProbability: row.ScamProbability, Hotspots: row.Hotspots, Error: row.Error,
		LatencyMS: row.LatencyMS,
	}
}

// SQLiteStore persists records to a SQLite database, one column per field.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range []string{sqliteSchema, sqliteIndex} {
		if _, err = db.Exec(stmt); err != nil {
			break
		}
	}
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec LogRecord) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO prediction_logs
        (id, ts, kind, distance_km, hour, is_weekend, price_asked, fair_price, verdict, scam_probability, hotspots, error, latency_ms)
        VALUES (:id, :ts, :kind, :distance_km, :hour, :is_weekend, :price_asked, :fair_price, :verdict, :scam_probability, :hotspots, :error, :latency_ms)`,
		toRow(rec))
	return err
}

// Query returns records matching q in timestamp order. Limit keeps the most
// recent matches.
func (s *SQLiteStore) Query(ctx context.Context, q LogQuery) ([]LogRecord, error) {
	var (
		where []string
		args  []any
	)
	if !q.Start.IsZero() {
		where = append(where, `ts >= ?`)
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		where = append(where, `ts <= ?`)
		args = append(args, q.End.UnixNano())
	}
	if q.Kind != "" {
		where = append(where, `kind = ?`)
		args = append(args, q.Kind)
	}
	if q.Verdict != "" {
		where = append(where, `verdict = ?`)
		args = append(args, q.Verdict)
	}
	query := `SELECT id, ts, kind, distance_km, hour, is_weekend, price_asked, fair_price, verdict,
        scam_probability, hotspots, error, latency_ms FROM prediction_logs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY ts, seq`

	var rows []sqliteRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	res := make([]LogRecord, len(rows))
	for i, row := range rows {
		res[i] = row.record()
	}
	return q.truncate(res), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
