package seed

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/ridefair/core/model"
	coreseed "github.com/kilianp07/ridefair/core/seed"
	"github.com/kilianp07/ridefair/infra/logger"
)

// SQLiteSink writes rides to a local SQLite file. The pickup location is
// stored as WKT text since SQLite has no native geometry type. The table is
// always created when missing.
type SQLiteSink struct {
	conf Conf
	log  logger.Logger
}

// NewSQLiteSink validates conf and returns a sink.
func NewSQLiteSink(conf Conf) (*SQLiteSink, error) {
	if err := conf.normalize(); err != nil {
		return nil, err
	}
	return &SQLiteSink{conf: conf, log: logger.New("seed-sqlite")}, nil
}

// Seed implements coreseed.Sink.
func (s *SQLiteSink) Seed(ctx context.Context, recs []model.RideRecord) (int, error) {
	db, err := sql.Open("sqlite", s.conf.DSN)
	if err != nil {
		return 0, coreseed.Failure("open", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			s.log.Warnf("close sqlite: %v", cerr)
		}
	}()
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        pickup_loc TEXT NOT NULL,
        distance_km REAL,
        hour_of_day INTEGER,
        is_weekend INTEGER,
        price_paid REAL,
        is_scam INTEGER
    )`, s.conf.Table)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return 0, coreseed.Failure("create schema", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (pickup_loc, distance_km, hour_of_day, is_weekend, price_paid, is_scam)
        VALUES (?, ?, ?, ?, ?, ?)`, s.conf.Table)
	n, err := insertEach(ctx, recs, func(ctx context.Context, r row) error {
		_, err := db.ExecContext(ctx, query, r.Pickup, r.DistanceKM, r.Hour, r.IsWeekend, r.PricePaid, r.IsScam)
		return err
	})
	s.log.Debugf("seeded %d/%d rides into %s", n, len(recs), s.conf.DSN)
	return n, err
}
