package seed

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/kilianp07/ridefair/core/model"
	coreseed "github.com/kilianp07/ridefair/core/seed"
	"github.com/kilianp07/ridefair/infra/logger"
)

// MySQLSink writes rides to a MySQL table with a spatial pickup column.
type MySQLSink struct {
	conf Conf
	log  logger.Logger
}

// NewMySQLSink validates conf and returns a sink. No connection is opened
// until Seed is called.
func NewMySQLSink(conf Conf) (*MySQLSink, error) {
	if err := conf.normalize(); err != nil {
		return nil, err
	}
	return &MySQLSink{conf: conf, log: logger.New("seed-mysql")}, nil
}

func (s *MySQLSink) schema() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        id INT AUTO_INCREMENT PRIMARY KEY,
        pickup_loc POINT NOT NULL SRID 4326,
        distance_km DOUBLE,
        hour_of_day INT,
        is_weekend BOOLEAN,
        price_paid DOUBLE,
        is_scam BOOLEAN
    )`, s.conf.Table)
}

// Seed implements coreseed.Sink.
func (s *MySQLSink) Seed(ctx context.Context, recs []model.RideRecord) (int, error) {
	db, err := sql.Open("mysql", s.conf.DSN)
	if err != nil {
		return 0, coreseed.Failure("open", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			s.log.Warnf("close mysql: %v", cerr)
		}
	}()
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return 0, coreseed.Failure("ping", err)
	}
	if s.conf.CreateSchema {
		if _, err := db.ExecContext(ctx, s.schema()); err != nil {
			return 0, coreseed.Failure("create schema", err)
		}
	}

	query := fmt.Sprintf(`INSERT INTO %s (pickup_loc, distance_km, hour_of_day, is_weekend, price_paid, is_scam)
        VALUES (ST_GeomFromText(?, 4326, 'axis-order=long-lat'), ?, ?, ?, ?, ?)`, s.conf.Table)
	n, err := insertEach(ctx, recs, func(ctx context.Context, r row) error {
		_, err := db.ExecContext(ctx, query, r.Pickup, r.DistanceKM, r.Hour, r.IsWeekend, r.PricePaid, r.IsScam)
		return err
	})
	s.log.Infof("seeded %d/%d rides into mysql table %s", n, len(recs), s.conf.Table)
	return n, err
}
