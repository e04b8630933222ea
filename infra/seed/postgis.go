package seed

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/kilianp07/ridefair/core/model"
	coreseed "github.com/kilianp07/ridefair/core/seed"
	"github.com/kilianp07/ridefair/infra/logger"
)

// PostGISSink writes rides to a PostgreSQL table with a PostGIS geometry column.
type PostGISSink struct {
	conf Conf
	log  logger.Logger
}

// NewPostGISSink validates conf and returns a sink.
func NewPostGISSink(conf Conf) (*PostGISSink, error) {
	if err := conf.normalize(); err != nil {
		return nil, err
	}
	return &PostGISSink{conf: conf, log: logger.New("seed-postgis")}, nil
}

func (s *PostGISSink) schema() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id SERIAL PRIMARY KEY,
            pickup_loc geometry(Point, 4326) NOT NULL,
            distance_km DOUBLE PRECISION,
            hour_of_day INTEGER,
            is_weekend BOOLEAN,
            price_paid DOUBLE PRECISION,
            is_scam BOOLEAN
        )`, s.conf.Table),
	}
}

// Seed implements coreseed.Sink.
func (s *PostGISSink) Seed(ctx context.Context, recs []model.RideRecord) (int, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", s.conf.DSN)
	if err != nil {
		return 0, coreseed.Failure("connect", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			s.log.Warnf("close postgres: %v", cerr)
		}
	}()
	if s.conf.CreateSchema {
		for _, stmt := range s.schema() {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return 0, coreseed.Failure("create schema", err)
			}
		}
	}

	query := fmt.Sprintf(`INSERT INTO %s (pickup_loc, distance_km, hour_of_day, is_weekend, price_paid, is_scam)
        VALUES (ST_SetSRID(ST_MakePoint(:lon, :lat), 4326), :distance_km, :hour_of_day, :is_weekend, :price_paid, :is_scam)`, s.conf.Table)
	n, err := insertEach(ctx, recs, func(ctx context.Context, r row) error {
		_, err := db.NamedExecContext(ctx, query, r)
		return err
	})
	s.log.Infof("seeded %d/%d rides into postgis table %s", n, len(recs), s.conf.Table)
	return n, err
}
