package seed

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kilianp07/ridefair/core/model"
	coreseed "github.com/kilianp07/ridefair/core/seed"
)

// DefaultTable is the table rides are written to.
const DefaultTable = "ride_data"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Conf is the decoded form of a seed sink's module settings.
type Conf struct {
	DSN          string `json:"dsn"`
	Table        string `json:"table"`
	CreateSchema bool   `json:"create_schema"`
}

func (c *Conf) normalize() error {
	if c.DSN == "" {
		return fmt.Errorf("dsn required")
	}
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if !identRe.MatchString(c.Table) {
		return fmt.Errorf("invalid table name %q", c.Table)
	}
	return nil
}

// row is a ride in the column layout of the historical table.
type row struct {
	Pickup     string  `db:"pickup"`
	Lat        float64 `db:"lat"`
	Lon        float64 `db:"lon"`
	DistanceKM float64 `db:"distance_km"`
	Hour       int     `db:"hour_of_day"`
	IsWeekend  bool    `db:"is_weekend"`
	PricePaid  float64 `db:"price_paid"`
	IsScam     bool    `db:"is_scam"`
}

func toRow(r model.RideRecord) row {
	return row{
		Pickup:     coreseed.Point(r.Latitude, r.Longitude),
		Lat:        r.Latitude,
		Lon:        r.Longitude,
		DistanceKM: r.DistanceKM,
		Hour:       r.HourOfDay,
		IsWeekend:  r.IsWeekend,
		PricePaid:  r.PricePaid,
		IsScam:     r.IsScam,
	}
}

// insertEach runs insert for every record in order and stops at the first
// failure. It returns how many rows were written.
func insertEach(ctx context.Context, recs []model.RideRecord, insert func(context.Context, row) error) (int, error) {
	for i, r := range recs {
		if err := ctx.Err(); err != nil {
			return i, coreseed.Failure("insert", err)
		}
		if err := insert(ctx, toRow(r)); err != nil {
			return i, coreseed.Failure(fmt.Sprintf("insert row %d", i), err)
		}
	}
	return len(recs), nil
}
