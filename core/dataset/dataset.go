// Package dataset reads and writes ride records as CSV using the column
// names of the historical ride export.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/ridefair/core/model"
)

// Column names, in the order WriteCSV emits them.
const (
	ColLat       = "lat"
	ColLon       = "lon"
	ColDistance  = "dist_km"
	ColHour      = "hour"
	ColIsWeekend = "is_weekend"
	ColPrice     = "price"
	ColIsScam    = "is_scam"
)

// Columns lists every required column.
var Columns = []string{ColLat, ColLon, ColDistance, ColHour, ColIsWeekend, ColPrice, ColIsScam}

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrEmpty is returned when the input holds no data rows.
	ErrEmpty = errors.New("empty dataset")
)

// ReadCSV parses rides from r. Column order is free and unknown columns are ignored.
func ReadCSV(r io.Reader) ([]model.RideRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var out []model.RideRecord
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func parseRow(row []string, idx map[string]int) (model.RideRecord, error) {
	var (
		rec model.RideRecord
		err error
	)
	num := func(col string) float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = strconv.ParseFloat(strings.TrimSpace(row[idx[col]]), 64)
		if err != nil {
			err = fmt.Errorf("%s: %w", col, err)
		}
		return v
	}
	flag := func(col string) bool {
		v := num(col)
		if err == nil && v != 0 && v != 1 {
			err = fmt.Errorf("%s: expected 0 or 1, got %v", col, v)
		}
		return v == 1
	}
	rec.Latitude = num(ColLat)
	rec.Longitude = num(ColLon)
	rec.DistanceKM = num(ColDistance)
	hour := num(ColHour)
	if err == nil && (hour != math.Trunc(hour) || hour < 0 || hour > 23) {
		err = fmt.Errorf("%s: expected an integer in [0,23], got %v", ColHour, hour)
	}
	rec.HourOfDay = int(hour)
	rec.IsWeekend = flag(ColIsWeekend)
	rec.PricePaid = num(ColPrice)
	rec.IsScam = flag(ColIsScam)
	return rec, err
}

// WriteCSV writes recs with a header row.
func WriteCSV(w io.Writer, recs []model.RideRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
			strconv.FormatFloat(r.DistanceKM, 'f', -1, 64),
			strconv.Itoa(r.HourOfDay),
			flagString(r.IsWeekend),
			strconv.FormatFloat(r.PricePaid, 'f', -1, 64),
			flagString(r.IsScam),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func flagString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
