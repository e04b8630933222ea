// Package export renders prediction audit records for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/ridefair/core/audit"
)

// CSVHeader is the column order of WriteCSV.
var CSVHeader = []string{
	"id", "timestamp", "kind", "distance_km", "hour", "is_weekend",
	"price_asked", "fair_price", "verdict", "scam_probability", "hotspots", "error", "latency_ms",
}

// WriteJSON writes the records to w as a JSON array. A nil slice is written as [].
func WriteJSON(w io.Writer, records []audit.LogRecord) error {
	if records == nil {
		records = []audit.LogRecord{}
	}
	return json.NewEncoder(w).Encode(records)
}

// WriteCSV writes the records to w in CSV format with a header row.
func WriteCSV(w io.Writer, records []audit.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.ID,
			r.Timestamp.Format(time.RFC3339Nano),
			r.Kind,
			formatFloat(r.DistanceKM),
			strconv.Itoa(r.Hour),
			strconv.FormatBool(r.IsWeekend),
			formatFloat(r.PriceAsked),
			formatFloat(r.FairPrice),
			r.Verdict,
			formatFloat(r.ScamProbability),
			strconv.Itoa(r.Hotspots),
			r.Error,
			formatFloat(r.LatencyMS),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
