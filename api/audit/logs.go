// Package audit exposes the prediction audit log over HTTP.
package audit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	coreaudit "github.com/kilianp07/ridefair/core/audit"
	"github.com/kilianp07/ridefair/pkg/export"
)

// NewLogHandler returns an HTTP handler exposing prediction logs via GET /api/logs.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
//
// Query parameters: start and end (RFC3339), kind, verdict, limit, and
// format ("json" or "csv").
func NewLogHandler(store coreaudit.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		switch r.URL.Query().Get("format") {
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="prediction_logs.csv"`)
			err = export.WriteCSV(w, records)
		case "", "json":
			w.Header().Set("Content-Type", "application/json")
			err = export.WriteJSON(w, records)
		default:
			http.Error(w, "format must be json or csv", http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func parseQuery(r *http.Request) (coreaudit.LogQuery, error) {
	v := r.URL.Query()
	q := coreaudit.LogQuery{Kind: v.Get("kind"), Verdict: v.Get("verdict")}
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, fmt.Errorf("invalid start: %w", err)
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, fmt.Errorf("invalid end: %w", err)
		}
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil || q.Limit < 0 {
			return q, fmt.Errorf("invalid limit %q", s)
		}
	}
	return q, nil
}
