package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreaudit "github.com/kilianp07/ridefair/core/audit"
)

type memStore struct{ recs []coreaudit.LogRecord }

func (m *memStore) Append(_ context.Context, r coreaudit.LogRecord) error {
	m.recs = append(m.recs, r)
	return nil
}

func (m *memStore) Query(_ context.Context, q coreaudit.LogQuery) ([]coreaudit.LogRecord, error) {
	var res []coreaudit.LogRecord
	for _, r := range m.recs {
		if q.Match(r) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (m *memStore) Close() error { return nil }

func newStore(t *testing.T) *memStore {
	t.Helper()
	s := &memStore{}
	now := time.Now().UTC()
	require.NoError(t, s.Append(context.Background(), coreaudit.LogRecord{ID: "1", Timestamp: now, Kind: "price", FairPrice: 120}))
	require.NoError(t, s.Append(context.Background(), coreaudit.LogRecord{ID: "2", Timestamp: now, Kind: "scam", Verdict: "SCAM"}))
	return s
}

func TestLogHandler_AuthAndFilters(t *testing.T) {
	h := NewLogHandler(newStore(t), "tok")

	req := httptest.NewRequest(http.MethodGet, "/api/logs?kind=scam", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var out []coreaudit.LogRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "2", out[0].ID)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogHandler_CSV(t *testing.T) {
	h := NewLogHandler(newStore(t), "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/logs?format=csv", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestLogHandler_BadRequests(t *testing.T) {
	h := NewLogHandler(newStore(t), "")
	for _, target := range []string{
		"/api/logs?start=yesterday",
		"/api/logs?end=2026-13-01",
		"/api/logs?limit=-1",
		"/api/logs?format=xml",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/logs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
