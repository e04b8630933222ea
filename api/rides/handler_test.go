package rides

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridefair/core/bundle"
	coremetrics "github.com/kilianp07/ridefair/core/metrics"
	"github.com/kilianp07/ridefair/core/ml"
	"github.com/kilianp07/ridefair/core/predict"
)

type capture struct {
	mu     sync.Mutex
	events []coremetrics.PredictionEvent
}

func (c *capture) Publish(ev coremetrics.PredictionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func newServer(t *testing.T) (*httptest.Server, *capture) {
	t.Helper()
	svc, err := predict.New(&bundle.Bundle{
		PriceModel: &ml.LinearRegression{Intercept: 30, Coef: []float64{14, 0.5, 20}},
		ScamModel: &ml.LogisticRegression{
			Coef: []float64{0, 0, 1}, Mean: []float64{0, 0, 20}, Scale: []float64{1, 1, 1}, Threshold: 0.5,
		},
		HotspotModel: &ml.KMeans{Centers: [][]float64{{28.54, 77.33}, {28.58, 77.38}}},
	})
	require.NoError(t, err)
	events := &capture{}
	mux := http.NewServeMux()
	NewHandler(svc, events, nil).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, events
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestRoot(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, OnlineMessage, out["message"])

	resp2, err := http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestPredictPrice(t *testing.T) {
	srv, events := newServer(t)
	resp, out := post(t, srv.URL+"/predict-price", `{"distance_km": 5, "hour": 9, "is_weekend": 0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 104.5, out["fair_price"])
	assert.Equal(t, predict.PriceMessage, out["message"])

	require.Len(t, events.events, 1)
	ev := events.events[0]
	assert.Equal(t, coremetrics.KindPrice, ev.Kind)
	assert.Equal(t, 104.5, ev.FairPrice)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Rejected())
}

func TestDetectScam(t *testing.T) {
	srv, events := newServer(t)
	resp, out := post(t, srv.URL+"/detect-scam", `{"distance_km": 5, "price_asked": 300}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, predict.VerdictScam, out["verdict"])
	assert.Equal(t, 100.0, out["scam_probability"])
	assert.Equal(t, predict.ScamWarning, out["warning"])

	_, out = post(t, srv.URL+"/detect-scam", `{"distance_km": 5, "price_asked": 50}`)
	assert.Equal(t, predict.VerdictFair, out["verdict"])
	assert.Equal(t, predict.FairWarning, out["warning"])

	require.Len(t, events.events, 2)
	assert.Equal(t, predict.VerdictScam, events.events[0].Verdict)
}

func TestHotspots(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/hotspots")
	require.NoError(t, err)
	defer resp.Body.Close()
	var out HotspotsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Hotspots, 2)
	assert.Equal(t, 28.54, out.Hotspots[0].Lat)
	assert.Equal(t, 77.33, out.Hotspots[0].Lon)

	chart, err := http.Get(srv.URL + "/hotspots/chart")
	require.NoError(t, err)
	defer chart.Body.Close()
	assert.Equal(t, http.StatusOK, chart.StatusCode)
	assert.Contains(t, chart.Header.Get("Content-Type"), "text/html")
}

func TestRequestErrors(t *testing.T) {
	srv, events := newServer(t)
	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed json", "/predict-price", `{"distance_km": 5,`, http.StatusBadRequest},
		{"unknown field", "/predict-price", `{"distance_km": 5, "hour": 9, "is_weekend": 0, "city": "x"}`, http.StatusBadRequest},
		{"trailing data", "/detect-scam", `{"distance_km": 5, "price_asked": 1} {}`, http.StatusBadRequest},
		{"missing hour", "/predict-price", `{"distance_km": 5, "is_weekend": 0}`, http.StatusUnprocessableEntity},
		{"weekend not a flag", "/predict-price", `{"distance_km": 5, "hour": 9, "is_weekend": 2}`, http.StatusUnprocessableEntity},
		{"wrong type", "/predict-price", `{"distance_km": "far", "hour": 9, "is_weekend": 0}`, http.StatusUnprocessableEntity},
		{"hour out of range", "/predict-price", `{"distance_km": 5, "hour": 24, "is_weekend": 0}`, http.StatusUnprocessableEntity},
		{"zero distance", "/predict-price", `{"distance_km": 0, "hour": 9, "is_weekend": 1}`, http.StatusUnprocessableEntity},
		{"negative price", "/detect-scam", `{"distance_km": 5, "price_asked": -1}`, http.StatusUnprocessableEntity},
		{"missing price", "/detect-scam", `{"distance_km": 5}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := post(t, srv.URL+tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}

	// only domain rejections reach the bus
	rejected := 0
	for _, ev := range events.events {
		if ev.Rejected() {
			rejected++
		}
	}
	assert.Equal(t, 3, rejected)
}

func TestWrongMethod(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/predict-price")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestZeroDistanceScamIsAnswered(t *testing.T) {
	srv, _ := newServer(t)
	resp, out := post(t, srv.URL+"/detect-scam", `{"distance_km": 0, "price_asked": 100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, []any{predict.VerdictScam, predict.VerdictFair}, out["verdict"])
}
