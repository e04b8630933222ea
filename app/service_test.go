package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridefair/config"
	"github.com/kilianp07/ridefair/core/audit"
	"github.com/kilianp07/ridefair/core/bundle"
	"github.com/kilianp07/ridefair/core/generator"
	"github.com/kilianp07/ridefair/core/trainer"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Training.RecordCount = 600
	cfg.Artifact.Path = filepath.Join(dir, "models", "all_models.json")
	cfg.Audit.Backend = "jsonl"
	cfg.Audit.Path = filepath.Join(dir, "predictions.log")
	cfg.Server.LogsToken = "secret"
	return cfg
}

func trainInto(t *testing.T, cfg *config.Config) {
	t.Helper()
	b, err := trainer.Train(generator.New(cfg.Training).Generate(cfg.Training.RecordCount), cfg.Training)
	require.NoError(t, err)
	require.NoError(t, bundle.NewFileStore(cfg.Artifact.Path).Save(b))
}

func TestNewMissingArtifact(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, bundle.ErrArtifactMissing)
	assert.Contains(t, err.Error(), "model artifact not found at "+cfg.Artifact.Path)
	assert.Contains(t, err.Error(), "run 'ridefair train' first")
}

func TestServiceEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	trainInto(t, cfg)

	svc, err := New(cfg)
	require.NoError(t, err)
	svc.Start(context.Background())
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/detect-scam", "application/json", strings.NewReader(`{"distance_km": 5, "price_asked": 400}`))
	require.NoError(t, err)
	var scam map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scam))
	resp.Body.Close()
	assert.Equal(t, "SCAM", scam["verdict"])

	resp, err = http.Post(srv.URL+"/predict-price", "application/json", strings.NewReader(`{"distance_km": 5, "hour": 9, "is_weekend": 0}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// CORS preflight
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/predict-price", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	// logs endpoint is protected
	resp, err = http.Get(srv.URL + LogsPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, svc.Close())

	store, err := audit.NewJSONLStore(cfg.Audit.Path)
	require.NoError(t, err)
	recs, err := store.Query(context.Background(), audit.LogQuery{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "scam", recs[0].Kind)
	assert.Equal(t, "SCAM", recs[0].Verdict)
	assert.Equal(t, "price", recs[1].Kind)
	assert.Greater(t, recs[1].FairPrice, 0.0)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Address = "127.0.0.1:0"
	trainInto(t, cfg)
	svc, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()
	cancel()
	require.NoError(t, <-errCh)
	require.NoError(t, svc.Close())
}

func TestInitMonitoringDisabled(t *testing.T) {
	flush, err := InitMonitoring(config.SentryConfig{})
	require.NoError(t, err)
	assert.NotPanics(t, flush)
}
