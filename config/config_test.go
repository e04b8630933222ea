package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridefair/core/model"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `training:
  record_count: 500
  scam_rate: 0.2
  peak_windows:
    - start: 7
      end: 9
  seed: 7
artifact:
  path: "/tmp/bundle.json"
server:
  address: ":9000"
  allowed_origins: ["http://localhost:5173"]
seed:
  sink:
    type: "sqlite"
    conf:
      dsn: "file:seed.db"
  limit: 10
metrics:
  prometheus_address: ":9100"
  sinks:
    - type: "nop"
audit:
  backend: "sqlite"
  path: "audit.db"
mqtt:
  broker: "tcp://localhost:1883"
  alert_topic: "rides/alerts"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"record_count", cfg.Training.RecordCount, 500},
		{"scam_rate", cfg.Training.ScamRate, 0.2},
		{"cluster_count default", cfg.Training.ClusterCount, 3},
		{"seed", cfg.Training.Seed, int64(7)},
		{"peak_windows", len(cfg.Training.PeakWindows), 1},
		{"artifact", cfg.Artifact.Path, "/tmp/bundle.json"},
		{"address", cfg.Server.Address, ":9000"},
		{"origins", cfg.Server.AllowedOrigins[0], "http://localhost:5173"},
		{"seed type", cfg.Seed.Sink.Type, "sqlite"},
		{"seed dsn", cfg.Seed.Sink.Conf["dsn"], "file:seed.db"},
		{"seed limit", cfg.Seed.Limit, 10},
		{"prom", cfg.Metrics.PrometheusAddress, ":9100"},
		{"metrics sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"audit", cfg.Audit.Backend, "sqlite"},
		{"mqtt broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt topic", cfg.MQTT.AlertTopic, "rides/alerts"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	if cfg.Training.PeakWindows[0] != (model.PeakWindow{Start: 7, End: 9}) {
		t.Errorf("unexpected peak window %+v", cfg.Training.PeakWindows[0])
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"address":":8000"}}`), 0o644))
	t.Setenv("RIDEFAIR_SERVER__ADDRESS", ":8088")
	t.Setenv("RIDEFAIR_TRAINING__RECORD_COUNT", "300")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8088", cfg.Server.Address)
	assert.Equal(t, 300, cfg.Training.RecordCount)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "config.toml"))
	assert.Error(t, err, "unsupported extension")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "missing file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("training:\n  scam_rate: 1.5\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err, "scam rate out of range")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	tr := cfg.Training
	assert.Equal(t, 2000, tr.RecordCount)
	assert.Equal(t, 3, tr.ClusterCount)
	assert.Equal(t, 0.15, tr.ScamRate)
	assert.Equal(t, 25.0, tr.BaseFareValue())
	assert.Equal(t, 12.0, tr.PerKMRate)
	assert.Equal(t, 20.0, tr.WeekendSurchargeValue())
	assert.Equal(t, 1.4, tr.PeakMultiplier)
	assert.Equal(t, 0.5, tr.ScamThreshold)
	assert.Len(t, tr.Zones, 3)
	assert.Equal(t, 6, tr.OpenHour)
	assert.Equal(t, 22, tr.CloseHour)
	assert.Equal(t, "nop", cfg.Seed.Sink.Type)
	assert.Equal(t, 100, cfg.Seed.Limit)
	assert.Equal(t, "models/all_models.json", cfg.Artifact.Path)
}

func TestLoadKeepsExplicitZeroFares(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "training:\n  base_fare: 0\n  weekend_surcharge: 0\n  fair_noise: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Training.BaseFareValue())
	assert.Equal(t, 0.0, cfg.Training.WeekendSurchargeValue())
	assert.Equal(t, 0.0, cfg.Training.FairNoiseValue())

	var unset TrainingConfig
	assert.Equal(t, DefaultBaseFare, unset.BaseFareValue())
	assert.Equal(t, DefaultFairNoise, unset.FairNoiseValue())
}

func TestTrainingValidate(t *testing.T) {
	base := Default().Training
	cases := []struct {
		name   string
		mutate func(*TrainingConfig)
	}{
		{"bad window", func(c *TrainingConfig) { c.PeakWindows = []model.PeakWindow{{Start: 20, End: 8}} }},
		{"hour range", func(c *TrainingConfig) { c.CloseHour = 24 }},
		{"distance range", func(c *TrainingConfig) { c.MinDistanceKM = 20 }},
		{"threshold", func(c *TrainingConfig) { c.ScamThreshold = 1 }},
		{"multiplier", func(c *TrainingConfig) { c.ScamMultiplierMin = 0.5 }},
		{"no zones", func(c *TrainingConfig) { c.Zones = nil }},
		{"negative noise", func(c *TrainingConfig) { c.FairNoise = floatPtr(-1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			c.PeakWindows = append([]model.PeakWindow(nil), base.PeakWindows...)
			tc.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestAuditValidate(t *testing.T) {
	c := AuditConfig{Backend: "kafka"}
	c.SetDefaults()
	assert.Error(t, c.Validate())
	c = AuditConfig{Backend: "jsonl_rotating"}
	c.SetDefaults()
	assert.NoError(t, c.Validate())
	assert.Equal(t, 50, c.MaxSizeMB)
}

func TestLoadOptional(t *testing.T) {
	t.Setenv("RIDEFAIR_ARTIFACT__PATH", "/data/models.json")
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/data/models.json", cfg.Artifact.Path)
	assert.Equal(t, 2000, cfg.Training.RecordCount)
}

func TestSentryConfig(t *testing.T) {
	var c SentryConfig
	c.SetDefaults()
	assert.False(t, c.Enabled())
	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 2000, c.FlushTimeoutMS)
	c.TracesSampleRate = 2
	assert.Error(t, c.Validate())
}
