package generator

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/ridefair/config"
	"github.com/kilianp07/ridefair/core/features"
)

func defaultCfg() config.TrainingConfig {
	var cfg config.TrainingConfig
	cfg.SetDefaults()
	return cfg
}

func TestGeneratorDeterministic(t *testing.T) {
	cfg := defaultCfg()
	a := New(cfg).Generate(50)
	b := New(cfg).Generate(50)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	cfg.Seed = 7
	c := New(cfg).Generate(50)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected a different seed to change the data")
	}
}

func TestGeneratorBounds(t *testing.T) {
	cfg := defaultCfg()
	for _, r := range New(cfg).Generate(500) {
		if r.DistanceKM < cfg.MinDistanceKM || r.DistanceKM > cfg.MaxDistanceKM {
			t.Fatalf("distance out of bounds: %f", r.DistanceKM)
		}
		if r.DistanceKM != math.Round(r.DistanceKM*100)/100 {
			t.Fatalf("distance not rounded to 2dp: %v", r.DistanceKM)
		}
		if r.HourOfDay < cfg.OpenHour || r.HourOfDay > cfg.CloseHour {
			t.Fatalf("hour out of bounds: %d", r.HourOfDay)
		}
		if r.PricePaid != math.Trunc(r.PricePaid) {
			t.Fatalf("price not whole: %v", r.PricePaid)
		}
		near := false
		for _, z := range cfg.Zones {
			if math.Abs(r.Latitude-z.Lat) <= cfg.ZoneRadiusDeg && math.Abs(r.Longitude-z.Lon) <= cfg.ZoneRadiusDeg {
				near = true
			}
		}
		if !near {
			t.Fatalf("pickup %f,%f not near any zone", r.Latitude, r.Longitude)
		}
		fair := FairPrice(cfg, r.DistanceKM, r.HourOfDay, r.IsWeekend)
		if r.IsScam {
			if r.PricePaid < math.Floor(fair*cfg.ScamMultiplierMin) {
				t.Fatalf("scam price %v below %v x fair %v", r.PricePaid, cfg.ScamMultiplierMin, fair)
			}
		} else if math.Abs(r.PricePaid-fair) > cfg.FairNoiseValue()+0.5 {
			t.Fatalf("fair price %v too far from %v", r.PricePaid, fair)
		}
	}
}

func TestGeneratorScamRate(t *testing.T) {
	cfg := defaultCfg()
	n := 2000
	var scams int
	for _, r := range New(cfg).Generate(n) {
		if r.IsScam {
			scams++
		}
	}
	p := cfg.ScamRate
	sigma := math.Sqrt(p * (1 - p) / float64(n))
	got := float64(scams) / float64(n)
	if math.Abs(got-p) > 3*sigma {
		t.Fatalf("scam fraction %.3f outside %.3f±%.3f", got, p, 3*sigma)
	}
}

func TestFairPrice(t *testing.T) {
	cfg := defaultCfg()
	if got := FairPrice(cfg, 5, 9, false); math.Abs(got-119) > 1e-9 {
		t.Fatalf("peak weekday fare = %v, want 119", got)
	}
	if got := FairPrice(cfg, 5, 12, true); got != 105 {
		t.Fatalf("off-peak weekend fare = %v, want 105", got)
	}
	if !features.IsPeakHour(17, cfg.PeakWindows) {
		t.Fatalf("17h should be peak")
	}
}

func TestGeneratorCounter(t *testing.T) {
	before := testutil.ToFloat64(recordsTotal.WithLabelValues("scam")) + testutil.ToFloat64(recordsTotal.WithLabelValues("fair"))
	New(defaultCfg()).Generate(10)
	after := testutil.ToFloat64(recordsTotal.WithLabelValues("scam")) + testutil.ToFloat64(recordsTotal.WithLabelValues("fair"))
	if after-before != 10 {
		t.Fatalf("expected 10 records counted, got %v", after-before)
	}
}
