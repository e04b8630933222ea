// Package generator produces synthetic labeled rides following a known fare
// formula, so the models can be trained without historical data.
package generator

import (
	"math"
	"math/rand"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/ridefair/config"
	"github.com/kilianp07/ridefair/core/features"
	"github.com/kilianp07/ridefair/core/model"
	"github.com/kilianp07/ridefair/infra/logger"
)

// Generator emits synthetic rides. It is not safe for concurrent use.
type Generator struct {
	cfg  config.TrainingConfig
	log  logger.Logger
	rand *rand.Rand
}

var recordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ridefair_generator_records_total",
	Help: "Synthetic rides generated by label",
}, []string{"label"})

func init() {
	prometheus.MustRegister(recordsTotal)
}

// New creates a Generator seeded from cfg.Seed. Missing fields take their defaults.
func New(cfg config.TrainingConfig) *Generator {
	cfg.SetDefaults()
	return &Generator{
		cfg:  cfg,
		log:  logger.New("generator"),
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate returns n rides. Two generators with the same seed return the same rides.
func (g *Generator) Generate(n int) []model.RideRecord {
	if n <= 0 {
		return nil
	}
	out := make([]model.RideRecord, 0, n)
	var scams int
	for i := 0; i < n; i++ {
		r := g.Next()
		if r.IsScam {
			scams++
		}
		out = append(out, r)
	}
	g.log.Infof("generated %d rides (%d scams)", n, scams)
	return out
}

// Next returns a single ride.
func (g *Generator) Next() model.RideRecord {
	zone := g.cfg.Zones[g.rand.Intn(len(g.cfg.Zones))]
	lat := zone.Lat + g.uniform(-g.cfg.ZoneRadiusDeg, g.cfg.ZoneRadiusDeg)
	lon := zone.Lon + g.uniform(-g.cfg.ZoneRadiusDeg, g.cfg.ZoneRadiusDeg)

	dist := math.Round(g.uniform(g.cfg.MinDistanceKM, g.cfg.MaxDistanceKM)*100) / 100
	hour := g.cfg.OpenHour + g.rand.Intn(g.cfg.CloseHour-g.cfg.OpenHour+1)
	weekend := g.rand.Intn(2) == 1

	fair := FairPrice(g.cfg, dist, hour, weekend)
	rec := model.RideRecord{
		Latitude:   lat,
		Longitude:  lon,
		DistanceKM: dist,
		HourOfDay:  hour,
		IsWeekend:  weekend,
	}
	if g.rand.Float64() < g.cfg.ScamRate {
		rec.IsScam = true
		rec.PricePaid = fair * g.uniform(g.cfg.ScamMultiplierMin, g.cfg.ScamMultiplierMax)
		recordsTotal.WithLabelValues("scam").Inc()
	} else {
		rec.PricePaid = fair + g.uniform(-g.cfg.FairNoiseValue(), g.cfg.FairNoiseValue())
		recordsTotal.WithLabelValues("fair").Inc()
	}
	rec.PricePaid = math.RoundToEven(rec.PricePaid)
	return rec
}

// FairPrice applies the fare formula used to label synthetic rides.
func FairPrice(cfg config.TrainingConfig, distanceKM float64, hour int, weekend bool) float64 {
	fare := cfg.BaseFareValue() + cfg.PerKMRate*distanceKM
	if features.IsPeakHour(hour, cfg.PeakWindows) {
		fare *= cfg.PeakMultiplier
	}
	if weekend {
		fare += cfg.WeekendSurchargeValue()
	}
	return fare
}

func (g *Generator) uniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + g.rand.Float64()*(max-min)
}
