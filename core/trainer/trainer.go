// Package trainer fits the price, scam and hotspot models from ride records
// and runs the end to end training pipeline.
package trainer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ridefair/config"
	"github.com/kilianp07/ridefair/core/bundle"
	"github.com/kilianp07/ridefair/core/features"
	"github.com/kilianp07/ridefair/core/ml"
	"github.com/kilianp07/ridefair/core/model"
)

// ErrTrainingDataInvalid is returned when the dataset cannot produce a usable bundle.
var ErrTrainingDataInvalid = errors.New("training data invalid")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTrainingDataInvalid, fmt.Sprintf(format, args...))
}

// Train fits the three models on recs. No partial bundle is ever returned.
func Train(recs []model.RideRecord, cfg config.TrainingConfig) (*bundle.Bundle, error) {
	cfg.SetDefaults()
	if len(recs) == 0 {
		return nil, invalid("no records")
	}
	if err := checkColumns(recs); err != nil {
		return nil, err
	}
	if len(recs) < cfg.ClusterCount {
		return nil, invalid("%d records for %d clusters", len(recs), cfg.ClusterCount)
	}

	derived := features.Derive(recs, cfg.PeakWindows)
	n := len(derived)
	priceX := make([][]float64, n)
	priceY := make([]float64, n)
	scamX := make([][]float64, n)
	scamY := make([]bool, n)
	points := make([][]float64, n)
	var scams int
	for i, r := range derived {
		priceX[i] = model.PriceFeatures{DistanceKM: r.DistanceKM, Hour: r.HourOfDay, IsWeekend: r.IsWeekend}.Vector()
		priceY[i] = r.PricePaid
		scamX[i] = model.ScamFeatures{DistanceKM: r.DistanceKM, PriceAsked: r.PricePaid, PricePerKM: r.PricePerKM}.Vector()
		scamY[i] = r.IsScam
		points[i] = []float64{r.Latitude, r.Longitude}
		if r.IsScam {
			scams++
		}
	}
	if scams == 0 || scams == n {
		return nil, invalid("is_scam holds a single class")
	}

	price, err := ml.FitLinearRegression(priceX, priceY)
	if err != nil {
		return nil, fitError("price model", err)
	}
	scam, err := ml.FitLogisticRegression(scamX, scamY, ml.LogisticOptions{
		C:         cfg.LogisticC,
		MaxIter:   cfg.LogisticMaxIter,
		Threshold: cfg.ScamThreshold,
	})
	if err != nil {
		return nil, fitError("scam model", err)
	}
	hotspots, err := ml.FitKMeans(points, ml.KMeansOptions{
		K:         cfg.ClusterCount,
		MaxIter:   cfg.KMeansMaxIter,
		NInit:     cfg.KMeansNInit,
		Tolerance: cfg.KMeansTolerance,
		Seed:      cfg.KMeansSeed,
	})
	if err != nil {
		return nil, fitError("hotspot model", err)
	}

	b := &bundle.Bundle{
		PriceModel:   price,
		ScamModel:    scam,
		HotspotModel: hotspots,
		Meta: bundle.Meta{
			RunID:        uuid.NewString(),
			TrainedAt:    time.Now().UTC(),
			Records:      n,
			ScamFraction: float64(scams) / float64(n),
			ClusterCount: cfg.ClusterCount,
		},
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("trained bundle invalid: %w", err)
	}
	return b, nil
}

func fitError(what string, err error) error {
	switch {
	case errors.Is(err, ml.ErrNoSamples), errors.Is(err, ml.ErrTooFewSamples),
		errors.Is(err, ml.ErrSingleClass), errors.Is(err, ml.ErrNotFinite),
		errors.Is(err, ml.ErrIllConditioned):
		return fmt.Errorf("%w: %s: %w", ErrTrainingDataInvalid, what, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// checkColumns rejects a feature column that is entirely non-finite, then any
// remaining non-finite value.
func checkColumns(recs []model.RideRecord) error {
	cols := []struct {
		name string
		get  func(model.RideRecord) float64
	}{
		{"lat", func(r model.RideRecord) float64 { return r.Latitude }},
		{"lon", func(r model.RideRecord) float64 { return r.Longitude }},
		{"dist_km", func(r model.RideRecord) float64 { return r.DistanceKM }},
		{"price", func(r model.RideRecord) float64 { return r.PricePaid }},
	}
	for _, c := range cols {
		bad := -1
		var count int
		for i, r := range recs {
			v := c.get(r)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				if bad < 0 {
					bad = i
				}
				count++
			}
		}
		if count == len(recs) {
			return invalid("column %s has no usable values", c.name)
		}
		if bad >= 0 {
			return invalid("record %d: non-finite %s", bad, c.name)
		}
	}
	for i, r := range recs {
		if r.HourOfDay < 0 || r.HourOfDay > 23 {
			return invalid("record %d: hour %d outside [0,23]", i, r.HourOfDay)
		}
	}
	return nil
}
