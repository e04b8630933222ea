// Package predict answers fair price, scam and hotspot queries from a loaded
// model bundle. A Service is immutable and safe for concurrent use.
package predict

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/ridefair/core/bundle"
	"github.com/kilianp07/ridefair/core/features"
	"github.com/kilianp07/ridefair/core/ml"
	"github.com/kilianp07/ridefair/core/model"
)

// Verdicts returned by DetectScam.
const (
	VerdictScam = "SCAM"
	VerdictFair = "FAIR"
)

// Fixed user facing messages.
const (
	PriceMessage = "Calculated based on historical data."
	ScamWarning  = "Price is abnormally high!"
	FairWarning  = "Price looks reasonable."
)

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError names the rejected field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports ErrInvalidInput as a match.
func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// PriceResult is the answer to a fair price query.
type PriceResult struct {
	FairPrice float64 `json:"fair_price"`
	Message   string  `json:"message"`
}

// ScamResult is the answer to a scam check.
type ScamResult struct {
	Verdict         string  `json:"verdict"`
	ScamProbability float64 `json:"scam_probability"`
	Warning         string  `json:"warning"`
}

// Service serves predictions from one bundle.
type Service struct {
	price     *ml.LinearRegression
	scam      *ml.LogisticRegression
	hotspots  []model.Location
	threshold float64
	// cutoff is the threshold as a percentage on the same 1-decimal grid
	// as ScamResult.ScamProbability.
	cutoff float64
}

// New validates b and builds a Service from it.
func New(b *bundle.Bundle) (*Service, error) {
	if b == nil {
		return nil, errors.New("nil bundle")
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", bundle.ErrArtifactCorrupt, err)
	}
	locs := make([]model.Location, len(b.HotspotModel.Centers))
	for i, c := range b.HotspotModel.Centers {
		locs[i] = model.Location{Lat: c[0], Lon: c[1]}
	}
	return &Service{
		price:     b.PriceModel,
		scam:      b.ScamModel,
		hotspots:  locs,
		threshold: b.ScamModel.Threshold,
		cutoff:    round(b.ScamModel.Threshold*100, 1),
	}, nil
}

// PredictPrice estimates the fair price of a ride, rounded to 2 decimals.
// Values outside the training range are extrapolated.
func (s *Service) PredictPrice(distanceKM float64, hour int, isWeekend bool) (PriceResult, error) {
	if !isFinite(distanceKM) || distanceKM <= 0 {
		return PriceResult{}, invalid("distance_km", "must be a finite value > 0")
	}
	if hour < 0 || hour > 23 {
		return PriceResult{}, invalid("hour", "must be in [0,23]")
	}
	x := model.PriceFeatures{DistanceKM: distanceKM, Hour: hour, IsWeekend: isWeekend}.Vector()
	return PriceResult{
		FairPrice: round(s.price.Predict(x), 2),
		Message:   PriceMessage,
	}, nil
}

// DetectScam classifies an asked price. The verdict is derived from the
// rounded percentage so the two fields always agree.
func (s *Service) DetectScam(distanceKM, priceAsked float64) (ScamResult, error) {
	if !isFinite(distanceKM) {
		return ScamResult{}, invalid("distance_km", "must be finite")
	}
	if !isFinite(priceAsked) || priceAsked < 0 {
		return ScamResult{}, invalid("price_asked", "must be a finite value >= 0")
	}
	x := features.Scam(distanceKM, priceAsked).Vector()
	pct := round(s.scam.PredictProba(x)*100, 1)
	res := ScamResult{Verdict: VerdictFair, ScamProbability: pct, Warning: FairWarning}
	if pct >= s.cutoff {
		res.Verdict = VerdictScam
		res.Warning = ScamWarning
	}
	return res, nil
}

// ListHotspots returns the trained cluster centers in model order.
func (s *Service) ListHotspots() []model.Location {
	return append([]model.Location(nil), s.hotspots...)
}

// Threshold returns the scam decision threshold as a probability.
func (s *Service) Threshold() float64 { return s.threshold }

// ClusterCount returns the number of hotspots.
func (s *Service) ClusterCount() int { return len(s.hotspots) }

// round rounds half to even at the given number of decimals.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
