// Package features derives the model inputs that are not stored on a ride
// record. The same functions are used at training and at serving time so the
// two never disagree on feature semantics.
package features

import "github.com/kilianp07/ridefair/core/model"

// PricePerKM returns price divided by distance. Non-positive distances yield 0.
func PricePerKM(price, distanceKM float64) float64 {
	if distanceKM <= 0 {
		return 0
	}
	return price / distanceKM
}

// IsPeakHour reports whether hour falls in any of the windows.
func IsPeakHour(hour int, windows []model.PeakWindow) bool {
	for _, w := range windows {
		if w.Contains(hour) {
			return true
		}
	}
	return false
}

// Derive computes the derived features for every record.
func Derive(recs []model.RideRecord, windows []model.PeakWindow) []model.DerivedRecord {
	out := make([]model.DerivedRecord, len(recs))
	for i, r := range recs {
		out[i] = model.DerivedRecord{
			RideRecord: r,
			PricePerKM: PricePerKM(r.PricePaid, r.DistanceKM),
			IsPeakHour: IsPeakHour(r.HourOfDay, windows),
		}
	}
	return out
}

// Scam builds the classifier input for a ride.
func Scam(distanceKM, price float64) model.ScamFeatures {
	return model.ScamFeatures{
		DistanceKM: distanceKM,
		PriceAsked: price,
		PricePerKM: PricePerKM(price, distanceKM),
	}
}
