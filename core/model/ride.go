package model

// RideRecord is one observed or synthetic ride.
type RideRecord struct {
	Latitude   float64 // pickup latitude in degrees
	Longitude  float64 // pickup longitude in degrees
	DistanceKM float64
	HourOfDay  int // 0-23
	IsWeekend  bool
	PricePaid  float64
	IsScam     bool // training label
}

// DerivedRecord extends a RideRecord with the features computed at training time.
type DerivedRecord struct {
	RideRecord
	PricePerKM float64
	IsPeakHour bool
}

// PeakWindow is an inclusive hour range where a peak surcharge applies.
type PeakWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether hour falls inside the window.
func (w PeakWindow) Contains(hour int) bool {
	return hour >= w.Start && hour <= w.End
}

// Zone is a named geographic center rides are generated around.
type Zone struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PriceFeatures is the input of the price regressor.
type PriceFeatures struct {
	DistanceKM float64
	Hour       int
	IsWeekend  bool
}

// Vector returns the features in model column order.
func (f PriceFeatures) Vector() []float64 {
	return []float64{f.DistanceKM, float64(f.Hour), boolToFloat(f.IsWeekend)}
}

// ScamFeatures is the input of the scam classifier.
type ScamFeatures struct {
	DistanceKM float64
	PriceAsked float64
	PricePerKM float64
}

// Vector returns the features in model column order.
func (f ScamFeatures) Vector() []float64 {
	return []float64{f.DistanceKM, f.PriceAsked, f.PricePerKM}
}

// Number of columns of each feature vector.
const (
	PriceFeatureCount = 3
	ScamFeatureCount  = 3
)

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
