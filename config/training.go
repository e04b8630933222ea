package config

import (
	"fmt"

	"github.com/kilianp07/ridefair/core/model"
)

// TrainingConfig configures synthetic data generation and model fitting.
type TrainingConfig struct {
	RecordCount  int     `json:"record_count"`
	ClusterCount int     `json:"cluster_count"`
	ScamRate     float64 `json:"scam_rate"`

	// Fare formula used to label synthetic rides. BaseFare and
	// WeekendSurcharge are pointers so an explicit 0 survives SetDefaults.
	BaseFare         *float64           `json:"base_fare"`
	PerKMRate        float64            `json:"per_km_rate"`
	WeekendSurcharge *float64           `json:"weekend_surcharge"`
	PeakMultiplier   float64            `json:"peak_multiplier"`
	PeakWindows      []model.PeakWindow `json:"peak_windows"`

	Zones             []model.Zone `json:"zones"`
	ZoneRadiusDeg     float64      `json:"zone_radius_deg"`
	MinDistanceKM     float64      `json:"min_distance_km"`
	MaxDistanceKM     float64      `json:"max_distance_km"`
	OpenHour          int          `json:"open_hour"`
	CloseHour         int          `json:"close_hour"`
	ScamMultiplierMin float64      `json:"scam_multiplier_min"`
	ScamMultiplierMax float64      `json:"scam_multiplier_max"`
	FairNoise         *float64     `json:"fair_noise"`
	Seed              int64        `json:"seed"`

	// ScamThreshold is the class-1 probability at or above which a ride is a scam.
	ScamThreshold   float64 `json:"scam_threshold"`
	LogisticC       float64 `json:"logistic_c"`
	LogisticMaxIter int     `json:"logistic_max_iter"`
	KMeansMaxIter   int     `json:"kmeans_max_iter"`
	KMeansNInit     int     `json:"kmeans_n_init"`
	KMeansSeed      int64   `json:"kmeans_seed"`
	KMeansTolerance float64 `json:"kmeans_tolerance"`
}

// Defaults for the fare fields where 0 is a valid setting.
const (
	DefaultBaseFare         = 25.0
	DefaultWeekendSurcharge = 20.0
	DefaultFairNoise        = 10.0
)

// BaseFareValue returns base_fare, or its default when unset.
func (c TrainingConfig) BaseFareValue() float64 { return valueOr(c.BaseFare, DefaultBaseFare) }

// WeekendSurchargeValue returns weekend_surcharge, or its default when unset.
func (c TrainingConfig) WeekendSurchargeValue() float64 {
	return valueOr(c.WeekendSurcharge, DefaultWeekendSurcharge)
}

// FairNoiseValue returns fair_noise, or its default when unset.
func (c TrainingConfig) FairNoiseValue() float64 { return valueOr(c.FairNoise, DefaultFairNoise) }

func floatPtr(v float64) *float64 { return &v }

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// DefaultZones are the pickup areas used when none are configured.
var DefaultZones = []model.Zone{
	{Name: "College", Lat: 28.54, Lon: 77.33},
	{Name: "Mall", Lat: 28.58, Lon: 77.38},
	{Name: "Metro Station", Lat: 28.62, Lon: 77.29},
}

// SetDefaults applies fallback values for optional fields.
//
//gocyclo:ignore
func (c *TrainingConfig) SetDefaults() {
	if c.RecordCount == 0 {
		c.RecordCount = 2000
	}
	if c.ClusterCount == 0 {
		c.ClusterCount = 3
	}
	if c.ScamRate == 0 {
		c.ScamRate = 0.15
	}
	if c.BaseFare == nil {
		c.BaseFare = floatPtr(DefaultBaseFare)
	}
	if c.PerKMRate == 0 {
		c.PerKMRate = 12
	}
	if c.WeekendSurcharge == nil {
		c.WeekendSurcharge = floatPtr(DefaultWeekendSurcharge)
	}
	if c.PeakMultiplier == 0 {
		c.PeakMultiplier = 1.4
	}
	if len(c.PeakWindows) == 0 {
		c.PeakWindows = []model.PeakWindow{{Start: 8, End: 10}, {Start: 17, End: 20}}
	}
	if len(c.Zones) == 0 {
		c.Zones = append([]model.Zone(nil), DefaultZones...)
	}
	if c.ZoneRadiusDeg == 0 {
		c.ZoneRadiusDeg = 0.01
	}
	if c.MinDistanceKM == 0 {
		c.MinDistanceKM = 1
	}
	if c.MaxDistanceKM == 0 {
		c.MaxDistanceKM = 15
	}
	if c.OpenHour == 0 && c.CloseHour == 0 {
		c.OpenHour = 6
		c.CloseHour = 22
	}
	if c.ScamMultiplierMin == 0 {
		c.ScamMultiplierMin = 1.8
	}
	if c.ScamMultiplierMax == 0 {
		c.ScamMultiplierMax = 3
	}
	if c.FairNoise == nil {
		c.FairNoise = floatPtr(DefaultFairNoise)
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.ScamThreshold == 0 {
		c.ScamThreshold = 0.5
	}
	if c.LogisticC == 0 {
		c.LogisticC = 1
	}
	if c.LogisticMaxIter == 0 {
		c.LogisticMaxIter = 100
	}
	if c.KMeansMaxIter == 0 {
		c.KMeansMaxIter = 300
	}
	if c.KMeansNInit == 0 {
		c.KMeansNInit = 10
	}
	if c.KMeansSeed == 0 {
		c.KMeansSeed = 42
	}
	if c.KMeansTolerance == 0 {
		c.KMeansTolerance = 1e-4
	}
}

// Validate checks the configuration ranges.
//
//gocyclo:ignore
func (c TrainingConfig) Validate() error {
	if c.RecordCount <= 0 {
		return fmt.Errorf("record_count must be >0")
	}
	if c.ClusterCount <= 0 {
		return fmt.Errorf("cluster_count must be >0")
	}
	if c.ScamRate <= 0 || c.ScamRate >= 1 {
		return fmt.Errorf("scam_rate must be in (0,1)")
	}
	if c.BaseFareValue() < 0 || c.WeekendSurchargeValue() < 0 {
		return fmt.Errorf("base_fare and weekend_surcharge must be >=0")
	}
	if c.PerKMRate <= 0 {
		return fmt.Errorf("per_km_rate must be >0")
	}
	if c.PeakMultiplier <= 0 {
		return fmt.Errorf("peak_multiplier must be >0")
	}
	for _, w := range c.PeakWindows {
		if w.Start < 0 || w.End > 23 || w.Start > w.End {
			return fmt.Errorf("invalid peak window [%d,%d]", w.Start, w.End)
		}
	}
	if len(c.Zones) == 0 {
		return fmt.Errorf("at least one zone is required")
	}
	if c.ZoneRadiusDeg < 0 {
		return fmt.Errorf("zone_radius_deg must be >=0")
	}
	if c.MinDistanceKM <= 0 || c.MinDistanceKM > c.MaxDistanceKM {
		return fmt.Errorf("distance range must satisfy 0 < min_distance_km <= max_distance_km")
	}
	if c.OpenHour < 0 || c.CloseHour > 23 || c.OpenHour > c.CloseHour {
		return fmt.Errorf("operating hours must satisfy 0 <= open_hour <= close_hour <= 23")
	}
	if c.ScamMultiplierMin < 1 || c.ScamMultiplierMin > c.ScamMultiplierMax {
		return fmt.Errorf("scam multipliers must satisfy 1 <= min <= max")
	}
	if c.FairNoiseValue() < 0 {
		return fmt.Errorf("fair_noise must be >=0")
	}
	if c.ScamThreshold <= 0 || c.ScamThreshold >= 1 {
		return fmt.Errorf("scam_threshold must be in (0,1)")
	}
	if c.LogisticC <= 0 {
		return fmt.Errorf("logistic_c must be >0")
	}
	if c.LogisticMaxIter <= 0 || c.KMeansMaxIter <= 0 || c.KMeansNInit <= 0 {
		return fmt.Errorf("iteration counts must be >0")
	}
	if c.KMeansTolerance < 0 {
		return fmt.Errorf("kmeans_tolerance must be >=0")
	}
	return nil
}
