package metrics

import "time"

// PredictionKind identifies the prediction operation that produced an event.
type PredictionKind string

const (
	KindPrice    PredictionKind = "price"
	KindScam     PredictionKind = "scam"
	KindHotspots PredictionKind = "hotspots"
)

// PredictionEvent describes one answered (or rejected) prediction request.
type PredictionEvent struct {
	ID   string
	Kind PredictionKind

	DistanceKM float64
	Hour       int
	IsWeekend  bool
	PriceAsked float64

	FairPrice   float64
	Verdict     string
	Probability float64 // percent, 0-100
	Hotspots    int

	// Err holds the rejection reason for invalid requests.
	Err     string
	Latency time.Duration
	Time    time.Time
}

// Rejected reports whether the request was refused.
func (e PredictionEvent) Rejected() bool { return e.Err != "" }

// MetricsSink records prediction events for observability purposes.
type MetricsSink interface {
	RecordPrediction(ev PredictionEvent) error
}

// TrainingRun summarises one execution of the training pipeline.
type TrainingRun struct {
	RunID        string
	Records      int
	ScamFraction float64
	Seeded       int
	SeedError    string
	Success      bool
	Duration     time.Duration
	Time         time.Time
}

// TrainingRecorder records training pipeline runs.
type TrainingRecorder interface {
	RecordTrainingRun(run TrainingRun) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionEvent) error { return nil }
func (NopSink) RecordTrainingRun(TrainingRun) error    { return nil }
