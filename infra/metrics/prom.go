package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ridefair/core/metrics"
)

// PromSink records prediction and training events in Prometheus metrics.
type PromSink struct {
	predictions  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	trainings    *prometheus.CounterVec
	seedFailures prometheus.Counter
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	predictions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ridefair_predictions_total",
		Help: "Total number of prediction requests by kind and outcome",
	}, []string{"kind", "verdict"}))
	if err != nil {
		return nil, err
	}
	latency, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ridefair_prediction_latency_seconds",
		Help:    "Time spent answering a prediction request",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}
	trainings, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ridefair_training_runs_total",
		Help: "Total number of training pipeline runs by status",
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}
	seedFailures, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ridefair_seed_failures_total",
		Help: "Training runs whose historical seeding failed",
	}))
	if err != nil {
		return nil, err
	}
	return &PromSink{predictions: predictions, latency: latency, trainings: trainings, seedFailures: seedFailures}, nil
}

// register returns the already registered collector when one with the same
// descriptor exists, so several sinks can share the default registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordPrediction counts the event and observes its latency.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	kind := string(ev.Kind)
	s.predictions.WithLabelValues(kind, outcome(ev)).Inc()
	if !ev.Rejected() {
		s.latency.WithLabelValues(kind).Observe(ev.Latency.Seconds())
	}
	return nil
}

// RecordTrainingRun counts the run and any seed failure.
func (s *PromSink) RecordTrainingRun(run coremetrics.TrainingRun) error {
	status := "success"
	if !run.Success {
		status = "failure"
	}
	s.trainings.WithLabelValues(status).Inc()
	if run.SeedError != "" {
		s.seedFailures.Inc()
	}
	return nil
}

// outcome is the verdict label: the scam verdict, "rejected" for invalid
// input and "ok" otherwise.
func outcome(ev coremetrics.PredictionEvent) string {
	switch {
	case ev.Rejected():
		return "rejected"
	case ev.Verdict != "":
		return ev.Verdict
	default:
		return "ok"
	}
}
