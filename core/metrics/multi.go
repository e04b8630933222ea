package metrics

import "errors"

// MultiSink fans events out to multiple sinks. A failing sink does not stop
// delivery to the others.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the event to every sink and joins their errors.
func (m *MultiSink) RecordPrediction(ev PredictionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordPrediction(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordTrainingRun forwards the run to sinks implementing TrainingRecorder.
func (m *MultiSink) RecordTrainingRun(run TrainingRun) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TrainingRecorder); ok {
			if err := rec.RecordTrainingRun(run); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
