// Package metrics defines the events emitted by the prediction service and the
// training pipeline together with the sink interfaces that record them. Sinks
// like PromSink and InfluxSink live in infra/metrics and can be combined with
// NewMultiSink. NewMetricsSink returns a MultiSink automatically when multiple
// sinks are configured.
package metrics
