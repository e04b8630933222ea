package metrics

import "github.com/kilianp07/ridefair/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddress exposes /metrics on a dedicated server when set.
	PrometheusAddress string `json:"prometheus_address"`
}
