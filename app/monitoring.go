package app

import (
	"time"

	"github.com/kilianp07/ridefair/config"
	coremon "github.com/kilianp07/ridefair/core/monitoring"
	inframon "github.com/kilianp07/ridefair/infra/monitoring"
)

// InitMonitoring installs the Sentry monitor when a DSN is configured and
// returns a function flushing buffered events.
func InitMonitoring(cfg config.SentryConfig) (func(), error) {
	m, err := inframon.NewSentryMonitor(cfg)
	if err != nil {
		return func() {}, err
	}
	coremon.Init(m)
	timeout := time.Duration(cfg.FlushTimeoutMS) * time.Millisecond
	return func() { coremon.Flush(timeout) }, nil
}
