package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/ridefair/core/metrics"
	"github.com/kilianp07/ridefair/infra/logger"
	"github.com/kilianp07/ridefair/internal/eventbus"
)

// StartEventCollector forwards every prediction event published on bus to
// sink until ctx is canceled or the bus is closed. Sink errors are logged.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.PredictionEvent], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	if bus == nil || sink == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return eventbus.Consume(ctx, bus, func(ev coremetrics.PredictionEvent) {
		if err := sink.RecordPrediction(ev); err != nil {
			log.Warnf("record prediction %s: %v", ev.ID, err)
		}
	})
}
