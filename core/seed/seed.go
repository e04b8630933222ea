// Package seed defines the optional historical store that receives a sample
// of the training rides. Seeding is best effort: callers log and count
// failures but never abort training because of them.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/ridefair/core/factory"
	"github.com/kilianp07/ridefair/core/model"
)

// ErrSeedFailure wraps every error returned by a Sink.
var ErrSeedFailure = errors.New("seed failure")

// Sink inserts rides into a historical store and returns how many were written.
// Partial insertion is allowed: the count reflects rows written before a failure.
type Sink interface {
	Seed(ctx context.Context, recs []model.RideRecord) (int, error)
}

// NopSink discards every ride.
type NopSink struct{}

// Seed implements Sink.
func (NopSink) Seed(context.Context, []model.RideRecord) (int, error) { return 0, nil }

// Failure wraps err with ErrSeedFailure.
func Failure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSeedFailure, op, err)
}

var registry = factory.NewRegistry[Sink]()

func init() {
	_ = RegisterSink("nop", func(map[string]any) (Sink, error) { return NopSink{}, nil })
}

// RegisterSink adds a sink factory identified by name.
func RegisterSink(name string, f factory.Factory[Sink]) error {
	return registry.Register(name, f)
}

// NewSink builds the sink described by cfg. An empty type yields NopSink.
func NewSink(cfg factory.ModuleConfig) (Sink, error) {
	if cfg.Type == "" {
		return NopSink{}, nil
	}
	s, err := registry.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("seed sink %q: %w", cfg.Type, err)
	}
	return s, nil
}

// Point renders a pickup location as WKT, longitude first.
func Point(lat, lon float64) string {
	return fmt.Sprintf("POINT(%v %v)", lon, lat)
}
