// Package app wires the prediction service, its HTTP transport and the
// asynchronous prediction event consumers from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	auditapi "github.com/kilianp07/ridefair/api/audit"
	"github.com/kilianp07/ridefair/api/rides"
	"github.com/kilianp07/ridefair/config"
	"github.com/kilianp07/ridefair/core/audit"
	"github.com/kilianp07/ridefair/core/bundle"
	coremetrics "github.com/kilianp07/ridefair/core/metrics"
	"github.com/kilianp07/ridefair/core/monitoring"
	"github.com/kilianp07/ridefair/core/predict"
	"github.com/kilianp07/ridefair/infra/logger"
	"github.com/kilianp07/ridefair/infra/metrics"
	inframon "github.com/kilianp07/ridefair/infra/monitoring"
	"github.com/kilianp07/ridefair/infra/mqtt"
	"github.com/kilianp07/ridefair/internal/eventbus"
)

// LogsPath serves the prediction audit log.
const LogsPath = "/api/predictions/logs"

// Service serves predictions from one bundle loaded at construction.
type Service struct {
	cfg    *config.Config
	pred   *predict.Service
	bus    *eventbus.TypedBus[coremetrics.PredictionEvent]
	sink   coremetrics.MetricsSink
	store  audit.LogStore
	alerts *mqtt.AlertPublisher
	log    logger.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    []<-chan struct{}
}

// LoadPredictor reads the bundle at path and builds a prediction service.
// A missing artifact yields an error telling the operator to train first.
func LoadPredictor(path string) (*predict.Service, error) {
	b, err := bundle.NewFileStore(path).Load()
	if errors.Is(err, bundle.ErrArtifactMissing) {
		return nil, fmt.Errorf("model artifact not found at %s: run 'ridefair train' first: %w", path, err)
	}
	if err != nil {
		return nil, err
	}
	return predict.New(b)
}

// New creates a Service from the configuration. The model bundle is loaded
// once here and never reloaded.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	pred, err := LoadPredictor(cfg.Artifact.Path)
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, err
	}
	store, err := audit.Open(audit.Options{
		Backend:    cfg.Audit.Backend,
		Path:       cfg.Audit.Path,
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
		MaxAgeDays: cfg.Audit.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}
	svc := &Service{
		cfg:   cfg,
		pred:  pred,
		bus:   eventbus.NewTyped[coremetrics.PredictionEvent](),
		sink:  sink,
		store: store,
		log:   log,
	}
	if cfg.MQTT.Enabled() {
		alerts, err := mqtt.NewAlertPublisher(cfg.MQTT)
		if err != nil {
			// alerts are optional; predictions are still served
			log.Warnf("scam alerts disabled: %v", err)
			monitoring.CaptureException(err, map[string]string{"module": "mqtt"})
		} else {
			svc.alerts = alerts
		}
	}
	log.Infof("model bundle loaded from %s: %d hotspots, scam threshold %.2f",
		cfg.Artifact.Path, pred.ClusterCount(), pred.Threshold())
	return svc, nil
}

// Predictor returns the loaded prediction service.
func (s *Service) Predictor() *predict.Service { return s.pred }

// Handler returns the HTTP handler with every route, CORS and panic reporting.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	rides.NewHandler(s.pred, s.bus, logger.New("http")).Register(mux)
	mux.Handle(LogsPath, auditapi.NewLogHandler(s.store, s.cfg.Server.LogsToken))

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return inframon.HTTPMiddleware(s.cfg.Sentry, c.Handler(mux))
}

// Start launches the event consumers and the optional Prometheus server.
// It is a no-op when already started.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)

	s.done = append(s.done, metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics")))
	auditLog := s.log.With(map[string]any{"consumer": "audit"})
	s.done = append(s.done, eventbus.Consume(ctx, s.bus, func(ev coremetrics.PredictionEvent) {
		if err := s.store.Append(context.Background(), audit.FromEvent(ev)); err != nil {
			auditLog.Warnw("audit append failed", map[string]any{"id": ev.ID, "kind": ev.Kind, "error": err.Error()})
		}
	}))
	if s.alerts != nil {
		s.done = append(s.done, metrics.StartEventCollector(ctx, s.bus, s.alerts, logger.New("mqtt_alerts")))
	}
	if addr := s.cfg.Metrics.PrometheusAddress; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

// Run serves HTTP until ctx is canceled, then shuts the server down gracefully.
func (s *Service) Run(ctx context.Context) error {
	s.Start(ctx)
	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout(),
		WriteTimeout:      s.cfg.Server.WriteTimeout(),
		IdleTimeout:       time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		defer monitoring.Recover()
		s.log.Infof("serving predictions on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Infof("http server stopped")
	return nil
}

// Close stops the consumers after they drained pending events and releases
// the audit store, the metrics sinks and the MQTT connection.
func (s *Service) Close() error {
	s.bus.Close()
	s.mu.Lock()
	done := s.done
	cancel := s.cancel
	s.mu.Unlock()
	for _, d := range done {
		<-d
	}
	if cancel != nil {
		cancel()
	}
	if s.alerts != nil {
		s.alerts.Close()
	}
	closeSink(s.sink)
	if dropped := s.bus.Dropped(); dropped > 0 {
		s.log.Warnf("%d prediction events dropped by lagging consumers", dropped)
	}
	return s.store.Close()
}

func closeSink(sink coremetrics.MetricsSink) {
	switch v := sink.(type) {
	case *coremetrics.MultiSink:
		for _, s := range v.Sinks {
			closeSink(s)
		}
	case interface{ Close() }:
		v.Close()
	}
}
