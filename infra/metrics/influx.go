package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ridefair/core/metrics"
	"github.com/kilianp07/ridefair/infra/logger"
)

// InfluxSink writes prediction and training events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPrediction writes one prediction_event point.
func (s *InfluxSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, predictionPoint(ev))
}

// RecordTrainingRun writes one training_run point.
func (s *InfluxSink) RecordTrainingRun(run coremetrics.TrainingRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, trainingPoint(run))
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func predictionPoint(ev coremetrics.PredictionEvent) *write.Point {
	p := write.NewPointWithMeasurement("prediction_event").
		AddTag("kind", string(ev.Kind)).
		AddTag("outcome", outcome(ev)).
		AddTag("component", "predictor").
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	switch ev.Kind {
	case coremetrics.KindPrice:
		p = p.AddField("distance_km", round3(ev.DistanceKM)).
			AddField("hour", ev.Hour).
			AddField("is_weekend", ev.IsWeekend).
			AddField("fair_price", round3(ev.FairPrice))
	case coremetrics.KindScam:
		p = p.AddField("distance_km", round3(ev.DistanceKM)).
			AddField("price_asked", round3(ev.PriceAsked)).
			AddField("scam_probability", round3(ev.Probability))
	case coremetrics.KindHotspots:
		p = p.AddField("hotspots", ev.Hotspots)
	}
	if ev.Rejected() {
		p = p.AddField("error", ev.Err)
	}
	return p.SetTime(ev.Time)
}

func trainingPoint(run coremetrics.TrainingRun) *write.Point {
	p := write.NewPointWithMeasurement("training_run").
		AddTag("run_id", run.RunID).
		AddTag("component", "trainer").
		AddField("records", run.Records).
		AddField("scam_fraction", round3(run.ScamFraction)).
		AddField("seeded", run.Seeded).
		AddField("success", run.Success).
		AddField("duration_ms", round3(run.Duration.Seconds()*1000))
	if run.SeedError != "" {
		p = p.AddField("seed_error", run.SeedError)
	}
	return p.SetTime(run.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
