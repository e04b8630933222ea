// Package mqtt publishes scam alerts to an MQTT broker with Eclipse Paho.
package mqtt

import (
	"encoding/json"
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/ridefair/core/metrics"
	"github.com/kilianp07/ridefair/core/monitoring"
	"github.com/kilianp07/ridefair/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// ScamAlert is the JSON payload published for every SCAM verdict.
type ScamAlert struct {
	ID              string  `json:"id"`
	DistanceKM      float64 `json:"distance_km"`
	PriceAsked      float64 `json:"price_asked"`
	ScamProbability float64 `json:"scam_probability"`
	Verdict         string  `json:"verdict"`
	Timestamp       int64   `json:"timestamp"`
}

// AlertPublisher sends scam alerts to the configured topic.
type AlertPublisher struct {
	cli        pahoClient
	topic      string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

// NewAlertPublisher connects to the broker.
func NewAlertPublisher(cfg Config) (*AlertPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mqtt broker not configured")
	}
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_alerts")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &AlertPublisher{
		cli:        c,
		topic:      cfg.AlertTopic,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
	}, nil
}

// RecordPrediction publishes an alert for SCAM verdicts and ignores every
// other event, so the publisher can sit behind the metrics sink interface.
func (p *AlertPublisher) RecordPrediction(ev metrics.PredictionEvent) error {
	if ev.Kind != metrics.KindScam || ev.Verdict != "SCAM" {
		return nil
	}
	payload, err := json.Marshal(ScamAlert{
		ID:              ev.ID,
		DistanceKM:      ev.DistanceKM,
		PriceAsked:      ev.PriceAsked,
		ScamProbability: ev.Probability,
		Verdict:         ev.Verdict,
		Timestamp:       ev.Time.UnixMilli(),
	})
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(p.topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("scam alert %s sent to %s", ev.ID, p.topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	monitoring.CaptureException(publishErr, map[string]string{"module": "mqtt", "prediction_id": ev.ID})
	return publishErr
}

// Close disconnects from the broker.
func (p *AlertPublisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
