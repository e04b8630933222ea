package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/ridefair/core/metrics"
	coremon "github.com/kilianp07/ridefair/core/monitoring"
)

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts        *paho.ClientOptions
	published   []published
	publishErrs []error
	connectErr  error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	return &dummyToken{err: m.connectErr}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, published{topic, qos, retained, b})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d *dummyToken) Wait() bool                     { return true }
func (d *dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d *dummyToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (d *dummyToken) Error() error { return d.err }

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func scamEvent() metrics.PredictionEvent {
	return metrics.PredictionEvent{
		ID: "p-1", Kind: metrics.KindScam, DistanceKM: 5, PriceAsked: 300,
		Verdict: "SCAM", Probability: 99.9, Time: time.UnixMilli(1700000000000),
	}
}

func TestPublishScamAlert(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	p, err := NewAlertPublisher(Config{Broker: "tcp://localhost:1883", QoS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer p.Close()
	if err := p.RecordPrediction(scamEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(mc.published))
	}
	msg := mc.published[0]
	if msg.topic != DefaultAlertTopic || msg.qos != 1 {
		t.Fatalf("unexpected topic/qos %s/%d", msg.topic, msg.qos)
	}
	var alert ScamAlert
	if err := json.Unmarshal(msg.payload, &alert); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if alert.ID != "p-1" || alert.PriceAsked != 300 || alert.Timestamp != 1700000000000 {
		t.Fatalf("unexpected alert %+v", alert)
	}
	if mc.opts.ClientID == "" {
		t.Fatalf("client id not defaulted")
	}
}

func TestIgnoresNonScamEvents(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	p, err := NewAlertPublisher(Config{Broker: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	fair := scamEvent()
	fair.Verdict = "FAIR"
	price := metrics.PredictionEvent{Kind: metrics.KindPrice, FairPrice: 100}
	for _, ev := range []metrics.PredictionEvent{fair, price} {
		if err := p.RecordPrediction(ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if len(mc.published) != 0 {
		t.Fatalf("unexpected publish")
	}
}

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) CapturePanic(any)    {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestRetryThenCapture(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMock(t, mc)
	p, err := NewAlertPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := p.RecordPrediction(scamEvent()); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(mc.published))
	}

	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})
	mc.publishErrs = []error{fmt.Errorf("down"), fmt.Errorf("down")}
	if err := p.RecordPrediction(scamEvent()); err == nil {
		t.Fatalf("expected error")
	}
	if mon.err == nil || mon.tags["module"] != "mqtt" || mon.tags["prediction_id"] != "p-1" {
		t.Fatalf("error not captured: %+v", mon)
	}
}

func TestNewAlertPublisherErrors(t *testing.T) {
	if _, err := NewAlertPublisher(Config{}); err == nil {
		t.Fatalf("expected error without broker")
	}
	mc := &mockClient{connectErr: fmt.Errorf("refused")}
	withMock(t, mc)
	if _, err := NewAlertPublisher(Config{Broker: "tcp://localhost:1883"}); err == nil {
		t.Fatalf("expected connect error")
	}
}

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile, keyFile, caFile = dir+"/cert.pem", dir+"/key.pem", dir+"/ca.pem"
	for path, data := range map[string][]byte{certFile: certPEM, keyFile: keyPEM, caFile: certPEM} {
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	tlsCfg, err := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) != 1 || tlsCfg.RootCAs == nil {
		t.Fatalf("tls config incomplete")
	}
	caOnly, err := Config{UseTLS: true, CABundle: ca}.LoadTLSConfig()
	if err != nil || len(caOnly.Certificates) != 0 {
		t.Fatalf("ca only: %v", err)
	}
	if _, err := (Config{UseTLS: true}).LoadTLSConfig(); err == nil {
		t.Fatalf("expected error without ca bundle")
	}
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" || opts.ClientID != "id" {
		t.Fatalf("auth not set")
	}
}
