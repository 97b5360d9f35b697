package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/inasolar/microgrid/core/model"
	"github.com/inasolar/microgrid/infra/logger"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type publishedMessage struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	published []publishedMessage
	failures  int
}

func (f *fakeClient) IsConnected() bool       { return true }
func (f *fakeClient) Connect() paho.Token     { return fakeToken{} }
func (f *fakeClient) Disconnect(uint)         {}
func (f *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	if f.failures > 0 {
		f.failures--
		return fakeToken{err: errors.New("broker unavailable")}
	}
	f.published = append(f.published, publishedMessage{topic: topic, qos: qos, payload: payload.([]byte)})
	return fakeToken{}
}

func testPublisher(cli pahoClient) *PahoPublisher {
	return &PahoPublisher{
		cli:        cli,
		prefix:     "microgrid",
		qos:        map[string]byte{"progress": 1},
		log:        logger.NopLogger{},
		maxRetries: 2,
		backoff:    time.Millisecond,
	}
}

func TestPublishProgress(t *testing.T) {
	cli := &fakeClient{}
	p := testPublisher(cli)

	if err := p.PublishProgress("run-1", 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cli.published) != 1 {
		t.Fatalf("expected 1 message got %d", len(cli.published))
	}
	msg := cli.published[0]
	if msg.topic != "microgrid/optimization/run-1/progress" {
		t.Fatalf("topic = %q", msg.topic)
	}
	if msg.qos != 1 {
		t.Fatalf("qos = %d", msg.qos)
	}
	var body struct {
		RunID   string `json:"run_id"`
		Percent int    `json:"percent"`
	}
	if err := json.Unmarshal(msg.payload, &body); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if body.RunID != "run-1" || body.Percent != 50 {
		t.Fatalf("payload = %+v", body)
	}
}

func TestPublishSummary(t *testing.T) {
	cli := &fakeClient{}
	p := testPublisher(cli)

	pair := model.SummaryPair{Base: model.Summary{Balance: 5}}
	if err := p.PublishSummary("run-2", pair); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := cli.published[0]
	if msg.topic != "microgrid/simulation/run-2/summary" {
		t.Fatalf("topic = %q", msg.topic)
	}
	if msg.qos != 0 {
		t.Fatalf("summary should use the default qos, got %d", msg.qos)
	}
	var body struct {
		Summaries model.SummaryPair `json:"summaries"`
	}
	if err := json.Unmarshal(msg.payload, &body); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if body.Summaries.Base.Balance != 5 {
		t.Fatalf("payload = %+v", body)
	}
}

func TestPublishRetries(t *testing.T) {
	cli := &fakeClient{failures: 2}
	p := testPublisher(cli)

	if err := p.PublishProgress("run-3", 10); err != nil {
		t.Fatalf("expected the publish to succeed after retries: %v", err)
	}
	if len(cli.published) != 1 {
		t.Fatalf("expected 1 delivered message got %d", len(cli.published))
	}

	cli = &fakeClient{failures: 10}
	p = testPublisher(cli)
	if err := p.PublishProgress("run-4", 10); err == nil {
		t.Fatal("expected an error once the retries are exhausted")
	}
}

func TestNewClientOptions(t *testing.T) {
	opts, err := NewClientOptions(Config{
		Broker:     "tcp://localhost:1883",
		ClientID:   "microgrid-1",
		Username:   "user",
		Password:   "secret",
		LWTTopic:   "microgrid/status",
		LWTPayload: "offline",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.ClientID != "microgrid-1" {
		t.Fatalf("client id = %q", opts.ClientID)
	}
	if opts.Username != "user" || opts.Password != "secret" {
		t.Fatal("credentials not applied")
	}
	if !opts.WillEnabled || opts.WillTopic != "microgrid/status" {
		t.Fatalf("will not applied: enabled=%v topic=%q", opts.WillEnabled, opts.WillTopic)
	}
}

func TestNewClientOptionsCertificateAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{
		Broker:     "tcp://localhost:1883",
		AuthMethod: "certificate",
		Username:   "ignored",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Username != "" {
		t.Fatalf("certificate auth must not set a username, got %q", opts.Username)
	}
}

func TestLoadTLSConfig(t *testing.T) {
	cfg := Config{UseTLS: true}
	if _, err := cfg.LoadTLSConfig(); err == nil {
		t.Fatal("expected an error without certificate paths")
	}
}
