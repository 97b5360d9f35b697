package metrics

import (
	"errors"
	"testing"

	coremetrics "github.com/inasolar/microgrid/core/metrics"
	"github.com/inasolar/microgrid/core/model"
)

// recordingSink counts calls and optionally fails.
type recordingSink struct {
	calls int
	err   error
}

func (r *recordingSink) RecordSummary(string, model.Summary) error { r.calls++; return r.err }
func (r *recordingSink) RecordScenario(model.ScenarioResult) error { r.calls++; return r.err }
func (r *recordingSink) RecordProgress(string, int) error          { r.calls++; return r.err }

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := NewMultiSink(a, b)

	if err := m.RecordSummary("base", model.Summary{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RecordScenario(model.ScenarioResult{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RecordProgress("run-1", 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 3 || b.calls != 3 {
		t.Fatalf("calls a=%d b=%d", a.calls, b.calls)
	}
}

func TestMultiSinkFirstError(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordingSink{err: boom}
	after := &recordingSink{}
	m := NewMultiSink(failing, after)

	if err := m.RecordProgress("run-1", 10); !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
	if after.calls != 0 {
		t.Fatalf("sinks after the failure must not be reached, got %d calls", after.calls)
	}
}

func TestNewSink(t *testing.T) {
	sink, err := NewSink(coremetrics.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("empty config should yield a NopSink, got %T", sink)
	}

	sink, err = NewSink(coremetrics.Config{Sinks: []coremetrics.SinkConfig{{Type: "prometheus"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sink.(*PromSink); !ok {
		t.Fatalf("expected a PromSink, got %T", sink)
	}

	sink, err = NewSink(coremetrics.Config{Sinks: []coremetrics.SinkConfig{{Type: "nop"}, {Type: "nop"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sink.(*MultiSink); !ok {
		t.Fatalf("expected a MultiSink, got %T", sink)
	}

	if _, err := NewSink(coremetrics.Config{Sinks: []coremetrics.SinkConfig{{Type: "statsd"}}}); err == nil {
		t.Fatal("expected an error for an unknown sink type")
	}
}
