package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inasolar/microgrid/core/model"
)

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metric
				}
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestPromSinkRecordSummary(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sink.RecordSummary("base", model.Summary{Balance: 5, GridSummary: 12}); err != nil {
		t.Fatalf("record summary: %v", err)
	}
	if got := gaugeValue(t, reg, "simulation_summary", map[string]string{"mode": "base", "field": "balance"}); got != 5 {
		t.Fatalf("balance gauge = %v", got)
	}
	if got := gaugeValue(t, reg, "simulation_summary", map[string]string{"mode": "base", "field": "grid"}); got != 12 {
		t.Fatalf("grid gauge = %v", got)
	}
}

func TestPromSinkRecordScenarioAndProgress(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := model.ScenarioResult{Summaries: model.SummaryPair{Regulated: model.Summary{Balance: 7}}}
	if err := sink.RecordScenario(res); err != nil {
		t.Fatalf("record scenario: %v", err)
	}
	if err := sink.RecordScenario(res); err != nil {
		t.Fatalf("record scenario: %v", err)
	}
	if got := gaugeValue(t, reg, "optimization_scenarios_total", nil); got != 2 {
		t.Fatalf("scenario counter = %v", got)
	}
	if got := gaugeValue(t, reg, "simulation_summary", map[string]string{"mode": "regulated", "field": "balance"}); got != 7 {
		t.Fatalf("regulated balance gauge = %v", got)
	}

	if err := sink.RecordProgress("run-1", 40); err != nil {
		t.Fatalf("record progress: %v", err)
	}
	if got := gaugeValue(t, reg, "optimization_progress_percent", map[string]string{"run_id": "run-1"}); got != 40 {
		t.Fatalf("progress gauge = %v", got)
	}
}

func TestPromSinkReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
}
