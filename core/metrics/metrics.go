package metrics

import "github.com/inasolar/microgrid/core/model"

// Sink exports simulation outcomes to a monitoring backend.
type Sink interface {
	// RecordSummary exports one aggregated summary. mode is "base" or
	// "regulated".
	RecordSummary(mode string, s model.Summary) error
	// RecordScenario exports the outcome of one optimizer scenario.
	RecordScenario(res model.ScenarioResult) error
	// RecordProgress exports the completion percentage of a running
	// optimization.
	RecordProgress(runID string, pct int) error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordSummary(string, model.Summary) error { return nil }
func (NopSink) RecordScenario(model.ScenarioResult) error { return nil }
func (NopSink) RecordProgress(string, int) error          { return nil }
