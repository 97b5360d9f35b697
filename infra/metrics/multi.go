package metrics

import (
	coremetrics "github.com/inasolar/microgrid/core/metrics"
	"github.com/inasolar/microgrid/core/model"
)

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSummary forwards the summary to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordSummary(mode string, s model.Summary) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordSummary(mode, s); err != nil {
			return err
		}
	}
	return nil
}

// RecordScenario forwards the scenario to all sinks.
func (m *MultiSink) RecordScenario(res model.ScenarioResult) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordScenario(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordProgress forwards the progress update to all sinks.
func (m *MultiSink) RecordProgress(runID string, pct int) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordProgress(runID, pct); err != nil {
			return err
		}
	}
	return nil
}
