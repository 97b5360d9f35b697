package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/inasolar/microgrid/core/metrics"
	"github.com/inasolar/microgrid/core/model"
)

// PromSink exports simulation summaries and optimization progress as
// Prometheus metrics.
type PromSink struct {
	summary   *prometheus.GaugeVec
	scenarios prometheus.Counter
	progress  *prometheus.GaugeVec
}

// NewPromSink registers the simulation metrics on the default
// Prometheus registerer.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	summary := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "simulation_summary",
		Help: "Aggregated simulation summary fields per regulation mode",
	}, []string{"mode", "field"})
	scenarios := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimization_scenarios_total",
		Help: "Total number of optimizer scenarios simulated",
	})
	progress := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optimization_progress_percent",
		Help: "Completion percentage of a running optimization",
	}, []string{"run_id"})

	if err := reg.Register(summary); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			summary = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(scenarios); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			scenarios = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(progress); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			progress = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{summary: summary, scenarios: scenarios, progress: progress}, nil
}

// RecordSummary sets one gauge per summary field.
func (s *PromSink) RecordSummary(mode string, sum model.Summary) error {
	for field, value := range summaryFields(sum) {
		s.summary.WithLabelValues(mode, field).Set(value)
	}
	return nil
}

// RecordScenario counts completed scenarios and exports the regulated
// summary of the scenario.
func (s *PromSink) RecordScenario(res model.ScenarioResult) error {
	s.scenarios.Inc()
	return s.RecordSummary("regulated", res.Summaries.Regulated)
}

// RecordProgress sets the progress gauge for the run.
func (s *PromSink) RecordProgress(runID string, pct int) error {
	s.progress.WithLabelValues(runID).Set(float64(pct))
	return nil
}

func summaryFields(s model.Summary) map[string]float64 {
	return map[string]float64{
		"surplus":                s.SurplusSummary,
		"grid":                   s.GridSummary,
		"balance":                s.Balance,
		"absolute_sum":           s.AbsoluteSum,
		"interchange_count":      float64(s.InterchangeCount),
		"failures":               float64(s.NumberFailures),
		"sos_water_tank":         s.SOSWaterTank,
		"sos_biogas":             s.SOSBiogas,
		"lole_sin":               float64(s.LOLESin),
		"lole_con":               float64(s.LOLECon),
		"lole_total":             float64(s.LOLETotal),
		"lolp_sin":               s.LOLPSin,
		"lolp_con":               s.LOLPCon,
		"lolp_total":             s.LOLPTotal,
		"loss_load":              s.LossLoad,
		"energy_not_used":        s.EnergyNotUsed,
		"energy_cost_renewables": s.EnergyCostRenewables,
		"energy_interchange":     s.EnergyInterchange,
		"interruptions":          float64(s.NumberInterruptions),
	}
}
