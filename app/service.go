package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inasolar/microgrid/config"
	coredatasource "github.com/inasolar/microgrid/core/datasource"
	"github.com/inasolar/microgrid/core/forecast"
	coremetrics "github.com/inasolar/microgrid/core/metrics"
	"github.com/inasolar/microgrid/core/model"
	"github.com/inasolar/microgrid/core/similarday"
	"github.com/inasolar/microgrid/core/simulation"
	"github.com/inasolar/microgrid/infra/datasource"
	"github.com/inasolar/microgrid/infra/logger"
	"github.com/inasolar/microgrid/infra/metrics"
	"github.com/inasolar/microgrid/infra/mqtt"
	"github.com/inasolar/microgrid/internal/eventbus"
)

// ProgressEvent is published on the service bus while an optimization
// runs.
type ProgressEvent struct {
	RunID   string
	Percent int
}

// Service wires the simulation core to the configured data source,
// metrics sinks and MQTT publisher.
type Service struct {
	cfg  *config.Config
	src  coredatasource.Source
	sink coremetrics.Sink
	pub  mqtt.Publisher
	bus  *eventbus.Bus[ProgressEvent]
	log  logger.Logger

	closers []func()
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.NewWithOptions("service", cfg.Logging.Env, cfg.Logging.Level)

	svc := &Service{
		cfg: cfg,
		bus: eventbus.New[ProgressEvent](),
		log: logg,
	}

	switch cfg.Datasource.Type {
	case "memory":
		svc.src = datasource.NewMemorySource()
	default:
		src := datasource.NewInfluxSource(cfg.Datasource.Influx)
		svc.src = src
		svc.closers = append(svc.closers, src.Close)
	}

	sink, err := metrics.NewSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	svc.sink = sink

	svc.pub = mqtt.NopPublisher{}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT.Config)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
		svc.closers = append(svc.closers, pub.Disconnect)
	}
	return svc, nil
}

// Source exposes the data source, mainly so tests and callers can seed
// a memory-backed service.
func (s *Service) Source() coredatasource.Source { return s.src }

// Bus exposes the progress event bus.
func (s *Service) Bus() *eventbus.Bus[ProgressEvent] { return s.bus }

// Simulate runs the dispatch simulation over a date range and exports
// its summaries.
func (s *Service) Simulate(ctx context.Context, start, end time.Time, loc coredatasource.Location, withFailures bool) (simulation.RangeResult, model.SummaryPair, error) {
	cfg := s.cfg.Simulation
	sim := simulation.NewSimulator(&cfg, s.src, s.log)
	res, err := sim.SimulateRange(ctx, start, end, loc, withFailures)
	if err != nil {
		return res, model.SummaryPair{}, err
	}
	pair := simulation.Summarize(res.Table, false)
	if err := s.sink.RecordSummary("base", pair.Base); err != nil {
		s.log.Warnf("record base summary: %v", err)
	}
	if err := s.sink.RecordSummary("regulated", pair.Regulated); err != nil {
		s.log.Warnf("record regulated summary: %v", err)
	}
	if err := s.pub.PublishSummary(uuid.NewString(), pair); err != nil {
		s.log.Warnf("publish summary: %v", err)
	}
	return res, pair, nil
}

// Optimize runs a scenario sweep, forwarding progress to the metrics
// sink, the MQTT topic and the service bus.
func (s *Service) Optimize(ctx context.Context, req simulation.OptimizeRequest) ([]model.ScenarioResult, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	opt := simulation.NewOptimizer(s.cfg.Simulation, s.src, s.log)

	progress := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for pct := range progress {
			if err := s.sink.RecordProgress(req.RunID, pct); err != nil {
				s.log.Warnf("record progress: %v", err)
			}
			if err := s.pub.PublishProgress(req.RunID, pct); err != nil {
				s.log.Warnf("publish progress: %v", err)
			}
			s.bus.Publish(ProgressEvent{RunID: req.RunID, Percent: pct})
		}
	}()

	results, err := opt.Optimize(ctx, req, progress)
	close(progress)
	<-done
	for _, res := range results {
		if rerr := s.sink.RecordScenario(res); rerr != nil {
			s.log.Warnf("record scenario %d: %v", res.Index, rerr)
		}
	}
	return results, err
}

// SimilarDaysByMargins matches historical days against an objective
// date using absolute margins.
func (s *Service) SimilarDaysByMargins(ctx context.Context, objective time.Time, start, end time.Time, loc coredatasource.Location, margins map[string]float64, dayTypes model.DayTypes) ([]model.HourlyObservation, error) {
	objectiveRows, candidates, err := s.loadMatchingRows(ctx, objective, start, end, loc)
	if err != nil {
		return nil, err
	}
	return similarday.NewMatcher(s.log).MatchByMargins(objectiveRows, candidates, margins, dayTypes)
}

// SimilarDaysByPonders ranks historical days against an objective date
// by weighted weather distance.
func (s *Service) SimilarDaysByPonders(ctx context.Context, objective time.Time, start, end time.Time, loc coredatasource.Location, weights []float64, topN int) ([]model.CandidateDay, []model.HourlyObservation, error) {
	objectiveRows, candidates, err := s.loadMatchingRows(ctx, objective, start, end, loc)
	if err != nil {
		return nil, nil, err
	}
	return similarday.NewMatcher(s.log).MatchByPonders(objectiveRows, candidates, weights, topN)
}

// loadMatchingRows fetches the candidate range and the objective day's
// rows. The objective day is loaded separately so a date outside the
// candidate range still works.
func (s *Service) loadMatchingRows(ctx context.Context, objective, start, end time.Time, loc coredatasource.Location) ([]model.HourlyObservation, []model.HourlyObservation, error) {
	candidates, err := s.src.HourlyRows(ctx, loc, start, end, coredatasource.DemandFieldPower)
	if err != nil {
		return nil, nil, fmt.Errorf("candidate rows: %w", err)
	}
	objectiveKey := objective.Format("2006-01-02")
	var objectiveRows []model.HourlyObservation
	for _, row := range candidates {
		if row.DateKey() == objectiveKey {
			objectiveRows = append(objectiveRows, row)
		}
	}
	if len(objectiveRows) == 0 {
		objectiveRows, err = s.src.HourlyRows(ctx, loc, objective, objective, coredatasource.DemandFieldPower)
		if err != nil {
			return nil, nil, fmt.Errorf("objective rows: %w", err)
		}
		candidates = append(candidates, objectiveRows...)
	}
	return objectiveRows, candidates, nil
}

// Forecast predicts future days from similar historical days and
// simulates the predicted series.
func (s *Service) Forecast(ctx context.Context, req forecast.Request) (forecast.Result, error) {
	cfg := s.cfg.Simulation
	pred := forecast.NewPredictor(&cfg, s.src, s.log)
	res, err := pred.Forecast(ctx, req)
	if err != nil {
		return res, err
	}
	pair := simulation.Summarize(res.Table, false)
	if err := s.sink.RecordSummary("base", pair.Base); err != nil {
		s.log.Warnf("record base summary: %v", err)
	}
	if err := s.sink.RecordSummary("regulated", pair.Regulated); err != nil {
		s.log.Warnf("record regulated summary: %v", err)
	}
	return res, nil
}

// Close releases connectors.
func (s *Service) Close() error {
	s.bus.Close()
	for _, closeFn := range s.closers {
		closeFn()
	}
	return nil
}
