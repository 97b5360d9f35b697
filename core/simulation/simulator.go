package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/inasolar/microgrid/core/datasource"
	"github.com/inasolar/microgrid/core/logger"
	"github.com/inasolar/microgrid/core/model"
)

// DayError records a calendar day that could not be simulated. The
// range simulation skips the day and continues; callers decide whether
// a gapped table is acceptable.
type DayError struct {
	Date time.Time
	Err  error
}

func (e DayError) Error() string {
	return fmt.Sprintf("day %s: %v", e.Date.Format("2006-01-02"), e.Err)
}

func (e DayError) Unwrap() error { return e.Err }

// RangeResult is the outcome of a multi-day simulation: the (possibly
// gapped) dispatch table plus one error per skipped day.
type RangeResult struct {
	Table     model.DispatchTable
	DayErrors []DayError
}

// Simulator drives the hourly engine across a date range, carrying
// storage state over hour and day boundaries.
type Simulator struct {
	cfg *Config
	src datasource.Source
	log logger.Logger
}

// NewSimulator builds a Simulator. The config is recomputed before
// every range run, so callers may mutate base fields in between.
func NewSimulator(cfg *Config, src datasource.Source, log logger.Logger) *Simulator {
	return &Simulator{cfg: cfg, src: src, log: log}
}

// Config exposes the run configuration, mainly for the optimizer.
func (s *Simulator) Config() *Config { return s.cfg }

// SimulateRange simulates every calendar day in [start, end]. Days that
// fail (for example with missing hours) are reported in the result and
// skipped without aborting the range.
func (s *Simulator) SimulateRange(ctx context.Context, start, end time.Time, loc datasource.Location, withFailures bool) (RangeResult, error) {
	if err := s.cfg.Validate(); err != nil {
		return RangeResult{}, err
	}
	s.cfg.Recompute()

	installed, err := s.src.InstalledCapacity(ctx, loc.Area, datasource.ResourcePhotovoltaic)
	if err != nil {
		return RangeResult{}, fmt.Errorf("installed capacity: %w", err)
	}
	if installed > 0 {
		s.cfg.PVFarmsInstalledPower = installed
	}
	refMax, err := s.src.ReferenceMaxDemand(ctx)
	if err != nil {
		return RangeResult{}, fmt.Errorf("reference max demand: %w", err)
	}

	horizon := int(end.Sub(start).Hours()) + 24
	gen := NewFailureGenerator(s.cfg.Failures, horizon, withFailures)
	engine := NewEngine(s.cfg, refMax, s.log)

	var res RangeResult
	var prev *model.HourlyRecord
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		flags := gen.NextDay()
		rows, err := s.src.HourlyRows(ctx, loc, day, day, datasource.DemandFieldPower)
		if err == nil {
			var genByHour map[int]float64
			genByHour, err = s.src.AreaGeneration(ctx, loc.Area, day)
			if err == nil {
				var dayRows []model.HourlyRecord
				dayRows, err = engine.AssignDay(day, rows, genByHour, flags, prev)
				if err == nil {
					res.Table = append(res.Table, dayRows...)
					prev = &res.Table[len(res.Table)-1]
				}
			}
		}
		if err != nil {
			s.log.Warnf("simulation skipped %s: %v", day.Format("2006-01-02"), err)
			res.DayErrors = append(res.DayErrors, DayError{Date: day, Err: err})
		}
	}
	return res, nil
}

