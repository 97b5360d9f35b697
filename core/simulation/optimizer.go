package simulation

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/inasolar/microgrid/core/datasource"
	"github.com/inasolar/microgrid/core/logger"
	"github.com/inasolar/microgrid/core/model"
)

// ScenarioParameter is one resource dimension varied by a scenario
// group: deltas are enumerated in [-Interval, Interval] stepping by
// Step, inclusive on both ends.
type ScenarioParameter struct {
	Name     string  `json:"name"`
	Interval float64 `json:"interval"`
	Step     float64 `json:"step"`
}

// ScenarioGroup varies one to four resources together.
type ScenarioGroup struct {
	Name       string              `json:"name"`
	Parameters []ScenarioParameter `json:"parameters"`
}

// deltaTargets maps a scenario parameter to the config fields it
// scales. Paired fields (volume and initial stock, both hydraulic
// machines) always move by the same percentage.
var deltaTargets = map[string][]func(*Config) *float64{
	"photovoltaic_power": {func(c *Config) *float64 { return &c.PhotovoltaicPower }},
	"wind_turbine_power": {func(c *Config) *float64 { return &c.WindTurbinePower }},
	"generator_max_power": {
		func(c *Config) *float64 { return &c.GeneratorMaxPower },
		func(c *Config) *float64 { return &c.GeneratorMinPower },
	},
	"digester_volume": {
		func(c *Config) *float64 { return &c.DigesterVolume },
		func(c *Config) *float64 { return &c.GasInitialVolume },
	},
	"hydraulic_power": {
		func(c *Config) *float64 { return &c.TurbinePower },
		func(c *Config) *float64 { return &c.PumpPower },
	},
	"tank_volume": {
		func(c *Config) *float64 { return &c.UpperTankVolume },
		func(c *Config) *float64 { return &c.LowerTankVolume },
		func(c *Config) *float64 { return &c.InitialUpperTankVolume },
	},
}

// OptimizeRequest describes a scenario sweep.
type OptimizeRequest struct {
	// RunID identifies the sweep in logs and on progress topics. A
	// fresh one is generated when empty.
	RunID        string
	Groups       []ScenarioGroup
	Start, End   time.Time
	Location     datasource.Location
	WithFailures bool
}

// Optimizer runs a range simulation for every scenario of a parameter
// sweep. Scenarios never share a mutable config: the baseline is
// snapshotted and the deltas re-applied for each combination.
type Optimizer struct {
	baseline Config
	src      datasource.Source
	log      logger.Logger
}

// NewOptimizer builds an Optimizer around a baseline config. The
// baseline is copied; the caller's config is never mutated.
func NewOptimizer(baseline Config, src datasource.Source, log logger.Logger) *Optimizer {
	return &Optimizer{baseline: baseline, src: src, log: log}
}

// Optimize enumerates every coherent scenario of every group, runs the
// range simulation for each and returns the ordered scenario results.
// The all-zero-delta scenario is always at index 0.
//
// Progress percentages are offered on progress (a single-slot channel)
// whenever its previous value has been drained; the terminal 100 and
// the cancellation 0 are always delivered. Cancellation is cooperative
// and checked between scenarios; on cancellation the partial results
// are returned together with ctx.Err().
func (o *Optimizer) Optimize(ctx context.Context, req OptimizeRequest, progress chan int) ([]model.ScenarioResult, error) {
	groups, total, err := enumerateGroups(req.Groups)
	if err != nil {
		return nil, err
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	o.log.Infof("optimization %s: %d scenarios across %d groups", runID, total, len(groups))

	var results []model.ScenarioResult
	index := 0
	for gi, combos := range groups {
		for _, deltas := range combos {
			if ctx.Err() != nil {
				drain(progress)
				if progress != nil {
					progress <- 0
				}
				o.log.Warnf("optimization %s cancelled at scenario %d/%d", runID, index, total)
				return results, ctx.Err()
			}

			cfg := o.baseline
			params, err := applyDeltas(&cfg, deltas)
			if err != nil {
				return results, err
			}
			sim := NewSimulator(&cfg, o.src, o.log)
			rangeRes, err := sim.SimulateRange(ctx, req.Start, req.End, req.Location, req.WithFailures)
			if err != nil {
				return results, fmt.Errorf("scenario %d: %w", index, err)
			}
			results = append(results, model.ScenarioResult{
				Index:      index,
				Group:      req.Groups[gi].Name,
				Deltas:     deltas,
				Parameters: params,
				Summaries:  Summarize(rangeRes.Table, true),
			})

			index++
			if pct := int(math.Round(100 * float64(index) / float64(total))); pct < 100 {
				offer(progress, pct)
			}
		}
	}
	if progress != nil {
		progress <- 100
	}
	return results, nil
}

// offer performs a non-blocking send: mid-run progress is dropped when
// the consumer has not drained the previous value yet.
func offer(progress chan int, pct int) {
	if progress == nil {
		return
	}
	select {
	case progress <- pct:
	default:
	}
}

func drain(progress chan int) {
	if progress == nil {
		return
	}
	select {
	case <-progress:
	default:
	}
}

// enumerateGroups expands every group into its delta combinations,
// moves the default scenario first, drops incoherent combinations and
// deduplicates against earlier groups. It returns the per-group
// combinations and the total scenario count.
func enumerateGroups(groups []ScenarioGroup) ([][]map[string]float64, int, error) {
	var all [][]map[string]float64
	total := 0
	for _, g := range groups {
		combos, err := enumerateGroup(g)
		if err != nil {
			return nil, 0, err
		}
		for _, earlier := range all {
			combos = filterScenarios(combos, earlier)
		}
		total += len(combos)
		all = append(all, combos)
	}
	if total == 0 {
		return nil, 0, ErrDefaultScenarioNotFound
	}
	return all, total, nil
}

func enumerateGroup(g ScenarioGroup) ([]map[string]float64, error) {
	names := make([]string, len(g.Parameters))
	values := make([][]float64, len(g.Parameters))
	for i, p := range g.Parameters {
		if _, ok := deltaTargets[p.Name]; !ok {
			return nil, fmt.Errorf("unknown scenario parameter %q", p.Name)
		}
		if p.Step <= 0 {
			return nil, fmt.Errorf("scenario parameter %q: step must be positive", p.Name)
		}
		names[i] = p.Name
		for v := -p.Interval; v <= p.Interval+1e-9; v += p.Step {
			values[i] = append(values[i], round3(v))
		}
	}

	var combos []map[string]float64
	idx := make([]int, len(values))
	for {
		combo := make(map[string]float64, len(names))
		for i, name := range names {
			combo[name] = values[i][idx[i]]
		}
		if keepScenario(combo) {
			combos = append(combos, combo)
		}
		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(values[pos]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}
	return moveDefaultScenario(combos)
}

// keepScenario drops combinations where a resource's paired volume and
// power deltas diverge: when both dimensions of biogas (or hydraulic)
// appear in a group they must change by the same percentage.
func keepScenario(combo map[string]float64) bool {
	biogasPower, hasBioPower := combo["generator_max_power"]
	biogasVolume, hasBioVolume := combo["digester_volume"]
	hydraulicPower, hasHydPower := combo["hydraulic_power"]
	tankVolume, hasTankVolume := combo["tank_volume"]

	biogasExists := hasBioPower && hasBioVolume
	hydraulicExists := hasHydPower && hasTankVolume
	biogasCoherent := biogasExists && biogasPower == biogasVolume
	hydraulicCoherent := hydraulicExists && hydraulicPower == tankVolume

	switch {
	case biogasCoherent && !hydraulicExists:
		return true
	case hydraulicCoherent && !biogasExists:
		return true
	case biogasCoherent && hydraulicCoherent:
		return true
	case !biogasExists && !hydraulicExists:
		return true
	}
	return false
}

// sameScenario reports whether combo is already covered by an earlier
// combination: every delta either matches or is zero.
func sameScenario(combo, earlier map[string]float64) bool {
	for name, delta := range combo {
		if prev, ok := earlier[name]; ok && prev == delta {
			continue
		}
		if delta != 0 {
			return false
		}
	}
	return true
}

func filterScenarios(combos []map[string]float64, earlier []map[string]float64) []map[string]float64 {
	kept := combos[:0]
	for _, combo := range combos {
		duplicated := false
		for _, e := range earlier {
			if sameScenario(combo, e) {
				duplicated = true
				break
			}
		}
		if !duplicated {
			kept = append(kept, combo)
		}
	}
	return kept
}

// moveDefaultScenario moves the all-zero-delta combination to the
// front of its group.
func moveDefaultScenario(combos []map[string]float64) ([]map[string]float64, error) {
	for i, combo := range combos {
		allZero := true
		for _, delta := range combo {
			if delta != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			def := combos[i]
			combos = append(combos[:i], combos[i+1:]...)
			return append([]map[string]float64{def}, combos...), nil
		}
	}
	return nil, ErrDefaultScenarioNotFound
}

// applyDeltas scales the targeted config fields by (1+delta) and
// recomputes the derived fields. It returns the resulting parameter
// values for the scenario record.
func applyDeltas(cfg *Config, deltas map[string]float64) (map[string]float64, error) {
	params := make(map[string]float64)
	for name, delta := range deltas {
		targets, ok := deltaTargets[name]
		if !ok {
			return nil, fmt.Errorf("unknown scenario parameter %q", name)
		}
		for _, target := range targets {
			field := target(cfg)
			*field *= 1 + delta
		}
		params[name] = round2(*targets[0](cfg))
	}
	cfg.Recompute()
	return params, nil
}
