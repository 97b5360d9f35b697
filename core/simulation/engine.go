package simulation

import (
	"fmt"
	"math"
	"time"

	"github.com/inasolar/microgrid/core/logger"
	"github.com/inasolar/microgrid/core/model"
)

// Engine computes the energy allocation of a single hour given the
// previous hour's storage state. It is strictly sequential: every hour
// depends on the one before it.
type Engine struct {
	cfg          *Config
	refMaxDemand float64
	log          logger.Logger
}

// NewEngine builds an engine around a recomputed config. refMaxDemand
// is the historical reference maximum used to scale measured demand.
func NewEngine(cfg *Config, refMaxDemand float64, log logger.Logger) *Engine {
	return &Engine{cfg: cfg, refMaxDemand: refMaxDemand, log: log}
}

// HourInput gathers everything the engine needs for one hour.
type HourInput struct {
	Date time.Time
	Hour int
	Obs  model.HourlyObservation
	// PVUnitFraction is the aggregated farm output for this hour as a
	// fraction of the installed photovoltaic power.
	PVUnitFraction float64
	Flags          model.ResourceFlags
	// Prev is the previous simulated hour, nil only at the very first
	// hour of a range.
	Prev *model.HourlyRecord
}

// Assign runs the full dispatch pipeline for one hour, producing both
// the unregulated and the regulated series.
func (e *Engine) Assign(in HourInput) model.HourlyRecord {
	cfg := e.cfg
	rec := model.HourlyRecord{
		Date:    in.Date,
		Hour:    in.Hour,
		Working: in.Flags,
		Coef:    model.UnitCoefficients(),

		GridPrice:    in.Obs.Price / 1000,
		SurplusPrice: 0.93*(in.Obs.Surplus/1000) - 0.5/1000,

		WindSpeed:   in.Obs.WindSpeed(),
		Temperature: in.Obs.Temperature(),

		QBiogas: cfg.Derived.QBiogasGenerated,
		QBiomet: cfg.Derived.QBiometGenerated,
	}

	if in.Prev == nil {
		rec.NewFailures = model.ResourceFlags{
			FV:      1 - in.Flags.FV,
			Eolic:   1 - in.Flags.Eolic,
			Biogas:  1 - in.Flags.Biogas,
			Pump:    1 - in.Flags.Pump,
			Turbine: 1 - in.Flags.Turbine,
		}
	} else {
		rec.NewFailures = newFailures(in.Flags, in.Prev.Working)
	}

	rec.PotFVUni = in.PVUnitFraction * float64(in.Flags.FV)
	rec.PotEolUni = e.windFraction(rec.WindSpeed) * float64(in.Flags.Eolic)
	rec.PotDemUni = in.Obs.Power / e.refMaxDemand
	rec.PotDem = rec.PotDemUni * cfg.MaxDemand
	rec.EnergyCostWithoutRenewables = rec.PotDem * rec.GridPrice

	prevBase, prevReg := prevSeries(in.Prev)

	rec.Base = e.computeSeries(&rec, prevBase, model.UnitCoefficients())
	e.finalizeSeries(&rec, &rec.Base, prevBase)

	if round3(rec.Base.PotDemFinal) < 0 {
		coef, final := e.resolveSurplus(&rec, prevReg)
		rec.Coef = coef
		rec.Regulated = e.computeSeries(&rec, prevReg, coef)
		rec.Regulated.PotDemFinal = final
	} else {
		rec.Regulated = e.computeSeries(&rec, prevReg, model.UnitCoefficients())
	}
	e.finalizeSeries(&rec, &rec.Regulated, prevReg)

	return rec
}

// AssignDay runs the 24 hourly assignments of one calendar day,
// carrying state from prev (hour 23 of the previous day, or nil). The
// emitted pump powers are negated, matching the sign convention of the
// dispatch tables.
func (e *Engine) AssignDay(day time.Time, rows []model.HourlyObservation, genByHour map[int]float64, flags DayFlags, prev *model.HourlyRecord) ([]model.HourlyRecord, error) {
	if len(rows) != 24 {
		return nil, fmt.Errorf("%w: got %d hourly rows", ErrIncompleteDay, len(rows))
	}
	out := make([]model.HourlyRecord, 0, 24)
	for hour := 0; hour < 24; hour++ {
		fraction, ok := genByHour[hour]
		if !ok {
			return nil, fmt.Errorf("%w: no farm generation for hour %d", ErrIncompleteDay, hour)
		}
		rec := e.Assign(HourInput{
			Date:           day.Add(time.Duration(hour) * time.Hour),
			Hour:           hour,
			Obs:            rows[hour],
			PVUnitFraction: fraction / e.cfg.PVFarmsInstalledPower,
			Flags:          flags.Hour(hour),
			Prev:           prev,
		})
		out = append(out, rec)
		prev = &out[len(out)-1]
	}
	for i := range out {
		out[i].Base.PotBombeo2 = -out[i].Base.PotBombeo2
		out[i].Regulated.PotBombeo2 = -out[i].Regulated.PotBombeo2
	}
	return out, nil
}

func prevSeries(prev *model.HourlyRecord) (*model.HourlySeries, *model.HourlySeries) {
	if prev == nil {
		return nil, nil
	}
	return &prev.Base, &prev.Regulated
}

func newFailures(cur, prev model.ResourceFlags) model.ResourceFlags {
	failed := func(c, p int) int {
		if c < p {
			return 1
		}
		return 0
	}
	return model.ResourceFlags{
		FV:      failed(cur.FV, prev.FV),
		Eolic:   failed(cur.Eolic, prev.Eolic),
		Biogas:  failed(cur.Biogas, prev.Biogas),
		Pump:    failed(cur.Pump, prev.Pump),
		Turbine: failed(cur.Turbine, prev.Turbine),
	}
}

// windFraction is the piecewise-linear turbine power curve.
func (e *Engine) windFraction(v float64) float64 {
	cfg := e.cfg
	switch {
	case v < cfg.MinSpeed || v >= cfg.MaxSpeedLimit:
		return 0
	case v > cfg.MaxSpeed:
		return 1
	default:
		return (v - cfg.MinSpeed) / (cfg.MaxSpeed - cfg.MinSpeed)
	}
}

// computeSeries runs pipeline steps 1-8 for one regulation mode: PV and
// wind scaling, biogas storage balance and clamping, hydraulic balance
// and clamping, and the final residual. prev is the same-mode series of
// the previous hour, nil at the first hour of a range.
func (e *Engine) computeSeries(rec *model.HourlyRecord, prev *model.HourlySeries, coef model.Coefficients) model.HourlySeries {
	cfg := e.cfg
	d := &cfg.Derived
	var s model.HourlySeries

	s.PotFV = rec.PotFVUni * cfg.PhotovoltaicPower * coef.FV
	s.PotEol = rec.PotEolUni * cfg.WindTurbinePower * coef.Eolic
	s.PotDem1 = rec.PotDem - s.PotFV - s.PotEol

	var bio1 float64
	if s.PotDem1 > 0 {
		bio1 = min(s.PotDem1, cfg.GeneratorMaxPower)
	}
	s.PotBio1 = bio1 * float64(rec.Working.Biogas)

	prevBio := cfg.GasInitialVolume
	if prev != nil {
		prevBio = prev.VolBioFinal
	}
	s.VolBioInicial = prevBio - s.PotBio1*d.BioConversionFactor + d.QBiogasGenerated

	switch {
	case s.VolBioInicial > d.BiogasMaximumVolume:
		s.PotBio2 = s.PotBio1 + (s.VolBioInicial-d.BiogasMaximumVolume)/d.BioConversionFactor
	case s.VolBioInicial > d.BiogasMinimumVolume:
		s.PotBio2 = s.PotBio1
	default:
		s.PotBio2 = s.PotBio1 - (d.BiogasMinimumVolume-s.VolBioInicial)/d.BioConversionFactor
	}
	s.PotBio3 = min(coef.Biogas*cfg.GeneratorMaxPower, s.PotBio2*coef.Biogas)
	s.PotDem2 = s.PotDem1 - s.PotBio3

	var pump float64
	if s.PotDem2 < 0 {
		pump = min(-s.PotDem2, cfg.PumpPower)
	}
	s.PotBombeo = pump * float64(rec.Working.Pump)

	var turbine float64
	if s.PotDem2 > 0 {
		turbine = min(cfg.TurbinePower, s.PotDem2)
	}
	s.PotTurbina = turbine * float64(rec.Working.Turbine)

	prevInf := min(d.LowerMaximumVolumeDam, cfg.InitialLowerTankVolume)
	prevSup := cfg.InitialUpperTankVolume
	prevInfClamp := cfg.InitialLowerTankVolume
	prevSupClamp := cfg.InitialUpperTankVolume
	if prev != nil {
		prevInf, prevSup = prev.VolDepInf2, prev.VolDepSup2
		prevInfClamp, prevSupClamp = prev.VolDepInf2, prev.VolDepSup2
	}
	s.VolDepInf1 = prevInf + s.PotTurbina*d.QgDam - s.PotBombeo*d.QbDam
	s.VolDepSup1 = prevSup - s.PotTurbina*d.QgDam + s.PotBombeo*d.QbDam

	var pump2 float64
	switch {
	case s.VolDepInf1 <= 0:
		pump2 = prevInfClamp / d.QbDam
	case s.VolDepSup1 > cfg.UpperTankVolume:
		pump2 = s.PotBombeo - (s.VolDepSup1-cfg.UpperTankVolume)/d.QbDam
	default:
		pump2 = s.PotBombeo
	}
	s.PotBombeo2 = round4(pump2)

	var turbine2 float64
	switch {
	case s.VolDepSup1 <= 0:
		turbine2 = prevSupClamp / d.QgDam
	case s.VolDepInf1 > cfg.LowerTankVolume:
		turbine2 = s.PotTurbina - (s.VolDepInf1-cfg.LowerTankVolume)/d.QgDam
	default:
		turbine2 = s.PotTurbina
	}
	s.PotTurbina2 = turbine2

	s.PotDemFinal = s.PotDem2 - s.PotTurbina2 + s.PotBombeo2
	return s
}

// finalizeSeries runs pipeline steps 9-10 for one regulation mode:
// storage carry-out, costs, flare burn, state of charge, grid/surplus
// split and the loss-of-load bookkeeping.
func (e *Engine) finalizeSeries(rec *model.HourlyRecord, s *model.HourlySeries, prev *model.HourlySeries) {
	cfg := e.cfg
	d := &cfg.Derived

	if prev != nil {
		s.VolBioFinal = prev.VolBioFinal - s.PotBio2*d.BioConversionFactor + d.QBiogasGenerated
		s.VolDepInf2 = prev.VolDepInf2 + s.PotTurbina2*d.QgDam - s.PotBombeo2*d.QbDam
		s.VolDepSup2 = prev.VolDepSup2 - s.PotTurbina2*d.QgDam + s.PotBombeo2*d.QbDam
	} else {
		s.VolBioFinal = cfg.GasInitialVolume - s.PotBio3*d.BioConversionFactor + d.QBiogasGenerated
		s.VolDepInf2 = min(d.LowerMaximumVolumeDam, cfg.InitialLowerTankVolume) +
			s.PotTurbina2*d.QgDam - s.PotBombeo2*d.QbDam
		s.VolDepSup2 = cfg.InitialUpperTankVolume - s.PotTurbina2*d.QgDam + s.PotBombeo2*d.QbDam
	}

	s.FVGenerationCost = s.PotFV * (cfg.PVGenerationMeanCost / 100)
	s.FVCost = s.FVGenerationCost + d.PVAmortizationCostHour
	s.EolGenerationCost = s.PotEol * (cfg.EolGenerationMeanCost / 100)
	s.EolCost = s.EolGenerationCost + d.EolAmortizationCostHour
	s.BioGenerationCost = s.PotBio3 * (cfg.BioGenerationMeanCost / 100)
	s.BioCost = s.BioGenerationCost + d.BioAmortizationCostHour

	s.PotQuemAnt = s.PotBio2 - s.PotBio3
	s.SoSPotQuemAnt = (s.PotQuemAnt / d.BiogasMaxDigester) * 100

	if cfg.DigesterVolume != 0 {
		s.SOSVolBioFinal = round2((s.VolBioFinal - d.BiogasMinimumVolume) /
			(d.BiogasMaximumVolume - d.BiogasMinimumVolume) * 100)
	}
	s.SOSVolDepSup2 = round2(s.VolDepSup2 / cfg.UpperTankVolume * 100)

	s.HydraulicGenerationCost = s.PotTurbina2 * (cfg.HydraulicGenerationMeanCost / 100)
	s.HydraulicCost = s.HydraulicGenerationCost + d.HydraulicAmortizationCostHour

	if s.PotDemFinal >= 0 {
		s.Grid = s.PotDemFinal
		s.Surplus = 0
	} else {
		s.Grid = 0
		s.Surplus = s.PotDemFinal
	}

	s.MoneySpent = s.Grid*rec.GridPrice - s.Surplus*rec.SurplusPrice
	s.EnergyCostWithRenewables = s.MoneySpent + s.FVCost + s.EolCost + s.BioCost + s.HydraulicCost
	s.DifferenceWithoutGrid = rec.EnergyCostWithoutRenewables - s.EnergyCostWithRenewables
	s.RenewablesPower = s.PotFV + s.PotEol + s.PotBio3 + s.PotTurbina2
	s.RenewablesPowerWithGrid = s.RenewablesPower + s.Grid

	s.Allocation = allocationBreakdown(rec, s)

	if prev != nil && math.Round(prev.PotDemFinal) <= 0 && math.Round(s.PotDemFinal) > 0 {
		s.NIDG = 1
	}

	lole := 0
	if math.Round(s.PotDemFinal) > 0 {
		lole = 1
	}
	s.LOLEAux = lole
	s.LOLESin = lole * rec.Working.FV * rec.Working.Eolic * rec.Working.Biogas *
		rec.Working.Pump * rec.Working.Turbine
	s.LOLECon = s.LOLEAux - s.LOLESin
}

// allocationBreakdown splits demand, surplus and pumping across the
// generating sources proportionally to their share of the total output
// (grid import included).
func allocationBreakdown(rec *model.HourlyRecord, s *model.HourlySeries) map[string]float64 {
	sources := map[string]float64{
		"PotFV":       s.PotFV,
		"PotEol":      s.PotEol,
		"PotBio3":     s.PotBio3,
		"PotTurbina2": s.PotTurbina2,
		"Grid":        s.Grid,
	}
	targets := map[string]float64{
		"PotDem":     rec.PotDem,
		"Surplus":    s.Surplus,
		"PotBombeo2": s.PotBombeo2,
	}
	alloc := make(map[string]float64, len(sources)*len(targets))
	for src, power := range sources {
		var share float64
		if s.RenewablesPowerWithGrid != 0 {
			share = power / s.RenewablesPowerWithGrid
		}
		for tgt, value := range targets {
			alloc[tgt+"-"+src] = share * value
		}
	}
	return alloc
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
