package simulation

import (
	"testing"

	"github.com/inasolar/microgrid/core/model"
)

func TestSummarize(t *testing.T) {
	table := model.DispatchTable{
		{
			NewFailures: model.ResourceFlags{FV: 1},
			Base: model.HourlySeries{
				Grid:                     10,
				SOSVolDepSup2:            50,
				SOSVolBioFinal:           20,
				LOLESin:                  1,
				PotQuemAnt:               2,
				EnergyCostWithRenewables: 3,
				NIDG:                     1,
			},
		},
		{
			Base: model.HourlySeries{
				Surplus:                  -5,
				SOSVolDepSup2:            60,
				SOSVolBioFinal:           40,
				LOLECon:                  1,
				EnergyCostWithRenewables: 2,
			},
		},
	}

	pair := Summarize(table, false)
	s := pair.Base

	if s.Simulation != "Without Regulation" {
		t.Fatalf("base label = %q", s.Simulation)
	}
	if pair.Regulated.Simulation != "With Regulation" {
		t.Fatalf("regulated label = %q", pair.Regulated.Simulation)
	}

	approx(t, "GridSummary", s.GridSummary, 10)
	approx(t, "SurplusSummary", s.SurplusSummary, -5)
	approx(t, "Balance", s.Balance, 5)
	approx(t, "AbsoluteSum", s.AbsoluteSum, 5)
	if s.InterchangeCount != 2 {
		t.Fatalf("InterchangeCount = %d", s.InterchangeCount)
	}
	if s.NumberFailures != 1 {
		t.Fatalf("NumberFailures = %d", s.NumberFailures)
	}
	approx(t, "SOSWaterTank", s.SOSWaterTank, 55)
	approx(t, "SOSBiogas", s.SOSBiogas, 30)
	if s.LOLESin != 1 || s.LOLECon != 1 || s.LOLETotal != 2 {
		t.Fatalf("LOLE sin=%d con=%d total=%d", s.LOLESin, s.LOLECon, s.LOLETotal)
	}
	approx(t, "LOLPSin", s.LOLPSin, 50)
	approx(t, "LOLPCon", s.LOLPCon, 50)
	approx(t, "LOLPTotal", s.LOLPTotal, 100)
	approx(t, "LossLoad", s.LossLoad, 10)
	approx(t, "EnergyNotUsed", s.EnergyNotUsed, 7)
	approx(t, "EnergyCostRenewables", s.EnergyCostRenewables, 5)
	approx(t, "EnergyInterchange", s.EnergyInterchange, 15)
	if s.NumberInterruptions != 1 {
		t.Fatalf("NumberInterruptions = %d", s.NumberInterruptions)
	}
}

func TestSummarizeForOptimizer(t *testing.T) {
	table := model.DispatchTable{{Base: model.HourlySeries{Grid: 10, NIDG: 1}}}
	pair := Summarize(table, true)

	if pair.Base.Simulation != "" {
		t.Fatalf("optimizer summary must omit the label, got %q", pair.Base.Simulation)
	}
	if pair.Base.NumberInterruptions != 0 {
		t.Fatalf("optimizer summary must omit interruptions, got %d", pair.Base.NumberInterruptions)
	}
	approx(t, "GridSummary", pair.Base.GridSummary, 10)
}

func TestSummarizeEmptyTable(t *testing.T) {
	pair := Summarize(nil, false)
	if pair.Base != (model.Summary{}) || pair.Regulated != (model.Summary{}) {
		t.Fatalf("empty table must yield zero summaries: %+v", pair)
	}
}
