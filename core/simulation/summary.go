package simulation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/inasolar/microgrid/core/model"
)

// Summarize aggregates a dispatch table into one summary per
// regulation mode. Pure aggregation, no side effects. When optimizing,
// the interruption count and the mode label are omitted, matching the
// lighter scenario records.
func Summarize(table model.DispatchTable, optimizing bool) model.SummaryPair {
	return model.SummaryPair{
		Base:      summarizeSeries(table, func(r *model.HourlyRecord) *model.HourlySeries { return &r.Base }, "Without Regulation", optimizing),
		Regulated: summarizeSeries(table, func(r *model.HourlyRecord) *model.HourlySeries { return &r.Regulated }, "With Regulation", optimizing),
	}
}

func summarizeSeries(table model.DispatchTable, series func(*model.HourlyRecord) *model.HourlySeries, label string, optimizing bool) model.Summary {
	var sum model.Summary
	if len(table) == 0 {
		return sum
	}

	sosTank := make([]float64, 0, len(table))
	sosBio := make([]float64, 0, len(table))
	for i := range table {
		s := series(&table[i])
		sum.SurplusSummary += s.Surplus
		sum.GridSummary += s.Grid
		if s.Grid != 0 || s.Surplus != 0 {
			sum.InterchangeCount++
		}
		sum.NumberFailures += table[i].NewFailures.Sum()
		sum.LOLESin += s.LOLESin
		sum.LOLECon += s.LOLECon
		sum.EnergyNotUsed += s.PotQuemAnt
		sum.EnergyCostRenewables += s.EnergyCostWithRenewables
		sum.NumberInterruptions += s.NIDG
		sosTank = append(sosTank, s.SOSVolDepSup2)
		sosBio = append(sosBio, s.SOSVolBioFinal)
	}

	sum.SurplusSummary = round2(sum.SurplusSummary)
	absoluteSurplus := abs(sum.SurplusSummary)
	sum.GridSummary = round2(sum.GridSummary)
	sum.Balance = round2(sum.GridSummary + sum.SurplusSummary)
	sum.AbsoluteSum = sum.Balance
	sum.SOSWaterTank = round2(stat.Mean(sosTank, nil))
	sum.SOSBiogas = round2(stat.Mean(sosBio, nil))
	sum.LOLETotal = sum.LOLESin + sum.LOLECon

	numHours := float64(len(table))
	sum.LOLPSin = round2(float64(sum.LOLESin) / numHours * 100)
	sum.LOLPCon = round2(float64(sum.LOLECon) / numHours * 100)
	sum.LOLPTotal = round2(sum.LOLPSin + sum.LOLPCon)
	sum.LossLoad = sum.GridSummary
	sum.EnergyNotUsed = round2(absoluteSurplus + sum.EnergyNotUsed)
	sum.EnergyCostRenewables = round2(sum.EnergyCostRenewables)
	sum.EnergyInterchange = round2(abs(sum.GridSummary) + absoluteSurplus)

	if optimizing {
		sum.NumberInterruptions = 0
	} else {
		sum.Simulation = label
	}
	return sum
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
