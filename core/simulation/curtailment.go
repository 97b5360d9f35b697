package simulation

import "github.com/inasolar/microgrid/core/model"

// gridSteps are the curtailment coefficients tried for PV and wind.
var gridSteps = [5]float64{0, 0.25, 0.5, 0.75, 1}

// resolveSurplus selects the curtailment coefficients for an hour whose
// unregulated balance ended negative (structural surplus). The search
// is bounded: a three-step biogas ladder followed, when the ladder
// bottoms out, by a PV x wind grid of 25 combinations, 28 evaluations
// at most. It returns the chosen coefficients and the final residual
// rounded to 3 decimals, as agreed with the regulated series.
func (e *Engine) resolveSurplus(rec *model.HourlyRecord, prevReg *model.HourlySeries) (model.Coefficients, float64) {
	best := model.UnitCoefficients()
	bestFinal := round3(rec.Base.PotDemFinal)

	// Biogas ladder: stop at the first coefficient that no longer
	// leaves a surplus; the previous one is the current best fix.
	chosen := 1.0
	for _, c := range [3]float64{0.75, 0.5, 0.25} {
		coef := model.Coefficients{FV: 1, Eolic: 1, Biogas: c}
		s := e.computeSeries(rec, prevReg, coef)
		if round3(s.PotDemFinal) >= 0 {
			break
		}
		chosen = c
		best = coef
		bestFinal = round3(s.PotDemFinal)
	}

	if chosen != 0.25 {
		// The ladder resolved (or could not touch) the surplus; settle
		// on the retained biogas coefficient.
		coef := model.Coefficients{FV: 1, Eolic: 1, Biogas: chosen}
		s := e.computeSeries(rec, prevReg, coef)
		return coef, round3(s.PotDemFinal)
	}

	// Biogas at 25% still leaves a surplus: grid-search PV and wind
	// coefficients, accepting the first combination that lands within
	// [bestFinal, 0] without starving the pump below 80% of its
	// unregulated flow.
	for _, fv := range gridSteps {
		for _, eol := range gridSteps {
			coef := model.Coefficients{FV: fv, Eolic: eol, Biogas: 0.25}
			s := e.computeSeries(rec, prevReg, coef)
			final := round3(s.PotDemFinal)
			if final >= bestFinal && final <= 0 && s.PotBombeo2 >= 0.8*rec.Base.PotBombeo2 {
				return coef, final
			}
		}
	}

	// No grid combination qualified: fall back to biogas-only at 25%.
	return best, bestFinal
}
