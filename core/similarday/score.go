package similarday

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/inasolar/microgrid/core/model"
)

// ScenarioScore carries the 0-10 ranking of one optimizer scenario for
// both regulation modes.
type ScenarioScore struct {
	Index   int     `json:"index"`
	Score   float64 `json:"score"`
	ScoreWR float64 `json:"scoreWR"`
}

// sosFields are scored against a 50% target instead of the minimum.
var sosFields = map[string]bool{
	"sosBiogas":    true,
	"sosWaterTank": true,
}

// ScoreScenarios ranks optimizer scenarios. weights maps summary field
// names (their JSON names, e.g. "balance" or "sosBiogas") to a weight;
// for each weighted field the scenario closest to the field's minimum
// absolute value scores highest, except state-of-charge fields where
// 50% is the target. The weighted distance is normalized to a 0-10
// scale; a zero total weight yields the maximum score for everyone.
func ScoreScenarios(results []model.ScenarioResult, weights map[string]float64) ([]ScenarioScore, error) {
	const scoreLimit = 10.0

	type bounds struct{ min, max float64 }
	base := make(map[string]bounds, len(weights))
	regulated := make(map[string]bounds, len(weights))
	for field := range weights {
		if _, ok := summaryField(model.Summary{}, field); !ok {
			return nil, fmt.Errorf("unknown summary field %q", field)
		}
		b := bounds{min: math.Inf(1), max: 0}
		r := bounds{min: math.Inf(1), max: 0}
		if !sosFields[field] {
			for _, res := range results {
				v, _ := summaryField(res.Summaries.Base, field)
				w, _ := summaryField(res.Summaries.Regulated, field)
				b.min = math.Min(b.min, math.Abs(v))
				b.max = math.Max(b.max, math.Abs(v))
				r.min = math.Min(r.min, math.Abs(w))
				r.max = math.Max(r.max, math.Abs(w))
			}
		}
		base[field] = b
		regulated[field] = r
	}

	var weightLimit float64
	scores := make([]ScenarioScore, len(results))
	for i, res := range results {
		scores[i].Index = res.Index
		var distance, distanceWR float64
		for field, weight := range weights {
			sos := sosFields[field]
			v, _ := summaryField(res.Summaries.Base, field)
			w, _ := summaryField(res.Summaries.Regulated, field)
			distance += optimizationDistance(base[field].max, v, base[field].min, sos) * weight
			distanceWR += optimizationDistance(regulated[field].max, w, regulated[field].min, sos) * weight
		}
		scores[i].Score = distance
		scores[i].ScoreWR = distanceWR
	}
	for _, weight := range weights {
		weightLimit += math.Abs(weight)
	}
	for i := range scores {
		if weightLimit == 0 {
			scores[i].Score = scoreLimit
			scores[i].ScoreWR = scoreLimit
			continue
		}
		scores[i].Score = round3(scores[i].Score * scoreLimit / weightLimit)
		scores[i].ScoreWR = round3(scores[i].ScoreWR * scoreLimit / weightLimit)
	}
	return scores, nil
}

// optimizationDistance scores one field value between 0 and 1: closest
// to the minimum absolute value wins, or closest to 50% for
// state-of-charge fields. Degenerate bounds grant the full point.
func optimizationDistance(maximum, value, minimum float64, sos bool) float64 {
	if maximum == minimum {
		return 1
	}
	if sos {
		return 1 - math.Abs(value-50)/50
	}
	return (maximum - math.Abs(value)) / (maximum - minimum)
}

func summaryField(s model.Summary, name string) (float64, bool) {
	switch name {
	case "surplusSummary":
		return s.SurplusSummary, true
	case "gridSummary":
		return s.GridSummary, true
	case "balance":
		return s.Balance, true
	case "absoluteSum":
		return s.AbsoluteSum, true
	case "interchangeCount":
		return float64(s.InterchangeCount), true
	case "numberFailures":
		return float64(s.NumberFailures), true
	case "sosWaterTank":
		return s.SOSWaterTank, true
	case "sosBiogas":
		return s.SOSBiogas, true
	case "loleSin":
		return float64(s.LOLESin), true
	case "loleCon":
		return float64(s.LOLECon), true
	case "loleTotal":
		return float64(s.LOLETotal), true
	case "lolpSin":
		return s.LOLPSin, true
	case "lolpCon":
		return s.LOLPCon, true
	case "lolpTotal":
		return s.LOLPTotal, true
	case "lossLoad":
		return s.LossLoad, true
	case "energyNotUsed":
		return s.EnergyNotUsed, true
	case "energyCostRenewables":
		return s.EnergyCostRenewables, true
	case "energyInterchange":
		return s.EnergyInterchange, true
	case "numberInterruptions":
		return float64(s.NumberInterruptions), true
	}
	return 0, false
}

// PowerEnvelope is the per-hour quantile envelope of a set of matched
// days' power, used to band a demand forecast.
type PowerEnvelope struct {
	Q1         [24]float64 `json:"q1"`
	Median     [24]float64 `json:"median"`
	Q3         [24]float64 `json:"q3"`
	LowerFence [24]float64 `json:"lowerFence"`
	UpperFence [24]float64 `json:"upperFence"`
}

// PowerBounds computes the hourly power envelope of the given rows.
// lowQuantile and uppQuantile are percentiles in [0,100].
func PowerBounds(rows []model.HourlyObservation, lowQuantile, uppQuantile float64) (PowerEnvelope, error) {
	var env PowerEnvelope
	perHour := make([][]float64, 24)
	for _, row := range rows {
		if row.Hour < 0 || row.Hour > 23 {
			continue
		}
		perHour[row.Hour] = append(perHour[row.Hour], row.Power)
	}
	for hour := 0; hour < 24; hour++ {
		values := perHour[hour]
		if len(values) == 0 {
			return env, fmt.Errorf("%w: no rows for hour %d", ErrIncompleteDay, hour)
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		env.Q1[hour] = round2(stat.Quantile(lowQuantile/100, stat.LinInterp, sorted, nil))
		env.Median[hour] = round2(stat.Quantile(0.5, stat.LinInterp, sorted, nil))
		env.Q3[hour] = round2(stat.Quantile(uppQuantile/100, stat.LinInterp, sorted, nil))
		env.LowerFence[hour] = round2(sorted[0])
		env.UpperFence[hour] = round2(sorted[len(sorted)-1])
	}
	return env, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
