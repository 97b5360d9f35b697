package similarday

import (
	"math"
	"testing"
	"time"

	"github.com/inasolar/microgrid/core/model"
)

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("%s: got %v want %v", name, got, want)
	}
}

func scenario(index int, base, regulated model.Summary) model.ScenarioResult {
	return model.ScenarioResult{
		Index:     index,
		Summaries: model.SummaryPair{Base: base, Regulated: regulated},
	}
}

func TestScoreScenarios(t *testing.T) {
	results := []model.ScenarioResult{
		scenario(0, model.Summary{Balance: 100}, model.Summary{Balance: 20}),
		scenario(1, model.Summary{Balance: 50}, model.Summary{Balance: 10}),
	}

	scores, err := ScoreScenarios(results, map[string]float64{"balance": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores[0].Index != 0 || scores[1].Index != 1 {
		t.Fatalf("indices misaligned: %v", scores)
	}
	// The scenario at the minimum absolute balance takes the full 10.
	approx(t, "scores[0].Score", scores[0].Score, 0)
	approx(t, "scores[1].Score", scores[1].Score, 10)
	approx(t, "scores[0].ScoreWR", scores[0].ScoreWR, 0)
	approx(t, "scores[1].ScoreWR", scores[1].ScoreWR, 10)
}

func TestScoreScenariosStateOfCharge(t *testing.T) {
	results := []model.ScenarioResult{
		scenario(0, model.Summary{SOSWaterTank: 50}, model.Summary{SOSWaterTank: 50}),
		scenario(1, model.Summary{SOSWaterTank: 0}, model.Summary{SOSWaterTank: 100}),
		scenario(2, model.Summary{SOSWaterTank: 75}, model.Summary{SOSWaterTank: 25}),
	}

	scores, err := ScoreScenarios(results, map[string]float64{"sosWaterTank": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A half-full tank is the target; empty and overflowing score zero.
	approx(t, "scores[0].Score", scores[0].Score, 10)
	approx(t, "scores[1].Score", scores[1].Score, 0)
	approx(t, "scores[2].Score", scores[2].Score, 5)
	approx(t, "scores[2].ScoreWR", scores[2].ScoreWR, 5)
}

func TestScoreScenariosZeroWeights(t *testing.T) {
	results := []model.ScenarioResult{
		scenario(0, model.Summary{Balance: 100}, model.Summary{}),
		scenario(1, model.Summary{Balance: 50}, model.Summary{}),
	}

	scores, err := ScoreScenarios(results, map[string]float64{"balance": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range scores {
		approx(t, "score", s.Score, 10)
		approx(t, "scoreWR", s.ScoreWR, 10)
	}
}

func TestScoreScenariosUnknownField(t *testing.T) {
	if _, err := ScoreScenarios(nil, map[string]float64{"warpFactor": 1}); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestPowerBounds(t *testing.T) {
	date := func(d int) time.Time { return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC) }
	var rows []model.HourlyObservation
	for d, power := range map[int]float64{1: 10, 2: 20, 3: 30} {
		for h := 0; h < 24; h++ {
			rows = append(rows, model.HourlyObservation{Date: date(d), Hour: h, Power: power})
		}
	}

	env, err := PowerBounds(rows, 25, 75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for h := 0; h < 24; h++ {
		approx(t, "Q1", env.Q1[h], 15)
		approx(t, "Median", env.Median[h], 20)
		approx(t, "Q3", env.Q3[h], 25)
		approx(t, "LowerFence", env.LowerFence[h], 10)
		approx(t, "UpperFence", env.UpperFence[h], 30)
	}
}

func TestPowerBoundsMissingHour(t *testing.T) {
	rows := []model.HourlyObservation{{Hour: 0, Power: 10}}
	if _, err := PowerBounds(rows, 25, 75); err == nil {
		t.Fatal("expected an error for missing hours")
	}
}
