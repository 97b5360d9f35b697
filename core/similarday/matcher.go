package similarday

import (
	"fmt"
	"sort"

	"github.com/inasolar/microgrid/core/logger"
	"github.com/inasolar/microgrid/core/model"
)

// Matcher selects historical days whose weather resembles an objective
// day, either by absolute margins per variable or by weighted distance.
type Matcher struct {
	log logger.Logger
}

func NewMatcher(log logger.Logger) *Matcher {
	return &Matcher{log: log}
}

// objectiveByHour validates the objective day and indexes its rows by
// hour of day.
func objectiveByHour(objective []model.HourlyObservation) ([24]model.HourlyObservation, error) {
	var byHour [24]model.HourlyObservation
	if len(objective) != 24 {
		return byHour, fmt.Errorf("%w: got %d rows", ErrIncompleteDay, len(objective))
	}
	seen := make(map[int]bool, 24)
	for _, row := range objective {
		if row.Hour < 0 || row.Hour > 23 || seen[row.Hour] {
			return byHour, fmt.Errorf("%w: duplicate or out-of-range hour %d", ErrIncompleteDay, row.Hour)
		}
		seen[row.Hour] = true
		byHour[row.Hour] = row
	}
	return byHour, nil
}

// MatchByMargins returns every hourly row of the candidate dates whose
// per-variable daily mean falls within the configured margin around the
// objective day's mean for all margined variables, and whose calendar
// category matches the day-type filter. The objective date itself
// always qualifies when present among the candidates. Each returned
// row carries the absolute power difference against the objective day
// at the same hour.
func (m *Matcher) MatchByMargins(objective, candidates []model.HourlyObservation, margins map[string]float64, dayTypes model.DayTypes) ([]model.HourlyObservation, error) {
	objByHour, err := objectiveByHour(objective)
	if err != nil {
		return nil, err
	}
	objectiveKey := objective[0].DateKey()
	objectiveMeans := dailyMeans(objective)

	grouped, order := model.GroupByDate(candidates)
	qualifying := make(map[string]bool)
	for _, key := range order {
		rows := grouped[key]
		if key == objectiveKey {
			qualifying[key] = true
			continue
		}
		means := dailyMeans(rows)
		if !withinMargins(means, objectiveMeans, margins) {
			continue
		}
		if dayTypes.Any() && !rows[0].Day.Matches(dayTypes) {
			continue
		}
		qualifying[key] = true
	}
	if len(qualifying) == 0 {
		return nil, ErrNoCandidateDays
	}
	m.log.Debugf("margin match: %d of %d candidate dates qualify", len(qualifying), len(order))

	var matched []model.HourlyObservation
	for _, row := range candidates {
		if !qualifying[row.DateKey()] {
			continue
		}
		if row.Hour >= 0 && row.Hour < 24 {
			row.PowerDiff = abs(row.Power - objByHour[row.Hour].Power)
		}
		matched = append(matched, row)
	}
	return matched, nil
}

func withinMargins(means, objective map[string]float64, margins map[string]float64) bool {
	for variable, margin := range margins {
		mean, ok := means[variable]
		if !ok {
			return false
		}
		center := objective[variable]
		if mean < center-margin || mean > center+margin {
			return false
		}
	}
	return true
}

// dailyMeans computes the per-variable mean of a day's rows, including
// the power series under the "Power" key.
func dailyMeans(rows []model.HourlyObservation) map[string]float64 {
	means := make(map[string]float64, len(model.WeatherVariables)+1)
	if len(rows) == 0 {
		return means
	}
	for _, row := range rows {
		for _, variable := range model.WeatherVariables {
			means[variable] += row.Weather[variable]
		}
		means["Power"] += row.Power
	}
	n := float64(len(rows))
	for key := range means {
		means[key] /= n
	}
	return means
}

// MatchByPonders ranks candidate dates by weighted weather distance to
// the objective day. weights are aligned with model.WeatherVariables.
// Dates with fewer than 24 rows never enter the ranking; dates whose
// power series sums to zero are dropped as degenerate. It returns the
// topN dates ordered by descending score together with the hourly rows
// of every complete candidate date.
func (m *Matcher) MatchByPonders(objective, candidates []model.HourlyObservation, weights []float64, topN int) ([]model.CandidateDay, []model.HourlyObservation, error) {
	if len(weights) != len(model.WeatherVariables) {
		return nil, nil, fmt.Errorf("expected %d weights, got %d", len(model.WeatherVariables), len(weights))
	}
	objByHour, err := objectiveByHour(objective)
	if err != nil {
		return nil, nil, err
	}

	grouped, order := model.GroupByDate(candidates)

	// Incomplete dates would sum fewer hourly distances and outrank
	// complete ones, so they are excluded up front.
	var complete []string
	for _, key := range order {
		if len(grouped[key]) == 24 {
			complete = append(complete, key)
		}
	}
	if len(complete) == 0 {
		return nil, nil, ErrNoCandidateDays
	}

	numVars := len(model.WeatherVariables)
	distances := make(map[string][]float64, len(complete))
	powerSums := make(map[string]float64, len(complete))
	var completeRows []model.HourlyObservation
	for _, key := range complete {
		sums := make([]float64, numVars)
		for _, row := range grouped[key] {
			if row.Hour < 0 || row.Hour > 23 {
				continue
			}
			ref := objByHour[row.Hour]
			for i, variable := range model.WeatherVariables {
				sums[i] += abs(row.Weather[variable] - ref.Weather[variable])
			}
			powerSums[key] += row.Power
		}
		distances[key] = sums
		completeRows = append(completeRows, grouped[key]...)
	}

	scores := make(map[string]float64, len(complete))
	for i := range model.WeatherVariables {
		minimum, maximum := distances[complete[0]][i], distances[complete[0]][i]
		for _, key := range complete {
			d := distances[key][i]
			if d < minimum {
				minimum = d
			}
			if d > maximum {
				maximum = d
			}
		}
		// Closest date scores 100-minimum, farthest scores toward 0.
		// When every date is equidistant the full score is granted.
		const maxScore = 100.0
		for _, key := range complete {
			if minimum == maximum {
				scores[key] += weights[i] * maxScore
				continue
			}
			d := distances[key][i]
			scores[key] += weights[i] * (d*(-(maxScore-minimum)/maximum) + (maxScore - minimum))
		}
	}

	var ranked []model.CandidateDay
	for _, key := range complete {
		if powerSums[key] == 0 {
			continue
		}
		ranked = append(ranked, model.CandidateDay{Date: grouped[key][0].Date, Score: scores[key]})
	}
	if len(ranked) == 0 {
		return nil, nil, ErrNoCandidateDays
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	m.log.Debugf("ponder match: ranked %d dates, returning %d", len(complete), len(ranked))
	return ranked, completeRows, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
