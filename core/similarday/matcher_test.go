package similarday

import (
	"errors"
	"testing"
	"time"

	"github.com/inasolar/microgrid/core/model"
)

type nopLog struct{}

func (nopLog) Debugf(string, ...any)         {}
func (nopLog) Debugw(string, map[string]any) {}
func (nopLog) Infof(string, ...any)          {}
func (nopLog) Warnf(string, ...any)          {}
func (nopLog) Errorf(string, ...any)         {}

func weatherDay(date time.Time, temperature, power float64, day model.DayTypes) []model.HourlyObservation {
	rows := make([]model.HourlyObservation, 24)
	for h := 0; h < 24; h++ {
		rows[h] = model.HourlyObservation{
			Date:    date,
			Hour:    h,
			Weather: map[string]float64{"temperature_2m": temperature, "windspeed_10m": 0},
			Power:   power,
			Day:     day,
		}
	}
	return rows
}

func TestMatchByMargins(t *testing.T) {
	m := NewMatcher(nopLog{})
	objDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	objective := weatherDay(objDate, 18, 100, model.DayTypes{})

	near := weatherDay(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 17, 130, model.DayTypes{})
	far := weatherDay(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), 25, 90, model.DayTypes{})
	candidates := append(append([]model.HourlyObservation{}, near...), far...)

	matched, err := m.MatchByMargins(objective, candidates, map[string]float64{"temperature_2m": 2}, model.DayTypes{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matched) != 24 {
		t.Fatalf("expected the 24 rows of the near day, got %d", len(matched))
	}
	for _, row := range matched {
		if row.DateKey() != "2024-02-01" {
			t.Fatalf("unexpected date matched: %s", row.DateKey())
		}
		if row.PowerDiff != 30 {
			t.Fatalf("PowerDiff = %v", row.PowerDiff)
		}
	}
}

func TestMatchByMarginsObjectiveAlwaysQualifies(t *testing.T) {
	m := NewMatcher(nopLog{})
	objDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	objective := weatherDay(objDate, 18, 100, model.DayTypes{})

	far := weatherDay(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), 40, 90, model.DayTypes{})
	candidates := append(append([]model.HourlyObservation{}, objective...), far...)

	matched, err := m.MatchByMargins(objective, candidates, map[string]float64{"temperature_2m": 2}, model.DayTypes{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matched) != 24 {
		t.Fatalf("expected only the objective day, got %d rows", len(matched))
	}
	if matched[0].DateKey() != objDate.Format("2006-01-02") {
		t.Fatalf("unexpected date: %s", matched[0].DateKey())
	}
}

func TestMatchByMarginsDayTypeFilter(t *testing.T) {
	m := NewMatcher(nopLog{})
	objective := weatherDay(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 18, 100, model.DayTypes{})

	weekday := weatherDay(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 18, 110, model.DayTypes{WeekDay: true})
	weekend := weatherDay(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), 18, 120, model.DayTypes{WeekEnd: true})
	candidates := append(append([]model.HourlyObservation{}, weekday...), weekend...)

	matched, err := m.MatchByMargins(objective, candidates, map[string]float64{"temperature_2m": 2}, model.DayTypes{WeekEnd: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range matched {
		if row.DateKey() != "2024-02-03" {
			t.Fatalf("weekday row slipped through the filter: %s", row.DateKey())
		}
	}
}

func TestMatchByMarginsNoMatch(t *testing.T) {
	m := NewMatcher(nopLog{})
	objective := weatherDay(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 18, 100, model.DayTypes{})
	far := weatherDay(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), 40, 90, model.DayTypes{})

	_, err := m.MatchByMargins(objective, far, map[string]float64{"temperature_2m": 2}, model.DayTypes{})
	if !errors.Is(err, ErrNoCandidateDays) {
		t.Fatalf("expected ErrNoCandidateDays got %v", err)
	}
}

func TestMatchByMarginsIncompleteObjective(t *testing.T) {
	m := NewMatcher(nopLog{})
	objective := weatherDay(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 18, 100, model.DayTypes{})

	_, err := m.MatchByMargins(objective[:23], objective, map[string]float64{"temperature_2m": 2}, model.DayTypes{})
	if !errors.Is(err, ErrIncompleteDay) {
		t.Fatalf("expected ErrIncompleteDay got %v", err)
	}
}

func TestMatchByPonders(t *testing.T) {
	m := NewMatcher(nopLog{})
	objective := weatherDay(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 18, 100, model.DayTypes{})

	same := weatherDay(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 18, 110, model.DayTypes{})
	near := weatherDay(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), 20, 120, model.DayTypes{})
	far := weatherDay(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), 30, 130, model.DayTypes{})
	candidates := append(append(append([]model.HourlyObservation{}, far...), same...), near...)

	weights := make([]float64, len(model.WeatherVariables))
	weights[0] = 1 // temperature only

	ranked, rows, err := m.MatchByPonders(objective, candidates, weights, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked days got %d", len(ranked))
	}
	if got := ranked[0].Date.Format("2006-01-02"); got != "2024-02-01" {
		t.Fatalf("best day = %s", got)
	}
	if got := ranked[1].Date.Format("2006-01-02"); got != "2024-02-02" {
		t.Fatalf("second day = %s", got)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Fatalf("scores not descending: %v", ranked)
	}
	// Temperature distances are 0, 48 and 288 over the day; the closest
	// date takes the full score.
	if diff := ranked[0].Score - 100; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("best score = %v", ranked[0].Score)
	}
	if len(rows) != 72 {
		t.Fatalf("expected every complete date's rows back, got %d", len(rows))
	}
}

func TestMatchByPondersExclusions(t *testing.T) {
	m := NewMatcher(nopLog{})
	objective := weatherDay(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 18, 100, model.DayTypes{})

	incomplete := weatherDay(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 18, 110, model.DayTypes{})[:20]
	dead := weatherDay(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), 18, 0, model.DayTypes{})
	live := weatherDay(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), 19, 120, model.DayTypes{})
	candidates := append(append(append([]model.HourlyObservation{}, incomplete...), dead...), live...)

	ranked, _, err := m.MatchByPonders(objective, candidates, make([]float64, len(model.WeatherVariables)), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Date.Format("2006-01-02") != "2024-02-03" {
		t.Fatalf("expected only the live complete day, got %v", ranked)
	}
}

func TestMatchByPondersWeightCount(t *testing.T) {
	m := NewMatcher(nopLog{})
	objective := weatherDay(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 18, 100, model.DayTypes{})

	if _, _, err := m.MatchByPonders(objective, objective, []float64{1, 2}, 5); err == nil {
		t.Fatal("expected an error for a short weight vector")
	}
}
