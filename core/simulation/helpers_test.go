package simulation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/inasolar/microgrid/core/datasource"
	"github.com/inasolar/microgrid/core/model"
)

type nopLog struct{}

func (nopLog) Debugf(string, ...any)         {}
func (nopLog) Debugw(string, map[string]any) {}
func (nopLog) Infof(string, ...any)          {}
func (nopLog) Warnf(string, ...any)          {}
func (nopLog) Errorf(string, ...any)         {}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > 1e-6 {
		t.Fatalf("%s: got %v want %v", name, got, want)
	}
}

func dayRows(day time.Time, power, windSpeed, price float64) []model.HourlyObservation {
	rows := make([]model.HourlyObservation, 24)
	for h := 0; h < 24; h++ {
		rows[h] = model.HourlyObservation{
			Date:    day,
			Hour:    h,
			Weather: map[string]float64{"windspeed_10m": windSpeed, "temperature_2m": 15},
			Power:   power,
			Price:   price,
			Surplus: price,
		}
	}
	return rows
}

func flatGeneration(kw float64) map[int]float64 {
	byHour := make(map[int]float64, 24)
	for h := 0; h < 24; h++ {
		byHour[h] = kw
	}
	return byHour
}

// stubSource serves pre-loaded days and fails on anything absent.
type stubSource struct {
	rows      map[string][]model.HourlyObservation
	gen       map[string]map[int]float64
	installed float64
	refMax    float64
}

func newStubSource(refMax float64) *stubSource {
	return &stubSource{
		rows:   make(map[string][]model.HourlyObservation),
		gen:    make(map[string]map[int]float64),
		refMax: refMax,
	}
}

func (s *stubSource) addDay(day time.Time, rows []model.HourlyObservation, gen map[int]float64) {
	key := day.Format("2006-01-02")
	s.rows[key] = rows
	s.gen[key] = gen
}

func (s *stubSource) HourlyRows(_ context.Context, _ datasource.Location, start, end time.Time, _ string) ([]model.HourlyObservation, error) {
	var out []model.HourlyObservation
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		rows, ok := s.rows[day.Format("2006-01-02")]
		if !ok {
			return nil, fmt.Errorf("no rows for %s", day.Format("2006-01-02"))
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (s *stubSource) AreaGeneration(_ context.Context, _ int, day time.Time) (map[int]float64, error) {
	gen, ok := s.gen[day.Format("2006-01-02")]
	if !ok {
		return nil, fmt.Errorf("no generation for %s", day.Format("2006-01-02"))
	}
	return gen, nil
}

func (s *stubSource) InstalledCapacity(context.Context, int, string) (float64, error) {
	return s.installed, nil
}

func (s *stubSource) ReferenceMaxDemand(context.Context) (float64, error) {
	return s.refMax, nil
}

func (s *stubSource) ForecastWeather(context.Context, int, time.Time, time.Time) ([]model.HourlyObservation, error) {
	return nil, fmt.Errorf("no forecast data")
}

func (s *stubSource) ElectricityPrices(context.Context, int, time.Time, time.Time) ([]model.PriceRow, error) {
	return nil, fmt.Errorf("no price data")
}

func (s *stubSource) LatestPriceDate(context.Context, int) (time.Time, error) {
	return time.Time{}, fmt.Errorf("no price data")
}

var _ datasource.Source = (*stubSource)(nil)
