package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/inasolar/microgrid/core/datasource"
	"github.com/inasolar/microgrid/core/model"
)

// MemorySource is an in-memory implementation of the data source
// boundary, used by tests and by file-fed runs.
type MemorySource struct {
	mu sync.RWMutex

	rows       map[int][]model.HourlyObservation // per location ID
	generation map[int]map[string]map[int]float64
	installed  map[int]map[string]float64
	refMax     float64
	forecast   map[int][]model.HourlyObservation // per area
	prices     map[int][]model.PriceRow          // per area
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		rows:       make(map[int][]model.HourlyObservation),
		generation: make(map[int]map[string]map[int]float64),
		installed:  make(map[int]map[string]float64),
		forecast:   make(map[int][]model.HourlyObservation),
		prices:     make(map[int][]model.PriceRow),
	}
}

// AddRows loads hourly observations for a location. Rows are kept in
// chronological order and get the same cloud-cover normalization the
// historical store applies.
func (m *MemorySource) AddRows(locationID int, rows ...model.HourlyObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range rows {
		rows[i].NormalizeCloudCover()
	}
	m.rows[locationID] = append(m.rows[locationID], rows...)
	sort.SliceStable(m.rows[locationID], func(i, j int) bool {
		a, b := m.rows[locationID][i], m.rows[locationID][j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Hour < b.Hour
	})
}

// SetGeneration records the aggregated farm generation of an area for
// one calendar day.
func (m *MemorySource) SetGeneration(area int, day time.Time, byHour map[int]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation[area] == nil {
		m.generation[area] = make(map[string]map[int]float64)
	}
	m.generation[area][day.Format("2006-01-02")] = byHour
}

// SetInstalledCapacity records the installed capacity of a resource
// class in an area.
func (m *MemorySource) SetInstalledCapacity(area int, resourceType string, capacity float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.installed[area] == nil {
		m.installed[area] = make(map[string]float64)
	}
	m.installed[area][resourceType] = capacity
}

// SetReferenceMaxDemand sets the historical demand maximum.
func (m *MemorySource) SetReferenceMaxDemand(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refMax = v
}

// AddForecast loads forecast weather rows for an area.
func (m *MemorySource) AddForecast(area int, rows ...model.HourlyObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range rows {
		rows[i].NormalizeCloudCover()
	}
	m.forecast[area] = append(m.forecast[area], rows...)
}

// AddPrices loads hourly electricity prices for an area.
func (m *MemorySource) AddPrices(area int, rows ...model.PriceRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[area] = append(m.prices[area], rows...)
}

func (m *MemorySource) HourlyRows(ctx context.Context, loc datasource.Location, start, end time.Time, demandField string) ([]model.HourlyObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.HourlyObservation
	for _, row := range m.rows[loc.ID] {
		if row.Date.Before(start) || row.Date.After(end) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *MemorySource) AreaGeneration(ctx context.Context, area int, day time.Time) (map[int]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byHour, ok := m.generation[area][day.Format("2006-01-02")]
	if !ok {
		return nil, fmt.Errorf("no generation data for area %d on %s", area, day.Format("2006-01-02"))
	}
	return byHour, nil
}

func (m *MemorySource) InstalledCapacity(ctx context.Context, area int, resourceType string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.installed[area][resourceType], nil
}

func (m *MemorySource) ReferenceMaxDemand(ctx context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.refMax == 0 {
		return 0, fmt.Errorf("reference max demand not set")
	}
	return m.refMax, nil
}

func (m *MemorySource) ForecastWeather(ctx context.Context, area int, start, end time.Time) ([]model.HourlyObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.HourlyObservation
	for _, row := range m.forecast[area] {
		if row.Date.Before(start) || row.Date.After(end) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *MemorySource) ElectricityPrices(ctx context.Context, area int, start, end time.Time) ([]model.PriceRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.PriceRow
	for _, row := range m.prices[area] {
		if row.Date.Before(start) || row.Date.After(end.Add(24*time.Hour)) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *MemorySource) LatestPriceDate(ctx context.Context, area int) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.prices[area]
	if len(rows) == 0 {
		return time.Time{}, fmt.Errorf("no electricity price data for area %d", area)
	}
	latest := rows[0].Date
	for _, row := range rows[1:] {
		if row.Date.After(latest) {
			latest = row.Date
		}
	}
	return time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, latest.Location()), nil
}

var _ datasource.Source = (*MemorySource)(nil)
