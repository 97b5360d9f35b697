// Package datasource defines the boundary to the external historical
// data store. The simulation core never performs storage I/O itself; it
// consumes this interface as a synchronous, blocking collaborator.
package datasource

import (
	"context"
	"time"

	"github.com/inasolar/microgrid/core/model"
)

// Location identifies a metering point and the area it belongs to.
type Location struct {
	ID   int `json:"id"`
	Area int `json:"area"`
}

// Resource type names used by InstalledCapacity.
const (
	ResourcePhotovoltaic = "photovoltaic"
	ResourceWindPower    = "windPower"
	ResourceBiogas       = "biogas"
)

// DemandFieldPower is the default demand column driving the simulation.
const DemandFieldPower = "Power"

// Source provides historical and forecast data to the simulation core.
// Implementations must return rows in ascending chronological order
// with at most one row per hour-of-day per calendar date.
type Source interface {
	// HourlyRows returns the weather, demand and price rows of one
	// location for the inclusive date range. demandField selects which
	// demand column populates Power.
	HourlyRows(ctx context.Context, loc Location, start, end time.Time, demandField string) ([]model.HourlyObservation, error)

	// AreaGeneration returns, per hour of the given day, the absolute
	// aggregated generation of every generator farm in the area.
	AreaGeneration(ctx context.Context, area int, day time.Time) (map[int]float64, error)

	// InstalledCapacity sums the installed power of a resource class in
	// an area.
	InstalledCapacity(ctx context.Context, area int, resourceType string) (float64, error)

	// ReferenceMaxDemand returns the historical maximum demand used to
	// normalise measured power.
	ReferenceMaxDemand(ctx context.Context) (float64, error)

	// ForecastWeather returns the forecast rows of an area for the
	// inclusive date range.
	ForecastWeather(ctx context.Context, area int, start, end time.Time) ([]model.HourlyObservation, error)

	// ElectricityPrices returns hourly price rows of an area for the
	// inclusive date range.
	ElectricityPrices(ctx context.Context, area int, start, end time.Time) ([]model.PriceRow, error)

	// LatestPriceDate returns the most recent date with price data for
	// the area.
	LatestPriceDate(ctx context.Context, area int) (time.Time, error)
}
