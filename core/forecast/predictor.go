package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/inasolar/microgrid/core/datasource"
	"github.com/inasolar/microgrid/core/logger"
	"github.com/inasolar/microgrid/core/model"
	"github.com/inasolar/microgrid/core/similarday"
	"github.com/inasolar/microgrid/core/simulation"
)

// MatchMode selects how historical days are matched against a forecast
// day.
type MatchMode string

const (
	MatchModeMargins MatchMode = "margins"
	MatchModePonders MatchMode = "ponders"
)

// MatchParams configures the similar-day matching of one side of the
// plant. Demand and generation react to different weather, so each
// side carries its own set.
type MatchParams struct {
	Margins  map[string]float64 // margins mode
	DayTypes model.DayTypes     // margins mode
	Weights  []float64          // ponders mode
	NumDays  int                // ponders mode
}

// Request describes a demand forecast over a prediction horizon.
type Request struct {
	Start, End time.Time // prediction horizon, inclusive calendar days

	Consumer  datasource.Location
	Generator datasource.Location

	// Historical range the similar days are drawn from.
	HistStart, HistEnd time.Time
	DemandField        string

	Mode           MatchMode
	ConsumerMatch  MatchParams
	GeneratorMatch MatchParams

	WithFailures bool
}

// Result is the forecast outcome: the simulated dispatch table over the
// horizon, the matched historical days per forecast day, the forecast
// weather itself and the price series applied.
type Result struct {
	Table           model.DispatchTable
	SimilarDays     []model.SimilarDayRow
	ForecastWeather []model.HourlyObservation
	Prices          []model.PriceRow
}

// Predictor predicts demand for future days from similar historical
// days and runs the dispatch simulation over the predicted series.
type Predictor struct {
	cfg     *simulation.Config
	src     datasource.Source
	matcher *similarday.Matcher
	log     logger.Logger
}

func NewPredictor(cfg *simulation.Config, src datasource.Source, log logger.Logger) *Predictor {
	return &Predictor{cfg: cfg, src: src, matcher: similarday.NewMatcher(log), log: log}
}

// Forecast runs the prediction over [req.Start, req.End]. Unlike the
// historical range simulation, a failing day aborts the whole forecast:
// a gap in a predicted series has no measured data to fall back on.
func (p *Predictor) Forecast(ctx context.Context, req Request) (Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return Result{}, err
	}
	p.cfg.Recompute()

	installed, err := p.src.InstalledCapacity(ctx, req.Generator.Area, datasource.ResourcePhotovoltaic)
	if err != nil {
		return Result{}, fmt.Errorf("installed capacity: %w", err)
	}
	if installed > 0 {
		p.cfg.PVFarmsInstalledPower = installed
	}
	refMax, err := p.src.ReferenceMaxDemand(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reference max demand: %w", err)
	}

	demandField := req.DemandField
	if demandField == "" {
		demandField = datasource.DemandFieldPower
	}
	histConsumer, err := p.src.HourlyRows(ctx, req.Consumer, req.HistStart, req.HistEnd, demandField)
	if err != nil {
		return Result{}, fmt.Errorf("consumer history: %w", err)
	}
	histGenerator, err := p.src.HourlyRows(ctx, req.Generator, req.HistStart, req.HistEnd, datasource.DemandFieldPower)
	if err != nil {
		return Result{}, fmt.Errorf("generator history: %w", err)
	}
	weather, err := p.src.ForecastWeather(ctx, req.Consumer.Area, req.Start, req.End)
	if err != nil {
		return Result{}, fmt.Errorf("forecast weather: %w", err)
	}
	weatherByDate, _ := model.GroupByDate(weather)

	prices, latestPrices, err := p.forecastPrices(ctx, req.Generator.Area)
	if err != nil {
		return Result{}, err
	}

	horizon := int(req.End.Sub(req.Start).Hours()) + 24
	gen := simulation.NewFailureGenerator(p.cfg.Failures, horizon, req.WithFailures)
	engine := simulation.NewEngine(p.cfg, refMax, p.log)

	res := Result{ForecastWeather: weather, Prices: prices}
	var prev *model.HourlyRecord
	for day := req.Start; !day.After(req.End); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		flags := gen.NextDay()
		objective := weatherByDate[day.Format("2006-01-02")]

		consumerDay, consumerMatches, err := p.predictDay(objective, histConsumer, req.Mode, req.ConsumerMatch)
		if err != nil {
			return res, fmt.Errorf("day %s (consumer): %w", day.Format("2006-01-02"), err)
		}
		generatorDay, _, err := p.predictDay(objective, histGenerator, req.Mode, req.GeneratorMatch)
		if err != nil {
			return res, fmt.Errorf("day %s (generator): %w", day.Format("2006-01-02"), err)
		}

		// Price for a predicted day repeats the most recent day the
		// market has published.
		for h := range consumerDay {
			consumerDay[h].Price = latestPrices[consumerDay[h].Hour].Price
			consumerDay[h].Surplus = latestPrices[consumerDay[h].Hour].Surplus
		}
		genByHour := make(map[int]float64, 24)
		for _, row := range generatorDay {
			genByHour[row.Hour] = math.Abs(row.Power)
		}

		dayRows, err := engine.AssignDay(day, consumerDay, genByHour, flags, prev)
		if err != nil {
			return res, fmt.Errorf("day %s: %w", day.Format("2006-01-02"), err)
		}
		res.Table = append(res.Table, dayRows...)
		prev = &res.Table[len(res.Table)-1]

		for _, row := range append(consumerMatches, consumerDay...) {
			res.SimilarDays = append(res.SimilarDays, model.SimilarDayRow{HourlyObservation: row, PredictedDay: day})
		}
	}
	return res, nil
}

// predictDay matches the historical range against one forecast day and
// returns the day's rows with the predicted power (mean of the matched
// days per hour of day) plus the matched rows themselves.
func (p *Predictor) predictDay(objective, history []model.HourlyObservation, mode MatchMode, params MatchParams) ([]model.HourlyObservation, []model.HourlyObservation, error) {
	var matched []model.HourlyObservation
	switch mode {
	case MatchModePonders:
		ranked, rows, err := p.matcher.MatchByPonders(objective, history, params.Weights, params.NumDays)
		if err != nil {
			return nil, nil, err
		}
		selected := make(map[string]bool, len(ranked))
		for _, day := range ranked {
			selected[day.Date.Format("2006-01-02")] = true
		}
		for _, row := range rows {
			if selected[row.DateKey()] {
				matched = append(matched, row)
			}
		}
	default:
		rows, err := p.matcher.MatchByMargins(objective, history, params.Margins, params.DayTypes)
		if err != nil {
			return nil, nil, err
		}
		matched = rows
	}

	var sums, counts [24]float64
	for _, row := range matched {
		if row.Hour >= 0 && row.Hour < 24 {
			sums[row.Hour] += row.Power
			counts[row.Hour]++
		}
	}
	predicted := make([]model.HourlyObservation, len(objective))
	copy(predicted, objective)
	for i := range predicted {
		h := predicted[i].Hour
		if counts[h] > 0 {
			predicted[i].Power = sums[h] / counts[h]
		}
	}
	return predicted, matched, nil
}

// forecastPrices loads the last published week of prices and indexes
// the most recent day by hour.
func (p *Predictor) forecastPrices(ctx context.Context, area int) ([]model.PriceRow, [24]model.PriceRow, error) {
	var latest [24]model.PriceRow
	last, err := p.src.LatestPriceDate(ctx, area)
	if err != nil {
		return nil, latest, fmt.Errorf("latest price date: %w", err)
	}
	prices, err := p.src.ElectricityPrices(ctx, area, last.AddDate(0, 0, -6), last)
	if err != nil {
		return nil, latest, fmt.Errorf("electricity prices: %w", err)
	}
	lastKey := last.Format("2006-01-02")
	for _, row := range prices {
		if row.Date.Format("2006-01-02") == lastKey {
			latest[row.Date.Hour()] = row
		}
	}
	return prices, latest, nil
}
