package datasource

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"

	"github.com/inasolar/microgrid/core/datasource"
	"github.com/inasolar/microgrid/core/model"
	"github.com/inasolar/microgrid/infra/logger"
)

// InfluxConfig holds the connection settings of the historical store.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSource reads historical weather, demand and price series from
// InfluxDB. Measurements follow the ingestion layout: "observation"
// carries the weather fields plus demand per location, "generation"
// the per-area farms output, "forecast" the forecast weather and
// "price" the market prices.
type InfluxSource struct {
	client influxdb2.Client
	query  api.QueryAPI
	bucket string
	log    logger.Logger
}

// NewInfluxSource connects to the InfluxDB endpoint.
func NewInfluxSource(cfg InfluxConfig) *InfluxSource {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSource{
		client: client,
		query:  client.QueryAPI(cfg.Org),
		bucket: cfg.Bucket,
		log:    logger.New("influx-source"),
	}
}

// Close releases the underlying HTTP client.
func (s *InfluxSource) Close() { s.client.Close() }

func (s *InfluxSource) HourlyRows(ctx context.Context, loc datasource.Location, start, end time.Time, demandField string) ([]model.HourlyObservation, error) {
	if demandField == "" {
		demandField = datasource.DemandFieldPower
	}
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == "observation" and r.location == "%d")
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"])`,
		s.bucket, start.Format(time.RFC3339), end.AddDate(0, 0, 1).Format(time.RFC3339), loc.ID)
	result, err := s.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer result.Close()

	var rows []model.HourlyObservation
	for result.Next() {
		rec := result.Record()
		t := rec.Time().UTC()
		obs := model.HourlyObservation{
			Date:    time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Hour:    t.Hour(),
			Weather: make(map[string]float64, len(model.WeatherVariables)),
			Power:   floatField(rec, demandField),
			Price:   floatField(rec, "Price"),
			Surplus: floatField(rec, "Surplus"),
			Day: model.DayTypes{
				NewYear:         boolField(rec, "newYear"),
				LocalHoliday:    boolField(rec, "localHoliday"),
				NationalHoliday: boolField(rec, "nationalHoliday"),
				Festivities:     boolField(rec, "festivities"),
				WeekEnd:         boolField(rec, "weekEnd"),
				WeekDay:         boolField(rec, "weekDay"),
			},
		}
		for _, variable := range model.WeatherVariables {
			obs.Weather[variable] = floatField(rec, variable)
		}
		obs.NormalizeCloudCover()
		rows = append(rows, obs)
	}
	return rows, result.Err()
}

func (s *InfluxSource) AreaGeneration(ctx context.Context, area int, day time.Time) (map[int]float64, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == "generation" and r.area == "%d" and r._field == "Power")
  |> aggregateWindow(every: 1h, fn: sum, createEmpty: false)`,
		s.bucket, day.Format(time.RFC3339), day.AddDate(0, 0, 1).Format(time.RFC3339), area)
	result, err := s.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query generation: %w", err)
	}
	defer result.Close()

	byHour := make(map[int]float64, 24)
	for result.Next() {
		rec := result.Record()
		if v, ok := rec.Value().(float64); ok {
			// aggregateWindow stamps the window end; shift back one hour.
			byHour[rec.Time().UTC().Add(-time.Hour).Hour()] += v
		}
	}
	return byHour, result.Err()
}

func (s *InfluxSource) InstalledCapacity(ctx context.Context, area int, resourceType string) (float64, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: 0)
  |> filter(fn: (r) => r._measurement == "installed_capacity" and r.area == "%d" and r.resource == %q)
  |> last()
  |> sum()`, s.bucket, area, resourceType)
	return s.scalar(ctx, flux, "query installed capacity")
}

func (s *InfluxSource) ReferenceMaxDemand(ctx context.Context) (float64, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: 0)
  |> filter(fn: (r) => r._measurement == "observation" and r._field == "Power")
  |> max()`, s.bucket)
	return s.scalar(ctx, flux, "query reference max demand")
}

func (s *InfluxSource) ForecastWeather(ctx context.Context, area int, start, end time.Time) ([]model.HourlyObservation, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == "forecast" and r.area == "%d")
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"])`,
		s.bucket, start.Format(time.RFC3339), end.AddDate(0, 0, 1).Format(time.RFC3339), area)
	result, err := s.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query forecast: %w", err)
	}
	defer result.Close()

	var rows []model.HourlyObservation
	for result.Next() {
		rec := result.Record()
		t := rec.Time().UTC()
		obs := model.HourlyObservation{
			Date:    time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Hour:    t.Hour(),
			Weather: make(map[string]float64, len(model.WeatherVariables)),
		}
		for _, variable := range model.WeatherVariables {
			obs.Weather[variable] = floatField(rec, variable)
		}
		obs.NormalizeCloudCover()
		rows = append(rows, obs)
	}
	return rows, result.Err()
}

func (s *InfluxSource) ElectricityPrices(ctx context.Context, area int, start, end time.Time) ([]model.PriceRow, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == "price" and r.area == "%d")
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"])`,
		s.bucket, start.Format(time.RFC3339), end.AddDate(0, 0, 1).Format(time.RFC3339), area)
	result, err := s.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer result.Close()

	var rows []model.PriceRow
	for result.Next() {
		rec := result.Record()
		rows = append(rows, model.PriceRow{
			Date:    rec.Time().UTC(),
			Price:   floatField(rec, "Price"),
			Surplus: floatField(rec, "Surplus"),
		})
	}
	return rows, result.Err()
}

func (s *InfluxSource) LatestPriceDate(ctx context.Context, area int) (time.Time, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: 0)
  |> filter(fn: (r) => r._measurement == "price" and r.area == "%d" and r._field == "Price")
  |> last()`, s.bucket, area)
	result, err := s.query.Query(ctx, flux)
	if err != nil {
		return time.Time{}, fmt.Errorf("query latest price: %w", err)
	}
	defer result.Close()
	if !result.Next() {
		if err := result.Err(); err != nil {
			return time.Time{}, err
		}
		return time.Time{}, fmt.Errorf("no electricity price data for area %d", area)
	}
	t := result.Record().Time().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (s *InfluxSource) scalar(ctx context.Context, flux, what string) (float64, error) {
	result, err := s.query.Query(ctx, flux)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	defer result.Close()
	if !result.Next() {
		if err := result.Err(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if v, ok := result.Record().Value().(float64); ok {
		return v, nil
	}
	return 0, nil
}

func floatField(rec *query.FluxRecord, field string) float64 {
	switch v := rec.ValueByKey(field).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func boolField(rec *query.FluxRecord, field string) bool {
	switch v := rec.ValueByKey(field).(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}

var _ datasource.Source = (*InfluxSource)(nil)
