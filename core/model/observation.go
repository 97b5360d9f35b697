package model

import "time"

// WeatherVariables lists the meteorological variables carried by every
// hourly observation, in the order used by the similar-day scoring.
var WeatherVariables = []string{
	"temperature_2m",
	"cloudcover",
	"direct_radiation",
	"relativehumidity_2m",
	"surface_pressure",
	"precipitation",
	"snowfall",
	"windspeed_10m",
	"winddirection_10m",
}

// DayTypes flags the calendar category of a date. Several flags can be
// set at once (a local holiday can also be a weekend).
type DayTypes struct {
	NewYear         bool `json:"newYear"`
	LocalHoliday    bool `json:"localHoliday"`
	NationalHoliday bool `json:"nationalHoliday"`
	Festivities     bool `json:"festivities"`
	WeekEnd         bool `json:"weekEnd"`
	WeekDay         bool `json:"weekDay"`
}

// Any reports whether at least one flag is set.
func (d DayTypes) Any() bool {
	return d.NewYear || d.LocalHoliday || d.NationalHoliday || d.Festivities || d.WeekEnd || d.WeekDay
}

// Matches reports whether at least one of the flags requested in the
// filter is set on this date.
func (d DayTypes) Matches(filter DayTypes) bool {
	return (filter.NewYear && d.NewYear) ||
		(filter.LocalHoliday && d.LocalHoliday) ||
		(filter.NationalHoliday && d.NationalHoliday) ||
		(filter.Festivities && d.Festivities) ||
		(filter.WeekEnd && d.WeekEnd) ||
		(filter.WeekDay && d.WeekDay)
}

// HourlyObservation is one hour of historical or forecast data for a
// location: weather variables, measured (or predicted) power, and the
// electricity prices in effect.
type HourlyObservation struct {
	Date    time.Time // calendar day at midnight UTC
	Hour    int       // 0..23
	Weather map[string]float64
	Power   float64 // kW, measured demand or generation depending on the location
	Price   float64 // grid price, EUR/MWh
	Surplus float64 // surplus price, EUR/MWh
	Day     DayTypes

	// PowerDiff is filled by the margin matcher: the absolute power
	// difference against the objective day for the same hour.
	PowerDiff float64
}

// DateKey returns the calendar-date key used to group hourly rows.
func (o HourlyObservation) DateKey() string { return o.Date.Format("2006-01-02") }

// WindSpeed returns the 10m wind speed variable.
func (o HourlyObservation) WindSpeed() float64 { return o.Weather["windspeed_10m"] }

// Temperature returns the 2m temperature variable.
func (o HourlyObservation) Temperature() float64 { return o.Weather["temperature_2m"] }

// NormalizeCloudCover zeroes cloud cover outside daylight hours, where
// it is irrelevant to similarity matching and only adds noise. Every
// data source applies it before handing rows to the core.
func (o *HourlyObservation) NormalizeCloudCover() {
	if (o.Hour < 9 || o.Hour > 18) && o.Weather != nil {
		o.Weather["cloudcover"] = 0
	}
}

// PriceRow is one hourly electricity price record.
type PriceRow struct {
	Date    time.Time // includes the hour
	Price   float64
	Surplus float64
}

// GroupByDate splits hourly rows per calendar date preserving the
// chronological order of the dates.
func GroupByDate(rows []HourlyObservation) (map[string][]HourlyObservation, []string) {
	grouped := make(map[string][]HourlyObservation)
	var order []string
	for _, r := range rows {
		key := r.DateKey()
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], r)
	}
	return grouped, order
}
