package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inasolar/microgrid/core/datasource"
	"github.com/inasolar/microgrid/core/forecast"
	"github.com/inasolar/microgrid/core/model"
	"github.com/inasolar/microgrid/core/simulation"
)

var (
	fcStart     string
	fcEnd       string
	fcHistStart string
	fcHistEnd   string
	fcGenerator int
	fcGenArea   int
	fcMode       string
	fcMargins    string
	fcWeights    string
	fcDayTypes   string
	fcNumDays    int
	fcGenMargins string
	fcGenWeights string
	fcFailures   bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Predict demand from similar days and simulate the horizon",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&fcStart, "start", "", "first predicted day, YYYY-MM-DD")
	forecastCmd.Flags().StringVar(&fcEnd, "end", "", "last predicted day, YYYY-MM-DD")
	forecastCmd.Flags().StringVar(&fcHistStart, "hist-start", "", "first historical day, YYYY-MM-DD")
	forecastCmd.Flags().StringVar(&fcHistEnd, "hist-end", "", "last historical day, YYYY-MM-DD")
	forecastCmd.Flags().IntVar(&fcGenerator, "generator", 2, "generator location identifier")
	forecastCmd.Flags().IntVar(&fcGenArea, "generator-area", 1, "generator area identifier")
	forecastCmd.Flags().StringVar(&fcMode, "mode", "margins", "matching mode: margins or ponders")
	forecastCmd.Flags().StringVar(&fcMargins, "margins", "{}", "margins as JSON")
	forecastCmd.Flags().StringVar(&fcWeights, "weights", "[]", "per-variable weights as a JSON array of 9 numbers")
	forecastCmd.Flags().StringVar(&fcDayTypes, "daytypes", "{}", "day-type filter as JSON")
	forecastCmd.Flags().IntVar(&fcNumDays, "days", 20, "ranked days per prediction in ponders mode")
	forecastCmd.Flags().StringVar(&fcGenMargins, "generator-margins", "", "generator-side margins as JSON, defaults to --margins")
	forecastCmd.Flags().StringVar(&fcGenWeights, "generator-weights", "", "generator-side weights as JSON, defaults to --weights")
	forecastCmd.Flags().BoolVar(&fcFailures, "failures", false, "draw random equipment failures")
	_ = forecastCmd.MarkFlagRequired("start")
	_ = forecastCmd.MarkFlagRequired("end")
	_ = forecastCmd.MarkFlagRequired("hist-start")
	_ = forecastCmd.MarkFlagRequired("hist-end")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start, err := parseDay(fcStart)
	if err != nil {
		return err
	}
	end, err := parseDay(fcEnd)
	if err != nil {
		return err
	}
	histStart, err := parseDay(fcHistStart)
	if err != nil {
		return err
	}
	histEnd, err := parseDay(fcHistEnd)
	if err != nil {
		return err
	}
	var margins map[string]float64
	if err := json.Unmarshal([]byte(fcMargins), &margins); err != nil {
		return fmt.Errorf("parse margins: %w", err)
	}
	var weights []float64
	if err := json.Unmarshal([]byte(fcWeights), &weights); err != nil {
		return fmt.Errorf("parse weights: %w", err)
	}
	var dayTypes model.DayTypes
	if err := json.Unmarshal([]byte(fcDayTypes), &dayTypes); err != nil {
		return fmt.Errorf("parse daytypes: %w", err)
	}

	// The generator side reuses the consumer parameters unless it has
	// its own.
	genMargins := margins
	if fcGenMargins != "" {
		genMargins = nil
		if err := json.Unmarshal([]byte(fcGenMargins), &genMargins); err != nil {
			return fmt.Errorf("parse generator margins: %w", err)
		}
	}
	genWeights := weights
	if fcGenWeights != "" {
		genWeights = nil
		if err := json.Unmarshal([]byte(fcGenWeights), &genWeights); err != nil {
			return fmt.Errorf("parse generator weights: %w", err)
		}
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Forecast(ctx, forecast.Request{
		Start:     start,
		End:       end,
		Consumer:  datasource.Location{ID: location, Area: area},
		Generator: datasource.Location{ID: fcGenerator, Area: fcGenArea},
		HistStart: histStart,
		HistEnd:   histEnd,
		Mode:      forecast.MatchMode(fcMode),
		ConsumerMatch: forecast.MatchParams{
			Margins:  margins,
			DayTypes: dayTypes,
			Weights:  weights,
			NumDays:  fcNumDays,
		},
		GeneratorMatch: forecast.MatchParams{
			Margins:  genMargins,
			DayTypes: dayTypes,
			Weights:  genWeights,
			NumDays:  fcNumDays,
		},
		WithFailures: fcFailures,
	})
	if err != nil {
		return err
	}

	pair := simulation.Summarize(res.Table, false)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Summaries   model.SummaryPair `json:"summaries"`
		Hours       int               `json:"hours"`
		SimilarDays int               `json:"similarDayRows"`
	}{pair, len(res.Table), len(res.SimilarDays)})
}
