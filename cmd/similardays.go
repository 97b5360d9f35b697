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
	"github.com/inasolar/microgrid/core/model"
)

var (
	sdDate     string
	sdStart    string
	sdEnd      string
	sdMode     string
	sdMargins  string
	sdWeights  string
	sdDayTypes string
	sdTopN     int
)

var similarDaysCmd = &cobra.Command{
	Use:   "similardays",
	Short: "Find historical days with similar weather",
	RunE:  runSimilarDays,
}

func init() {
	similarDaysCmd.Flags().StringVar(&sdDate, "date", "", "objective day, YYYY-MM-DD")
	similarDaysCmd.Flags().StringVar(&sdStart, "start", "", "first candidate day, YYYY-MM-DD")
	similarDaysCmd.Flags().StringVar(&sdEnd, "end", "", "last candidate day, YYYY-MM-DD")
	similarDaysCmd.Flags().StringVar(&sdMode, "mode", "margins", "matching mode: margins or ponders")
	similarDaysCmd.Flags().StringVar(&sdMargins, "margins", "{}", `margins as JSON, e.g. {"temperature_2m":2}`)
	similarDaysCmd.Flags().StringVar(&sdWeights, "weights", "[]", "per-variable weights as a JSON array of 9 numbers")
	similarDaysCmd.Flags().StringVar(&sdDayTypes, "daytypes", "{}", `day-type filter as JSON, e.g. {"weekDay":true}`)
	similarDaysCmd.Flags().IntVar(&sdTopN, "days", 20, "number of ranked days in ponders mode")
	_ = similarDaysCmd.MarkFlagRequired("date")
	_ = similarDaysCmd.MarkFlagRequired("start")
	_ = similarDaysCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(similarDaysCmd)
}

func runSimilarDays(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	objective, err := parseDay(sdDate)
	if err != nil {
		return err
	}
	start, err := parseDay(sdStart)
	if err != nil {
		return err
	}
	end, err := parseDay(sdEnd)
	if err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	loc := datasource.Location{ID: location, Area: area}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	switch sdMode {
	case "margins":
		var margins map[string]float64
		if err := json.Unmarshal([]byte(sdMargins), &margins); err != nil {
			return fmt.Errorf("parse margins: %w", err)
		}
		var dayTypes model.DayTypes
		if err := json.Unmarshal([]byte(sdDayTypes), &dayTypes); err != nil {
			return fmt.Errorf("parse daytypes: %w", err)
		}
		rows, err := svc.SimilarDaysByMargins(ctx, objective, start, end, loc, margins, dayTypes)
		if err != nil {
			return err
		}
		return enc.Encode(rows)
	case "ponders":
		var weights []float64
		if err := json.Unmarshal([]byte(sdWeights), &weights); err != nil {
			return fmt.Errorf("parse weights: %w", err)
		}
		ranked, _, err := svc.SimilarDaysByPonders(ctx, objective, start, end, loc, weights, sdTopN)
		if err != nil {
			return err
		}
		return enc.Encode(ranked)
	}
	return fmt.Errorf("unknown mode %q", sdMode)
}
