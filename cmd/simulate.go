package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inasolar/microgrid/core/datasource"
)

var (
	simStart    string
	simEnd      string
	simFailures bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the hourly dispatch simulation over a date range",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simStart, "start", "", "first day, YYYY-MM-DD")
	simulateCmd.Flags().StringVar(&simEnd, "end", "", "last day, YYYY-MM-DD")
	simulateCmd.Flags().BoolVar(&simFailures, "failures", false, "draw random equipment failures")
	_ = simulateCmd.MarkFlagRequired("start")
	_ = simulateCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start, err := parseDay(simStart)
	if err != nil {
		return err
	}
	end, err := parseDay(simEnd)
	if err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, pair, err := svc.Simulate(ctx, start, end, datasource.Location{ID: location, Area: area}, simFailures)
	if err != nil {
		return err
	}

	skipped := make([]string, 0, len(res.DayErrors))
	for _, dayErr := range res.DayErrors {
		skipped = append(skipped, dayErr.Error())
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Summaries   any      `json:"summaries"`
		SkippedDays []string `json:"skippedDays,omitempty"`
		Hours       int      `json:"hours"`
	}{pair, skipped, len(res.Table)})
}
