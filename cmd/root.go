package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/inasolar/microgrid/app"
	"github.com/inasolar/microgrid/config"
)

var (
	cfgPath  string
	location int
	area     int
)

var rootCmd = &cobra.Command{
	Use:   "microgrid",
	Short: "Micro-grid dispatch simulator and similar-day matcher",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().IntVar(&location, "location", 1, "location identifier")
	rootCmd.PersistentFlags().IntVar(&area, "area", 1, "area identifier")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func newService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}

func parseDay(value string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return t, nil
}
