package simulation

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/inasolar/microgrid/core/datasource"
)

func TestSimulateRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	src := newStubSource(500)
	src.addDay(start, dayRows(start, 300, 8, 50), flatGeneration(100))
	src.addDay(end, dayRows(end, 250, 8, 60), flatGeneration(100))

	cfg := DefaultConfig()
	cfg.GasInitialVolume = 100
	sim := NewSimulator(&cfg, src, nopLog{})

	res, err := sim.SimulateRange(context.Background(), start, end, datasource.Location{ID: 1, Area: 1}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.DayErrors) != 0 {
		t.Fatalf("unexpected day errors: %v", res.DayErrors)
	}
	if len(res.Table) != 48 {
		t.Fatalf("expected 48 hours got %d", len(res.Table))
	}
	if res.Table[24].Hour != 0 || !res.Table[24].Date.Equal(end) {
		t.Fatalf("day boundary misplaced: %+v", res.Table[24])
	}

	// Storage carries over the day boundary.
	prev := res.Table[23].Base
	next := res.Table[24].Base
	wantInlet := prev.VolBioFinal - next.PotBio1*cfg.Derived.BioConversionFactor + cfg.Derived.QBiogasGenerated
	approx(t, "VolBioInicial carry", next.VolBioInicial, wantInlet)
}

func TestSimulateRangeDeterministic(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	src := newStubSource(500)
	src.addDay(start, dayRows(start, 300, 8, 50), flatGeneration(100))

	loc := datasource.Location{ID: 1, Area: 1}
	run := func() RangeResult {
		cfg := DefaultConfig()
		cfg.GasInitialVolume = 100
		sim := NewSimulator(&cfg, src, nopLog{})
		res, err := sim.SimulateRange(context.Background(), start, start, loc, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res
	}
	if a, b := run(), run(); !reflect.DeepEqual(a.Table, b.Table) {
		t.Fatal("two runs over the same data diverged")
	}
}

func TestSimulateRangeSkipsBrokenDays(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	middle := start.AddDate(0, 0, 1)
	end := start.AddDate(0, 0, 2)

	src := newStubSource(500)
	src.addDay(start, dayRows(start, 300, 8, 50), flatGeneration(100))
	// middle day missing entirely
	src.addDay(end, dayRows(end, 250, 8, 60), flatGeneration(100))

	cfg := DefaultConfig()
	cfg.GasInitialVolume = 100
	sim := NewSimulator(&cfg, src, nopLog{})

	res, err := sim.SimulateRange(context.Background(), start, end, datasource.Location{ID: 1, Area: 1}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Table) != 48 {
		t.Fatalf("expected 48 hours got %d", len(res.Table))
	}
	if len(res.DayErrors) != 1 || !res.DayErrors[0].Date.Equal(middle) {
		t.Fatalf("expected the middle day skipped, got %v", res.DayErrors)
	}
}

func TestSimulateRangeInstalledCapacityOverride(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	src := newStubSource(500)
	src.installed = 400
	src.addDay(start, dayRows(start, 300, 0, 50), flatGeneration(100))

	cfg := DefaultConfig()
	cfg.GasInitialVolume = 100
	sim := NewSimulator(&cfg, src, nopLog{})

	res, err := sim.SimulateRange(context.Background(), start, start, datasource.Location{ID: 1, Area: 1}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PVFarmsInstalledPower != 400 {
		t.Fatalf("installed power not overridden: %v", cfg.PVFarmsInstalledPower)
	}
	// 100 kW of farm output over 400 kW installed, 150 kW plant.
	approx(t, "Base.PotFV", res.Table[0].Base.PotFV, 100.0/400*150)
}

func TestSimulateRangeInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Performance = 0
	sim := NewSimulator(&cfg, newStubSource(500), nopLog{})

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := sim.SimulateRange(context.Background(), start, start, datasource.Location{}, false); err == nil {
		t.Fatal("expected a validation error")
	}
}
