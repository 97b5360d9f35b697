package simulation

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inasolar/microgrid/core/model"
)

// Resource identifies one dispatchable resource of the plant.
type Resource int

const (
	ResourceFV Resource = iota
	ResourceEolic
	ResourceBiogas
	ResourceTurbine
	ResourcePump
	numResources
)

func (r Resource) String() string {
	switch r {
	case ResourceFV:
		return "fv"
	case ResourceEolic:
		return "eolic"
	case ResourceBiogas:
		return "biogas"
	case ResourceTurbine:
		return "turbine"
	case ResourcePump:
		return "pump"
	}
	return "unknown"
}

// DayFlags holds the 24 working flags of every resource for one day.
type DayFlags struct {
	FV      [24]int
	Eolic   [24]int
	Biogas  [24]int
	Turbine [24]int
	Pump    [24]int
}

// AllWorking returns a day with every resource up for every hour.
func AllWorking() DayFlags {
	var f DayFlags
	for h := 0; h < 24; h++ {
		f.FV[h], f.Eolic[h], f.Biogas[h], f.Turbine[h], f.Pump[h] = 1, 1, 1, 1, 1
	}
	return f
}

// Hour extracts the per-resource flags of one hour.
func (f DayFlags) Hour(h int) model.ResourceFlags {
	return model.ResourceFlags{
		FV:      f.FV[h],
		Eolic:   f.Eolic[h],
		Biogas:  f.Biogas[h],
		Turbine: f.Turbine[h],
		Pump:    f.Pump[h],
	}
}

// FailureGenerator produces the daily uptime/downtime flag sequences.
// Each resource has a FIFO queue of 0/1 flags refilled by drawing
// uptime runs from an exponential distribution and downtime runs from
// a Rayleigh distribution until the queue covers the remaining
// horizon. With failures disabled the generator is fully deterministic
// and never touches the RNG.
type FailureGenerator struct {
	enabled   bool
	remaining int // hours still to be simulated
	queues    [numResources][]int
	uptime    [numResources]distuv.Exponential
	downtime  [numResources]distuv.Weibull
}

// NewFailureGenerator builds a generator for a horizon of horizonHours.
func NewFailureGenerator(cfg FailureConfig, horizonHours int, enabled bool) *FailureGenerator {
	g := &FailureGenerator{enabled: enabled, remaining: horizonHours}
	if !enabled {
		return g
	}
	src := rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed))
	params := [numResources]FailureParams{
		ResourceFV:      cfg.FV,
		ResourceEolic:   cfg.WindPower,
		ResourceBiogas:  cfg.Biogas,
		ResourceTurbine: cfg.Hydraulic,
		ResourcePump:    cfg.Hydraulic,
	}
	for r := Resource(0); r < numResources; r++ {
		g.uptime[r] = distuv.Exponential{Rate: 1 / params[r].ExponentialScale, Src: src}
		g.downtime[r] = distuv.Weibull{K: 2, Lambda: params[r].RayleighScale * math.Sqrt2, Src: src}
	}
	g.refill()
	return g
}

// refill tops up every queue until it covers the remaining horizon.
func (g *FailureGenerator) refill() {
	for r := Resource(0); r < numResources; r++ {
		for len(g.queues[r]) <= g.remaining {
			up := int(g.uptime[r].Rand())
			down := int(g.downtime[r].Rand())
			for i := 0; i < up; i++ {
				g.queues[r] = append(g.queues[r], 1)
			}
			for i := 0; i < down; i++ {
				g.queues[r] = append(g.queues[r], 0)
			}
		}
	}
}

// NextDay pops the next 24 flags of every resource. The queues are
// topped up first so they can never be exhausted mid-day.
func (g *FailureGenerator) NextDay() DayFlags {
	if !g.enabled {
		return AllWorking()
	}
	g.refill()
	var day DayFlags
	dst := [numResources]*[24]int{
		ResourceFV:      &day.FV,
		ResourceEolic:   &day.Eolic,
		ResourceBiogas:  &day.Biogas,
		ResourceTurbine: &day.Turbine,
		ResourcePump:    &day.Pump,
	}
	for r := Resource(0); r < numResources; r++ {
		copy(dst[r][:], g.queues[r][:24])
		g.queues[r] = g.queues[r][24:]
	}
	if g.remaining > 24 {
		g.remaining -= 24
	} else {
		g.remaining = 0
	}
	return day
}

// QueueLen reports the pending flag count for a resource. Used by
// tests to verify the horizon-coverage invariant.
func (g *FailureGenerator) QueueLen(r Resource) int { return len(g.queues[r]) }
