package model

import "time"

// ResourceFlags carries one 0/1 flag per dispatchable resource.
type ResourceFlags struct {
	FV      int
	Eolic   int
	Biogas  int
	Pump    int
	Turbine int
}

// Sum returns the total of all flags.
func (f ResourceFlags) Sum() int { return f.FV + f.Eolic + f.Biogas + f.Pump + f.Turbine }

// Coefficients are the curtailment multipliers selected for one hour.
// All three are 1 unless the curtailment search reduced a source.
type Coefficients struct {
	FV     float64
	Eolic  float64
	Biogas float64
}

// UnitCoefficients returns the no-curtailment coefficient set.
func UnitCoefficients() Coefficients { return Coefficients{FV: 1, Eolic: 1, Biogas: 1} }

// HourlySeries holds the dispatch outcome of one hour for one
// regulation mode. Every HourlyRecord carries two of these: the raw
// (unregulated) series and the regulated series produced after the
// curtailment search. Field names follow the plant telemetry tables.
type HourlySeries struct {
	PotFV   float64 // photovoltaic output, kW
	PotEol  float64 // wind output, kW
	PotDem1 float64 // residual after PV and wind

	VolBioInicial float64 // digester volume before clamping, m3
	PotBio1       float64 // uncurtailed biogas candidate, kW
	PotBio2       float64 // biogas after storage clamping, kW
	PotBio3       float64 // biogas after curtailment coefficient, kW
	PotDem2       float64 // residual after biogas

	PotBombeo   float64 // raw pump absorption, kW
	PotTurbina  float64 // raw turbine output, kW
	VolDepInf1  float64 // lower tank before clamping, m3
	VolDepSup1  float64 // upper tank before clamping, m3
	PotBombeo2  float64 // pump after reservoir clamping, kW (negated on emit)
	PotTurbina2 float64 // turbine after reservoir clamping, kW
	PotDemFinal float64 // final residual; >=0 grid import, <0 surplus

	VolBioFinal float64 // digester volume carried to the next hour, m3
	VolDepInf2  float64 // lower tank carried to the next hour, m3
	VolDepSup2  float64 // upper tank carried to the next hour, m3

	FVGenerationCost        float64
	FVCost                  float64
	EolGenerationCost       float64
	EolCost                 float64
	BioGenerationCost       float64
	BioCost                 float64
	HydraulicGenerationCost float64
	HydraulicCost           float64

	PotQuemAnt     float64 // biogas burnt in the flare, kW
	SoSPotQuemAnt  float64 // flare burn as % of the flare ceiling
	SOSVolBioFinal float64 // digester state of charge, %
	SOSVolDepSup2  float64 // upper tank state of charge, %

	Grid                     float64 // >= 0
	Surplus                  float64 // <= 0
	MoneySpent               float64
	EnergyCostWithRenewables float64
	DifferenceWithoutGrid    float64
	RenewablesPower          float64
	RenewablesPowerWithGrid  float64

	// Allocation maps "target-source" (e.g. "PotDem-PotFV") to the kW
	// share of the target covered by that source.
	Allocation map[string]float64

	NIDG    int // 1 when grid import resumes after an export hour
	LOLESin int // loss-of-load hour with every resource working
	LOLEAux int // loss-of-load hour regardless of failures
	LOLECon int // loss-of-load hour attributable to a failure
}

// HourlyRecord is the full state emitted for one simulated hour.
// Storage fields of the previous record are the carry-in of the next.
type HourlyRecord struct {
	Date time.Time
	Hour int

	Working     ResourceFlags
	NewFailures ResourceFlags

	GridPrice    float64 // EUR/kWh
	SurplusPrice float64 // EUR/kWh

	WindSpeed   float64
	Temperature float64

	QBiogas float64 // hourly biogas inflow, m3
	QBiomet float64 // hourly biomethane share of the inflow, m3

	PotFVUni  float64 // PV farm output as fraction of installed power
	PotEolUni float64 // wind output fraction from the power curve
	PotDemUni float64 // demand as fraction of the reference maximum
	PotDem    float64 // scaled demand, kW

	EnergyCostWithoutRenewables float64

	Coef Coefficients

	Base      HourlySeries // unregulated outcome
	Regulated HourlySeries // outcome after curtailment ("Modified")
}

// DispatchTable is the chronological, gap-free sequence of states
// produced by a range simulation.
type DispatchTable []HourlyRecord
