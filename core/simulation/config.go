package simulation

import (
	"errors"
	"fmt"
)

const (
	hoursPerYear = 365 * 24
	gravity      = 9.81
)

// Default physical constants of the biogas chain.
const (
	DefaultPCIMethane       = 8.059
	DefaultMethaneFraction  = 0.6
	DefaultEngineEfficiency = 0.29
	DefaultQBiogasConstant  = 0.07415
)

// ErrInvalidConfig wraps every configuration precondition violation.
var ErrInvalidConfig = errors.New("invalid simulation config")

// FailureParams are the reliability parameters of one resource: mean
// uptime drawn from an exponential distribution and downtime from a
// Rayleigh distribution, both in hours.
type FailureParams struct {
	ExponentialScale float64 `json:"exponential_scale"`
	RayleighScale    float64 `json:"rayleigh_scale"`
}

// FailureConfig gathers the per-resource reliability parameters plus
// the RNG seed used for reproducible runs.
type FailureConfig struct {
	Seed      int64         `json:"seed"`
	FV        FailureParams `json:"fv"`
	WindPower FailureParams `json:"wind_power"`
	Biogas    FailureParams `json:"biogas"`
	Hydraulic FailureParams `json:"hydraulic"`
}

// Config holds every plant parameter of a simulation run. The struct is
// owned by exactly one run; the optimizer copies it per scenario. After
// mutating any base field call Recompute so the derived fields can
// never be stale.
type Config struct {
	// Physical constants.
	PCIMethane       float64 `json:"pci_methane"`
	MethaneFraction  float64 `json:"methane_fraction"`
	EngineEfficiency float64 `json:"engine_efficiency"`
	QBiogasConstant  float64 `json:"q_biogas_constant"`

	// Biogas plant.
	DigesterVolume             float64 `json:"digester_volume"`
	GeneratorMaxPower          float64 `json:"generator_max_power"`
	GeneratorMinPower          float64 `json:"generator_min_power"`
	GasInitialVolume           float64 `json:"gas_initial_volume"`
	BiogasGenerationPercentage float64 `json:"biogas_generation_percentage"`
	BioKWInstallationCost      float64 `json:"bio_kw_installation_cost"`
	BioGenerationMeanCost      float64 `json:"bio_generation_mean_cost"`
	BioAmortizationPeriod      float64 `json:"bio_amortization_period"`

	// Photovoltaic plant.
	PhotovoltaicPower     float64 `json:"photovoltaic_power"`
	MaxDemand             float64 `json:"max_demand"`
	PVFarmsInstalledPower float64 `json:"pv_farms_installed_power"`
	PVKWInstallationCost  float64 `json:"pv_kw_installation_cost"`
	PVGenerationMeanCost  float64 `json:"pv_generation_mean_cost"`
	PVAmortizationPeriod  float64 `json:"pv_amortization_period"`

	// Wind turbine.
	WindTurbinePower      float64 `json:"wind_turbine_power"`
	MinSpeed              float64 `json:"min_speed"`
	MaxSpeed              float64 `json:"max_speed"`
	MaxSpeedLimit         float64 `json:"max_speed_limit"`
	EolKWInstallationCost float64 `json:"eol_kw_installation_cost"`
	EolGenerationMeanCost float64 `json:"eol_generation_mean_cost"`
	EolAmortizationPeriod float64 `json:"eol_amortization_period"`

	// Pumped hydraulic storage.
	UpperTankVolume                  float64 `json:"upper_tank_volume"`
	LowerTankVolume                  float64 `json:"lower_tank_volume"`
	InitialUpperTankVolume           float64 `json:"initial_upper_tank_volume"`
	InitialLowerTankVolume           float64 `json:"initial_lower_tank_volume"`
	TurbinePower                     float64 `json:"turbine_power"`
	PumpPower                        float64 `json:"pump_power"`
	Performance                      float64 `json:"performance"`
	HydraulicJump                    float64 `json:"hydraulic_jump"`
	HydraulicKWInstallationCost      float64 `json:"hydraulic_kw_installation_cost"`
	HydraulicDepositInstallationCost float64 `json:"hydraulic_deposit_installation_cost"`
	HydraulicGenerationMeanCost      float64 `json:"hydraulic_generation_mean_cost"`
	HydraulicAmortizationPeriod      float64 `json:"hydraulic_amortization_period"`

	Failures FailureConfig `json:"failures"`

	// Derived fields, recomputed from the base fields above.
	Derived Derived `json:"-"`
}

// Derived holds every field computed from config base fields. It is
// rebuilt wholesale by Recompute; nothing outside this struct caches a
// derived value.
type Derived struct {
	BioConversionFactor   float64 // m3 of biogas per kWh delivered
	BiogasMaximumVolume   float64
	BiogasMinimumVolume   float64
	BiogasMaxDigester     float64 // flare burn ceiling, kW
	QBiogasGenerated      float64 // hourly digester inflow, m3
	QBiometGenerated      float64
	QgDam                 float64 // m3 per kWh turbined
	QbDam                 float64 // m3 per kWh pumped
	LowerMaximumVolumeDam float64

	BioInstallationCost       float64
	PVInstallationCost        float64
	EolInstallationCost       float64
	HydraulicInstallationCost float64

	BioAmortizationCostHour       float64
	PVAmortizationCostHour        float64
	EolAmortizationCostHour       float64
	HydraulicAmortizationCostHour float64
}

// DefaultConfig returns the reference plant used by the dashboard.
func DefaultConfig() Config {
	cfg := Config{
		PCIMethane:       DefaultPCIMethane,
		MethaneFraction:  DefaultMethaneFraction,
		EngineEfficiency: DefaultEngineEfficiency,
		QBiogasConstant:  DefaultQBiogasConstant,

		DigesterVolume:             1400,
		GeneratorMaxPower:          150,
		GeneratorMinPower:          75,
		GasInitialVolume:           12,
		BiogasGenerationPercentage: 100,
		BioKWInstallationCost:      6200,
		BioGenerationMeanCost:      25,
		BioAmortizationPeriod:      12,

		PhotovoltaicPower:     150,
		MaxDemand:             500,
		PVFarmsInstalledPower: 200,
		PVKWInstallationCost:  1210,
		PVGenerationMeanCost:  4.5,
		PVAmortizationPeriod:  12,

		WindTurbinePower:      100,
		MinSpeed:              5,
		MaxSpeed:              15,
		MaxSpeedLimit:         24,
		EolKWInstallationCost: 1700,
		EolGenerationMeanCost: 5.45,
		EolAmortizationPeriod: 12,

		UpperTankVolume:        12000,
		LowerTankVolume:        12000,
		InitialUpperTankVolume: 12000,
		InitialLowerTankVolume: 0,
		TurbinePower:           150,
		PumpPower:              150,
		Performance:            0.8,
		HydraulicJump:          160,

		HydraulicKWInstallationCost:      1620,
		HydraulicDepositInstallationCost: 24.35,
		HydraulicGenerationMeanCost:      4.5,
		HydraulicAmortizationPeriod:      12,

		Failures: FailureConfig{
			FV:        FailureParams{ExponentialScale: 4380, RayleighScale: 24},
			WindPower: FailureParams{ExponentialScale: 4380, RayleighScale: 24},
			Biogas:    FailureParams{ExponentialScale: 4380, RayleighScale: 24},
			Hydraulic: FailureParams{ExponentialScale: 4380, RayleighScale: 24},
		},
	}
	cfg.Recompute()
	return cfg
}

// SetDefaults fills zero-valued physical constants so that partial
// configuration files stay usable.
func (c *Config) SetDefaults() {
	if c.PCIMethane == 0 {
		c.PCIMethane = DefaultPCIMethane
	}
	if c.MethaneFraction == 0 {
		c.MethaneFraction = DefaultMethaneFraction
	}
	if c.EngineEfficiency == 0 {
		c.EngineEfficiency = DefaultEngineEfficiency
	}
	if c.QBiogasConstant == 0 {
		c.QBiogasConstant = DefaultQBiogasConstant
	}
	if c.BiogasGenerationPercentage == 0 {
		c.BiogasGenerationPercentage = 100
	}
	if c.GeneratorMinPower == 0 {
		c.GeneratorMinPower = BiogasMinPower(c.GeneratorMaxPower)
	}
	if c.GasInitialVolume == 0 {
		c.GasInitialVolume = BiogasGasInitialVolume(c.DigesterVolume)
	}
}

// Recompute rebuilds every derived field from the base fields. It must
// be called after any base field changes and is idempotent.
func (c *Config) Recompute() {
	d := &c.Derived

	d.BioConversionFactor = 1 / c.EngineEfficiency / c.PCIMethane / c.MethaneFraction
	d.BiogasMaximumVolume = 0.4 * c.DigesterVolume
	d.BiogasMinimumVolume = d.BiogasMaximumVolume / 20
	d.BiogasMaxDigester = (c.QBiogasConstant * c.DigesterVolume) / d.BioConversionFactor
	d.QBiogasGenerated = c.QBiogasConstant * c.DigesterVolume * (c.BiogasGenerationPercentage / 100)
	d.QBiometGenerated = d.QBiogasGenerated * c.MethaneFraction

	d.QgDam = 1 / gravity / c.HydraulicJump / c.Performance * 3600
	d.QbDam = 1 / gravity / c.HydraulicJump * 3600 * c.Performance
	d.LowerMaximumVolumeDam = c.UpperTankVolume - c.InitialUpperTankVolume

	d.BioInstallationCost = InstallationCost(c.GeneratorMaxPower, c.BioKWInstallationCost)
	d.PVInstallationCost = InstallationCost(c.PhotovoltaicPower, c.PVKWInstallationCost)
	d.EolInstallationCost = WindPowerInstallationCost(c.WindTurbinePower, c.EolKWInstallationCost)
	d.HydraulicInstallationCost = HydraulicInstallationCost(
		c.TurbinePower, c.PumpPower, c.HydraulicKWInstallationCost,
		c.UpperTankVolume, c.LowerTankVolume, c.HydraulicDepositInstallationCost)

	d.BioAmortizationCostHour = d.BioInstallationCost / (c.BioAmortizationPeriod * hoursPerYear)
	d.PVAmortizationCostHour = d.PVInstallationCost / (c.PVAmortizationPeriod * hoursPerYear)
	d.EolAmortizationCostHour = d.EolInstallationCost / (c.EolAmortizationPeriod * hoursPerYear)
	d.HydraulicAmortizationCostHour = d.HydraulicInstallationCost / (c.HydraulicAmortizationPeriod * hoursPerYear)
}

// Validate checks the tank preconditions before a run.
func (c *Config) Validate() error {
	if c.InitialLowerTankVolume > c.LowerTankVolume {
		return fmt.Errorf("%w: initial lower tank volume %.2f exceeds lower tank volume %.2f",
			ErrInvalidConfig, c.InitialLowerTankVolume, c.LowerTankVolume)
	}
	if c.InitialUpperTankVolume > c.UpperTankVolume {
		return fmt.Errorf("%w: initial upper tank volume %.2f exceeds upper tank volume %.2f",
			ErrInvalidConfig, c.InitialUpperTankVolume, c.UpperTankVolume)
	}
	if limit := min(c.UpperTankVolume, c.LowerTankVolume); c.InitialUpperTankVolume+c.InitialLowerTankVolume > limit {
		return fmt.Errorf("%w: combined initial volumes %.2f exceed the smaller tank %.2f",
			ErrInvalidConfig, c.InitialUpperTankVolume+c.InitialLowerTankVolume, limit)
	}
	if c.Performance <= 0 || c.HydraulicJump <= 0 {
		return fmt.Errorf("%w: hydraulic performance and jump must be positive", ErrInvalidConfig)
	}
	return nil
}

// InstallationCost is capacity times unit cost.
func InstallationCost(capacity, unitCost float64) float64 { return capacity * unitCost }

// WindPowerInstallationCost applies the 1.5 civil-works factor used for
// wind installations.
func WindPowerInstallationCost(power, kwCost float64) float64 {
	return InstallationCost(power, kwCost) * 1.5
}

// HydraulicInstallationCost sums the machinery and deposit investments,
// with the same 1.5 factor.
func HydraulicInstallationCost(turbinePower, pumpPower, kwCost, upperTank, lowerTank, depositCost float64) float64 {
	powerInvestment := InstallationCost(turbinePower+pumpPower, kwCost)
	tanksInvestment := InstallationCost(upperTank+lowerTank, depositCost)
	return (powerInvestment + tanksInvestment) * 1.5
}

// BiogasMinPower derives the minimum stable generation from the
// generator rating.
func BiogasMinPower(maxPower float64) float64 { return maxPower * 0.25 }

// BiogasGasInitialVolume derives the default initial gas stock from the
// digester volume.
func BiogasGasInitialVolume(digesterVolume float64) float64 { return digesterVolume * 0.1 }
