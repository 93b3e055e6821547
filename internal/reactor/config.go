package reactor

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidConfig = errors.New("invalid reactor config")

// DefaultTimestep is the nominal "1 Hz" simulation step.
const DefaultTimestep = 500 * time.Millisecond

type Config struct {
	// Seed drives every random draw of a session. Zero picks a seed from the
	// wall clock.
	Seed             int64         `yaml:"seed" json:"seed"`
	Lattice          LatticeConfig `yaml:"lattice" json:"lattice"`
	Timestep         time.Duration `yaml:"timestep" json:"timestep"`
	MaxTicksPerFrame int           `yaml:"max_ticks_per_frame" json:"max_ticks_per_frame"`

	BaseReactivity        float64 `yaml:"base_reactivity" json:"base_reactivity"`
	VoidReactivityBoost   float64 `yaml:"void_reactivity_boost" json:"void_reactivity_boost"`
	NeighborCoupling      float64 `yaml:"neighbor_coupling" json:"neighbor_coupling"`
	XenonReactivityFactor float64 `yaml:"xenon_reactivity_factor" json:"xenon_reactivity_factor"`
	HeatGenerationFactor  float64 `yaml:"heat_generation_factor" json:"heat_generation_factor"`
	CoolantTemperature    float64 `yaml:"coolant_temperature" json:"coolant_temperature"`
	CoolantEfficiency     float64 `yaml:"coolant_efficiency" json:"coolant_efficiency"`
	PassiveDecayRate      float64 `yaml:"passive_decay_rate" json:"passive_decay_rate"`
	AmbientTemperature    float64 `yaml:"ambient_temperature" json:"ambient_temperature"`
	FissionHeat           float64 `yaml:"fission_heat" json:"fission_heat"`

	EnergyPerHeatUnit     float64 `yaml:"energy_per_heat_unit" json:"energy_per_heat_unit"`
	EnergyRequiredPerUnit float64 `yaml:"energy_required_per_unit" json:"energy_required_per_unit"`
	SteamExpansionRatio   float64 `yaml:"steam_expansion_ratio" json:"steam_expansion_ratio"`
	PressureCurveExponent float64 `yaml:"pressure_curve_exponent" json:"pressure_curve_exponent"`
	NominalPressure       float64 `yaml:"nominal_pressure" json:"nominal_pressure"`
	PressureScale         float64 `yaml:"pressure_scale" json:"pressure_scale"`
	SteamPullFactor       float64 `yaml:"steam_pull_factor" json:"steam_pull_factor"`
	SteamPullCapacity     float64 `yaml:"steam_pull_capacity" json:"steam_pull_capacity"`
	MaxPumpCoolantFlow    float64 `yaml:"max_pump_coolant_flow" json:"max_pump_coolant_flow"`

	CellSpacing         float64       `yaml:"cell_spacing" json:"cell_spacing"`
	RodRadius           float64       `yaml:"rod_radius" json:"rod_radius"`
	FuelRadius          float64       `yaml:"fuel_radius" json:"fuel_radius"`
	WaterRadius         float64       `yaml:"water_radius" json:"water_radius"`
	NeutronTrials       int           `yaml:"neutron_trials" json:"neutron_trials"`
	NeutronSpawnChance  float64       `yaml:"neutron_spawn_chance" json:"neutron_spawn_chance"`
	NeutronSpeed        float64       `yaml:"neutron_speed" json:"neutron_speed"`
	NeutronSubstep      float64       `yaml:"neutron_substep" json:"neutron_substep"`
	NeutronLifetime     time.Duration `yaml:"neutron_lifetime" json:"neutron_lifetime"`
	NeutronFade         time.Duration `yaml:"neutron_fade" json:"neutron_fade"`
	MaxNeutrons         int           `yaml:"max_neutrons" json:"max_neutrons"`
	FissionSpread       float64       `yaml:"fission_spread" json:"fission_spread"`
	WaterAbsorption     float64       `yaml:"water_absorption" json:"water_absorption"`
	WaterBoilPerNeutron float64       `yaml:"water_boil_per_neutron" json:"water_boil_per_neutron"`
	WaterSteamYield     float64       `yaml:"water_steam_yield" json:"water_steam_yield"`
	XenonChance         float64       `yaml:"xenon_chance" json:"xenon_chance"`

	InitialDemand     float64       `yaml:"initial_demand" json:"initial_demand"`
	InitialRampDelta  float64       `yaml:"initial_ramp_delta" json:"initial_ramp_delta"`
	RampIncrement     float64       `yaml:"ramp_increment" json:"ramp_increment"`
	PowerPerSteam     float64       `yaml:"power_per_steam" json:"power_per_steam"`
	TutorialGrace     time.Duration `yaml:"tutorial_grace" json:"tutorial_grace"`
	DemandInterval    time.Duration `yaml:"demand_interval" json:"demand_interval"`
	RampInterval      time.Duration `yaml:"ramp_interval" json:"ramp_interval"`
	LowPowerTicks     int           `yaml:"low_power_ticks" json:"low_power_ticks"`
	OutageTicks       int           `yaml:"outage_ticks" json:"outage_ticks"`
	WarningPressure   float64       `yaml:"warning_pressure" json:"warning_pressure"`
	ExplosionPressure float64       `yaml:"explosion_pressure" json:"explosion_pressure"`
}

func DefaultConfig() Config {
	return Config{
		Lattice:          DefaultLatticeConfig(),
		Timestep:         DefaultTimestep,
		MaxTicksPerFrame: 8,

		BaseReactivity:        1.0,
		VoidReactivityBoost:   1.5,
		NeighborCoupling:      0.2,
		XenonReactivityFactor: 0.25,
		HeatGenerationFactor:  5.0,
		CoolantTemperature:    40.0,
		CoolantEfficiency:     1.0,
		PassiveDecayRate:      0.01,
		AmbientTemperature:    DefaultTemperature,
		FissionHeat:           2.0,

		EnergyPerHeatUnit:     10.0,
		EnergyRequiredPerUnit: 2000.0,
		SteamExpansionRatio:   100.0,
		PressureCurveExponent: 1.2,
		NominalPressure:       1.0,
		PressureScale:         0.01,
		SteamPullFactor:       0.2,
		SteamPullCapacity:     0.1,
		MaxPumpCoolantFlow:    1.2,

		CellSpacing:         80,
		RodRadius:           20,
		FuelRadius:          22,
		WaterRadius:         36,
		NeutronTrials:       3,
		NeutronSpawnChance:  0.15,
		NeutronSpeed:        65,
		NeutronSubstep:      4,
		NeutronLifetime:     3 * time.Second,
		NeutronFade:         500 * time.Millisecond,
		MaxNeutrons:         512,
		FissionSpread:       0.2 * math.Pi,
		WaterAbsorption:     0.3,
		WaterBoilPerNeutron: 0.01,
		WaterSteamYield:     3,
		XenonChance:         0.002,

		InitialDemand:     0,
		InitialRampDelta:  0.1,
		RampIncrement:     0.05,
		PowerPerSteam:     1.0,
		TutorialGrace:     45 * time.Second,
		DemandInterval:    20 * time.Second,
		RampInterval:      60 * time.Second,
		LowPowerTicks:     5,
		OutageTicks:       20,
		WarningPressure:   8,
		ExplosionPressure: 14,
	}
}

func (c Config) Validate() error {
	if c.Timestep <= 0 {
		return fmt.Errorf("%w: timestep must be positive, got %s", ErrInvalidConfig, c.Timestep)
	}
	if c.MaxTicksPerFrame < 0 {
		return fmt.Errorf("%w: max ticks per frame must not be negative, got %d", ErrInvalidConfig, c.MaxTicksPerFrame)
	}
	if c.NominalPressure <= 0 {
		return fmt.Errorf("%w: nominal pressure must be positive, got %g", ErrInvalidConfig, c.NominalPressure)
	}
	if c.EnergyRequiredPerUnit <= 0 {
		return fmt.Errorf("%w: energy required per unit must be positive, got %g", ErrInvalidConfig, c.EnergyRequiredPerUnit)
	}
	if c.MaxPumpCoolantFlow < 0 || c.SteamPullCapacity < 0 {
		return fmt.Errorf("%w: pump flow and steam pull capacity must not be negative", ErrInvalidConfig)
	}
	if c.CellSpacing <= 0 {
		return fmt.Errorf("%w: cell spacing must be positive, got %g", ErrInvalidConfig, c.CellSpacing)
	}
	if c.RodRadius <= 0 || c.FuelRadius <= 0 || c.WaterRadius <= c.FuelRadius {
		return fmt.Errorf("%w: need rod > 0, fuel > 0 and water > fuel radius, got %g/%g/%g", ErrInvalidConfig, c.RodRadius, c.FuelRadius, c.WaterRadius)
	}
	if c.WaterRadius >= c.CellSpacing/2 || c.RodRadius >= c.CellSpacing/2 {
		return fmt.Errorf("%w: collision radii must stay below half the cell spacing (%g)", ErrInvalidConfig, c.CellSpacing/2)
	}
	for name, p := range map[string]float64{
		"neutron spawn chance": c.NeutronSpawnChance,
		"xenon chance":         c.XenonChance,
		"water absorption":     c.WaterAbsorption,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1, got %g", ErrInvalidConfig, name, p)
		}
	}
	if c.NeutronTrials < 0 {
		return fmt.Errorf("%w: neutron trials must not be negative, got %d", ErrInvalidConfig, c.NeutronTrials)
	}
	if c.NeutronSpeed < 0 || c.NeutronSubstep <= 0 {
		return fmt.Errorf("%w: neutron speed must not be negative and substep must be positive", ErrInvalidConfig)
	}
	if c.NeutronLifetime <= 0 || c.NeutronFade < 0 {
		return fmt.Errorf("%w: neutron lifetime must be positive and fade not negative", ErrInvalidConfig)
	}
	if c.MaxNeutrons <= 0 {
		return fmt.Errorf("%w: max neutrons must be positive, got %d", ErrInvalidConfig, c.MaxNeutrons)
	}
	if c.TutorialGrace < 0 || c.DemandInterval <= 0 || c.RampInterval <= 0 {
		return fmt.Errorf("%w: demand and ramp intervals must be positive", ErrInvalidConfig)
	}
	if c.InitialDemand < 0 || c.InitialRampDelta < 0 || c.RampIncrement < 0 || c.PowerPerSteam <= 0 {
		return fmt.Errorf("%w: demand settings must not be negative and power per steam must be positive", ErrInvalidConfig)
	}
	if c.LowPowerTicks < 0 || c.OutageTicks <= c.LowPowerTicks {
		return fmt.Errorf("%w: outage ticks (%d) must exceed low power ticks (%d)", ErrInvalidConfig, c.OutageTicks, c.LowPowerTicks)
	}
	if c.WarningPressure <= c.NominalPressure || c.ExplosionPressure <= c.WarningPressure {
		return fmt.Errorf("%w: need nominal < warning < explosion pressure, got %g/%g/%g", ErrInvalidConfig, c.NominalPressure, c.WarningPressure, c.ExplosionPressure)
	}
	return nil
}
