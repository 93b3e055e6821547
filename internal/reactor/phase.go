package reactor

import "fmt"

// Phase selects which stage of the tick pipeline runs. It advances exactly
// once at the end of every tick.
type Phase int

const (
	PhasePowerGeneration Phase = iota
	PhaseWaterFlow
	PhaseNeutronRelease
	PhaseSteamVenting
)

func (p Phase) Next() Phase {
	switch p {
	case PhasePowerGeneration:
		return PhaseWaterFlow
	case PhaseWaterFlow:
		return PhaseNeutronRelease
	case PhaseNeutronRelease:
		return PhaseSteamVenting
	default:
		return PhasePowerGeneration
	}
}

func (p Phase) String() string {
	switch p {
	case PhasePowerGeneration:
		return "power_generation"
	case PhaseWaterFlow:
		return "water_flow"
	case PhaseNeutronRelease:
		return "neutron_release"
	case PhaseSteamVenting:
		return "steam_venting"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
