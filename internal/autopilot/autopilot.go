// Package autopilot flies the reactor with a proportional controller on
// cell temperature, overridden by a pressure ceiling.
package autopilot

import (
	"log/slog"
	"math"

	"github.com/appengine-ltd/reactor/internal/logging"
	"github.com/appengine-ltd/reactor/internal/reactor"
)

// minMove is the smallest rod movement worth queueing.
const minMove = 1e-4

type Settings struct {
	TargetTemperature float64
	// Gain converts degrees of error into rod insertion per plan.
	Gain    float64
	MaxStep float64
	// PressureCeiling drives rods in at MaxStep on any cell at or above it,
	// whatever its temperature. Zero disables the override.
	PressureCeiling float64
	OpenValves      bool
}

func DefaultSettings() Settings {
	return Settings{
		TargetTemperature: 180,
		Gain:              0.002,
		MaxStep:           0.05,
		PressureCeiling:   6,
		OpenValves:        true,
	}
}

type Pilot struct {
	settings Settings
	log      *slog.Logger
}

func New(settings Settings, log *slog.Logger) *Pilot {
	if log == nil {
		log = logging.Discard()
	}
	return &Pilot{settings: settings, log: log}
}

func (p *Pilot) Settings() Settings { return p.settings }

// Plan returns the commands that move the core toward the target. Valves
// come first, then one rod move per cell in id order.
func (p *Pilot) Plan(snap reactor.Snapshot) []reactor.Command {
	if snap.GameOver != nil {
		return nil
	}
	s := p.settings
	var out []reactor.Command

	if s.OpenValves {
		for _, v := range snap.Valves {
			if !v.Open {
				out = append(out, reactor.SetValve{Valve: v.ID, Open: true})
			}
		}
	}

	overpressure := s.PressureCeiling > 0 && snap.Warnings.PeakPressure >= s.PressureCeiling
	for _, cell := range snap.Cells {
		var delta float64
		if overpressure && cell.Pressure >= s.PressureCeiling {
			delta = s.MaxStep
		} else {
			// Positive error means the cell is too cold; withdraw.
			tempError := s.TargetTemperature - cell.Temperature
			delta = clamp(-tempError*s.Gain, -s.MaxStep, s.MaxStep)
		}
		if delta > 0 {
			delta = math.Min(delta, 1-cell.Insertion)
		} else {
			delta = math.Max(delta, -cell.Insertion)
		}
		if math.Abs(delta) < minMove {
			continue
		}
		out = append(out, reactor.MoveControlRod{Cell: cell.ID, Delta: delta})
	}

	if overpressure {
		p.log.Debug("autopilot pressure override", "peak_pressure", snap.Warnings.PeakPressure, "ceiling", s.PressureCeiling)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
