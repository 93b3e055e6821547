package reactor

import (
	"log/slog"
	"math"
)

const kelvinOffset = 273.15

// distributeCoolant splits each circuit's pump output evenly across the cells
// behind its open valves. Cells behind closed valves receive nothing.
func distributeCoolant(l *Lattice, cfg *Config, log *slog.Logger) {
	open := make([]CellID, 0, len(l.cells))
	for ci := range l.circuits {
		circuit := &l.circuits[ci]
		open = open[:0]
		for _, vid := range circuit.Valves {
			v, ok := l.valve(vid)
			if !ok {
				log.Warn("circuit references missing valve", "circuit", circuit.ID, "valve", vid)
				continue
			}
			if v.Open {
				open = append(open, v.Cells...)
				continue
			}
			for _, id := range v.Cells {
				l.cells[id].CoolantFlow = 0
			}
		}
		if len(open) == 0 {
			continue
		}
		per := circuit.Power * cfg.MaxPumpCoolantFlow / float64(len(open))
		for _, id := range open {
			l.cells[id].CoolantFlow = per
		}
	}
}

func refreshSteamPull(l *Lattice, cfg *Config) {
	for i := range l.cells {
		l.cells[i].SteamPullCapacity = cfg.SteamPullCapacity
	}
}

func boilingPoint(pressure float64) float64 {
	return 100 + (pressure-1)*3
}

// stepCoolant boils, extracts, replenishes and re-pressurises one channel.
// Boiled steam beyond the free volume goes out through the relief valve and
// never reaches the store; the relieved amount is returned.
func stepCoolant(cfg *Config, c *Cell) float64 {
	boiling := boilingPoint(c.Pressure)
	if c.Temperature > boiling && c.CoolantLevel > 0 {
		energy := (c.Temperature - boiling) * cfg.EnergyPerHeatUnit
		boiled := math.Min(energy/cfg.EnergyRequiredPerUnit, c.CoolantLevel)
		c.CoolantLevel -= boiled
		c.SteamLevel += boiled * cfg.SteamExpansionRatio
	}
	relieved := math.Max(c.SteamLevel-(1-c.CoolantLevel), 0)
	c.SteamLevel = clampFloat(c.SteamLevel, 0, 1-c.CoolantLevel)

	potential := math.Min(c.SteamPullCapacity, cfg.SteamPullFactor*(c.Pressure/cfg.NominalPressure))
	c.SteamOutput = math.Max(math.Min(c.SteamLevel, potential), 0)
	c.SteamLevel -= c.SteamOutput

	space := 1 - (c.CoolantLevel + c.SteamLevel)
	c.CoolantLevel += clampFloat(c.CoolantFlow, 0, math.Max(space, 0))

	available := math.Max(1-c.CoolantLevel, 0.01)
	kelvin := math.Max(c.Temperature+kelvinOffset, 0)
	raw := c.SteamLevel * kelvin / available * cfg.PressureScale
	c.Pressure = cfg.NominalPressure + math.Pow(raw, cfg.PressureCurveExponent)
	return relieved
}

// generateSteam steps every channel and returns the total steam relieved.
func generateSteam(l *Lattice, cfg *Config) float64 {
	relieved := 0.0
	for i := range l.cells {
		relieved += stepCoolant(cfg, &l.cells[i])
	}
	return relieved
}

// ventSteam collects this tick's extracted steam.
func ventSteam(l *Lattice) float64 {
	total := 0.0
	for i := range l.cells {
		total += l.cells[i].SteamOutput
	}
	return total
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
