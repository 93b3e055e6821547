package reactor

import "log/slog"

func updateTemperatures(l *Lattice, cfg *Config, log *slog.Logger) {
	for i := range l.edges {
		e := &l.edges[i]
		a, okA := l.cell(e.A)
		b, okB := l.cell(e.B)
		if !okA || !okB {
			log.Warn("edge endpoint missing", "edge", e.ID, "a", e.A, "b", e.B)
			continue
		}
		e.Temperature = (a.Temperature + b.Temperature) / 2
	}

	for i := range l.cells {
		ambient := 0.0
		for _, id := range l.incident[i] {
			e, ok := l.edge(id)
			if !ok {
				ambient += cfg.AmbientTemperature
				continue
			}
			ambient += e.Temperature
		}
		ambient /= 4

		c := &l.cells[i]
		gain := c.Reactivity * cfg.HeatGenerationFactor
		cooling := c.CoolantFlow * cfg.CoolantEfficiency * (c.Temperature - cfg.CoolantTemperature)
		passive := (c.Temperature - ambient) * cfg.PassiveDecayRate
		c.Temperature += gain - cooling - passive
	}
}
