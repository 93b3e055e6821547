package reactor

import "log/slog"

func localReactivity(cfg *Config, c *Cell) float64 {
	fuel := 1.0
	if c.Fuel == FuelXenon {
		fuel = cfg.XenonReactivityFactor
	}
	void := 1 + cfg.VoidReactivityBoost*(1-c.CoolantLevel)
	return cfg.BaseReactivity * fuel * (1 - c.Insertion) * void
}

// updateReactivity runs in three passes so every cell sees its neighbours'
// local values from the same tick.
func updateReactivity(l *Lattice, cfg *Config, log *slog.Logger) {
	for i := range l.cells {
		l.cells[i].LocalReactivity = localReactivity(cfg, &l.cells[i])
	}

	for i := range l.edges {
		e := &l.edges[i]
		a, okA := l.cell(e.A)
		b, okB := l.cell(e.B)
		if !okA || !okB {
			log.Warn("edge endpoint missing", "edge", e.ID, "a", e.A, "b", e.B)
			continue
		}
		e.Reactivity = (a.LocalReactivity + b.LocalReactivity) / 2
	}

	for i := range l.cells {
		sum := 0.0
		for _, id := range l.incident[i] {
			if id == noEdge {
				continue
			}
			e, ok := l.edge(id)
			if !ok {
				log.Warn("incident edge missing", "cell", i, "edge", id)
				continue
			}
			sum += e.Reactivity
		}
		c := &l.cells[i]
		c.Reactivity = c.LocalReactivity + cfg.NeighborCoupling*sum
	}
}
