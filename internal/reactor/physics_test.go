package reactor

import (
	"math"
	"testing"

	"github.com/appengine-ltd/reactor/internal/logging"
)

func twoCellLattice(t *testing.T) *Lattice {
	t.Helper()

	l, err := BuildLattice(LatticeConfig{Rows: 2, Columns: 2, ValveSize: 1, Circuits: 2})
	if err != nil {
		t.Fatalf("build lattice: %v", err)
	}
	if l.CellCount() != 2 || l.EdgeCount() != 1 {
		t.Fatalf("expected 2 cells joined by 1 edge, got %d/%d", l.CellCount(), l.EdgeCount())
	}
	return l
}

func singleCellLattice(t *testing.T) *Lattice {
	t.Helper()

	l, err := BuildLattice(LatticeConfig{Rows: 1, Columns: 2, ValveSize: 1, Circuits: 1})
	if err != nil {
		t.Fatalf("build lattice: %v", err)
	}
	if l.CellCount() != 1 {
		t.Fatalf("expected a single cell, got %d", l.CellCount())
	}
	return l
}

func TestFullyInsertedRodKillsLocalReactivity(t *testing.T) {
	cfg := DefaultConfig()
	for _, coolant := range []float64{0, 0.4, 1} {
		for _, fuel := range []Fuel{FuelUranium, FuelXenon} {
			c := Cell{Insertion: 1, CoolantLevel: coolant, Fuel: fuel}
			if got := localReactivity(&cfg, &c); got != 0 {
				t.Fatalf("coolant %.1f fuel %s: expected 0, got %.4f", coolant, fuel, got)
			}
		}
	}
}

func TestLocalReactivityFactors(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name string
		cell Cell
		want float64
	}{
		{name: "flooded uranium half inserted", cell: Cell{Insertion: 0.5, CoolantLevel: 1}, want: 0.5},
		{name: "dry uranium withdrawn", cell: Cell{Insertion: 0, CoolantLevel: 0}, want: 2.5},
		{name: "flooded xenon withdrawn", cell: Cell{Insertion: 0, CoolantLevel: 1, Fuel: FuelXenon}, want: 0.25},
	}
	for _, tc := range tests {
		if got := localReactivity(&cfg, &tc.cell); !approxEqual(got, tc.want) {
			t.Fatalf("%s: got %.4f want %.4f", tc.name, got, tc.want)
		}
	}
}

func TestReactivityAveragesAcrossEdge(t *testing.T) {
	cfg := DefaultConfig()
	l := twoCellLattice(t)
	l.cells[0].Insertion, l.cells[0].CoolantLevel = 0.5, 1
	l.cells[1].Insertion, l.cells[1].CoolantLevel = 0, 1

	updateReactivity(l, &cfg, logging.Discard())

	edge, _ := l.Edge(0)
	if !approxEqual(edge.Reactivity, 0.75) {
		t.Fatalf("edge reactivity = %.4f, want 0.75", edge.Reactivity)
	}
	if got := l.cells[0].Reactivity; !approxEqual(got, 0.5+cfg.NeighborCoupling*0.75) {
		t.Fatalf("cell 0 reactivity = %.4f", got)
	}
	if got := l.cells[1].Reactivity; !approxEqual(got, 1.0+cfg.NeighborCoupling*0.75) {
		t.Fatalf("cell 1 reactivity = %.4f", got)
	}
}

func TestTemperatureMissingNeighboursUseAmbient(t *testing.T) {
	cfg := DefaultConfig()
	l := singleCellLattice(t)
	l.cells[0].Temperature = 125

	updateTemperatures(l, &cfg, logging.Discard())

	if got := l.cells[0].Temperature; !approxEqual(got, 124) {
		t.Fatalf("expected passive decay towards ambient to 124, got %.4f", got)
	}
}

func TestTemperatureCoolingAndHeating(t *testing.T) {
	cfg := DefaultConfig()
	l := singleCellLattice(t)
	l.cells[0].Temperature = 140
	l.cells[0].CoolantFlow = 0.1
	l.cells[0].Reactivity = 2

	updateTemperatures(l, &cfg, logging.Discard())

	want := 140 + 2*cfg.HeatGenerationFactor - 0.1*cfg.CoolantEfficiency*(140-cfg.CoolantTemperature) - (140-25)*cfg.PassiveDecayRate
	if got := l.cells[0].Temperature; !approxEqual(got, want) {
		t.Fatalf("temperature = %.4f, want %.4f", got, want)
	}
}

func TestBoilingPointRisesWithPressure(t *testing.T) {
	if got := boilingPoint(1); got != 100 {
		t.Fatalf("boiling point at nominal = %.2f", got)
	}
	if got := boilingPoint(3); got != 106 {
		t.Fatalf("boiling point at 3 = %.2f", got)
	}
}

func TestStepCoolantBoilsAndReplenishes(t *testing.T) {
	cfg := DefaultConfig()
	c := Cell{Temperature: 150, CoolantLevel: 0.5, Pressure: 1, CoolantFlow: 0.5, SteamPullCapacity: 0.1}

	relieved := stepCoolant(&cfg, &c)

	// 0.25 coolant boils into 25 units of steam; only 0.75 fits the channel.
	if !approxEqual(relieved, 24.25) {
		t.Fatalf("relieved = %.4f, want 24.25", relieved)
	}
	if !approxEqual(c.SteamOutput, 0.1) {
		t.Fatalf("steam output = %.4f, want 0.1", c.SteamOutput)
	}
	if !approxEqual(c.SteamLevel, 0.65) {
		t.Fatalf("steam level = %.4f, want 0.65", c.SteamLevel)
	}
	if !approxEqual(c.CoolantLevel, 0.35) {
		t.Fatalf("coolant level = %.4f, want 0.35", c.CoolantLevel)
	}
	if c.Pressure <= cfg.NominalPressure {
		t.Fatalf("expected pressure above nominal, got %.4f", c.Pressure)
	}
}

func TestStepCoolantKeepsVolumeBounds(t *testing.T) {
	cfg := DefaultConfig()
	rng := seededRNG(11)
	for i := 0; i < 2000; i++ {
		coolant := rng.Float64()
		c := Cell{
			Temperature:       rng.Float64() * 600,
			CoolantLevel:      coolant,
			SteamLevel:        rng.Float64() * (1 - coolant),
			CoolantFlow:       rng.Float64() * 2,
			Pressure:          1 + rng.Float64()*10,
			SteamPullCapacity: rng.Float64() * 0.3,
		}
		stepCoolant(&cfg, &c)

		if c.CoolantLevel < 0 || c.CoolantLevel > 1 {
			t.Fatalf("iteration %d: coolant out of range %.6f", i, c.CoolantLevel)
		}
		if c.SteamLevel < 0 || c.SteamOutput < 0 {
			t.Fatalf("iteration %d: negative steam %.6f/%.6f", i, c.SteamLevel, c.SteamOutput)
		}
		if c.CoolantLevel+c.SteamLevel > 1+1e-9 {
			t.Fatalf("iteration %d: volume overflow %.6f", i, c.CoolantLevel+c.SteamLevel)
		}
		if c.Pressure < cfg.NominalPressure || math.IsNaN(c.Pressure) {
			t.Fatalf("iteration %d: pressure below nominal %.6f", i, c.Pressure)
		}
	}
}

func TestDistributeCoolantOnlyThroughOpenValves(t *testing.T) {
	cfg := DefaultConfig()
	l, err := BuildLattice(DefaultLatticeConfig())
	if err != nil {
		t.Fatalf("build lattice: %v", err)
	}
	l.valves[0].Open = true
	l.cells[l.valves[1].Cells[0]].CoolantFlow = 0.7

	distributeCoolant(l, &cfg, logging.Discard())

	want := cfg.MaxPumpCoolantFlow / 3
	for _, id := range l.valves[0].Cells {
		if !approxEqual(l.cells[id].CoolantFlow, want) {
			t.Fatalf("open valve cell %d flow = %.4f, want %.4f", id, l.cells[id].CoolantFlow, want)
		}
	}
	for _, id := range l.valves[1].Cells {
		if l.cells[id].CoolantFlow != 0 {
			t.Fatalf("closed valve cell %d kept flow %.4f", id, l.cells[id].CoolantFlow)
		}
	}

	l.valves[1].Open = true
	l.circuits[0].Power = 0.5
	distributeCoolant(l, &cfg, logging.Discard())
	want = 0.5 * cfg.MaxPumpCoolantFlow / 6
	if got := l.cells[l.valves[0].Cells[0]].CoolantFlow; !approxEqual(got, want) {
		t.Fatalf("shared flow = %.4f, want %.4f", got, want)
	}
}

func TestVentSteamSumsOutput(t *testing.T) {
	l := twoCellLattice(t)
	l.cells[0].SteamOutput = 0.1
	l.cells[1].SteamOutput = 0.05
	if got := ventSteam(l); !approxEqual(got, 0.15) {
		t.Fatalf("vented %.4f, want 0.15", got)
	}
}

func TestExcessSteamIsRelievedNotStored(t *testing.T) {
	s := newTestSession(t, quietConfig())
	s.phase = PhaseSteamVenting
	for i := range s.lattice.cells {
		s.lattice.cells[i].Temperature = 150
		s.lattice.cells[i].CoolantLevel = 0.5
	}
	before := s.grid.StoredSteam

	s.Step()

	extracted := 0.0
	for _, c := range s.lattice.cells {
		extracted += c.SteamOutput
		if c.CoolantLevel+c.SteamLevel > 1+1e-9 {
			t.Fatalf("cell %d: volume overflow %.6f", c.ID, c.CoolantLevel+c.SteamLevel)
		}
	}
	if got := s.grid.StoredSteam - before; !approxEqual(got, extracted) {
		t.Fatalf("stored steam rose by %.4f, want the extracted %.4f", got, extracted)
	}
	if extracted > float64(len(s.lattice.cells))*s.cfg.SteamPullCapacity+1e-9 {
		t.Fatalf("extraction %.4f exceeds pull capacity", extracted)
	}
	if s.grid.Relieved <= extracted {
		t.Fatalf("expected most boiled steam relieved, got %.4f relieved vs %.4f stored", s.grid.Relieved, extracted)
	}
	if snap := s.Snapshot(); snap.Power.Relieved != s.grid.Relieved {
		t.Fatalf("snapshot relieved = %.4f, want %.4f", snap.Power.Relieved, s.grid.Relieved)
	}
}
