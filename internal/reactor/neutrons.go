package reactor

import (
	"math"
	"time"
)

type NeutronState int

const (
	NeutronActive NeutronState = iota
	NeutronDying
)

func (s NeutronState) String() string {
	if s == NeutronDying {
		return "dying"
	}
	return "active"
}

type targetKind int

const (
	targetNone targetKind = iota
	targetRod
	targetFuel
	targetWater
)

type target struct {
	kind  targetKind
	index int
}

// Neutron travels in a straight line from the centre of the cell that
// emitted it. Dying neutrons only fade out and no longer collide.
type Neutron struct {
	Origin   CellID
	StartX   float64
	StartY   float64
	Angle    float64
	Distance float64
	Lifetime time.Duration
	Fade     time.Duration
	State    NeutronState

	touching target
}

func (n *Neutron) Position() (float64, float64) {
	return n.StartX + n.Distance*math.Cos(n.Angle), n.StartY + n.Distance*math.Sin(n.Angle)
}

func (n *Neutron) die(fade time.Duration) {
	n.State = NeutronDying
	n.Fade = fade
}

// NeutronStats counts neutron events since the session started.
type NeutronStats struct {
	Emitted        uint64 `json:"emitted"`
	Fissions       uint64 `json:"fissions"`
	XenonBurnOffs  uint64 `json:"xenon_burn_offs"`
	RodAbsorptions uint64 `json:"rod_absorptions"`
	WaterHits      uint64 `json:"water_hits"`
	Escaped        uint64 `json:"escaped"`
	Dropped        uint64 `json:"dropped"`
	Poisoned       uint64 `json:"poisoned"`
}

func (s *Session) cellCentre(id CellID) (float64, float64) {
	c := &s.lattice.cells[id]
	return float64(c.Pos.X) * s.cfg.CellSpacing, float64(c.Pos.Y) * s.cfg.CellSpacing
}

func (s *Session) inBounds(x, y float64) bool {
	minX, minY, maxX, maxY := s.lattice.Extent(s.cfg.CellSpacing)
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

// queueNeutron adds a neutron that starts moving on the next motion pass.
// It reports false when the population cap is reached.
func (s *Session) queueNeutron(origin CellID, angle float64) bool {
	if len(s.neutrons)+len(s.pending) >= s.cfg.MaxNeutrons {
		s.stats.Dropped++
		return false
	}
	x, y := s.cellCentre(origin)
	s.pending = append(s.pending, Neutron{
		Origin:   origin,
		StartX:   x,
		StartY:   y,
		Angle:    angle,
		Lifetime: s.cfg.NeutronLifetime,
		State:    NeutronActive,
		touching: target{kind: targetFuel, index: int(origin)},
	})
	return true
}

func (s *Session) flushPending() {
	s.neutrons = append(s.neutrons, s.pending...)
	s.pending = s.pending[:0]
}

// emitNeutrons gives every uranium cell a fixed number of spontaneous
// emission trials.
func (s *Session) emitNeutrons() {
	for i := range s.lattice.cells {
		if s.lattice.cells[i].Fuel != FuelUranium {
			continue
		}
		for t := 0; t < s.cfg.NeutronTrials; t++ {
			if !roll(s.rng, s.cfg.NeutronSpawnChance) {
				continue
			}
			if s.queueNeutron(CellID(i), s.rng.Float64()*2*math.Pi) {
				s.stats.Emitted++
			}
		}
	}
	s.flushPending()
}

// moveNeutrons advances every neutron by one tick. Neutrons created by
// fission during the pass join the population afterwards.
func (s *Session) moveNeutrons(dt time.Duration) {
	step := s.cfg.NeutronSpeed * dt.Seconds()
	kept := s.neutrons[:0]
	for i := range s.neutrons {
		n := s.neutrons[i]
		if n.State == NeutronDying {
			n.Fade -= dt
			if n.Fade > 0 {
				kept = append(kept, n)
			}
			continue
		}
		if s.advanceNeutron(&n, step) {
			continue
		}
		if n.State == NeutronActive {
			n.Lifetime -= dt
			if n.Lifetime <= 0 {
				n.die(s.cfg.NeutronFade)
			}
		}
		if n.State == NeutronDying && n.Fade <= 0 {
			continue
		}
		kept = append(kept, n)
	}
	s.neutrons = kept
	s.flushPending()
}

// advanceNeutron moves a neutron in substeps and reports whether it was
// consumed by a collision.
func (s *Session) advanceNeutron(n *Neutron, step float64) bool {
	if step <= 0 {
		return false
	}
	count := int(math.Ceil(step / s.cfg.NeutronSubstep))
	if count < 1 {
		count = 1
	}
	inc := step / float64(count)
	for k := 0; k < count; k++ {
		n.Distance += inc
		x, y := n.Position()
		if !s.inBounds(x, y) {
			s.stats.Escaped++
			n.die(s.cfg.NeutronFade)
			return false
		}
		if s.collide(n, s.targetAt(x, y)) {
			return true
		}
	}
	return false
}

// targetAt resolves the structure under a point. Rods are checked before
// fuel, and fuel before the surrounding water.
func (s *Session) targetAt(x, y float64) target {
	spacing := s.cfg.CellSpacing
	pos := Position{X: int(math.Round(x / spacing)), Y: int(math.Round(y / spacing))}
	d := math.Hypot(x-float64(pos.X)*spacing, y-float64(pos.Y)*spacing)

	if rod, ok := s.lattice.rodAt(pos); ok && d <= s.cfg.RodRadius {
		return target{kind: targetRod, index: rod}
	}
	if id, ok := s.lattice.CellAt(pos); ok {
		if d <= s.cfg.FuelRadius {
			return target{kind: targetFuel, index: int(id)}
		}
		if d <= s.cfg.WaterRadius {
			return target{kind: targetWater, index: int(id)}
		}
	}
	return target{}
}

// collide applies one interaction on entry into a target. Staying inside the
// same target does not roll again, and the emitting cell is ignored.
func (s *Session) collide(n *Neutron, t target) bool {
	if t.kind == targetNone {
		n.touching = target{}
		return false
	}
	if t == n.touching {
		return false
	}
	n.touching = t

	switch t.kind {
	case targetRod:
		if roll(s.rng, s.lattice.RodInsertion(t.index)) {
			s.stats.RodAbsorptions++
			return true
		}
	case targetFuel:
		id := CellID(t.index)
		if id == n.Origin {
			return false
		}
		c := &s.lattice.cells[id]
		switch c.Fuel {
		case FuelUranium:
			s.fission(n, id)
		case FuelXenon:
			c.Fuel = FuelUranium
			s.stats.XenonBurnOffs++
		}
		return true
	case targetWater:
		id := CellID(t.index)
		if id == n.Origin {
			return false
		}
		c := &s.lattice.cells[id]
		if roll(s.rng, c.CoolantLevel*s.cfg.WaterAbsorption) {
			boiled := math.Min(s.cfg.WaterBoilPerNeutron, c.CoolantLevel)
			c.CoolantLevel -= boiled
			c.SteamLevel = clampFloat(c.SteamLevel+boiled*s.cfg.WaterSteamYield, 0, 1-c.CoolantLevel)
			s.stats.WaterHits++
			return true
		}
	}
	return false
}

// fission splits a uranium atom into three neutrons fanned around the
// incoming direction.
func (s *Session) fission(n *Neutron, id CellID) {
	s.stats.Fissions++
	s.lattice.cells[id].Temperature += s.cfg.FissionHeat
	spread := s.cfg.FissionSpread
	for _, offset := range [3]float64{-spread, 0, spread} {
		s.queueNeutron(id, n.Angle+offset)
	}
}

// poisonFuel turns uranium into xenon with a small chance each tick.
func (s *Session) poisonFuel() {
	for i := range s.lattice.cells {
		c := &s.lattice.cells[i]
		if c.Fuel != FuelUranium {
			continue
		}
		if roll(s.rng, s.cfg.XenonChance) {
			c.Fuel = FuelXenon
			s.stats.Poisoned++
		}
	}
}
