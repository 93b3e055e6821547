package reactor

import (
	"time"

	"github.com/google/uuid"
)

type NeutronView struct {
	X     float64      `json:"x"`
	Y     float64      `json:"y"`
	Angle float64      `json:"angle"`
	State NeutronState `json:"-"`
	Dying bool         `json:"dying"`
	// Fade is the remaining fade-out fraction in [0,1] for dying neutrons.
	Fade float64 `json:"fade"`
}

type RodView struct {
	Pos       Position `json:"pos"`
	Insertion float64  `json:"insertion"`
}

type Warnings struct {
	Power        PowerStatus `json:"power"`
	Overpressure bool        `json:"overpressure"`
	// Pulse is the blend factor of the overpressure alarm lamp.
	Pulse        float64 `json:"pulse"`
	PeakPressure float64 `json:"peak_pressure"`
	Tutorial     bool    `json:"tutorial"`
}

// Snapshot is a read-only copy of a session, safe to hand to other
// goroutines.
type Snapshot struct {
	SessionID uuid.UUID     `json:"session_id"`
	Seed      int64         `json:"seed"`
	Tick      uint64        `json:"tick"`
	SimTime   time.Duration `json:"sim_time"`
	Phase     Phase         `json:"phase"`
	Paused    bool          `json:"paused"`
	Rows      int           `json:"rows"`
	Columns   int           `json:"columns"`
	Spacing   float64       `json:"spacing"`

	Cells    []Cell        `json:"cells"`
	Edges    []Edge        `json:"edges"`
	Valves   []Valve       `json:"valves"`
	Circuits []Circuit     `json:"circuits"`
	Rods     []RodView     `json:"rods"`
	Neutrons []NeutronView `json:"neutrons"`

	StoredWater float64      `json:"stored_water"`
	Power       PowerGrid    `json:"power"`
	Warnings    Warnings     `json:"warnings"`
	Stats       NeutronStats `json:"stats"`
	GameOver    *GameOver    `json:"game_over,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	l := s.lattice
	snap := Snapshot{
		SessionID:   s.id,
		Seed:        s.seed,
		Tick:        s.tick,
		SimTime:     s.clock.Elapsed,
		Phase:       s.phase,
		Paused:      s.paused,
		Rows:        l.rows,
		Columns:     l.columns,
		Spacing:     s.cfg.CellSpacing,
		Cells:       append([]Cell(nil), l.cells...),
		Edges:       append([]Edge(nil), l.edges...),
		StoredWater: l.StoredWater(),
		Power:       s.grid,
		Stats:       s.stats,
		Warnings: Warnings{
			Power:        s.grid.Status(&s.cfg),
			Overpressure: s.overpressure,
			PeakPressure: s.peakPressure(),
			Tutorial:     s.grid.InTutorial(),
		},
	}
	if s.overpressure {
		snap.Warnings.Pulse = WarningPulse(s.clock.Elapsed - s.overpressureSince)
	}

	snap.Valves = make([]Valve, len(l.valves))
	for i, v := range l.valves {
		v.Cells = append([]CellID(nil), v.Cells...)
		snap.Valves[i] = v
	}
	snap.Circuits = make([]Circuit, len(l.circuits))
	for i, c := range l.circuits {
		c.Valves = append([]ValveID(nil), c.Valves...)
		snap.Circuits[i] = c
	}
	snap.Rods = make([]RodView, len(l.rods))
	for i, r := range l.rods {
		snap.Rods[i] = RodView{Pos: r.Pos, Insertion: l.RodInsertion(i)}
	}

	snap.Neutrons = make([]NeutronView, 0, len(s.neutrons))
	for i := range s.neutrons {
		n := &s.neutrons[i]
		x, y := n.Position()
		view := NeutronView{X: x, Y: y, Angle: n.Angle, State: n.State, Dying: n.State == NeutronDying}
		if view.Dying && s.cfg.NeutronFade > 0 {
			view.Fade = clampFloat(float64(n.Fade)/float64(s.cfg.NeutronFade), 0, 1)
		}
		snap.Neutrons = append(snap.Neutrons, view)
	}

	if s.over != nil {
		over := *s.over
		snap.GameOver = &over
	}
	return snap
}

// Cell looks a cell up by id in the snapshot.
func (s Snapshot) Cell(id CellID) (Cell, bool) {
	if id < 0 || int(id) >= len(s.Cells) {
		return Cell{}, false
	}
	return s.Cells[id], true
}
