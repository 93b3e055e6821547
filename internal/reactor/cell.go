package reactor

import "fmt"

const (
	DefaultTemperature = 25.0
	DefaultPressure    = 1.0
	DefaultInsertion   = 1.0
)

type (
	CellID    int
	EdgeID    int
	ValveID   int
	CircuitID int
)

const (
	noEdge  EdgeID  = -1
	noValve ValveID = -1
	noCell  CellID  = -1
)

type Fuel int

const (
	FuelUranium Fuel = iota
	FuelXenon
)

func (f Fuel) String() string {
	switch f {
	case FuelUranium:
		return "uranium"
	case FuelXenon:
		return "xenon"
	default:
		return fmt.Sprintf("fuel(%d)", int(f))
	}
}

func (f Fuel) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Cell is the mutable per-tick state of one fuel channel. Levels are
// fractions of the channel volume; CoolantLevel+SteamLevel never exceeds 1.
type Cell struct {
	ID                CellID   `json:"id"`
	Pos               Position `json:"pos"`
	Valve             ValveID  `json:"valve"`
	Insertion         float64  `json:"insertion"`
	LocalReactivity   float64  `json:"local_reactivity"`
	Reactivity        float64  `json:"reactivity"`
	Temperature       float64  `json:"temperature"`
	CoolantLevel      float64  `json:"coolant_level"`
	CoolantFlow       float64  `json:"coolant_flow"`
	SteamLevel        float64  `json:"steam_level"`
	SteamOutput       float64  `json:"steam_output"`
	Pressure          float64  `json:"pressure"`
	SteamPullCapacity float64  `json:"steam_pull_capacity"`
	Fuel              Fuel     `json:"fuel"`
}

func newCell(id CellID, pos Position) Cell {
	return Cell{
		ID:          id,
		Pos:         pos,
		Valve:       noValve,
		Insertion:   DefaultInsertion,
		Temperature: DefaultTemperature,
		Pressure:    DefaultPressure,
		Fuel:        FuelUranium,
	}
}

// Edge joins two diagonally adjacent cells. Coolant is set when both cells
// share a valve.
type Edge struct {
	ID          EdgeID  `json:"id"`
	A           CellID  `json:"a"`
	B           CellID  `json:"b"`
	Reactivity  float64 `json:"reactivity"`
	Temperature float64 `json:"temperature"`
	Coolant     bool    `json:"coolant"`
}

type Valve struct {
	ID      ValveID   `json:"id"`
	Circuit CircuitID `json:"circuit"`
	Open    bool      `json:"open"`
	Cells   []CellID  `json:"cells"`
}

// Circuit is a pump loop. Power is the pump setting in [0,1].
type Circuit struct {
	ID     CircuitID `json:"id"`
	Power  float64   `json:"power"`
	Valves []ValveID `json:"valves"`
}

// RodSite is a control-rod position between cells. Its effective insertion is
// the mean insertion of the orthogonally adjacent cells.
type RodSite struct {
	Pos   Position `json:"pos"`
	Cells []CellID `json:"cells"`
}
