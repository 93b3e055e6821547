package reactor

import (
	"errors"
	"fmt"
)

var ErrInvalidLattice = errors.New("invalid lattice")

type LatticeConfig struct {
	Rows      int `yaml:"rows" json:"rows"`
	Columns   int `yaml:"columns" json:"columns"`
	ValveSize int `yaml:"valve_size" json:"valve_size"`
	Circuits  int `yaml:"circuits" json:"circuits"`
	// Layout lists the 1-based cell indices of each circuit in valve order.
	// When empty, cells are split into circuits in index order.
	Layout [][]int `yaml:"layout,omitempty" json:"layout,omitempty"`
}

// ReferenceLayout is the hand-tuned circuit assignment of the 7x7 core.
func ReferenceLayout() [][]int {
	return [][]int{
		{1, 5, 9, 2, 6, 3, 4, 8, 12, 11, 15, 18},
		{14, 10, 7, 21, 17, 13, 24, 20, 16, 23, 19, 22},
	}
}

func DefaultLatticeConfig() LatticeConfig {
	return LatticeConfig{
		Rows:      7,
		Columns:   7,
		ValveSize: 3,
		Circuits:  2,
		Layout:    ReferenceLayout(),
	}
}

// Lattice owns every cell, edge, valve and circuit of the core. Its shape is
// fixed after BuildLattice; only the values inside cells and edges change.
type Lattice struct {
	rows      int
	columns   int
	rowRadius int
	colRadius int

	cells    []Cell
	edges    []Edge
	valves   []Valve
	circuits []Circuit
	rods     []RodSite

	slots     []CellID
	rodSlots  []int
	incident  [][4]EdgeID
	edgeIndex map[edgeKey]EdgeID
}

func BuildLattice(cfg LatticeConfig) (*Lattice, error) {
	if cfg.Rows <= 0 || cfg.Columns <= 0 {
		return nil, fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidLattice, cfg.Rows, cfg.Columns)
	}
	if cfg.ValveSize <= 0 || cfg.Circuits <= 0 {
		return nil, fmt.Errorf("%w: valve size and circuit count must be positive, got %d and %d", ErrInvalidLattice, cfg.ValveSize, cfg.Circuits)
	}

	l := &Lattice{
		rows:      cfg.Rows,
		columns:   cfg.Columns,
		rowRadius: cfg.Rows / 2,
		colRadius: cfg.Columns / 2,
		edgeIndex: make(map[edgeKey]EdgeID),
	}
	l.slots = make([]CellID, cfg.Rows*cfg.Columns)
	l.rodSlots = make([]int, cfg.Rows*cfg.Columns)
	for i := range l.slots {
		l.slots[i] = noCell
		l.rodSlots[i] = -1
	}

	for _, pos := range l.AllPositions() {
		if !pos.Valid() {
			continue
		}
		id := CellID(len(l.cells))
		l.cells = append(l.cells, newCell(id, pos))
		l.slots[l.slot(pos)] = id
	}
	if len(l.cells) == 0 {
		return nil, fmt.Errorf("%w: %dx%d grid has no fuel-cell positions", ErrInvalidLattice, cfg.Rows, cfg.Columns)
	}

	members, err := partitionCircuits(cfg, len(l.cells))
	if err != nil {
		return nil, err
	}
	for ci, cells := range members {
		circuit := Circuit{ID: CircuitID(ci), Power: 1}
		for start := 0; start < len(cells); start += cfg.ValveSize {
			valve := Valve{
				ID:      ValveID(len(l.valves)),
				Circuit: circuit.ID,
				Cells:   append([]CellID(nil), cells[start : start+cfg.ValveSize]...),
			}
			for _, id := range valve.Cells {
				l.cells[id].Valve = valve.ID
			}
			l.valves = append(l.valves, valve)
			circuit.Valves = append(circuit.Valves, valve.ID)
		}
		l.circuits = append(l.circuits, circuit)
	}

	l.incident = make([][4]EdgeID, len(l.cells))
	for i := range l.cells {
		l.incident[i] = [4]EdgeID{noEdge, noEdge, noEdge, noEdge}
		pos := l.cells[i].Pos
		for slot, other := range pos.Neighbours() {
			otherID, ok := l.CellAt(other)
			if !ok {
				continue
			}
			key := makeEdgeKey(pos, other)
			id, exists := l.edgeIndex[key]
			if !exists {
				id = EdgeID(len(l.edges))
				l.edges = append(l.edges, Edge{
					ID:          id,
					A:           CellID(i),
					B:           otherID,
					Temperature: DefaultTemperature,
					Coolant:     l.cells[i].Valve == l.cells[otherID].Valve,
				})
				l.edgeIndex[key] = id
			}
			l.incident[i][slot] = id
		}
	}

	for _, pos := range l.AllPositions() {
		if !pos.RodSite() {
			continue
		}
		site := RodSite{Pos: pos}
		for _, other := range pos.Orthogonal() {
			if id, ok := l.CellAt(other); ok {
				site.Cells = append(site.Cells, id)
			}
		}
		if len(site.Cells) == 0 {
			continue
		}
		l.rodSlots[l.slot(pos)] = len(l.rods)
		l.rods = append(l.rods, site)
	}

	return l, nil
}

func partitionCircuits(cfg LatticeConfig, cellCount int) ([][]CellID, error) {
	group := cfg.ValveSize * cfg.Circuits
	if cellCount%group != 0 {
		return nil, fmt.Errorf("%w: %d cells cannot be split into %d circuits of %d-cell valves", ErrInvalidLattice, cellCount, cfg.Circuits, cfg.ValveSize)
	}
	perCircuit := cellCount / cfg.Circuits

	out := make([][]CellID, cfg.Circuits)
	if len(cfg.Layout) == 0 {
		for c := range out {
			for i := 0; i < perCircuit; i++ {
				out[c] = append(out[c], CellID(c*perCircuit+i))
			}
		}
		return out, nil
	}

	if len(cfg.Layout) != cfg.Circuits {
		return nil, fmt.Errorf("%w: layout has %d circuits, want %d", ErrInvalidLattice, len(cfg.Layout), cfg.Circuits)
	}
	seen := make([]bool, cellCount)
	for c, indices := range cfg.Layout {
		if len(indices) != perCircuit {
			return nil, fmt.Errorf("%w: layout circuit %d has %d cells, want %d", ErrInvalidLattice, c, len(indices), perCircuit)
		}
		for _, idx := range indices {
			if idx < 1 || idx > cellCount {
				return nil, fmt.Errorf("%w: layout cell %d outside 1..%d", ErrInvalidLattice, idx, cellCount)
			}
			if seen[idx-1] {
				return nil, fmt.Errorf("%w: layout lists cell %d twice", ErrInvalidLattice, idx)
			}
			seen[idx-1] = true
			out[c] = append(out[c], CellID(idx-1))
		}
	}
	return out, nil
}

// AllPositions iterates the full grid row by row, including rod sites.
func (l *Lattice) AllPositions() []Position {
	out := make([]Position, 0, l.rows*l.columns)
	for y := -l.rowRadius; y < -l.rowRadius+l.rows; y++ {
		for x := -l.colRadius; x < -l.colRadius+l.columns; x++ {
			out = append(out, Position{X: x, Y: y})
		}
	}
	return out
}

// Extent is the play-field rectangle in world units: the outermost grid
// positions padded by half a cell. Even grids extend further on the
// negative side.
func (l *Lattice) Extent(spacing float64) (minX, minY, maxX, maxY float64) {
	minX = (float64(-l.colRadius) - 0.5) * spacing
	maxX = (float64(l.columns-1-l.colRadius) + 0.5) * spacing
	minY = (float64(-l.rowRadius) - 0.5) * spacing
	maxY = (float64(l.rows-1-l.rowRadius) + 0.5) * spacing
	return minX, minY, maxX, maxY
}

func (l *Lattice) slot(pos Position) int {
	col := pos.X + l.colRadius
	row := pos.Y + l.rowRadius
	if col < 0 || col >= l.columns || row < 0 || row >= l.rows {
		return -1
	}
	return row*l.columns + col
}

func (l *Lattice) Rows() int { return l.rows }
func (l *Lattice) Columns() int { return l.columns }
func (l *Lattice) CellCount() int { return len(l.cells) }

func (l *Lattice) CellAt(pos Position) (CellID, bool) {
	s := l.slot(pos)
	if s < 0 || l.slots[s] == noCell {
		return noCell, false
	}
	return l.slots[s], true
}

func (l *Lattice) rodAt(pos Position) (int, bool) {
	s := l.slot(pos)
	if s < 0 || l.rodSlots[s] < 0 {
		return -1, false
	}
	return l.rodSlots[s], true
}

func (l *Lattice) Cell(id CellID) (Cell, bool) {
	c, ok := l.cell(id)
	if !ok {
		return Cell{}, false
	}
	return *c, true
}

func (l *Lattice) cell(id CellID) (*Cell, bool) {
	if id < 0 || int(id) >= len(l.cells) {
		return nil, false
	}
	return &l.cells[id], true
}

func (l *Lattice) Edge(id EdgeID) (Edge, bool) {
	e, ok := l.edge(id)
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

func (l *Lattice) edge(id EdgeID) (*Edge, bool) {
	if id < 0 || int(id) >= len(l.edges) {
		return nil, false
	}
	return &l.edges[id], true
}

// FindEdge looks up the edge between two positions in either order.
func (l *Lattice) FindEdge(a, b Position) (EdgeID, bool) {
	id, ok := l.edgeIndex[makeEdgeKey(a, b)]
	return id, ok
}

// IncidentEdges returns the edge in each neighbour slot of a cell; missing
// neighbours are reported as -1.
func (l *Lattice) IncidentEdges(id CellID) ([4]EdgeID, bool) {
	if id < 0 || int(id) >= len(l.incident) {
		return [4]EdgeID{noEdge, noEdge, noEdge, noEdge}, false
	}
	return l.incident[id], true
}

func (l *Lattice) EdgeCount() int { return len(l.edges) }

func (l *Lattice) Valve(id ValveID) (Valve, bool) {
	v, ok := l.valve(id)
	if !ok {
		return Valve{}, false
	}
	return *v, true
}

func (l *Lattice) valve(id ValveID) (*Valve, bool) {
	if id < 0 || int(id) >= len(l.valves) {
		return nil, false
	}
	return &l.valves[id], true
}

func (l *Lattice) ValveCount() int { return len(l.valves) }

func (l *Lattice) Circuit(id CircuitID) (Circuit, bool) {
	c, ok := l.circuit(id)
	if !ok {
		return Circuit{}, false
	}
	return *c, true
}

func (l *Lattice) circuit(id CircuitID) (*Circuit, bool) {
	if id < 0 || int(id) >= len(l.circuits) {
		return nil, false
	}
	return &l.circuits[id], true
}

func (l *Lattice) CircuitCount() int { return len(l.circuits) }

func (l *Lattice) RodSites() []RodSite {
	out := make([]RodSite, len(l.rods))
	for i, r := range l.rods {
		out[i] = RodSite{Pos: r.Pos, Cells: append([]CellID(nil), r.Cells...)}
	}
	return out
}

// RodInsertion is the mean insertion of the cells around a rod site.
func (l *Lattice) RodInsertion(index int) float64 {
	if index < 0 || index >= len(l.rods) {
		return 0
	}
	site := l.rods[index]
	if len(site.Cells) == 0 {
		return 0
	}
	total := 0.0
	for _, id := range site.Cells {
		total += l.cells[id].Insertion
	}
	return total / float64(len(site.Cells))
}

// StoredWater is the total coolant currently held in the channels.
func (l *Lattice) StoredWater() float64 {
	total := 0.0
	for i := range l.cells {
		total += l.cells[i].CoolantLevel
	}
	return total
}
