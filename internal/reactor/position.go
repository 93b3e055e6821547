package reactor

import "fmt"

// Position is a signed grid coordinate. Fuel cells live on positions where
// exactly one coordinate is odd; the remaining positions hold control rods.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) Valid() bool {
	return (p.X&1)+(p.Y&1) == 1
}

func (p Position) RodSite() bool {
	return !p.Valid()
}

// Neighbours returns the four diagonal positions in a fixed order. The slot
// index of each neighbour is stable and used to address incident edges.
func (p Position) Neighbours() [4]Position {
	return [4]Position{
		{X: p.X - 1, Y: p.Y - 1},
		{X: p.X - 1, Y: p.Y + 1},
		{X: p.X + 1, Y: p.Y - 1},
		{X: p.X + 1, Y: p.Y + 1},
	}
}

func (p Position) Orthogonal() [4]Position {
	return [4]Position{
		{X: p.X - 1, Y: p.Y},
		{X: p.X + 1, Y: p.Y},
		{X: p.X, Y: p.Y - 1},
		{X: p.X, Y: p.Y + 1},
	}
}

func (p Position) String() string {
	return fmt.Sprintf("%d/%d", p.X, p.Y)
}

type edgeKey struct {
	a Position
	b Position
}

func makeEdgeKey(a, b Position) edgeKey {
	if b.Y < a.Y || (b.Y == a.Y && b.X < a.X) {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}
