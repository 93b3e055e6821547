package reactor

import (
	"errors"
	"fmt"
)

var ErrUnknownTarget = errors.New("unknown command target")

// Command is a player or operator action. Commands are queued from any
// goroutine and applied at the start of the next tick.
type Command interface {
	apply(l *Lattice) error
}

// MoveControlRod shifts the insertion of one cell. Positive deltas insert
// the rod further.
type MoveControlRod struct {
	Cell  CellID
	Delta float64
}

func (c MoveControlRod) apply(l *Lattice) error {
	cell, ok := l.cell(c.Cell)
	if !ok {
		return fmt.Errorf("%w: cell %d", ErrUnknownTarget, c.Cell)
	}
	cell.Insertion = clampFloat(cell.Insertion+c.Delta, 0, 1)
	return nil
}

type ToggleValve struct {
	Valve ValveID
}

func (c ToggleValve) apply(l *Lattice) error {
	v, ok := l.valve(c.Valve)
	if !ok {
		return fmt.Errorf("%w: valve %d", ErrUnknownTarget, c.Valve)
	}
	v.Open = !v.Open
	return nil
}

type SetValve struct {
	Valve ValveID
	Open  bool
}

func (c SetValve) apply(l *Lattice) error {
	v, ok := l.valve(c.Valve)
	if !ok {
		return fmt.Errorf("%w: valve %d", ErrUnknownTarget, c.Valve)
	}
	v.Open = c.Open
	return nil
}

type SetCircuitPower struct {
	Circuit CircuitID
	Power   float64
}

func (c SetCircuitPower) apply(l *Lattice) error {
	circuit, ok := l.circuit(c.Circuit)
	if !ok {
		return fmt.Errorf("%w: circuit %d", ErrUnknownTarget, c.Circuit)
	}
	circuit.Power = clampFloat(c.Power, 0, 1)
	return nil
}

// Scram drives every control rod fully in.
type Scram struct{}

func (Scram) apply(l *Lattice) error {
	for i := range l.cells {
		l.cells[i].Insertion = 1
	}
	return nil
}

// CommandQueue is a bounded, non-blocking handoff between producers and the
// tick loop. When full, new commands are dropped.
type CommandQueue struct {
	ch chan Command
}

func NewCommandQueue(size int) *CommandQueue {
	if size < 1 {
		size = 1
	}
	return &CommandQueue{ch: make(chan Command, size)}
}

func (q *CommandQueue) Enqueue(cmd Command) bool {
	if cmd == nil {
		return false
	}
	select {
	case q.ch <- cmd:
		return true
	default:
		return false
	}
}

func (q *CommandQueue) Len() int {
	return len(q.ch)
}

// drain takes at most the commands queued when it was called.
func (q *CommandQueue) drain() []Command {
	n := len(q.ch)
	if n == 0 {
		return nil
	}
	out := make([]Command, 0, n)
	for i := 0; i < n; i++ {
		select {
		case cmd := <-q.ch:
			out = append(out, cmd)
		default:
			return out
		}
	}
	return out
}
