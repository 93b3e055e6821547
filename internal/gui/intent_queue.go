package gui

import "github.com/appengine-ltd/reactor/internal/parser"

type lineSource int

const (
	sourceTyped lineSource = iota
	sourceHotkey
	sourceClick
)

// consoleLine is one parsed operator input waiting for the next frame.
type consoleLine struct {
	Raw    string
	Intent parser.Intent
	Source lineSource
}

// consoleQueue buffers parsed lines between input handling and the session.
// Lines arriving while it is full are dropped and counted.
type consoleQueue struct {
	ch      chan consoleLine
	dropped int
}

func newConsoleQueue(size int) *consoleQueue {
	if size < 1 {
		size = 16
	}
	return &consoleQueue{ch: make(chan consoleLine, size)}
}

func (q *consoleQueue) push(line consoleLine) bool {
	if q == nil {
		return false
	}
	select {
	case q.ch <- line:
		return true
	default:
		q.dropped++
		return false
	}
}

// drain returns up to limit queued lines in arrival order. A limit below one
// drains everything.
func (q *consoleQueue) drain(limit int) []consoleLine {
	if q == nil {
		return nil
	}
	var out []consoleLine
	for limit < 1 || len(out) < limit {
		select {
		case line := <-q.ch:
			out = append(out, line)
		default:
			return out
		}
	}
	return out
}

func (q *consoleQueue) Dropped() int {
	if q == nil {
		return 0
	}
	return q.dropped
}
