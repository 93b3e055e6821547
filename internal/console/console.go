// Package console turns typed operator input into reactor commands and
// session control actions.
package console

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/appengine-ltd/reactor/internal/parser"
	"github.com/appengine-ltd/reactor/internal/reactor"
)

// DefaultRodStep is how far a rod moves when no amount is given.
const DefaultRodStep = 0.1

type Action int

const (
	ActionNone Action = iota
	ActionPause
	ActionResume
	ActionAbandon
	ActionAutopilotOn
	ActionAutopilotOff
)

func (a Action) String() string {
	switch a {
	case ActionPause:
		return "pause"
	case ActionResume:
		return "resume"
	case ActionAbandon:
		return "abandon"
	case ActionAutopilotOn:
		return "autopilot_on"
	case ActionAutopilotOff:
		return "autopilot_off"
	default:
		return "none"
	}
}

type Result struct {
	Handled  bool
	Message  string
	Commands []reactor.Command
	Action   Action
	Intent   parser.Intent
}

// Console keeps the operator's selection and autopilot state between
// lines of input. It is not safe for concurrent use.
type Console struct {
	parser    *parser.Parser
	rodStep   float64
	selected  int
	autopilot bool
}

func New() *Console {
	return &Console{parser: parser.New(), rodStep: DefaultRodStep}
}

func (c *Console) SetRodStep(step float64) {
	if step > 0 {
		c.rodStep = step
	}
}

// Selected returns the 1-based selected cell, or 0.
func (c *Console) Selected() int { return c.selected }

func (c *Console) Select(cell int) { c.selected = cell }

func (c *Console) Autopilot() bool { return c.autopilot }

func (c *Console) SetAutopilot(on bool) { c.autopilot = on }

func (c *Console) Context(snap reactor.Snapshot) parser.ParseContext {
	return parser.ParseContext{
		Cells:    len(snap.Cells),
		Valves:   len(snap.Valves),
		Circuits: len(snap.Circuits),
		Selected: c.selected,
	}
}

func (c *Console) Execute(snap reactor.Snapshot, raw string) Result {
	intent := c.parser.Parse(c.Context(snap), raw)
	return c.Translate(snap, intent)
}

func (c *Console) Translate(snap reactor.Snapshot, intent parser.Intent) Result {
	res := Result{Intent: intent}
	if intent.Clarify != nil {
		res.Handled = true
		res.Message = clarifyMessage(intent.Clarify)
		return res
	}
	if intent.Verb == "" {
		res.Message = "Unknown command."
		return res
	}
	if snap.GameOver != nil {
		switch intent.Verb {
		case "help", "status":
		default:
			res.Handled = true
			res.Message = "The shift is over. " + snap.GameOver.Summary()
			return res
		}
	}

	res.Handled = true
	switch intent.Verb {
	case "help":
		res.Message = helpText
	case "status":
		res.Message = c.status(snap)
	case "select":
		c.selected = intent.Target
		res.Message = fmt.Sprintf("Selected cell %d.", intent.Target)
	case "rod", "raise", "lower":
		delta := c.rodDelta(intent)
		res.Commands = []reactor.Command{reactor.MoveControlRod{Cell: reactor.CellID(intent.Target - 1), Delta: delta}}
		c.selected = intent.Target
		res.Message = fmt.Sprintf("Cell %d rod %s by %.2f.", intent.Target, rodVerb(delta), math.Abs(delta))
	case "valve":
		id := reactor.ValveID(intent.Target - 1)
		switch lastArg(intent) {
		case "open":
			res.Commands = []reactor.Command{reactor.SetValve{Valve: id, Open: true}}
			res.Message = fmt.Sprintf("Opening valve %d.", intent.Target)
		case "close":
			res.Commands = []reactor.Command{reactor.SetValve{Valve: id, Open: false}}
			res.Message = fmt.Sprintf("Closing valve %d.", intent.Target)
		default:
			res.Commands = []reactor.Command{reactor.ToggleValve{Valve: id}}
			res.Message = fmt.Sprintf("Toggling valve %d.", intent.Target)
		}
	case "pump":
		power := 0.0
		if intent.Amount != nil {
			power = intent.Amount.Value
		}
		power = math.Max(0, math.Min(1, power))
		res.Commands = []reactor.Command{reactor.SetCircuitPower{Circuit: reactor.CircuitID(intent.Target - 1), Power: power}}
		res.Message = fmt.Sprintf("Circuit %d pump at %.0f%%.", intent.Target, power*100)
	case "scram":
		res.Commands = []reactor.Command{reactor.Scram{}}
		res.Message = "SCRAM. All rods driving in."
	case "pause":
		res.Action = ActionPause
		res.Message = "Simulation paused."
	case "resume":
		res.Action = ActionResume
		res.Message = "Simulation resumed."
	case "auto":
		on := !c.autopilot
		switch lastArg(intent) {
		case "on":
			on = true
		case "off":
			on = false
		}
		c.autopilot = on
		if on {
			res.Action = ActionAutopilotOn
			res.Message = "Autopilot engaged."
		} else {
			res.Action = ActionAutopilotOff
			res.Message = "Autopilot disengaged."
		}
	case "abandon":
		res.Action = ActionAbandon
		res.Message = "You walk away from the control desk."
	default:
		res.Handled = false
		res.Message = fmt.Sprintf("No handler for %q.", intent.Verb)
	}
	return res
}

// rodDelta is the change in insertion; positive drives the rod in.
func (c *Console) rodDelta(intent parser.Intent) float64 {
	step := c.rodStep
	if intent.Amount != nil {
		step = math.Abs(intent.Amount.Value)
	}
	switch intent.Verb {
	case "raise":
		return -step
	case "lower":
		return step
	}
	if intent.Amount != nil {
		return intent.Amount.Value
	}
	if lastArg(intent) == "up" {
		return -step
	}
	return step
}

func rodVerb(delta float64) string {
	if delta < 0 {
		return "raised"
	}
	return "lowered"
}

func lastArg(intent parser.Intent) string {
	if len(intent.Args) == 0 {
		return ""
	}
	return intent.Args[len(intent.Args)-1]
}

func (c *Console) status(snap reactor.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tick %d, %s phase.", snap.Tick, snap.Phase)
	fmt.Fprintf(&b, " Demand %.2f, buffer %.2f, steam %.2f.", snap.Power.Demand, snap.Power.Buffer, snap.Power.StoredSteam)
	fmt.Fprintf(&b, " Peak pressure %.2f.", snap.Warnings.PeakPressure)
	fmt.Fprintf(&b, " Power %s.", snap.Warnings.Power)
	if snap.Warnings.Tutorial {
		b.WriteString(" Grid not yet connected.")
	}
	fmt.Fprintf(&b, " Generated so far would power %s.", reactor.PowerSummary(snap.Power.Generated))
	if c.autopilot {
		b.WriteString(" Autopilot on.")
	}
	if c.selected > 0 {
		if cell, ok := snap.Cell(reactor.CellID(c.selected - 1)); ok {
			fmt.Fprintf(&b, " Cell %d: rod %.2f, reactivity %.2f, %.1fC, coolant %.2f, steam %.2f, pressure %.2f, %s.",
				c.selected, cell.Insertion, cell.Reactivity, cell.Temperature, cell.CoolantLevel, cell.SteamLevel, cell.Pressure, cell.Fuel)
		}
	}
	return b.String()
}

func clarifyMessage(q *parser.ClarifyQuestion) string {
	if len(q.Options) == 0 {
		return q.Prompt
	}
	parts := make([]string, 0, len(q.Options))
	for i, opt := range q.Options {
		parts = append(parts, strconv.Itoa(i+1)+") "+parser.IntentToCommandString(opt))
	}
	return q.Prompt + " " + strings.Join(parts, "  ")
}

const helpText = "Commands: status, select <cell>, rod <cell> up|down|<delta>, raise|lower [cell] [amount], valve <n> [open|close|toggle], pump <circuit> <power>, scram, pause, resume, auto [on|off], abandon. Amounts accept 0.2 or 20%."
