package parser

type IntentKind int

const (
	Command IntentKind = iota
	Query
	Help
	Control
	Unknown
)

func (k IntentKind) String() string {
	switch k {
	case Command:
		return "command"
	case Query:
		return "query"
	case Help:
		return "help"
	case Control:
		return "control"
	default:
		return "unknown"
	}
}

// Amount is a numeric operand such as "0.2", "20%" or "+5%". Percentages are
// already scaled to fractions in Value.
type Amount struct {
	Raw     string
	Value   float64
	Percent bool
}

type Intent struct {
	Raw        string
	Normalised string
	Kind       IntentKind
	Verb       string
	Args       []string
	// Target is the 1-based cell, valve or circuit index the verb acts on.
	Target     int
	Amount     *Amount
	Confidence float64
	Clarify    *ClarifyQuestion
}

type ClarifyQuestion struct {
	Prompt  string
	Options []Intent
}

// ParseContext bounds target indices and resolves "it"/"this" to the
// currently selected cell.
type ParseContext struct {
	Cells    int
	Valves   int
	Circuits int
	Selected int
}

type CommandDef struct {
	Canonical  string
	Aliases    []string
	MinArgs    int
	MaxArgs    int
	HandlerKey string
	// Target names the index space of the first argument, if any.
	Target TargetKind
}

type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetCell
	TargetValve
	TargetCircuit
)

func (t TargetKind) String() string {
	switch t {
	case TargetCell:
		return "cell"
	case TargetValve:
		return "valve"
	case TargetCircuit:
		return "circuit"
	default:
		return "none"
	}
}
