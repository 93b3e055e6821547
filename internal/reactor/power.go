package reactor

import (
	"math"
	"time"
)

const powerEpsilon = 1e-9

type countdown struct {
	period    time.Duration
	elapsed   time.Duration
	repeating bool
	finished  bool
}

// tick advances the countdown and returns how many times it fired.
func (c *countdown) tick(dt time.Duration) int {
	if c.finished || c.period <= 0 || dt <= 0 {
		return 0
	}
	c.elapsed += dt
	fired := 0
	for c.elapsed >= c.period {
		c.elapsed -= c.period
		fired++
		if !c.repeating {
			c.finished = true
			c.elapsed = 0
			break
		}
	}
	return fired
}

// PowerGrid tracks vented steam, grid demand and the shortfall counter.
// Demand ramps up on simulated time once the tutorial grace runs out.
// Relieved counts boiled steam that overflowed its channel and was lost.
type PowerGrid struct {
	Demand            float64 `json:"demand"`
	RampDelta         float64 `json:"ramp_delta"`
	StoredSteam       float64 `json:"stored_steam"`
	Buffer            float64 `json:"buffer"`
	Generated         float64 `json:"generated"`
	Relieved          float64 `json:"relieved"`
	TicksWithoutPower int     `json:"ticks_without_power"`

	tutorial countdown
	demand   countdown
	ramp     countdown
}

func newPowerGrid(cfg *Config) PowerGrid {
	return PowerGrid{
		Demand:    cfg.InitialDemand,
		RampDelta: cfg.InitialRampDelta,
		tutorial:  countdown{period: cfg.TutorialGrace, finished: cfg.TutorialGrace <= 0},
		demand:    countdown{period: cfg.DemandInterval, repeating: true},
		ramp:      countdown{period: cfg.RampInterval, repeating: true},
	}
}

func (g *PowerGrid) InTutorial() bool {
	return !g.tutorial.finished
}

func (g *PowerGrid) advanceTimers(cfg *Config, dt time.Duration) {
	if !g.tutorial.finished {
		g.tutorial.tick(dt)
		return
	}
	for i := g.demand.tick(dt); i > 0; i-- {
		g.Demand += g.RampDelta
	}
	g.RampDelta += float64(g.ramp.tick(dt)) * cfg.RampIncrement
}

func (g *PowerGrid) vent(steam float64) {
	if steam > 0 {
		g.StoredSteam += steam
	}
}

// generate converts stored steam into power for one power step and reports
// whether demand went unmet. The buffer never holds more than one ramp
// delta of headroom beyond the current demand.
func (g *PowerGrid) generate(cfg *Config) bool {
	want := math.Max(g.Demand+g.RampDelta-g.Buffer, 0)
	steam := math.Min(g.StoredSteam, want/cfg.PowerPerSteam)
	if steam > 0 {
		g.StoredSteam -= steam
		produced := steam * cfg.PowerPerSteam
		g.Buffer += produced
		g.Generated += produced
	}

	delivered := math.Min(g.Buffer, g.Demand)
	g.Buffer -= delivered
	if delivered+powerEpsilon < g.Demand {
		g.TicksWithoutPower++
		return true
	}
	g.TicksWithoutPower = 0
	return false
}

type PowerStatus int

const (
	PowerNormal PowerStatus = iota
	PowerLow
	PowerOutage
)

func (p PowerStatus) String() string {
	switch p {
	case PowerLow:
		return "low"
	case PowerOutage:
		return "outage"
	default:
		return "normal"
	}
}

func (p PowerStatus) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (g *PowerGrid) Status(cfg *Config) PowerStatus {
	switch {
	case g.TicksWithoutPower > cfg.OutageTicks:
		return PowerOutage
	case g.TicksWithoutPower > cfg.LowPowerTicks:
		return PowerLow
	default:
		return PowerNormal
	}
}

const warningPeriod = time.Second

// WarningPulse is the blend factor of a pressure warning that has been
// active for the given time: a quarter-second rise then a slower fall.
func WarningPulse(active time.Duration) float64 {
	if active < 0 {
		return 0
	}
	t := float64(active%warningPeriod) / float64(warningPeriod)
	if t <= 0.25 {
		return t / 0.25
	}
	return 1 - (t-0.25)/0.75
}

var powerPhrases = []string{
	"absolutely nothing",
	"a small household for few days",
	"a small household for a few months",
	"a small town for a few days",
	"a small town for a few months",
	"a small town for a few years",
	"a small city for a few months",
	"a small city for a few years",
	"a medium city for a few months",
	"a medium city for a few years",
	"a big city for a few months",
	"a big city for a few years",
	"a big city for a few decades",
	"a whole country for a few years",
	"a whole continent for a few years",
	"the whole world for a few years",
}

// PowerSummary describes a total power output in household terms.
func PowerSummary(power float64) string {
	limit := 1.0
	for _, phrase := range powerPhrases {
		if power < limit {
			return phrase
		}
		limit *= 10
	}
	return "the whole world for a thousand years"
}
