package reactor

import "time"

// Clock is a fixed-timestep accumulator. Frames feed wall time in with
// Accumulate and the scheduler drains it one Timestep at a time.
type Clock struct {
	Timestep time.Duration `json:"timestep"`
	Overstep time.Duration `json:"overstep"`
	Elapsed  time.Duration `json:"elapsed"`
}

func NewClock(step time.Duration) Clock {
	return Clock{Timestep: step}
}

// Accumulate adds frame time to the overstep. Negative deltas are ignored.
func (c *Clock) Accumulate(delta time.Duration) {
	if delta <= 0 {
		return
	}
	c.Overstep += delta
}

// Expend consumes one timestep if enough time has accumulated.
func (c *Clock) Expend() bool {
	if c.Timestep <= 0 || c.Overstep < c.Timestep {
		return false
	}
	c.Overstep -= c.Timestep
	c.Elapsed += c.Timestep
	return true
}
