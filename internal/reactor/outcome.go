package reactor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Cause int

const (
	CausePlayerAbandoned Cause = iota
	CauseNotEnoughPower
	CauseExplosion
)

func (c Cause) String() string {
	switch c {
	case CausePlayerAbandoned:
		return "player_abandoned"
	case CauseNotEnoughPower:
		return "not_enough_power"
	case CauseExplosion:
		return "explosion"
	default:
		return fmt.Sprintf("cause(%d)", int(c))
	}
}

func (c Cause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cause) UnmarshalText(text []byte) error {
	parsed, err := ParseCause(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ParseCause(raw string) (Cause, error) {
	for _, c := range []Cause{CausePlayerAbandoned, CauseNotEnoughPower, CauseExplosion} {
		if c.String() == raw {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown cause: %s", raw)
}

// Message is the line shown to the player when the session ends.
func (c Cause) Message() string {
	switch c {
	case CauseNotEnoughPower:
		return "The grid went dark. The reactor could not keep up with demand."
	case CauseExplosion:
		return "The core exceeded its pressure limit and exploded."
	default:
		return "You walked away from the control room."
	}
}

// GameOver is emitted once when a session terminates.
type GameOver struct {
	SessionID      uuid.UUID     `json:"session_id"`
	Seed           int64         `json:"seed"`
	Cause          Cause         `json:"cause"`
	PowerGenerated float64       `json:"power_generated"`
	Tick           uint64        `json:"tick"`
	SimTime        time.Duration `json:"sim_time"`
}

func (g GameOver) Summary() string {
	return fmt.Sprintf("%s You generated enough power to supply %s.", g.Cause.Message(), PowerSummary(g.PowerGenerated))
}
