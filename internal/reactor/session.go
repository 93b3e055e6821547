package reactor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/appengine-ltd/reactor/internal/logging"
)

const defaultQueueSize = 64

type Option func(*Session)

func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

func WithSessionID(id uuid.UUID) Option {
	return func(s *Session) {
		s.id = id
	}
}

func WithQueueSize(size int) Option {
	return func(s *Session) {
		s.queue = NewCommandQueue(size)
	}
}

// Session is one run of the reactor. All methods except Enqueue and the
// queue returned by Commands must be called from the goroutine that owns
// the session.
type Session struct {
	id      uuid.UUID
	cfg     Config
	seed    int64
	log     *slog.Logger
	rng     *rand.Rand
	lattice *Lattice
	clock   Clock
	phase   Phase
	tick    uint64
	paused  bool

	neutrons []Neutron
	pending  []Neutron
	stats    NeutronStats
	grid     PowerGrid
	queue    *CommandQueue

	overpressure      bool
	overpressureSince time.Duration
	lastStatus        PowerStatus

	over       *GameOver
	onGameOver []func(GameOver)
}

func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lattice, err := BuildLattice(cfg.Lattice)
	if err != nil {
		return nil, fmt.Errorf("build lattice: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		id:      uuid.New(),
		cfg:     cfg,
		seed:    seed,
		log:     logging.Discard(),
		rng:     seededRNG(seed),
		lattice: lattice,
		clock:   NewClock(cfg.Timestep),
		phase:   PhasePowerGeneration,
		grid:    newPowerGrid(&cfg),
		queue:   NewCommandQueue(defaultQueueSize),
	}
	for i := range lattice.cells {
		lattice.cells[i].SteamPullCapacity = cfg.SteamPullCapacity
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("session", s.id)
	s.log.Info("reactor session started",
		"seed", seed,
		"cells", lattice.CellCount(),
		"valves", lattice.ValveCount(),
		"circuits", lattice.CircuitCount(),
		"timestep", cfg.Timestep,
	)
	return s, nil
}

func (s *Session) ID() uuid.UUID { return s.id }
func (s *Session) Seed() int64 { return s.seed }
func (s *Session) Config() Config { return s.cfg }
func (s *Session) Lattice() *Lattice { return s.lattice }
func (s *Session) Tick() uint64 { return s.tick }
func (s *Session) Phase() Phase { return s.phase }
func (s *Session) Paused() bool { return s.paused }
func (s *Session) Elapsed() time.Duration { return s.clock.Elapsed }

func (s *Session) Commands() *CommandQueue {
	return s.queue
}

func (s *Session) Enqueue(cmd Command) bool {
	if !s.queue.Enqueue(cmd) {
		s.log.Warn("command queue full, dropping command", "command", fmt.Sprintf("%T", cmd))
		return false
	}
	return true
}

func (s *Session) SetPaused(paused bool) {
	if s.paused == paused {
		return
	}
	s.paused = paused
	s.log.Info("session pause changed", "paused", paused, "tick", s.tick)
}

// Advance feeds one frame of wall time into the clock and runs every tick
// that has become due, up to MaxTicksPerFrame. Time beyond the cap stays in
// the accumulator. It returns the number of ticks run.
func (s *Session) Advance(delta time.Duration) int {
	if s.over != nil || s.paused {
		return 0
	}
	s.clock.Accumulate(delta)

	ran := 0
	for s.over == nil {
		if s.cfg.MaxTicksPerFrame > 0 && ran >= s.cfg.MaxTicksPerFrame {
			s.log.Debug("tick budget exhausted for frame", "ran", ran, "overstep", s.clock.Overstep)
			break
		}
		if !s.clock.Expend() {
			break
		}
		s.runTick()
		ran++
	}
	return ran
}

// Step runs exactly one tick regardless of accumulated time.
func (s *Session) Step() bool {
	if s.over != nil {
		return false
	}
	s.clock.Elapsed += s.cfg.Timestep
	s.runTick()
	return true
}

func (s *Session) runTick() {
	s.tick++
	s.applyCommands()

	dt := s.cfg.Timestep
	switch s.phase {
	case PhasePowerGeneration:
		updateReactivity(s.lattice, &s.cfg, s.log)
		if s.grid.generate(&s.cfg) {
			s.log.Debug("grid demand unmet", "tick", s.tick, "demand", s.grid.Demand, "ticks_without_power", s.grid.TicksWithoutPower)
		}
	case PhaseWaterFlow:
		distributeCoolant(s.lattice, &s.cfg, s.log)
		refreshSteamPull(s.lattice, &s.cfg)
	case PhaseNeutronRelease:
		s.emitNeutrons()
	case PhaseSteamVenting:
		updateTemperatures(s.lattice, &s.cfg, s.log)
		if relieved := generateSteam(s.lattice, &s.cfg); relieved > 0 {
			s.grid.Relieved += relieved
			s.log.Debug("steam relieved", "tick", s.tick, "amount", relieved)
		}
		s.grid.vent(ventSteam(s.lattice))
	}

	s.moveNeutrons(dt)
	s.poisonFuel()
	s.grid.advanceTimers(&s.cfg, dt)
	s.checkLimits()

	s.log.Log(context.Background(), logging.LevelTrace, "tick complete",
		"tick", s.tick,
		"phase", s.phase,
		"neutrons", len(s.neutrons),
		"stored_steam", s.grid.StoredSteam,
	)
	s.phase = s.phase.Next()
}

func (s *Session) applyCommands() {
	for _, cmd := range s.queue.drain() {
		if err := cmd.apply(s.lattice); err != nil {
			s.log.Warn("command skipped", "command", fmt.Sprintf("%T", cmd), "err", err)
			continue
		}
		s.log.Debug("command applied", "command", fmt.Sprintf("%+v", cmd), "tick", s.tick)
	}
}

func (s *Session) checkLimits() {
	status := s.grid.Status(&s.cfg)
	if status != s.lastStatus {
		s.log.Info("power status changed", "from", s.lastStatus, "to", status, "ticks_without_power", s.grid.TicksWithoutPower)
		s.lastStatus = status
	}
	if status == PowerOutage {
		s.finish(CauseNotEnoughPower)
		return
	}

	peak := s.peakPressure()
	if peak > s.cfg.ExplosionPressure {
		s.finish(CauseExplosion)
		return
	}
	warning := peak > s.cfg.WarningPressure
	if warning && !s.overpressure {
		s.overpressureSince = s.clock.Elapsed
		s.log.Warn("core pressure above warning threshold", "pressure", peak, "limit", s.cfg.ExplosionPressure)
	}
	s.overpressure = warning
}

func (s *Session) peakPressure() float64 {
	peak := 0.0
	for i := range s.lattice.cells {
		if p := s.lattice.cells[i].Pressure; p > peak {
			peak = p
		}
	}
	return peak
}

// Abandon ends the session at the player's request.
func (s *Session) Abandon() {
	s.finish(CausePlayerAbandoned)
}

// OnGameOver registers a callback for the termination event. Each callback
// runs exactly once; callbacks registered after the end run immediately.
func (s *Session) OnGameOver(fn func(GameOver)) {
	if fn == nil {
		return
	}
	if s.over != nil {
		fn(*s.over)
		return
	}
	s.onGameOver = append(s.onGameOver, fn)
}

func (s *Session) Outcome() (GameOver, bool) {
	if s.over == nil {
		return GameOver{}, false
	}
	return *s.over, true
}

func (s *Session) finish(cause Cause) {
	if s.over != nil {
		return
	}
	over := GameOver{
		SessionID:      s.id,
		Seed:           s.seed,
		Cause:          cause,
		PowerGenerated: s.grid.Generated,
		Tick:           s.tick,
		SimTime:        s.clock.Elapsed,
	}
	s.over = &over
	s.log.Info("reactor session over",
		"cause", cause,
		"power_generated", over.PowerGenerated,
		"tick", over.Tick,
		"sim_time", over.SimTime,
	)
	callbacks := s.onGameOver
	s.onGameOver = nil
	for _, fn := range callbacks {
		fn(over)
	}
}
