// Package telemetry serves a running reactor session over HTTP and
// websockets.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/appengine-ltd/reactor/internal/autopilot"
	"github.com/appengine-ltd/reactor/internal/console"
	"github.com/appengine-ltd/reactor/internal/logging"
	"github.com/appengine-ltd/reactor/internal/reactor"
	"github.com/appengine-ltd/reactor/internal/scoreboard"
)

// Recorder stores finished sessions.
type Recorder interface {
	Record(ctx context.Context, over reactor.GameOver) (scoreboard.Entry, error)
}

type RunnerOptions struct {
	FrameInterval  time.Duration
	BroadcastEvery int
	Pilot          *autopilot.Pilot
	Autopilot      bool
	Hub            *Hub
	Recorder       Recorder
	Logger         *slog.Logger
}

// Runner owns a session and drives it from one goroutine while HTTP
// handlers read snapshots and submit input under the same mutex.
type Runner struct {
	mu        sync.Mutex
	session   *reactor.Session
	console   *console.Console
	pilot     *autopilot.Pilot
	hub       *Hub
	recorder  Recorder
	log       *slog.Logger
	frame     time.Duration
	every     int
	frames    uint64
	autopilot bool
}

func NewRunner(session *reactor.Session, opts RunnerOptions) *Runner {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = session.Config().Timestep
	}
	if opts.BroadcastEvery < 1 {
		opts.BroadcastEvery = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	r := &Runner{
		session:   session,
		console:   console.New(),
		pilot:     opts.Pilot,
		hub:       opts.Hub,
		recorder:  opts.Recorder,
		log:       opts.Logger,
		frame:     opts.FrameInterval,
		every:     opts.BroadcastEvery,
		autopilot: opts.Autopilot && opts.Pilot != nil,
	}
	r.console.SetAutopilot(r.autopilot)
	session.OnGameOver(r.gameOver)
	return r
}

func (r *Runner) gameOver(over reactor.GameOver) {
	r.log.Info("session finished", "cause", over.Cause, "power_generated", over.PowerGenerated, "summary", over.Summary())
	if r.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := r.recorder.Record(ctx, over); err != nil {
			r.log.Error("failed to record session", "err", err)
		}
	}
	if r.hub != nil {
		r.hub.Broadcast(Message{Type: MessageGameOver, GameOver: &over})
	}
}

// Frame feeds one frame interval into the session and returns the ticks run.
func (r *Runner) Frame() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.autopilot && r.pilot != nil && !r.session.Paused() {
		for _, cmd := range r.pilot.Plan(r.session.Snapshot()) {
			r.session.Enqueue(cmd)
		}
	}
	ran := r.session.Advance(r.frame)
	r.frames++
	if r.hub != nil && r.frames%uint64(r.every) == 0 {
		snap := r.session.Snapshot()
		r.hub.Broadcast(Message{Type: MessageSnapshot, Snapshot: &snap})
	}
	return ran
}

// Run calls Frame every frame interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.frame)
	defer ticker.Stop()
	r.log.Info("runner started", "frame", r.frame, "broadcast_every", r.every)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopped", "tick", r.Tick())
			return nil
		case <-ticker.C:
			r.Frame()
		}
	}
}

func (r *Runner) Snapshot() reactor.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Snapshot()
}

func (r *Runner) Tick() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Tick()
}

func (r *Runner) Over() (reactor.GameOver, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Outcome()
}

// Enqueue does not take the runner lock; the command queue is safe for
// concurrent producers.
func (r *Runner) Enqueue(cmd reactor.Command) bool {
	return r.session.Enqueue(cmd)
}

func (r *Runner) SetPaused(paused bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.SetPaused(paused)
}

func (r *Runner) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.Abandon()
}

func (r *Runner) Autopilot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.autopilot
}

// Console runs one line of operator input.
func (r *Runner) Console(line string) console.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.console.Execute(r.session.Snapshot(), line)
	for _, cmd := range res.Commands {
		if !r.session.Enqueue(cmd) {
			res.Message += " (command queue full, dropped)"
		}
	}
	switch res.Action {
	case console.ActionPause:
		r.session.SetPaused(true)
	case console.ActionResume:
		r.session.SetPaused(false)
	case console.ActionAbandon:
		r.session.Abandon()
	case console.ActionAutopilotOn:
		if r.pilot == nil {
			r.console.SetAutopilot(false)
			res.Message = "No autopilot is fitted to this reactor."
			break
		}
		r.autopilot = true
	case console.ActionAutopilotOff:
		r.autopilot = false
	}
	r.log.Debug("console input", "line", line, "verb", res.Intent.Verb, "handled", res.Handled, "commands", len(res.Commands))
	return res
}
