package console

import (
	"math"
	"strings"
	"testing"

	"github.com/appengine-ltd/reactor/internal/reactor"
)

func newSession(t *testing.T) *reactor.Session {
	t.Helper()
	cfg := reactor.DefaultConfig()
	cfg.Seed = 11
	s, err := reactor.NewSession(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func onlyCommand(t *testing.T, res Result) reactor.Command {
	t.Helper()
	if !res.Handled {
		t.Fatalf("expected handled result, got %+v", res)
	}
	if len(res.Commands) != 1 {
		t.Fatalf("expected one command, got %d (%s)", len(res.Commands), res.Message)
	}
	return res.Commands[0]
}

func TestRaiseWithdrawsRodAndSelectsCell(t *testing.T) {
	s := newSession(t)
	c := New()

	res := c.Execute(s.Snapshot(), "raise c3")
	cmd, ok := onlyCommand(t, res).(reactor.MoveControlRod)
	if !ok {
		t.Fatalf("expected MoveControlRod, got %T", res.Commands[0])
	}
	if cmd.Cell != 2 || math.Abs(cmd.Delta+DefaultRodStep) > 1e-9 {
		t.Fatalf("unexpected rod move %+v", cmd)
	}
	if c.Selected() != 3 {
		t.Fatalf("expected cell 3 selected, got %d", c.Selected())
	}

	s.Enqueue(cmd)
	s.Step()
	cell, _ := s.Lattice().Cell(2)
	if math.Abs(cell.Insertion-0.9) > 1e-9 {
		t.Fatalf("expected insertion 0.9, got %.3f", cell.Insertion)
	}
}

func TestLowerItUsesSelection(t *testing.T) {
	s := newSession(t)
	c := New()
	c.Select(5)

	res := c.Execute(s.Snapshot(), "lower it 20%")
	cmd := onlyCommand(t, res).(reactor.MoveControlRod)
	if cmd.Cell != 4 || math.Abs(cmd.Delta-0.2) > 1e-9 {
		t.Fatalf("unexpected rod move %+v", cmd)
	}
}

func TestRodSignedDelta(t *testing.T) {
	s := newSession(t)
	c := New()

	cmd := onlyCommand(t, c.Execute(s.Snapshot(), "rod 1 -0.3")).(reactor.MoveControlRod)
	if math.Abs(cmd.Delta+0.3) > 1e-9 {
		t.Fatalf("expected delta -0.3, got %.3f", cmd.Delta)
	}
	cmd = onlyCommand(t, c.Execute(s.Snapshot(), "rod 1 down")).(reactor.MoveControlRod)
	if math.Abs(cmd.Delta-DefaultRodStep) > 1e-9 {
		t.Fatalf("expected default step down, got %.3f", cmd.Delta)
	}
}

func TestValveCommands(t *testing.T) {
	s := newSession(t)
	c := New()

	open := onlyCommand(t, c.Execute(s.Snapshot(), "valve 2 open"))
	if got, ok := open.(reactor.SetValve); !ok || got.Valve != 1 || !got.Open {
		t.Fatalf("expected SetValve{1,true}, got %#v", open)
	}
	toggle := onlyCommand(t, c.Execute(s.Snapshot(), "v 4"))
	if got, ok := toggle.(reactor.ToggleValve); !ok || got.Valve != 3 {
		t.Fatalf("expected ToggleValve{3}, got %#v", toggle)
	}

	s.Enqueue(open)
	s.Enqueue(toggle)
	s.Step()
	for _, id := range []reactor.ValveID{1, 3} {
		v, _ := s.Lattice().Valve(id)
		if !v.Open {
			t.Fatalf("expected valve %d open", id)
		}
	}
}

func TestPumpPower(t *testing.T) {
	s := newSession(t)
	c := New()

	cmd := onlyCommand(t, c.Execute(s.Snapshot(), "pump 2 50%"))
	got, ok := cmd.(reactor.SetCircuitPower)
	if !ok || got.Circuit != 1 || math.Abs(got.Power-0.5) > 1e-9 {
		t.Fatalf("expected SetCircuitPower{1,0.5}, got %#v", cmd)
	}
}

func TestScramAndControlActions(t *testing.T) {
	s := newSession(t)
	c := New()

	if _, ok := onlyCommand(t, c.Execute(s.Snapshot(), "az5")).(reactor.Scram); !ok {
		t.Fatalf("expected scram command")
	}

	tests := []struct {
		in   string
		want Action
	}{
		{"pause", ActionPause},
		{"resume", ActionResume},
		{"auto", ActionAutopilotOn},
		{"auto", ActionAutopilotOff},
		{"autopilot on", ActionAutopilotOn},
		{"auto off", ActionAutopilotOff},
		{"quit", ActionAbandon},
	}
	for _, tc := range tests {
		res := c.Execute(s.Snapshot(), tc.in)
		if res.Action != tc.want {
			t.Fatalf("%q action = %s, want %s", tc.in, res.Action, tc.want)
		}
		if len(res.Commands) != 0 {
			t.Fatalf("%q should not queue reactor commands", tc.in)
		}
	}
}

func TestClarifyIsReported(t *testing.T) {
	s := newSession(t)
	c := New()

	res := c.Execute(s.Snapshot(), "pu")
	if !res.Handled || len(res.Commands) != 0 {
		t.Fatalf("expected handled clarify without commands, got %+v", res)
	}
	if !strings.Contains(res.Message, "Did you mean") {
		t.Fatalf("expected clarify prompt, got %q", res.Message)
	}
}

func TestStatusMentionsSelectedCell(t *testing.T) {
	s := newSession(t)
	c := New()
	c.Select(3)

	res := c.Execute(s.Snapshot(), "status")
	if !strings.Contains(res.Message, "Cell 3:") {
		t.Fatalf("expected selected cell in status, got %q", res.Message)
	}
	if !strings.Contains(res.Message, "Grid not yet connected") {
		t.Fatalf("expected tutorial note in status, got %q", res.Message)
	}
}

func TestCommandsRefusedAfterGameOver(t *testing.T) {
	s := newSession(t)
	c := New()
	s.Abandon()

	res := c.Execute(s.Snapshot(), "scram")
	if len(res.Commands) != 0 {
		t.Fatalf("expected no commands after game over")
	}
	if !strings.Contains(res.Message, "over") {
		t.Fatalf("expected game over message, got %q", res.Message)
	}
	if res := c.Execute(s.Snapshot(), "status"); len(res.Message) == 0 {
		t.Fatalf("status should still answer after game over")
	}
}
