package reactor

import (
	"testing"
	"time"
)

func TestCountdownFiresPerPeriod(t *testing.T) {
	c := countdown{period: time.Second, repeating: true}
	if fired := c.tick(2500 * time.Millisecond); fired != 2 {
		t.Fatalf("expected 2 firings, got %d", fired)
	}
	if fired := c.tick(500 * time.Millisecond); fired != 1 {
		t.Fatalf("expected carried remainder to fire, got %d", fired)
	}

	once := countdown{period: time.Second}
	if fired := once.tick(3 * time.Second); fired != 1 {
		t.Fatalf("one-shot fired %d times", fired)
	}
	if fired := once.tick(3 * time.Second); fired != 0 || !once.finished {
		t.Fatalf("one-shot fired again or did not finish")
	}
}

func TestPowerGridConvertsStoredSteam(t *testing.T) {
	cfg := DefaultConfig()
	g := newPowerGrid(&cfg)
	g.Demand = 0.5
	g.RampDelta = 0.1
	g.vent(2)

	if shortfall := g.generate(&cfg); shortfall {
		t.Fatalf("did not expect a shortfall with steam in store")
	}
	if !approxEqual(g.Generated, 0.6) {
		t.Fatalf("generated %.4f, want demand plus ramp delta 0.6", g.Generated)
	}
	if !approxEqual(g.StoredSteam, 1.4) {
		t.Fatalf("stored steam %.4f, want 1.4", g.StoredSteam)
	}
	if !approxEqual(g.Buffer, 0.1) {
		t.Fatalf("buffer %.4f, want 0.1 headroom", g.Buffer)
	}

	g.generate(&cfg)
	if !approxEqual(g.Generated, 1.1) {
		t.Fatalf("second step generated %.4f total, want 1.1", g.Generated)
	}
}

func TestPowerGridCountsShortfalls(t *testing.T) {
	cfg := DefaultConfig()
	g := newPowerGrid(&cfg)
	g.Demand = 1

	for i := 1; i <= 6; i++ {
		if !g.generate(&cfg) {
			t.Fatalf("step %d: expected shortfall without steam", i)
		}
	}
	if g.TicksWithoutPower != 6 {
		t.Fatalf("expected 6 consecutive shortfalls, got %d", g.TicksWithoutPower)
	}
	if g.Status(&cfg) != PowerLow {
		t.Fatalf("expected low power warning, got %s", g.Status(&cfg))
	}

	g.vent(10)
	g.generate(&cfg)
	if g.TicksWithoutPower != 0 || g.Status(&cfg) != PowerNormal {
		t.Fatalf("expected counter reset once demand is met, got %d", g.TicksWithoutPower)
	}
}

func TestDemandRampWaitsForTutorial(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TutorialGrace = 10 * time.Second
	cfg.DemandInterval = 5 * time.Second
	cfg.RampInterval = 10 * time.Second
	g := newPowerGrid(&cfg)

	for elapsed := time.Duration(0); elapsed < 10*time.Second; elapsed += cfg.Timestep {
		g.advanceTimers(&cfg, cfg.Timestep)
	}
	if g.Demand != cfg.InitialDemand || g.InTutorial() {
		t.Fatalf("expected tutorial finished with demand untouched, demand %.2f tutorial %v", g.Demand, g.InTutorial())
	}

	for elapsed := time.Duration(0); elapsed < 10*time.Second; elapsed += cfg.Timestep {
		g.advanceTimers(&cfg, cfg.Timestep)
	}
	want := cfg.InitialDemand + 2*cfg.InitialRampDelta
	if !approxEqual(g.Demand, want) {
		t.Fatalf("demand %.4f, want %.4f", g.Demand, want)
	}
	if !approxEqual(g.RampDelta, cfg.InitialRampDelta+cfg.RampIncrement) {
		t.Fatalf("ramp delta %.4f did not grow", g.RampDelta)
	}
}

func TestWarningPulse(t *testing.T) {
	tests := []struct {
		at   time.Duration
		want float64
	}{
		{0, 0},
		{125 * time.Millisecond, 0.5},
		{250 * time.Millisecond, 1},
		{625 * time.Millisecond, 0.5},
		{time.Second, 0},
		{1250 * time.Millisecond, 1},
	}
	for _, tc := range tests {
		if got := WarningPulse(tc.at); !approxEqual(got, tc.want) {
			t.Fatalf("WarningPulse(%s)=%.4f want %.4f", tc.at, got, tc.want)
		}
	}
}

func TestPowerSummary(t *testing.T) {
	tests := []struct {
		power float64
		want  string
	}{
		{0, "absolutely nothing"},
		{0.99, "absolutely nothing"},
		{1, "a small household for few days"},
		{42, "a small household for a few months"},
		{500, "a small town for a few days"},
		{1500, "a small town for a few months"},
		{1e15 - 1, "the whole world for a few years"},
		{1e15, "the whole world for a thousand years"},
	}
	for _, tc := range tests {
		if got := PowerSummary(tc.power); got != tc.want {
			t.Fatalf("PowerSummary(%g)=%q want %q", tc.power, got, tc.want)
		}
	}
}
