package reactor

import "testing"

// quietConfig disables random neutron and xenon activity so stage tests see
// only the behaviour they set up.
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 2024
	cfg.NeutronSpawnChance = 0
	cfg.XenonChance = 0
	return cfg
}

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()

	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func approxEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
