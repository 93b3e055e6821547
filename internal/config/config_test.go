package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/appengine-ltd/reactor/internal/reactor"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, reactor.DefaultTimestep, cfg.Simulation.Timestep)
	assert.Empty(t, cfg.Scoreboard.Path)
}

func TestLoadFromFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
simulation:
  seed: 42
  max_ticks_per_frame: 4
  neutron_lifetime: 5s
  explosion_pressure: 20
logging:
  level: debug
server:
  frame_interval: 250ms
scoreboard:
  path: /tmp/reactor-scores.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, 4, cfg.Simulation.MaxTicksPerFrame)
	assert.Equal(t, 5*time.Second, cfg.Simulation.NeutronLifetime)
	assert.Equal(t, 20.0, cfg.Simulation.ExplosionPressure)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.FrameInterval)
	assert.Equal(t, "/tmp/reactor-scores.db", cfg.Scoreboard.Path)

	// Untouched values keep their defaults.
	assert.Equal(t, reactor.DefaultTimestep, cfg.Simulation.Timestep)
	assert.Equal(t, 7, cfg.Simulation.Lattice.Rows)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: [\n"), 0o600))
	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	t.Setenv("REACTOR_SEED", "9001")
	t.Setenv("REACTOR_LOG_LEVEL", "trace")
	t.Setenv("REACTOR_ADDR", "127.0.0.1:9999")
	t.Setenv("REACTOR_SCOREBOARD", "/var/tmp/scores.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(9001), cfg.Simulation.Seed)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "/var/tmp/scores.db", cfg.Scoreboard.Path)
}

func TestEnvSeedMustBeNumeric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
	t.Setenv("REACTOR_SEED", "forty-two")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, ErrInvalid},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalid},
		{"zero frame", func(c *Config) { c.Server.FrameInterval = 0 }, ErrInvalid},
		{"zero broadcast", func(c *Config) { c.Server.BroadcastEvery = 0 }, ErrInvalid},
		{"autopilot step", func(c *Config) { c.Autopilot.MaxStep = 2 }, ErrInvalid},
		{"simulation", func(c *Config) { c.Simulation.Timestep = 0 }, reactor.ErrInvalidConfig},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	cfg := Default()
	cfg.Simulation.Seed = 7
	cfg.Server.BroadcastEvery = 3
	path := filepath.Join(t.TempDir(), "nested", FileName)

	require.NoError(t, Save(cfg, path))
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), loaded.Simulation.Seed)
	assert.Equal(t, 3, loaded.Server.BroadcastEvery)
	assert.Equal(t, cfg.Simulation.Lattice.Layout, loaded.Simulation.Lattice.Layout)
	assert.Equal(t, cfg.Simulation.NeutronFade, loaded.Simulation.NeutronFade)

	data, err := Marshal(cfg)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "simulation")
	assert.Contains(t, raw, "scoreboard")
}

func TestAutopilotSettings(t *testing.T) {
	s := Default().Autopilot.Settings()
	assert.Equal(t, 180.0, s.TargetTemperature)
	assert.Equal(t, 0.05, s.MaxStep)
	assert.True(t, s.OpenValves)
}
