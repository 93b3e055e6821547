// Package config holds the runtime configuration of the reactor tools.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// REACTOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/appengine-ltd/reactor/internal/autopilot"
	"github.com/appengine-ltd/reactor/internal/reactor"
)

// FileName is the config file looked up in the user's ~/.reactor directory.
const FileName = "config.yaml"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Simulation reactor.Config   `json:"simulation" yaml:"simulation"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Scoreboard ScoreboardConfig `json:"scoreboard" yaml:"scoreboard"`
	Autopilot  AutopilotConfig  `json:"autopilot" yaml:"autopilot"`
}

type LoggingConfig struct {
	// Level is one of trace, debug, info, warn or error.
	Level string `json:"level" yaml:"level"`
	// Format is "text" or "json".
	Format string `json:"format" yaml:"format"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	// FrameInterval is the wall time fed into the session per frame.
	FrameInterval time.Duration `json:"frame_interval" yaml:"frame_interval"`
	// BroadcastEvery sends a snapshot to websocket clients every N frames.
	BroadcastEvery int `json:"broadcast_every" yaml:"broadcast_every"`
}

type ScoreboardConfig struct {
	// Path of the sqlite database. Empty disables the scoreboard.
	Path string `json:"path" yaml:"path"`
}

type AutopilotConfig struct {
	TargetTemperature float64 `json:"target_temperature" yaml:"target_temperature"`
	Gain              float64 `json:"gain" yaml:"gain"`
	MaxStep           float64 `json:"max_step" yaml:"max_step"`
	PressureCeiling   float64 `json:"pressure_ceiling" yaml:"pressure_ceiling"`
}

func Default() *Config {
	return &Config{
		Simulation: reactor.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			FrameInterval:  100 * time.Millisecond,
			BroadcastEvery: 5,
		},
		Autopilot: AutopilotConfig{
			TargetTemperature: 180,
			Gain:              0.002,
			MaxStep:           0.05,
			PressureCeiling:   6,
		},
	}
}

// Settings converts the file section into controller settings. Closed
// valves are always opened by the pilot.
func (a AutopilotConfig) Settings() autopilot.Settings {
	return autopilot.Settings{
		TargetTemperature: a.TargetTemperature,
		Gain:              a.Gain,
		MaxStep:           a.MaxStep,
		PressureCeiling:   a.PressureCeiling,
		OpenValves:        true,
	}
}

// DefaultPath returns ~/.reactor/config.yaml, or "" when there is no home
// directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".reactor", FileName)
}

// Load reads path when given, otherwise the default file if it exists, and
// applies environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil || explicit {
			fileCfg, err := LoadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
			cfg = fileCfg
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Scoreboard.Path = expandPath(cfg.Scoreboard.Path)
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	validLevels := map[string]bool{"": true, "trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("%w: log level %q (valid: trace, debug, info, warn, error)", ErrInvalid, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log format %q (valid: text, json)", ErrInvalid, c.Logging.Format)
	}
	if c.Server.FrameInterval <= 0 {
		return fmt.Errorf("%w: frame_interval must be positive, got %s", ErrInvalid, c.Server.FrameInterval)
	}
	if c.Server.BroadcastEvery < 1 {
		return fmt.Errorf("%w: broadcast_every must be at least 1, got %d", ErrInvalid, c.Server.BroadcastEvery)
	}
	if c.Autopilot.Gain < 0 || c.Autopilot.MaxStep < 0 || c.Autopilot.MaxStep > 1 {
		return fmt.Errorf("%w: autopilot gain must be >= 0 and max_step in [0,1]", ErrInvalid)
	}
	return nil
}

// Marshal renders the effective configuration as YAML.
func Marshal(c *Config) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path, creating parent directories.
func Save(c *Config, path string) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(c *Config) error {
	if v := os.Getenv("REACTOR_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: REACTOR_SEED=%q: %v", ErrInvalid, v, err)
		}
		c.Simulation.Seed = seed
	}
	if v := os.Getenv("REACTOR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REACTOR_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("REACTOR_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("REACTOR_SCOREBOARD"); v != "" {
		c.Scoreboard.Path = expandPath(v)
	}
	return nil
}

func expandPath(p string) string {
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}
