// Package config provides YAML configuration for a simulation run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/talgya/owe/internal/engine"
	"github.com/talgya/owe/internal/rules"
	"github.com/talgya/owe/internal/world"
)

// Config is a complete run configuration.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Cursor     CursorConfig     `yaml:"cursor"`
	Engine     EngineConfig     `yaml:"engine"`
	Settlement SettlementConfig `yaml:"settlement"`
	Journal    JournalConfig    `yaml:"journal"`
	API        APIConfig        `yaml:"api"`
	Log        LogConfig        `yaml:"log"`

	// Source is where the configuration was read from.
	Source string `yaml:"-"`
}

// WorldConfig defines world generation.
type WorldConfig struct {
	Size         int     `yaml:"size"`
	Seed         int64   `yaml:"seed"` // 0 = random
	RockLevel    float64 `yaml:"rock_level"`
	DepositLevel float64 `yaml:"deposit_level"`
	MaxDeposit   uint32  `yaml:"max_deposit"`
	Replenish    uint32  `yaml:"replenish"`
	Extract      uint32  `yaml:"extract"` // Amount each deposit yields per visit
}

// CursorConfig defines the tick cursor.
type CursorConfig struct {
	Range     int         `yaml:"range"`
	Direction string      `yaml:"direction"`
	Start     world.Coord `yaml:"start"`
}

// EngineConfig defines the tick loop.
type EngineConfig struct {
	Interval time.Duration `yaml:"interval"`
	Speed    float64       `yaml:"speed"`
	MaxTicks uint64        `yaml:"max_ticks"` // 0 = run until stopped
}

// SettlementConfig defines the demo settlement laid out on the fresh world.
type SettlementConfig struct {
	Enabled     bool             `yaml:"enabled"`
	MinDistance float64          `yaml:"min_distance"`
	Blaze       uint8            `yaml:"blaze"`
	Buildings   []rules.Building `yaml:"buildings"` // empty = the default plan
}

// JournalConfig defines the SQLite tick journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// APIConfig defines the observation API.
type APIConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Port        int           `yaml:"port"`
	AdminKeyEnv string        `yaml:"admin_key_env"`
	RelayKeyEnv string        `yaml:"relay_key_env"`
	PathLimit   int           `yaml:"path_limit"` // path searches per client per window
	PathWindow  time.Duration `yaml:"path_window"`
}

// LogConfig defines the default logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, pretty
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	gen := world.DefaultGenConfig()
	return Config{
		World: WorldConfig{
			Size:         gen.Size,
			Seed:         gen.Seed,
			RockLevel:    gen.RockLevel,
			DepositLevel: gen.DepositLevel,
			MaxDeposit:   gen.MaxDeposit,
			Replenish:    gen.Replenish,
			Extract:      2,
		},
		Cursor: CursorConfig{
			Range:     2,
			Direction: engine.Right.String(),
		},
		Engine: EngineConfig{
			Interval: 50 * time.Millisecond,
			Speed:    1.0,
		},
		Settlement: SettlementConfig{
			Enabled:     true,
			MinDistance: 3,
			Blaze:       1,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "data/owe.db",
		},
		API: APIConfig{
			Enabled:     true,
			Port:        8080,
			AdminKeyEnv: "OWE_ADMIN_KEY",
			RelayKeyEnv: "OWE_RELAY_KEY",
			PathLimit:   60,
			PathWindow:  time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate rejects configurations that cannot run.
func (c Config) Validate() error {
	var errs []error
	if c.World.Size < 1 {
		errs = append(errs, fmt.Errorf("world.size must be positive, got %d", c.World.Size))
	}
	for name, level := range map[string]float64{"world.rock_level": c.World.RockLevel, "world.deposit_level": c.World.DepositLevel} {
		if level < 0 || level > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", name, level))
		}
	}
	if c.Cursor.Range < 0 {
		errs = append(errs, fmt.Errorf("cursor.range must not be negative, got %d", c.Cursor.Range))
	}
	if _, err := engine.ParseDirection(c.Cursor.Direction); err != nil {
		errs = append(errs, fmt.Errorf("cursor.direction: %w", err))
	}
	if c.Cursor.Start.X < 0 || c.Cursor.Start.Y < 0 || c.Cursor.Start.X >= c.World.Size || c.Cursor.Start.Y >= c.World.Size {
		errs = append(errs, fmt.Errorf("cursor.start %v is outside a %d×%d world", c.Cursor.Start, c.World.Size, c.World.Size))
	}
	if c.Engine.Interval <= 0 {
		errs = append(errs, fmt.Errorf("engine.interval must be positive, got %v", c.Engine.Interval))
	}
	if c.Engine.Speed < 0 {
		errs = append(errs, fmt.Errorf("engine.speed must not be negative, got %v", c.Engine.Speed))
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, errors.New("journal.path is required when the journal is enabled"))
	}
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	if c.API.PathLimit < 1 || c.API.PathWindow <= 0 {
		errs = append(errs, errors.New("api.path_limit and api.path_window must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text, json or pretty, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// GenConfig converts the world section for world.Generate. The caller
// supplies the producer factory.
func (c Config) GenConfig() world.GenConfig {
	return world.GenConfig{
		Size:         c.World.Size,
		Seed:         c.World.Seed,
		RockLevel:    c.World.RockLevel,
		DepositLevel: c.World.DepositLevel,
		MaxDeposit:   c.World.MaxDeposit,
		Replenish:    c.World.Replenish,
	}
}

// Direction returns the parsed cursor direction.
func (c Config) Direction() engine.Direction {
	d, err := engine.ParseDirection(c.Cursor.Direction)
	if err != nil {
		return engine.Right
	}
	return d
}

// Plan returns the settlement plan for a world generated from seed.
func (c Config) Plan(seed int64) rules.Plan {
	plan := rules.DefaultPlan(seed)
	plan.MinDistance = c.Settlement.MinDistance
	plan.Blaze = c.Settlement.Blaze
	if len(c.Settlement.Buildings) > 0 {
		plan.Buildings = c.Settlement.Buildings
	}
	return plan
}

// AdminKey returns the admin bearer token from the configured environment variable.
func (c Config) AdminKey() string { return os.Getenv(c.API.AdminKeyEnv) }

// RelayKey returns the stream relay token from the configured environment variable.
func (c Config) RelayKey() string { return os.Getenv(c.API.RelayKeyEnv) }
