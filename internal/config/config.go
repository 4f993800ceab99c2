package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Sim       SimConfig       `toml:"sim"`
	Pool      PoolConfig      `toml:"pool"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Perf      PerfConfig      `toml:"perf"`
	Player    PlayerConfig    `toml:"player"`
	Data      DataConfig      `toml:"data"`
	Scripting ScriptingConfig `toml:"scripting"`
	Database  DatabaseConfig  `toml:"database"`
	Diag      DiagConfig      `toml:"diag"`
	Logging   LoggingConfig   `toml:"logging"`
}

type SimConfig struct {
	ArenaWidth  float64 `toml:"arena_width"`
	ArenaHeight float64 `toml:"arena_height"`
	EntityCap   int     `toml:"entity_cap"`
	CellSize    float64 `toml:"cell_size"`
	ShotMargin  float64 `toml:"shot_margin"` // shots further than this outside the arena expire
}

type PoolConfig struct {
	ProjectileMax      int `toml:"projectile_max"`
	EnemyProjectileMax int `toml:"enemy_projectile_max"`
	Prewarm            int `toml:"prewarm"`
}

// TierConfig is the target rate and live-entity cap for one performance tier.
type TierConfig struct {
	Rate      float64 `toml:"rate"`
	EntityCap int     `toml:"entity_cap"`
}

type TiersConfig struct {
	Normal   TierConfig `toml:"normal"`
	Low      TierConfig `toml:"low"`
	Critical TierConfig `toml:"critical"`
}

type SchedulerConfig struct {
	TargetRate    float64     `toml:"target_rate"`    // Hz
	MaxDelta      float64     `toml:"max_delta"`      // seconds, clamp ceiling
	FallbackDelta float64     `toml:"fallback_delta"` // seconds, used for zero/NaN elapsed
	HiddenRate    float64     `toml:"hidden_rate"`    // Hz while suspended by visibility
	Tiers         TiersConfig `toml:"tiers"`
}

type PerfConfig struct {
	SampleWindow  int     `toml:"sample_window"`
	LowRatio      float64 `toml:"low_ratio"`
	CriticalRatio float64 `toml:"critical_ratio"`
	Hysteresis    int     `toml:"hysteresis"`
}

type PlayerConfig struct {
	MaxHP           int     `toml:"max_hp"`
	Radius          float64 `toml:"radius"`
	Speed           float64 `toml:"speed"`
	Invulnerability float64 `toml:"invulnerability"` // seconds
}

type DataConfig struct {
	Enemies string `toml:"enemies"`
	Weapons string `toml:"weapons"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"` // empty = built-in rules
}

type DatabaseConfig struct {
	Driver          string        `toml:"driver"` // "none", "sqlite" or "postgres"
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type DiagConfig struct {
	Enabled     bool          `toml:"enabled"`
	BindAddress string        `toml:"bind_address"`
	Interval    time.Duration `toml:"interval"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration. Load overlays the file on top of it.
func Defaults() *Config {
	return &Config{
		Sim: SimConfig{
			ArenaWidth:  2400,
			ArenaHeight: 2400,
			EntityCap:   600,
			CellSize:    64,
			ShotMargin:  100,
		},
		Pool: PoolConfig{
			ProjectileMax:      512,
			EnemyProjectileMax: 256,
			Prewarm:            64,
		},
		Scheduler: SchedulerConfig{
			TargetRate:    60,
			MaxDelta:      1.0 / 30.0,
			FallbackDelta: 1.0 / 60.0,
			HiddenRate:    4,
			Tiers: TiersConfig{
				Normal:   TierConfig{Rate: 60, EntityCap: 600},
				Low:      TierConfig{Rate: 45, EntityCap: 350},
				Critical: TierConfig{Rate: 30, EntityCap: 200},
			},
		},
		Perf: PerfConfig{
			SampleWindow:  30,
			LowRatio:      0.6,
			CriticalRatio: 0.9,
			Hysteresis:    20,
		},
		Player: PlayerConfig{
			MaxHP:           100,
			Radius:          16,
			Speed:           220,
			Invulnerability: 0.5,
		},
		Data: DataConfig{
			Enemies: "data/yaml/enemies.yaml",
			Weapons: "data/yaml/weapons.yaml",
		},
		Database: DatabaseConfig{
			Driver:          "none",
			DSN:             "file:simcore.db",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Diag: DiagConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1:7070",
			Interval:    500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Sim.ArenaWidth <= 0 || c.Sim.ArenaHeight <= 0 {
		errs = append(errs, errors.New("sim: arena size must be positive"))
	}
	if c.Sim.EntityCap <= 0 {
		errs = append(errs, errors.New("sim: entity_cap must be positive"))
	}
	if c.Sim.CellSize <= 0 {
		errs = append(errs, errors.New("sim: cell_size must be positive"))
	}
	if c.Pool.ProjectileMax < 0 || c.Pool.EnemyProjectileMax < 0 || c.Pool.Prewarm < 0 {
		errs = append(errs, errors.New("pool: sizes must not be negative"))
	}
	s := c.Scheduler
	if s.TargetRate <= 0 || s.HiddenRate <= 0 {
		errs = append(errs, errors.New("scheduler: rates must be positive"))
	}
	if s.FallbackDelta <= 0 || s.MaxDelta <= 0 {
		errs = append(errs, errors.New("scheduler: max_delta and fallback_delta must be positive"))
	} else if s.MaxDelta < s.FallbackDelta {
		errs = append(errs, errors.New("scheduler: max_delta must not be below fallback_delta"))
	}
	for name, tier := range map[string]TierConfig{"normal": s.Tiers.Normal, "low": s.Tiers.Low, "critical": s.Tiers.Critical} {
		if tier.Rate <= 0 || tier.EntityCap <= 0 {
			errs = append(errs, fmt.Errorf("scheduler: tier %s needs positive rate and entity_cap", name))
		}
	}
	switch c.Database.Driver {
	case "none", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database: unknown driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// TargetInterval converts the configured rate into a tick interval.
func (s SchedulerConfig) TargetInterval() time.Duration {
	return RateInterval(s.TargetRate)
}

// RateInterval converts a rate in Hz into a duration.
func RateInterval(hz float64) time.Duration {
	if hz <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / hz)
}
