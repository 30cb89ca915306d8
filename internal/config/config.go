// Package config provides YAML-based configuration for farmarena: arena
// capacities, world dimensions, logging and the run database.
package config

import (
	"errors"
	"fmt"
)

// Config is the top-level farmarena configuration.
type Config struct {
	Arena   ArenaConfig   `yaml:"arena"`
	World   WorldConfig   `yaml:"world"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
}

// ArenaConfig sizes the two arenas a world owns.
type ArenaConfig struct {
	PermanentBytes int   `yaml:"permanent_bytes"`
	ScratchBytes   int   `yaml:"scratch_bytes"`
	BudgetBytes    int64 `yaml:"budget_bytes"` // 0 = unlimited
	OffHeap        bool  `yaml:"off_heap"`
}

// WorldConfig defines the map and the player's energy economy.
type WorldConfig struct {
	Width       int     `yaml:"width"`  // tiles
	Height      int     `yaml:"height"` // tiles
	TileSize    float64 `yaml:"tile_size"`
	MaxEntities int     `yaml:"max_entities"`
	Rocks       int     `yaml:"rocks"`
	Weeds       int     `yaml:"weeds"`
	MaxEnergy   int     `yaml:"max_energy"`
	HarvestCost int     `yaml:"harvest_cost"`
	DayLength   float64 `yaml:"day_length"` // seconds
	RockHealth  int     `yaml:"rock_health"`
	WeedHealth  int     `yaml:"weed_health"`
	TicksPerSec int     `yaml:"ticks_per_second"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig locates the run history database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Arena.PermanentBytes <= 0 {
		errs = append(errs, fmt.Errorf("arena.permanent_bytes must be positive, got %d", c.Arena.PermanentBytes))
	}
	if c.Arena.ScratchBytes <= 0 {
		errs = append(errs, fmt.Errorf("arena.scratch_bytes must be positive, got %d", c.Arena.ScratchBytes))
	}
	if c.Arena.BudgetBytes < 0 {
		errs = append(errs, fmt.Errorf("arena.budget_bytes must not be negative, got %d", c.Arena.BudgetBytes))
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %dx%d", c.World.Width, c.World.Height))
	}
	if c.World.TileSize <= 0 {
		errs = append(errs, fmt.Errorf("world.tile_size must be positive, got %g", c.World.TileSize))
	}
	if c.World.MaxEntities <= 0 {
		errs = append(errs, fmt.Errorf("world.max_entities must be positive, got %d", c.World.MaxEntities))
	}
	if c.World.Rocks < 0 || c.World.Weeds < 0 {
		errs = append(errs, errors.New("world.rocks and world.weeds must not be negative"))
	}
	if c.World.MaxEnergy <= 0 {
		errs = append(errs, fmt.Errorf("world.max_energy must be positive, got %d", c.World.MaxEnergy))
	}
	if c.World.HarvestCost < 0 {
		errs = append(errs, fmt.Errorf("world.harvest_cost must not be negative, got %d", c.World.HarvestCost))
	}
	if c.World.DayLength <= 0 {
		errs = append(errs, fmt.Errorf("world.day_length must be positive, got %g", c.World.DayLength))
	}
	if c.World.RockHealth <= 0 || c.World.WeedHealth <= 0 {
		errs = append(errs, errors.New("world.rock_health and world.weed_health must be positive"))
	}
	if c.World.TicksPerSec <= 0 {
		errs = append(errs, fmt.Errorf("world.ticks_per_second must be positive, got %d", c.World.TicksPerSec))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
