package config

import (
	_ "embed"
)

//go:embed defaults/farmarena.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Arena: ArenaConfig{
			PermanentBytes: 256 << 10,
			ScratchBytes:   16 << 10,
		},
		World: WorldConfig{
			Width:       32,
			Height:      18,
			TileSize:    16,
			MaxEntities: 512,
			Rocks:       40,
			Weeds:       60,
			MaxEnergy:   100,
			HarvestCost: 2,
			DayLength:   120,
			RockHealth:  3,
			WeedHealth:  1,
			TicksPerSec: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Path: "~/.farmarena/runs.db",
		},
	}
}
