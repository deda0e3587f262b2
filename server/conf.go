package server

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vastland/vastland/server/block"
	"github.com/vastland/vastland/server/world"
	"github.com/vastland/vastland/server/world/biome"
	"github.com/vastland/vastland/server/world/generator"
	"github.com/vastland/vastland/server/world/mcdb"
)

// Config contains options for starting a world server.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger
	// Name is the name of the server.
	Name string
	// WorldProvider is the world.Provider used for storing and loading world
	// data. If left as nil, world data will be newly created every time and
	// chunks will always be newly generated when loaded.
	WorldProvider world.Provider
	// Generator is the world.Generator producing the terrain of newly
	// generated chunks. If left as nil, an Overworld generator with seed 0 is
	// used.
	Generator world.Generator
	// StageWorkers and LightWorkers configure the worker pools of the world.
	// Zero selects defaults based on the host's CPU count.
	StageWorkers, LightWorkers int
	// SaveInterval is the interval of the world's autosave loop. Zero selects
	// the default; a negative value disables autosaving.
	SaveInterval time.Duration
	// SpawnRadius is the radius in chunks kept loaded around the world spawn.
	// If 0, no spawn area is reserved.
	SpawnRadius int32
	// ForcedChunksFile is the path of the TOML file holding chunk positions
	// kept loaded regardless of players. If empty, no forced chunk list is
	// maintained.
	ForcedChunksFile string
}

// UserConfig is the user configuration for a server. It holds settings that
// affect different aspects of the server, such as its name and world storage.
// UserConfig may be serialised and can be converted to a Config by calling
// UserConfig.Config().
type UserConfig struct {
	Server struct {
		// Name is the name of the server.
		Name string
	}
	World struct {
		// SaveData controls whether a world's data will be saved and loaded.
		// If true, the server will use the default LevelDB data provider and
		// if false, an empty provider will be used. To use your own provider,
		// turn this value to false, as you will still be able to pass your
		// own provider.
		SaveData bool
		// Folder is the folder that the data of the world resides in.
		Folder string
		// Seed controls the procedural generation of the world when no custom
		// generator is provided.
		Seed int64
		// Generator selects the built-in terrain generator. Valid values are
		// "overworld" and "flat". Defaults to "overworld".
		Generator string
		// StageWorkers is the number of background workers that should be
		// dedicated to running generation pipeline steps. Set to 0 to
		// automatically select a reasonable default based on the host's CPU
		// count.
		StageWorkers int
		// LightWorkers is the number of background workers dedicated to light
		// propagation. Set to 0 to use an automatically chosen count.
		LightWorkers int
		// SpawnRadius is the radius in chunks kept loaded around the world
		// spawn regardless of players.
		SpawnRadius int
		// SaveIntervalMinutes is the interval of the autosave loop in
		// minutes. Set to 0 for the default; a negative value disables
		// autosaving.
		SaveIntervalMinutes int
		// ForcedChunks is the path to the forced chunks TOML file that stores
		// chunk positions kept loaded regardless of players.
		ForcedChunks string
	}
}

// Config converts a UserConfig to a Config, so that it may be used for
// creating a Server. An error is returned if creating the world provider
// failed.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	var err error
	conf := Config{
		Log:              log,
		Name:             uc.Server.Name,
		StageWorkers:     uc.World.StageWorkers,
		LightWorkers:     uc.World.LightWorkers,
		SpawnRadius:      int32(uc.World.SpawnRadius),
		SaveInterval:     time.Duration(uc.World.SaveIntervalMinutes) * time.Minute,
		ForcedChunksFile: strings.TrimSpace(uc.World.ForcedChunks),
	}
	gen := strings.TrimSpace(uc.World.Generator)
	if gen == "" {
		gen = "overworld"
	}
	conf.Generator, err = parseGenerator(gen, uc.World.Seed)
	if err != nil {
		return conf, err
	}
	if uc.World.SaveData {
		conf.WorldProvider, err = mcdb.Config{Log: log}.Open(uc.World.Folder)
		if err != nil {
			return conf, fmt.Errorf("create world provider: %w", err)
		}
	}
	return conf, nil
}

// parseGenerator returns the built-in generator with the name passed,
// configured with the default block palette.
func parseGenerator(name string, seed int64) (world.Generator, error) {
	switch name {
	case "overworld":
		return generator.Overworld{
			Seed:        seed,
			Bedrock:     block.Bedrock,
			Stone:       block.Stone,
			Dirt:        block.Dirt,
			Grass:       block.Grass,
			Sand:        block.Sand,
			Water:       block.Water,
			Flower:      block.Dandelion,
			PlainsBiome: biome.Plains,
			ForestBiome: biome.Forest,
			DesertBiome: biome.Desert,
		}, nil
	case "flat":
		return generator.Flat{
			Bedrock:  block.Bedrock,
			Stone:    block.Stone,
			Dirt:     block.Dirt,
			Grass:    block.Grass,
			Biome:    biome.Plains,
			SurfaceY: 0,
		}, nil
	default:
		return nil, fmt.Errorf("unknown generator %q", name)
	}
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Server.Name = "Vastland Server"
	c.World.SaveData = true
	c.World.Folder = "world"
	c.World.Seed = 0
	c.World.Generator = "overworld"
	c.World.SpawnRadius = 4
	c.World.ForcedChunks = "forced_chunks.toml"
	return c
}
