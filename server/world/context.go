package world

import (
	"log/slog"
)

// WorldGenContext bundles the shared collaborators that pipeline step tasks
// need: the terrain generator, the light engine and the runtime ID to fill
// fresh chunks with. One context is shared by all steps of a ChunkMap; its
// fields are immutable after construction.
type WorldGenContext struct {
	// Generator produces the terrain of chunks. It must be deterministic per
	// seed and position.
	Generator Generator
	// Light computes chunk lighting. Its asynchronous sub-pipeline runs on
	// workers disjoint from the stage executor pool.
	Light *LightEngine
	// Log is used by step tasks for recoverable-failure reporting.
	Log *slog.Logger
	// Air is the block runtime ID that fresh proto chunks are filled with.
	Air uint32
}
