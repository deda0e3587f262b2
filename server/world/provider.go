package world

import (
	"github.com/df-mc/goleveldb/leveldb"

	"github.com/vastland/vastland/server/world/chunk"
)

// Provider loads and stores chunk data together with the generation status it
// was persisted at, so chunks resume generation where they left off instead
// of starting over.
type Provider interface {
	// LoadColumn reads the chunk at the position passed, returning the chunk
	// and the status it had reached when it was stored. LoadColumn returns an
	// error wrapping leveldb.ErrNotFound if no chunk is stored at the
	// position.
	LoadColumn(pos ChunkPos) (*chunk.Chunk, ChunkStatus, error)
	// StoreColumn persists the chunk at the position passed together with its
	// current status.
	StoreColumn(pos ChunkPos, status ChunkStatus, c *chunk.Chunk) error
	// Close flushes and closes the underlying storage.
	Close() error
}

// NopProvider is a Provider that stores nothing and never finds a chunk, so
// every chunk is generated freshly each run.
type NopProvider struct{}

// LoadColumn always returns leveldb.ErrNotFound.
func (NopProvider) LoadColumn(ChunkPos) (*chunk.Chunk, ChunkStatus, error) {
	return nil, 0, leveldb.ErrNotFound
}

// StoreColumn discards the chunk passed.
func (NopProvider) StoreColumn(ChunkPos, ChunkStatus, *chunk.Chunk) error { return nil }

// Close ...
func (NopProvider) Close() error { return nil }

// Generator generates the terrain of chunks. Each method corresponds to one
// pipeline stage and is invoked exactly once per chunk per stage, always with
// the chunk's column write-locked by the caller. Implementations must be
// deterministic for a given seed and position so that regenerating a chunk is
// idempotent.
type Generator interface {
	// CreateStructures places the origins of structures in the chunk.
	CreateStructures(pos ChunkPos, c *chunk.Chunk)
	// CreateBiomes assigns biomes throughout the chunk.
	CreateBiomes(pos ChunkPos, c *chunk.Chunk)
	// FillFromNoise fills the base terrain shape of the chunk.
	FillFromNoise(pos ChunkPos, c *chunk.Chunk)
	// BuildSurface replaces the top layers of terrain with surface blocks.
	BuildSurface(pos ChunkPos, c *chunk.Chunk)
	// ApplyCarvers carves caves and ravines out of the terrain.
	ApplyCarvers(pos ChunkPos, c *chunk.Chunk)
	// ApplyDecorations places features such as trees and ores.
	ApplyDecorations(pos ChunkPos, c *chunk.Chunk)
}

// NopGenerator is a Generator that generates nothing, leaving every chunk
// filled with air.
type NopGenerator struct{}

// CreateStructures ...
func (NopGenerator) CreateStructures(ChunkPos, *chunk.Chunk) {}

// CreateBiomes ...
func (NopGenerator) CreateBiomes(ChunkPos, *chunk.Chunk) {}

// FillFromNoise ...
func (NopGenerator) FillFromNoise(ChunkPos, *chunk.Chunk) {}

// BuildSurface ...
func (NopGenerator) BuildSurface(ChunkPos, *chunk.Chunk) {}

// ApplyCarvers ...
func (NopGenerator) ApplyCarvers(ChunkPos, *chunk.Chunk) {}

// ApplyDecorations ...
func (NopGenerator) ApplyDecorations(ChunkPos, *chunk.Chunk) {}
