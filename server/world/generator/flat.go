// Package generator provides the built-in terrain generators. All generators
// are deterministic: the blocks they produce depend only on their
// configuration, the seed and the chunk position, never on generation order.
package generator

import (
	"github.com/vastland/vastland/server/world"
	"github.com/vastland/vastland/server/world/chunk"
)

// Flat generates completely flat terrain: a bedrock floor, stone up to the
// surface and a dirt and grass cover. The zero value generates nothing but
// the bedrock floor.
type Flat struct {
	// Bedrock, Stone, Dirt and Grass are the block runtime IDs of the layers.
	Bedrock, Stone, Dirt, Grass uint32
	// Biome is the biome ID assigned to every column.
	Biome uint8
	// SurfaceY is the Y value of the top of the grass cover. It is clamped
	// into the world's vertical range.
	SurfaceY int16
}

// CreateStructures does nothing: flat worlds hold no structures.
func (Flat) CreateStructures(world.ChunkPos, *chunk.Chunk) {}

// CreateBiomes assigns the configured biome to every column.
func (f Flat) CreateBiomes(_ world.ChunkPos, c *chunk.Chunk) {
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			c.SetBiome(x, z, f.Biome)
		}
	}
}

// FillFromNoise fills stone from the bedrock floor up to below the cover.
func (f Flat) FillFromNoise(_ world.ChunkPos, c *chunk.Chunk) {
	top := f.surface()
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			for y := int16(chunk.MinY + 1); y <= top-4; y++ {
				c.SetBlock(x, y, z, f.Stone)
			}
		}
	}
}

// BuildSurface lays the bedrock floor and the dirt and grass cover.
func (f Flat) BuildSurface(_ world.ChunkPos, c *chunk.Chunk) {
	top := f.surface()
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			c.SetBlock(x, chunk.MinY, z, f.Bedrock)
			for y := top - 3; y < top; y++ {
				c.SetBlock(x, y, z, f.Dirt)
			}
			c.SetBlock(x, top, z, f.Grass)
		}
	}
}

// ApplyCarvers does nothing: flat worlds hold no caves.
func (Flat) ApplyCarvers(world.ChunkPos, *chunk.Chunk) {}

// ApplyDecorations does nothing: flat worlds hold no decorations.
func (Flat) ApplyDecorations(world.ChunkPos, *chunk.Chunk) {}

func (f Flat) surface() int16 {
	return min(max(f.SurfaceY, chunk.MinY+4), chunk.MaxY-1)
}

var _ world.Generator = Flat{}
