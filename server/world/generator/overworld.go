package generator

import (
	"math"

	"github.com/segmentio/fasthash/fnv1a"
	"github.com/vastland/vastland/server/world"
	"github.com/vastland/vastland/server/world/chunk"
)

// Salts mixed into the hash per concern, so the noise fields of the different
// stages are independent of each other.
const (
	saltHeight uint64 = iota + 1
	saltBiome
	saltCarver
	saltDeco
)

// Overworld generates rolling hill terrain from layered value noise. Every
// block produced depends only on the seed, the configuration and the block's
// world position.
type Overworld struct {
	// Seed is the world seed. Two Overworld generators with the same seed and
	// configuration produce identical terrain.
	Seed int64
	// Bedrock, Stone, Dirt, Grass, Sand and Water are the block runtime IDs
	// the generator builds terrain from.
	Bedrock, Stone, Dirt, Grass, Sand, Water uint32
	// Flower, if non-zero, is scattered on grass surfaces by the decoration
	// stage.
	Flower uint32
	// PlainsBiome, ForestBiome and DesertBiome are the biome IDs assigned by
	// the biome stage.
	PlainsBiome, ForestBiome, DesertBiome uint8
	// SeaLevel is the Y value water fills up to. If 0, a default of 62 is
	// used.
	SeaLevel int16
}

// CreateStructures does nothing. Structure generation hooks in here once
// structures exist; the stage is kept so the pipeline shape does not change
// when it does.
func (Overworld) CreateStructures(world.ChunkPos, *chunk.Chunk) {}

// CreateBiomes assigns a biome to every column from a low-frequency noise
// field: dry regions become desert, the rest splits into plains and forest.
func (g Overworld) CreateBiomes(pos world.ChunkPos, c *chunk.Chunk) {
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			wx, wz := blockPos(pos, x, z)
			humidity := g.valueNoise(saltBiome, wx, wz, 128)
			switch {
			case humidity < 0.25:
				c.SetBiome(x, z, g.DesertBiome)
			case humidity < 0.65:
				c.SetBiome(x, z, g.PlainsBiome)
			default:
				c.SetBiome(x, z, g.ForestBiome)
			}
		}
	}
}

// FillFromNoise fills every column with stone up to its terrain height.
func (g Overworld) FillFromNoise(pos world.ChunkPos, c *chunk.Chunk) {
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			h := g.height(pos, x, z)
			for y := int16(chunk.MinY + 1); y <= h; y++ {
				c.SetBlock(x, y, z, g.Stone)
			}
		}
	}
}

// BuildSurface lays the bedrock floor, replaces the top stone layers with the
// biome's cover and fills water up to sea level.
func (g Overworld) BuildSurface(pos world.ChunkPos, c *chunk.Chunk) {
	sea := g.seaLevel()
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			c.SetBlock(x, chunk.MinY, z, g.Bedrock)
			h := g.height(pos, x, z)

			if c.Biome(x, z) == g.DesertBiome || h < sea {
				for y := h - 3; y <= h; y++ {
					c.SetBlock(x, y, z, g.Sand)
				}
			} else {
				for y := h - 3; y < h; y++ {
					c.SetBlock(x, y, z, g.Dirt)
				}
				c.SetBlock(x, h, z, g.Grass)
			}
			for y := h + 1; y <= sea; y++ {
				c.SetBlock(x, y, z, g.Water)
			}
		}
	}
}

// ApplyCarvers carves ravines: columns close to the zero line of a ridged
// noise field are dug out below the surface.
func (g Overworld) ApplyCarvers(pos world.ChunkPos, c *chunk.Chunk) {
	air := c.Air()
	sea := g.seaLevel()
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			wx, wz := blockPos(pos, x, z)
			ridge := math.Abs(g.valueNoise(saltCarver, wx, wz, 64) - 0.5)
			if ridge >= 0.015 {
				continue
			}
			h := g.height(pos, x, z)
			if h <= sea {
				// Carving below sea level would punch holes in the ocean floor.
				continue
			}
			depth := int16(12 - ridge*400)
			for y := h - depth; y <= h; y++ {
				if y > chunk.MinY {
					c.SetBlock(x, y, z, air)
				}
			}
		}
	}
}

// ApplyDecorations scatters flowers on grass surfaces. Decoration positions
// are hashed per block, so re-decorating a chunk is idempotent.
func (g Overworld) ApplyDecorations(pos world.ChunkPos, c *chunk.Chunk) {
	if g.Flower == 0 {
		return
	}
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			wx, wz := blockPos(pos, x, z)
			if g.unit(saltDeco, wx, wz) >= 0.02 {
				continue
			}
			h := c.HighestBlock(x, z)
			if h >= chunk.MinY && h < chunk.MaxY-1 && c.Block(x, h, z) == g.Grass {
				c.SetBlock(x, h+1, z, g.Flower)
			}
		}
	}
}

// height returns the terrain height of the column at the local x and z of the
// chunk position passed: two octaves of value noise around a base level.
func (g Overworld) height(pos world.ChunkPos, x, z uint8) int16 {
	wx, wz := blockPos(pos, x, z)
	n := g.valueNoise(saltHeight, wx, wz, 96)*48 + g.valueNoise(saltHeight+16, wx, wz, 24)*12
	h := int16(56 + n)
	return min(max(h, chunk.MinY+4), chunk.MaxY-2)
}

func (g Overworld) seaLevel() int16 {
	if g.SeaLevel == 0 {
		return 62
	}
	return g.SeaLevel
}

// valueNoise samples smooth value noise at the block position passed: the
// lattice corners of the cell containing the position are hashed and blended
// with a smoothstep. The result is in [0, 1).
func (g Overworld) valueNoise(salt uint64, wx, wz int64, cell int64) float64 {
	cx, cz := floorDiv(wx, cell), floorDiv(wz, cell)
	fx := float64(wx-cx*cell) / float64(cell)
	fz := float64(wz-cz*cell) / float64(cell)
	sx, sz := smoothstep(fx), smoothstep(fz)

	c00 := g.unit(salt, cx, cz)
	c10 := g.unit(salt, cx+1, cz)
	c01 := g.unit(salt, cx, cz+1)
	c11 := g.unit(salt, cx+1, cz+1)
	return lerp(lerp(c00, c10, sx), lerp(c01, c11, sx), sz)
}

// unit hashes the seed, salt and coordinates into a float in [0, 1).
func (g Overworld) unit(salt uint64, x, z int64) float64 {
	h := fnv1a.AddUint64(fnv1a.Init64, uint64(g.Seed))
	h = fnv1a.AddUint64(h, salt)
	h = fnv1a.AddUint64(h, uint64(x))
	h = fnv1a.AddUint64(h, uint64(z))
	return float64(h>>11) / float64(1<<53)
}

func blockPos(pos world.ChunkPos, x, z uint8) (int64, int64) {
	return int64(pos[0])*16 + int64(x), int64(pos[1])*16 + int64(z)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

var _ world.Generator = Overworld{}
