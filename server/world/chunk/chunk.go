// Package chunk implements the in-memory representation of a 16x16 column of
// blocks, together with the block and sky light stored alongside it. A Chunk
// is a plain data container: all scheduling and generation bookkeeping lives
// in the world package.
package chunk

// Chunk dimensions. A chunk is a column of SectionCount vertical sections of
// 16x16x16 blocks each, spanning the Y range [MinY, MaxY).
const (
	SectionCount = 24
	MinY         = -64
	MaxY         = MinY + SectionCount*16
)

// Chunk is a 16x16 column of blocks. The zero value is not usable; use New.
// Light is stored per section with one padding section below and above the
// block sections, so light indices run from 0 to SectionCount+1.
type Chunk struct {
	air      uint32
	sections []*Section

	skyLight   []*LightArray
	blockLight []*LightArray

	biomes [256]uint8
}

// New creates a Chunk filled with the air block runtime ID passed. All light
// starts at zero; FillSkyLight initialises sky light once blocks are in place.
func New(air uint32) *Chunk {
	c := &Chunk{
		air:        air,
		sections:   make([]*Section, SectionCount),
		skyLight:   make([]*LightArray, SectionCount+2),
		blockLight: make([]*LightArray, SectionCount+2),
	}
	for i := range c.sections {
		c.sections[i] = newSection(air)
	}
	for i := range c.skyLight {
		c.skyLight[i] = newLightArray(0)
		c.blockLight[i] = newLightArray(0)
	}
	return c
}

// Air returns the runtime ID of the air block the Chunk was created with.
func (c *Chunk) Air() uint32 { return c.air }

// Block reads the block runtime ID at a position local to the chunk. The x
// and z values must be in the range [0, 15] and y in [MinY, MaxY).
func (c *Chunk) Block(x uint8, y int16, z uint8) uint32 {
	s, sy := c.section(y)
	if s == nil {
		return c.air
	}
	return s.at(x, sy, z)
}

// SetBlock writes a block runtime ID at a position local to the chunk.
// Writes outside the vertical range are ignored.
func (c *Chunk) SetBlock(x uint8, y int16, z uint8, id uint32) {
	s, sy := c.section(y)
	if s == nil {
		return
	}
	s.set(x, sy, z, id)
}

// Biome returns the biome ID of the column at the local x and z passed.
func (c *Chunk) Biome(x, z uint8) uint8 {
	return c.biomes[columnIndex(x, z)]
}

// SetBiome sets the biome ID of the column at the local x and z passed.
func (c *Chunk) SetBiome(x, z uint8, id uint8) {
	c.biomes[columnIndex(x, z)] = id
}

// HighestBlock returns the Y value of the highest non-air block in the column
// at the x and z passed, or MinY-1 if the column holds no blocks.
func (c *Chunk) HighestBlock(x, z uint8) int16 {
	for i := SectionCount - 1; i >= 0; i-- {
		s := c.sections[i]
		if s.uniform && s.id == c.air {
			continue
		}
		for y := int8(15); y >= 0; y-- {
			if s.at(x, uint8(y), z) != c.air {
				return int16(i*16) + int16(y) + MinY
			}
		}
	}
	return MinY - 1
}

// SkyLight returns the sky light value at a position local to the chunk.
func (c *Chunk) SkyLight(x uint8, y int16, z uint8) uint8 {
	i, sy := lightIndex(y)
	if i < 0 {
		return 0
	}
	return c.skyLight[i].at(x, sy, z)
}

// SetSkyLight sets the sky light value at a position local to the chunk.
func (c *Chunk) SetSkyLight(x uint8, y int16, z uint8, v uint8) {
	i, sy := lightIndex(y)
	if i < 0 {
		return
	}
	c.skyLight[i].set(x, sy, z, v)
}

// BlockLight returns the block light value at a position local to the chunk.
func (c *Chunk) BlockLight(x uint8, y int16, z uint8) uint8 {
	i, sy := lightIndex(y)
	if i < 0 {
		return 0
	}
	return c.blockLight[i].at(x, sy, z)
}

// SetBlockLight sets the block light value at a position local to the chunk.
func (c *Chunk) SetBlockLight(x uint8, y int16, z uint8, v uint8) {
	i, sy := lightIndex(y)
	if i < 0 {
		return
	}
	c.blockLight[i].set(x, sy, z, v)
}

// section returns the section that contains the Y value passed and the Y
// value local to that section. It returns a nil section for out-of-range Y.
func (c *Chunk) section(y int16) (*Section, uint8) {
	if y < MinY || y >= MaxY {
		return nil, 0
	}
	i := (y - MinY) >> 4
	return c.sections[i], uint8((y - MinY) & 15)
}

// lightIndex converts a block Y value to a light array index, accounting for
// the padding section below the world. It returns -1 for out-of-range Y.
func lightIndex(y int16) (int, uint8) {
	if y < MinY-16 || y >= MaxY+16 {
		return -1, 0
	}
	i := (y - (MinY - 16)) >> 4
	return int(i), uint8((y - (MinY - 16)) & 15)
}

func columnIndex(x, z uint8) int {
	return int(x&15)<<4 | int(z&15)
}

// Section is a 16x16x16 cube of block runtime IDs. Sections that hold a
// single block state store only that state and allocate the full grid lazily
// on the first diverging write.
type Section struct {
	uniform bool
	id      uint32
	grid    []uint32
}

func newSection(id uint32) *Section {
	return &Section{uniform: true, id: id}
}

// Uniform reports if the section holds a single block state throughout and,
// if so, which one.
func (s *Section) Uniform() (uint32, bool) {
	return s.id, s.uniform
}

func (s *Section) at(x, y, z uint8) uint32 {
	if s.uniform {
		return s.id
	}
	return s.grid[gridIndex(x, y, z)]
}

func (s *Section) set(x, y, z uint8, id uint32) {
	if s.uniform {
		if id == s.id {
			return
		}
		grid := make([]uint32, 4096)
		for i := range grid {
			grid[i] = s.id
		}
		s.uniform, s.grid = false, grid
	}
	s.grid[gridIndex(x, y, z)] = id
}

func gridIndex(x, y, z uint8) int {
	return int(y&15)<<8 | int(z&15)<<4 | int(x&15)
}
