package chunk

// LightArray stores a light value in the range [0, 15] for every block in a
// 16x16x16 section. Arrays that hold a single value throughout store only
// that value and allocate the full grid lazily on the first diverging write.
type LightArray struct {
	uniform bool
	value   uint8
	data    []uint8
}

func newLightArray(v uint8) *LightArray {
	return &LightArray{uniform: true, value: v}
}

// Uniform reports if the array holds a single light value throughout and, if
// so, which one.
func (a *LightArray) Uniform() (uint8, bool) {
	return a.value, a.uniform
}

func (a *LightArray) at(x, y, z uint8) uint8 {
	if a.uniform {
		return a.value
	}
	return a.data[gridIndex(x, y, z)]
}

func (a *LightArray) set(x, y, z uint8, v uint8) {
	if a.uniform {
		if v == a.value {
			return
		}
		data := make([]uint8, 4096)
		for i := range data {
			data[i] = a.value
		}
		a.uniform, a.data = false, data
	}
	a.data[gridIndex(x, y, z)] = v
}

func (a *LightArray) fill(v uint8) {
	a.uniform, a.value, a.data = true, v, nil
}

// FillSkyLight initialises the sky light of the chunk passed from scratch.
// Sections are scanned from the top down: sections that consist entirely of
// air are filled with full light, and below the first section containing
// blocks, light is propagated downwards per column until a block is hit.
// Block light is left untouched.
func FillSkyLight(c *Chunk) {
	// The padding section above the world always has full light, the one
	// below never does.
	c.skyLight[SectionCount+1].fill(15)
	c.skyLight[0].fill(0)

	// Highest light index (exclusive padding) that is still fully air.
	lowestFull := SectionCount + 1
	for i := SectionCount; i >= 1; i-- {
		s := c.sections[i-1]
		if id, ok := s.Uniform(); ok && id == c.air {
			c.skyLight[i].fill(15)
			lowestFull = i
			continue
		}
		break
	}
	if lowestFull == 1 {
		return
	}

	// Per-column propagation through the remaining sections, from the lowest
	// fully lit section downwards until a non-air block stops the column.
	startY := int16((lowestFull-1)*16) + MinY - 1
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			for y := startY; y >= MinY; y-- {
				if c.Block(x, y, z) != c.air {
					break
				}
				c.SetSkyLight(x, y, z, 15)
			}
		}
	}
}

// Area is a square of chunks used to spread light across chunk borders. The
// chunks are laid out row-major with the base position holding the chunk at
// the lowest x and z.
type Area struct {
	chunks []*Chunk
	w      int
	baseX  int
	baseZ  int
}

// LightArea creates an Area from the chunks passed. The slice must hold a
// square number of chunks laid out row-major starting at chunk position
// (baseX, baseZ). LightArea panics if the slice is not square.
func LightArea(chunks []*Chunk, baseX, baseZ int) *Area {
	w := 1
	for w*w < len(chunks) {
		w++
	}
	if w*w != len(chunks) {
		panic("chunk: light area must hold a square number of chunks")
	}
	return &Area{chunks: chunks, w: w, baseX: baseX, baseZ: baseZ}
}

// Spread propagates sky light between the chunks of the Area. Light flows to
// each of the six neighbouring blocks with an attenuation of one level and is
// stopped by non-air blocks. Spread converges within the area; light outside
// of the area's bounds is not considered.
func (a *Area) Spread() {
	type node struct {
		x, z int
		y    int16
	}
	width := a.w * 16
	var queue []node
	for x := 0; x < width; x++ {
		for z := 0; z < width; z++ {
			for y := int16(MinY); y < MaxY; y++ {
				if a.light(x, y, z) > 1 {
					queue = append(queue, node{x: x, y: y, z: z})
				}
			}
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		l := a.light(n.x, n.y, n.z)
		if l <= 1 {
			continue
		}
		next := []node{
			{n.x - 1, n.z, n.y}, {n.x + 1, n.z, n.y},
			{n.x, n.z - 1, n.y}, {n.x, n.z + 1, n.y},
			{n.x, n.z, n.y - 1}, {n.x, n.z, n.y + 1},
		}
		for _, m := range next {
			if m.x < 0 || m.z < 0 || m.x >= width || m.z >= width || m.y < MinY || m.y >= MaxY {
				continue
			}
			c := a.chunkAt(m.x, m.z)
			lx, lz := uint8(m.x&15), uint8(m.z&15)
			if c.Block(lx, m.y, lz) != c.air {
				continue
			}
			if c.SkyLight(lx, m.y, lz) >= l-1 {
				continue
			}
			c.SetSkyLight(lx, m.y, lz, l-1)
			queue = append(queue, m)
		}
	}
}

func (a *Area) chunkAt(x, z int) *Chunk {
	return a.chunks[(z>>4)*a.w+(x>>4)]
}

func (a *Area) light(x int, y int16, z int) uint8 {
	return a.chunkAt(x, z).SkyLight(uint8(x&15), y, uint8(z&15))
}
