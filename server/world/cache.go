package world

// StaticCache2D is an immutable square window of chunk holders centred on one
// position, snapshotted from the holder table when a pipeline step is
// dispatched. A step reads its neighbourhood exclusively through the cache,
// so it never touches the holder table (or its locks) while running.
//
// The cache is a point-in-time view: holders may advance after the snapshot
// was taken, never regress. Positions outside the window, or positions that
// had no holder at snapshot time, are reported as absent; steps must treat
// absent neighbours as not yet at any required status.
type StaticCache2D struct {
	centre  ChunkPos
	radius  int32
	holders []*ChunkHolder
}

// newStaticCache2D snapshots the holders within radius rings of centre using
// the lookup passed. The lookup is only called during construction.
func newStaticCache2D(centre ChunkPos, radius int32, lookup func(ChunkPos) *ChunkHolder) *StaticCache2D {
	w := int(radius)*2 + 1
	c := &StaticCache2D{centre: centre, radius: radius, holders: make([]*ChunkHolder, w*w)}
	i := 0
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			c.holders[i] = lookup(ChunkPos{centre[0] + dx, centre[1] + dz})
			i++
		}
	}
	return c
}

// Centre returns the position the cache is centred on.
func (c *StaticCache2D) Centre() ChunkPos { return c.centre }

// Radius returns the number of neighbour rings the cache covers.
func (c *StaticCache2D) Radius() int32 { return c.radius }

// Get returns the holder snapshotted at the position passed. It returns false
// for positions outside the cache's window and for positions that had no
// holder when the snapshot was taken.
func (c *StaticCache2D) Get(pos ChunkPos) (*ChunkHolder, bool) {
	dx, dz := pos[0]-c.centre[0], pos[1]-c.centre[1]
	if dx < -c.radius || dx > c.radius || dz < -c.radius || dz > c.radius {
		return nil, false
	}
	h := c.holders[(dz+c.radius)*(2*c.radius+1)+(dx+c.radius)]
	if h == nil {
		return nil, false
	}
	return h, true
}
