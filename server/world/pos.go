package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkPos holds the position of a chunk. The type is comparable and may be
// used as a map key. Values are measured in chunks (16 blocks each), not in
// blocks.
type ChunkPos [2]int32

// X returns the X coordinate of the chunk position.
func (p ChunkPos) X() int32 { return p[0] }

// Z returns the Z coordinate of the chunk position.
func (p ChunkPos) Z() int32 { return p[1] }

// pack packs the chunk position into a single int64 so that it can be used
// as a key in int-to-int maps and in provider keys.
func (p ChunkPos) pack() int64 {
	return int64(uint64(uint32(p[0]))<<32 | uint64(uint32(p[1])))
}

// unpackPos is the inverse of ChunkPos.pack.
func unpackPos(v int64) ChunkPos {
	return ChunkPos{int32(uint64(v) >> 32), int32(uint64(v) & 0xffffffff)}
}

// chunkPosFromVec3 returns the position of the chunk that the world-space
// position passed falls in.
func chunkPosFromVec3(vec mgl64.Vec3) ChunkPos {
	return ChunkPos{
		int32(math.Floor(vec[0])) >> 4,
		int32(math.Floor(vec[2])) >> 4,
	}
}

// chebyshevDist returns the Chebyshev distance between two chunk positions:
// the largest of the absolute coordinate differences. It is the metric used
// for neighbour rings throughout the generation pipeline.
func chebyshevDist(a, b ChunkPos) int32 {
	dx, dz := a[0]-b[0], a[1]-b[1]
	if dx < 0 {
		dx = -dx
	}
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}
