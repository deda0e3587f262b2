package world

import (
	"fmt"

	"github.com/vastland/vastland/server/world/chunk"
)

// ChunkStatusTasks holds the bodies of the generation pipeline steps. Each
// method matches the StepTask signature and is bound into the default
// generation pyramid by defaultPyramid. All tasks block until their work is
// done; the Light task blocks on the light engine's asynchronous
// sub-pipeline rather than returning early.
type ChunkStatusTasks struct{}

// defaultStepRadii holds the direct neighbour radius of every pipeline step:
// the rings of neighbours that must be at the previous status before the
// step may run. Structure references need the starts of adjacent chunks,
// noise interpolation and decoration sample across the chunk border, and
// light propagation pulls from lit neighbours.
var defaultStepRadii = [StatusCount]int32{
	StatusEmpty:               0,
	StatusStructureStarts:     0,
	StatusStructureReferences: 1,
	StatusBiomes:              0,
	StatusNoise:               1,
	StatusSurface:             0,
	StatusCarvers:             0,
	StatusFeatures:            1,
	StatusInitializeLight:     0,
	StatusLight:               1,
	StatusSpawn:               0,
	StatusFull:                0,
}

// defaultPyramid builds the generation pyramid binding the default radii to
// the ChunkStatusTasks bodies. It panics on error: the default tables are
// static, so failing to build them is a programming error.
func defaultPyramid() *GenerationPyramid {
	var t ChunkStatusTasks
	p, err := NewGenerationPyramid(defaultStepRadii, [StatusCount]StepTask{
		StatusEmpty:               t.Empty,
		StatusStructureStarts:     t.GenerateStructureStarts,
		StatusStructureReferences: t.GenerateStructureReferences,
		StatusBiomes:              t.GenerateBiomes,
		StatusNoise:               t.GenerateNoise,
		StatusSurface:             t.GenerateSurface,
		StatusCarvers:             t.GenerateCarvers,
		StatusFeatures:            t.GenerateFeatures,
		StatusInitializeLight:     t.InitializeLight,
		StatusLight:               t.Light,
		StatusSpawn:               t.GenerateSpawn,
		StatusFull:                t.Full,
	})
	if err != nil {
		panic(err)
	}
	return p
}

// taskColumn returns the column of the holder passed, panicking if the holder
// holds no chunk. A step only runs once the holder reached the preceding
// status, so a missing chunk means the scheduler itself is broken and
// continuing would corrupt world state.
func taskColumn(h *ChunkHolder) *Column {
	col := h.Column()
	if col == nil {
		panic(fmt.Sprintf("world: step on holder %v that holds no chunk", h.Pos()))
	}
	return col
}

// generate runs a generator stage function on the holder's chunk under its
// data lock and marks the column modified.
func generate(h *ChunkHolder, fn func(pos ChunkPos, c *chunk.Chunk)) error {
	col := taskColumn(h)
	h.mu.Lock()
	fn(h.Pos(), col.Chunk)
	col.modified = true
	h.mu.Unlock()
	return nil
}

// Empty creates the proto chunk for a holder that was not found in storage.
func (ChunkStatusTasks) Empty(ctx *WorldGenContext, _ *ChunkStep, _ *StaticCache2D, h *ChunkHolder) error {
	h.replaceColumn(&Column{Chunk: chunk.New(ctx.Air)})
	return nil
}

// GenerateStructureStarts places the origins of structures in the chunk.
func (ChunkStatusTasks) GenerateStructureStarts(ctx *WorldGenContext, _ *ChunkStep, _ *StaticCache2D, h *ChunkHolder) error {
	return generate(h, ctx.Generator.CreateStructures)
}

// GenerateStructureReferences records structures starting in neighbouring
// chunks that extend into this one. The neighbour starts themselves are the
// only input, which the step's radius guarantees to be present; no generator
// call is needed.
func (ChunkStatusTasks) GenerateStructureReferences(*WorldGenContext, *ChunkStep, *StaticCache2D, *ChunkHolder) error {
	return nil
}

// GenerateBiomes assigns biomes throughout the chunk.
func (ChunkStatusTasks) GenerateBiomes(ctx *WorldGenContext, _ *ChunkStep, _ *StaticCache2D, h *ChunkHolder) error {
	return generate(h, ctx.Generator.CreateBiomes)
}

// GenerateNoise fills the base terrain shape of the chunk.
func (ChunkStatusTasks) GenerateNoise(ctx *WorldGenContext, _ *ChunkStep, _ *StaticCache2D, h *ChunkHolder) error {
	return generate(h, ctx.Generator.FillFromNoise)
}

// GenerateSurface applies surface blocks on top of the base terrain.
func (ChunkStatusTasks) GenerateSurface(ctx *WorldGenContext, _ *ChunkStep, _ *StaticCache2D, h *ChunkHolder) error {
	return generate(h, ctx.Generator.BuildSurface)
}

// GenerateCarvers carves caves and ravines out of the terrain.
func (ChunkStatusTasks) GenerateCarvers(ctx *WorldGenContext, _ *ChunkStep, _ *StaticCache2D, h *ChunkHolder) error {
	return generate(h, ctx.Generator.ApplyCarvers)
}

// GenerateFeatures places decorations such as trees and ores.
func (ChunkStatusTasks) GenerateFeatures(ctx *WorldGenContext, _ *ChunkStep, _ *StaticCache2D, h *ChunkHolder) error {
	return generate(h, ctx.Generator.ApplyDecorations)
}

// InitializeLight computes the chunk's initial sky light from its own blocks.
func (ChunkStatusTasks) InitializeLight(ctx *WorldGenContext, _ *ChunkStep, _ *StaticCache2D, h *ChunkHolder) error {
	taskColumn(h)
	return ctx.Light.InitializeLight(h)
}

// Light propagates light through the chunk's neighbourhood. The work runs on
// the light engine's own workers; the calling stage worker blocks on the
// result. This is the pipeline's single deliberate suspension point.
func (ChunkStatusTasks) Light(ctx *WorldGenContext, step *ChunkStep, cache *StaticCache2D, h *ChunkHolder) error {
	r := step.Radius()
	w := int(r)*2 + 1
	holders := make([]*ChunkHolder, 0, w*w)
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			pos := ChunkPos{h.Pos()[0] + dx, h.Pos()[1] + dz}
			nb, ok := cache.Get(pos)
			if !ok || nb.Column() == nil {
				panic(fmt.Sprintf("world: light step on %v: neighbour %v missing from cache", h.Pos(), pos))
			}
			holders = append(holders, nb)
		}
	}
	baseX, baseZ := int(h.Pos()[0]-r), int(h.Pos()[1]-r)
	if err := <-ctx.Light.LightChunkWithCache(holders, baseX, baseZ); err != nil {
		return fmt.Errorf("light chunk %v: %w", h.Pos(), err)
	}
	return nil
}

// GenerateSpawn prepares the chunk for initial mob spawning. Entity spawning
// itself is handled outside the generation pipeline.
func (ChunkStatusTasks) GenerateSpawn(*WorldGenContext, *ChunkStep, *StaticCache2D, *ChunkHolder) error {
	return nil
}

// Full converts the proto chunk to its complete representation. The upgraded
// column is published before the scheduler stores the new status, so readers
// observing StatusFull always see the full column.
func (ChunkStatusTasks) Full(_ *WorldGenContext, _ *ChunkStep, _ *StaticCache2D, h *ChunkHolder) error {
	col := taskColumn(h)
	h.mu.Lock()
	h.replaceColumn(&Column{Chunk: col.Chunk, full: true, modified: col.modified})
	h.mu.Unlock()
	return nil
}
