package world

// ChunkStatus identifies how far a chunk has progressed through the
// generation pipeline. Statuses form a total order: a later status strictly
// subsumes the guarantees of every earlier one.
type ChunkStatus uint8

const (
	// StatusEmpty is the first status of every chunk: its data exists in
	// memory but nothing has been generated yet.
	StatusEmpty ChunkStatus = iota
	// StatusStructureStarts marks structure origins placed in the chunk.
	StatusStructureStarts
	// StatusStructureReferences marks references to structures that start in
	// neighbouring chunks but extend into this one.
	StatusStructureReferences
	// StatusBiomes marks biomes assigned throughout the chunk.
	StatusBiomes
	// StatusNoise marks the base terrain shape filled from noise.
	StatusNoise
	// StatusSurface marks surface blocks (grass, sand, ...) applied on top of
	// the base terrain.
	StatusSurface
	// StatusCarvers marks caves and ravines carved out of the terrain.
	StatusCarvers
	// StatusFeatures marks decorations such as trees and ores placed.
	StatusFeatures
	// StatusInitializeLight marks the initial sky light computed within the
	// chunk itself.
	StatusInitializeLight
	// StatusLight marks light fully propagated, including from neighbours.
	StatusLight
	// StatusSpawn marks the chunk prepared for initial mob spawning.
	StatusSpawn
	// StatusFull is the terminal status: the chunk is complete and may be
	// sent to clients and ticked.
	StatusFull
)

// StatusCount is the number of chunk statuses in the pipeline.
const StatusCount = int(StatusFull) + 1

var statusNames = [StatusCount]string{
	"empty", "structure_starts", "structure_references", "biomes", "noise",
	"surface", "carvers", "features", "initialize_light", "light", "spawn",
	"full",
}

// String returns the snake_case name of the status, such as
// "structure_starts".
func (s ChunkStatus) String() string {
	if int(s) >= StatusCount {
		return "invalid"
	}
	return statusNames[s]
}
