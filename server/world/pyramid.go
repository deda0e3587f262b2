package world

import (
	"fmt"
)

// maxStepRadius bounds the direct neighbour radius a single pipeline step may
// request. Radii beyond this are configuration errors: the neighbour caches
// snapshotted per step execution grow quadratically with the radius.
const maxStepRadius = 8

// StepTask is the body of a single pipeline step. It is invoked with the
// shared generation context, the step being run, a read-only snapshot of the
// neighbouring holders within the step's accumulated radius and the holder
// the step runs on. Tasks run on the stage executor pool and must not retain
// the cache after returning.
type StepTask func(ctx *WorldGenContext, step *ChunkStep, cache *StaticCache2D, h *ChunkHolder) error

// ChunkStep is one step of the generation pipeline: the status it produces,
// the number of neighbour rings that must be at the previous status before it
// may run, and the task that performs the work. Steps are immutable once the
// pyramid is built.
type ChunkStep struct {
	status      ChunkStatus
	radius      int32
	task        StepTask
	accumulated AccumulatedDependencies
}

// Status returns the status that the step advances a chunk to.
func (s *ChunkStep) Status() ChunkStatus { return s.status }

// Radius returns the direct neighbour radius of the step: how many rings of
// neighbours must be at the previous status for the step to run.
func (s *ChunkStep) Radius() int32 { return s.radius }

// Accumulated returns the accumulated dependency table of the step.
func (s *ChunkStep) Accumulated() AccumulatedDependencies { return s.accumulated }

// AccumulatedDependencies maps the Chebyshev distance from a chunk to the
// minimum status a neighbour at that distance must have reached before the
// chunk may run the step the table belongs to. The table is the transitive
// composition of the direct radii of all earlier steps, and is monotonically
// non-increasing in distance: a farther neighbour never needs to be more
// advanced than a closer one.
type AccumulatedDependencies struct {
	byDistance []ChunkStatus
}

// Radius returns the largest distance the table holds an entry for.
// Neighbours beyond this distance are not required to be at any status.
func (a AccumulatedDependencies) Radius() int32 {
	return int32(len(a.byDistance)) - 1
}

// Get returns the minimum status required of a neighbour at the Chebyshev
// distance passed. Distances beyond the table's radius return the last,
// coarsest entry. Get returns false if the table is empty, which is the case
// only for the first step of the pipeline.
func (a AccumulatedDependencies) Get(distance int32) (ChunkStatus, bool) {
	if len(a.byDistance) == 0 {
		return 0, false
	}
	if int(distance) >= len(a.byDistance) {
		distance = int32(len(a.byDistance)) - 1
	}
	return a.byDistance[distance], true
}

// GenerationPyramid is the static table of pipeline steps, one per status,
// with the accumulated dependency table of each step precomputed. It is built
// once at startup and never mutated afterwards.
type GenerationPyramid struct {
	steps [StatusCount]*ChunkStep
}

// NewGenerationPyramid builds a pyramid from the direct neighbour radius and
// task of each status, ordered by status ordinal. It returns an error if any
// radius is negative or exceeds maxStepRadius, or if a task is missing.
func NewGenerationPyramid(radii [StatusCount]int32, tasks [StatusCount]StepTask) (*GenerationPyramid, error) {
	p := &GenerationPyramid{}
	for i := 0; i < StatusCount; i++ {
		if radii[i] < 0 || radii[i] > maxStepRadius {
			return nil, fmt.Errorf("generation pyramid: step %v: radius %v out of range [0, %v]", ChunkStatus(i), radii[i], maxStepRadius)
		}
		if tasks[i] == nil {
			return nil, fmt.Errorf("generation pyramid: step %v: missing task", ChunkStatus(i))
		}
		p.steps[i] = &ChunkStep{
			status:      ChunkStatus(i),
			radius:      radii[i],
			task:        tasks[i],
			accumulated: accumulate(radii, i),
		}
	}
	return p, nil
}

// accumulate composes the direct radii of the steps up to and including
// ordinal i backwards into a distance table. A neighbour at distance d must
// be at status i-k, where k is the smallest number of steps whose summed
// radii reach d.
func accumulate(radii [StatusCount]int32, i int) AccumulatedDependencies {
	if i == 0 {
		return AccumulatedDependencies{}
	}
	var total int32
	for k := 1; k <= i; k++ {
		total += radii[i-k+1]
	}
	table := make([]ChunkStatus, total+1)
	sum, k := radii[i], 1
	for d := int32(0); d <= total; d++ {
		for d > sum && k < i {
			k++
			sum += radii[i-k+1]
		}
		table[d] = ChunkStatus(i - k)
	}
	return AccumulatedDependencies{byDistance: table}
}

// StepTo returns the step that advances a chunk to the status passed.
func (p *GenerationPyramid) StepTo(status ChunkStatus) *ChunkStep {
	return p.steps[status]
}

// MaxRadius returns the accumulated radius of the terminal step: the widest
// neighbourhood any chunk's generation can depend on.
func (p *GenerationPyramid) MaxRadius() int32 {
	return p.steps[StatusFull].accumulated.Radius()
}

// ChunkLevel converts derived urgency levels to the minimum chunk status they
// demand. The conversion is a pure function of the pyramid: levels at or
// below FullStatusLevel demand a full chunk, and every level above it demands
// the status a neighbour at the corresponding distance of a full chunk would
// need, per the terminal step's accumulated dependency table.
type ChunkLevel struct {
	pyramid  *GenerationPyramid
	maxLevel int
}

// NewChunkLevel creates a ChunkLevel for the pyramid passed. The maximum
// level, at and above which chunks are not loaded at all, follows from the
// pyramid: one past the level of the farthest neighbour a full chunk needs.
func NewChunkLevel(p *GenerationPyramid) ChunkLevel {
	return ChunkLevel{pyramid: p, maxLevel: FullStatusLevel + 1 + int(p.MaxRadius())}
}

// MaxLevel returns the lowest level at which a chunk should not be loaded.
// It doubles as the "no interest" sentinel of the tracker.
func (l ChunkLevel) MaxLevel() int {
	return l.maxLevel
}

// GenerationStatus returns the minimum status a chunk at the urgency level
// passed must reach. The second return value is false if the level does not
// require the chunk to be loaded at all. The result is monotonically
// non-increasing in the level: a higher level never demands a later status.
func (l ChunkLevel) GenerationStatus(level int) (ChunkStatus, bool) {
	if level >= l.maxLevel {
		return 0, false
	}
	if level <= FullStatusLevel {
		return StatusFull, true
	}
	deps := l.pyramid.StepTo(StatusFull).Accumulated()
	distance := int32(level - FullStatusLevel)
	if distance > deps.Radius() {
		distance = deps.Radius()
	}
	s, ok := deps.Get(distance)
	if !ok {
		// A pyramid whose terminal table is empty has no levels between
		// FullStatusLevel and maxLevel, so this branch is unreachable.
		return StatusFull, true
	}
	return s, true
}
