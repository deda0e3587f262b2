package world

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vastland/vastland/server/world/chunk"
)

// Column pairs the data of a chunk with the bookkeeping the lifecycle keeps
// about it. While a chunk is being generated it is held in its proto form;
// the terminal pipeline step swaps in a Column marked full. The chunk data
// and the modified flag are guarded by the mutex of the holder the column
// belongs to.
type Column struct {
	*chunk.Chunk

	full     bool
	modified bool
}

// Full reports whether the column holds the complete representation of the
// chunk rather than the proto form used during generation.
func (c *Column) Full() bool { return c.full }

const (
	statusNone   = int32(-1)
	inFlightNone = int32(-1)
)

// ChunkHolder is the per-position record of a loaded or loading chunk. It
// tracks the chunk's current data, its current status, its ticket-derived
// urgency level and whether a pipeline step is currently in flight for it.
// A holder is created when tickets first give its position a level below the
// maximum and destroyed once the level returns there.
//
// Status and column are published atomically: a stage advancing the holder
// stores the column pointer before the status ordinal, so a reader that
// observes a status always observes chunk data at least at that status. A
// holder's status never decreases; the holder is destroyed and recreated
// instead.
type ChunkHolder struct {
	pos ChunkPos

	// mu guards the data of the column currently held. A stage write-locks
	// the holder it runs on for the duration of a mutation; light jobs
	// write-lock every holder of their neighbourhood in position order. The
	// mutex lives on the holder rather than the column so that swapping the
	// column (the proto-to-full conversion) does not split the lock.
	mu sync.RWMutex

	level  atomic.Int32
	status atomic.Int32
	column atomic.Pointer[Column]

	// inFlight holds the ordinal of the status currently being generated, or
	// inFlightNone. It serialises stage execution per holder: acquiring it is
	// the only way a step may run.
	inFlight atomic.Int32

	// unload is set when the holder's level returns to the maximum while a
	// step is in flight. The holder is evicted once the step completes
	// instead of being advanced further.
	unload atomic.Bool
}

func newChunkHolder(pos ChunkPos, level int) *ChunkHolder {
	h := &ChunkHolder{pos: pos}
	h.level.Store(int32(level))
	h.status.Store(statusNone)
	h.inFlight.Store(inFlightNone)
	return h
}

// Pos returns the chunk position the holder is registered on.
func (h *ChunkHolder) Pos() ChunkPos { return h.pos }

// Level returns the holder's current ticket-derived urgency level.
func (h *ChunkHolder) Level() int { return int(h.level.Load()) }

func (h *ChunkHolder) setLevel(level int) { h.level.Store(int32(level)) }

// Status returns the status the chunk has currently reached. The second
// return value is false if no pipeline step has completed yet.
func (h *ChunkHolder) Status() (ChunkStatus, bool) {
	s := h.status.Load()
	if s == statusNone {
		return 0, false
	}
	return ChunkStatus(s), true
}

// Column returns the chunk data currently held, or nil if the first pipeline
// step has not completed yet.
func (h *ChunkHolder) Column() *Column { return h.column.Load() }

// insert publishes the holder's initial chunk data at the status passed. It
// is called by the first pipeline step or, when the chunk was found in
// storage, with the persisted status to resume from. insert panics if the
// holder already holds data: that is a scheduler bug.
func (h *ChunkHolder) insert(col *Column, status ChunkStatus) {
	if h.column.Load() != nil {
		panic(fmt.Sprintf("world: holder %v: insert into holder that already holds a chunk", h.pos))
	}
	h.column.Store(col)
	h.status.Store(int32(status))
}

// replaceColumn swaps the chunk data held by the holder. It is used by steps
// that change the chunk's representation, such as the terminal proto-to-full
// conversion, and must be called before the scheduler publishes the new
// status.
func (h *ChunkHolder) replaceColumn(col *Column) {
	h.column.Store(col)
}

// advance publishes the completion of the pipeline step for the status
// passed. advance panics if the status would not increase by exactly one
// step: statuses are applied strictly in pipeline order, and a violation
// means the scheduler or pyramid is broken.
func (h *ChunkHolder) advance(status ChunkStatus) {
	cur := h.status.Load()
	if int32(status) != cur+1 {
		panic(fmt.Sprintf("world: holder %v: advance to %v from %v violates pipeline order", h.pos, status, cur))
	}
	h.status.Store(int32(status))
}

// tryLock attempts to mark a step for the target status as in flight. It
// fails if any step is already in flight for the holder, which rejects
// concurrent re-entry for the same holder rather than queueing it twice.
func (h *ChunkHolder) tryLock(target ChunkStatus) bool {
	return h.inFlight.CompareAndSwap(inFlightNone, int32(target))
}

// unlock clears the in-flight marker after a step completed or failed.
func (h *ChunkHolder) unlock() {
	h.inFlight.Store(inFlightNone)
}

// InFlight returns the status currently being generated for the holder, if
// any.
func (h *ChunkHolder) InFlight() (ChunkStatus, bool) {
	s := h.inFlight.Load()
	if s == inFlightNone {
		return 0, false
	}
	return ChunkStatus(s), true
}

// markUnload requests eviction of the holder once its in-flight step, if any,
// completes.
func (h *ChunkHolder) markUnload() { h.unload.Store(true) }

// clearUnload withdraws a pending eviction request, used when new tickets
// arrive before the holder was actually evicted.
func (h *ChunkHolder) clearUnload() { h.unload.Store(false) }

func (h *ChunkHolder) unloadRequested() bool { return h.unload.Load() }
