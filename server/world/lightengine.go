package world

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/vastland/vastland/server/world/chunk"
)

// LightEngine computes chunk lighting. Initial in-chunk sky light is computed
// synchronously; full propagation across a chunk's neighbourhood runs as an
// asynchronous sub-pipeline on the engine's own worker pool. That pool is
// deliberately disjoint from the stage executor pool: the Light pipeline step
// blocks its stage worker on the result, and sharing workers between the
// blocking side and the async side could starve the pool into deadlock.
type LightEngine struct {
	log *slog.Logger

	jobs    chan lightJob
	closing chan struct{}
	running sync.WaitGroup
}

type lightJob struct {
	holders []*ChunkHolder
	baseX   int
	baseZ   int
	result  chan<- error
}

// newLightEngine starts a LightEngine with the number of workers passed.
func newLightEngine(log *slog.Logger, workers int) *LightEngine {
	e := &LightEngine{
		log:     log,
		jobs:    make(chan lightJob, workers*4),
		closing: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		e.running.Add(1)
		go e.worker()
	}
	return e
}

// InitializeLight computes the initial sky light of the holder's chunk from
// its own blocks only. It runs synchronously on the calling stage worker.
func (e *LightEngine) InitializeLight(h *ChunkHolder) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	col := h.Column()
	chunk.FillSkyLight(col.Chunk)
	col.modified = true
	return nil
}

// LightChunkWithCache propagates light through the chunks of the holders
// passed, a square neighbourhood laid out row-major starting at chunk
// position (baseX, baseZ). The work is dispatched to the engine's worker
// pool; the returned channel receives the result exactly once. Callers must
// not hold any holder lock while waiting on it.
func (e *LightEngine) LightChunkWithCache(holders []*ChunkHolder, baseX, baseZ int) <-chan error {
	result := make(chan error, 1)
	job := lightJob{holders: holders, baseX: baseX, baseZ: baseZ, result: result}
	select {
	case e.jobs <- job:
		return result
	default:
		e.log.Debug("light engine queue saturated", "queue_size", cap(e.jobs))
	}
	select {
	case e.jobs <- job:
	case <-e.closing:
		result <- fmt.Errorf("light chunk: engine closed")
	}
	return result
}

// Close stops the engine's workers. Jobs still queued fail with an error.
func (e *LightEngine) Close() {
	close(e.closing)
	e.running.Wait()
	for {
		select {
		case job := <-e.jobs:
			job.result <- fmt.Errorf("light chunk: engine closed")
		default:
			return
		}
	}
}

func (e *LightEngine) worker() {
	defer e.running.Done()
	for {
		select {
		case job := <-e.jobs:
			job.result <- e.run(job)
		case <-e.closing:
			return
		}
	}
}

// run spreads light through the job's neighbourhood. All holders are
// write-locked for the duration: spreading mutates the light of neighbours
// too. The row-major layout of the slice is an ordering by position, so every
// job locks overlapping holders in the same global order and concurrent jobs
// on overlapping neighbourhoods stay deadlock-free.
func (e *LightEngine) run(job lightJob) error {
	for _, h := range job.holders {
		h.mu.Lock()
	}
	defer func() {
		for _, h := range job.holders {
			h.mu.Unlock()
		}
	}()

	chunks := make([]*chunk.Chunk, len(job.holders))
	for i, h := range job.holders {
		col := h.Column()
		if col == nil {
			return fmt.Errorf("light chunk: holder %v holds no chunk", h.Pos())
		}
		chunks[i] = col.Chunk
	}
	chunk.LightArea(chunks, job.baseX, job.baseZ).Spread()
	for _, h := range job.holders {
		h.Column().modified = true
	}
	return nil
}
