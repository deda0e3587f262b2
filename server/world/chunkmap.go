package world

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/goleveldb/leveldb"
)

// holderShardCount is the number of shards the holder table is split into.
// Must be a power of two.
const holderShardCount = 32

type holderShard struct {
	mu      sync.RWMutex
	holders map[ChunkPos]*ChunkHolder
}

// ChunkMap owns the table of chunk holders and drives every chunk towards the
// status its urgency level demands. Ticket changes flow in through AddTicket
// and RemoveTicket; Advance then dispatches eligible pipeline steps to the
// stage executor pool and re-evaluates the affected region until no chunk can
// make further progress.
//
// The holder table is sharded: reads taken while snapshotting a neighbourhood
// contend only on the shard of each position, never on the whole map.
type ChunkMap struct {
	log      *slog.Logger
	provider Provider
	pyramid  *GenerationPyramid
	level    ChunkLevel
	ctx      *WorldGenContext

	// mu guards the tracker and the pending set. The tracker is owned
	// exclusively by the ChunkMap and mutated only through the ticket
	// operations below.
	mu      sync.Mutex
	tracker *ChunkTracker
	pending map[ChunkPos]struct{}

	shards [holderShardCount]holderShard

	// advanceMu serialises Advance calls: the per-tick evaluation loop is a
	// single logical pass even though the steps it dispatches run in
	// parallel.
	advanceMu sync.Mutex

	jobs    chan func()
	closing chan struct{}
	running sync.WaitGroup
}

// chunkMapConfig holds what a ChunkMap needs from the world's Config.
type chunkMapConfig struct {
	Log          *slog.Logger
	Provider     Provider
	Generator    Generator
	Pyramid      *GenerationPyramid
	StageWorkers int
	LightWorkers int
	Air          uint32
}

// newChunkMap creates a ChunkMap and starts its stage executor pool and light
// engine.
func newChunkMap(conf chunkMapConfig) *ChunkMap {
	level := NewChunkLevel(conf.Pyramid)
	m := &ChunkMap{
		log:      conf.Log,
		provider: conf.Provider,
		pyramid:  conf.Pyramid,
		level:    level,
		tracker:  NewChunkTracker(level.MaxLevel()),
		pending:  make(map[ChunkPos]struct{}),
		jobs:     make(chan func(), conf.StageWorkers*2),
		closing:  make(chan struct{}),
	}
	for i := range m.shards {
		m.shards[i].holders = make(map[ChunkPos]*ChunkHolder)
	}
	m.ctx = &WorldGenContext{
		Generator: conf.Generator,
		Light:     newLightEngine(conf.Log, conf.LightWorkers),
		Log:       conf.Log,
		Air:       conf.Air,
	}
	for i := 0; i < conf.StageWorkers; i++ {
		m.running.Add(1)
		go m.worker()
	}
	return m
}

func (m *ChunkMap) worker() {
	defer m.running.Done()
	for {
		select {
		case job := <-m.jobs:
			job()
		case <-m.closing:
			return
		}
	}
}

// shard returns the shard responsible for the position passed.
func (m *ChunkMap) shard(pos ChunkPos) *holderShard {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(pos.pack()))
	return &m.shards[xxhash.Sum64(b[:])&(holderShardCount-1)]
}

// Holder returns the holder at the position passed, or nil if the position is
// not loaded.
func (m *ChunkMap) Holder(pos ChunkPos) *ChunkHolder {
	s := m.shard(pos)
	s.mu.RLock()
	h := s.holders[pos]
	s.mu.RUnlock()
	return h
}

// Status returns the status the chunk at the position passed has reached. The
// second return value is false if the chunk is not loaded or has not
// completed any pipeline step yet.
func (m *ChunkMap) Status(pos ChunkPos) (ChunkStatus, bool) {
	h := m.Holder(pos)
	if h == nil {
		return 0, false
	}
	return h.Status()
}

// Level returns the current urgency level of the position passed.
func (m *ChunkMap) Level(pos ChunkPos) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Level(pos)
}

// HolderCount returns the number of holders currently kept.
func (m *ChunkMap) HolderCount() int {
	n := 0
	for i := range m.shards {
		m.shards[i].mu.RLock()
		n += len(m.shards[i].holders)
		m.shards[i].mu.RUnlock()
	}
	return n
}

// AddTicket registers a ticket and applies the resulting level changes to the
// holder table. New positions of interest get holders, resumed from storage
// where chunk data was persisted before.
func (m *ChunkMap) AddTicket(t Ticket) {
	m.mu.Lock()
	changed := m.tracker.AddTicket(t)
	m.applyLevels(changed)
	m.mu.Unlock()
}

// RemoveTicket removes a previously added ticket. Holders whose level returns
// to the maximum are marked for eviction; the next Advance call persists and
// removes them once no step is in flight.
func (m *ChunkMap) RemoveTicket(t Ticket) {
	m.mu.Lock()
	changed := m.tracker.RemoveTicket(t)
	m.applyLevels(changed)
	m.mu.Unlock()
}

// applyLevels pushes the tracker's levels for the changed positions into the
// holder table and marks the positions for re-evaluation. The level of a
// mapped holder is only ever written while its shard is locked, mirrored by
// evict's locked re-verification: an eviction can therefore never slip in
// between the holder lookup and the level update, which would strand the
// position without a holder. Callers must hold m.mu.
func (m *ChunkMap) applyLevels(changed []ChunkPos) {
	for _, pos := range changed {
		level := m.tracker.Level(pos)
		s := m.shard(pos)
		s.mu.Lock()
		h, ok := s.holders[pos]
		if !ok && level < m.tracker.MaxLevel() {
			s.mu.Unlock()
			h = m.loadHolder(pos, level)
			s.mu.Lock()
			if existing, found := s.holders[pos]; found {
				h = existing
			} else {
				s.holders[pos] = h
			}
			ok = true
		}
		if ok {
			h.setLevel(level)
			if level < m.tracker.MaxLevel() {
				h.clearUnload()
			} else {
				h.markUnload()
			}
		}
		s.mu.Unlock()
		m.pending[pos] = struct{}{}
	}
}

// loadHolder creates a holder for a freshly interesting position. Storage is
// consulted first so that a chunk persisted at some status resumes there
// instead of regenerating from scratch. The caller registers the holder in
// its shard.
func (m *ChunkMap) loadHolder(pos ChunkPos, level int) *ChunkHolder {
	h := newChunkHolder(pos, level)
	c, status, err := m.provider.LoadColumn(pos)
	switch {
	case err == nil:
		h.insert(&Column{Chunk: c, full: status == StatusFull}, status)
	case errors.Is(err, leveldb.ErrNotFound):
		// Nothing persisted; the pipeline generates the chunk from scratch.
	default:
		m.log.Error("load chunk: "+err.Error(), "X", pos[0], "Z", pos[1])
	}
	return h
}

// Advance drives every pending chunk as far through the pipeline as its
// dependencies allow, dispatching eligible steps to the executor pool in
// parallel and re-evaluating neighbourhoods as steps complete. It returns the
// number of steps that finished. Chunks blocked on neighbours are revisited
// when those neighbours advance; chunks whose step failed recoverably are
// retried on the next Advance call.
func (m *ChunkMap) Advance() int {
	m.advanceMu.Lock()
	defer m.advanceMu.Unlock()

	completed := 0
	var failed []ChunkPos
	for {
		worklist := m.drainPending()
		if len(worklist) == 0 {
			break
		}
		var (
			wg         sync.WaitGroup
			resultMu   sync.Mutex
			dispatched int
			evictable  []*ChunkHolder
		)
		for _, pos := range worklist {
			h := m.Holder(pos)
			if h == nil {
				continue
			}
			if h.Level() >= m.tracker.MaxLevel() {
				// Evictions wait until the round's steps have completed, so
				// that no running step can still reference the holder.
				evictable = append(evictable, h)
				continue
			}
			target, ok := m.level.GenerationStatus(h.Level())
			if !ok {
				continue
			}
			next := StatusEmpty
			if cur, has := h.Status(); has {
				if cur >= target {
					continue
				}
				next = cur + 1
			}
			step := m.pyramid.StepTo(next)
			cache := newStaticCache2D(pos, step.Accumulated().Radius(), m.Holder)
			if !m.dependenciesReady(step, cache) {
				continue
			}
			if !h.tryLock(next) {
				continue
			}
			dispatched++
			wg.Add(1)
			m.jobs <- func() {
				defer wg.Done()
				err := step.task(m.ctx, step, cache, h)
				if err != nil {
					m.log.Error("chunk step: "+err.Error(), "X", h.Pos()[0], "Z", h.Pos()[1], "status", step.Status().String())
					h.unlock()
					resultMu.Lock()
					failed = append(failed, h.Pos())
					resultMu.Unlock()
					return
				}
				h.advance(step.Status())
				h.unlock()
				resultMu.Lock()
				completed++
				resultMu.Unlock()
				m.enqueueNeighbourhood(h.Pos())
			}
		}
		wg.Wait()
		for _, h := range evictable {
			if h.Level() < m.tracker.MaxLevel() {
				// New tickets arrived before the holder was evicted.
				continue
			}
			m.evict(h, &failed)
		}
		if dispatched == 0 {
			break
		}
	}
	if len(failed) > 0 {
		m.mu.Lock()
		for _, pos := range failed {
			m.pending[pos] = struct{}{}
		}
		m.mu.Unlock()
	}
	return completed
}

// drainPending takes the current pending set. The order of the returned
// positions is arbitrary: correctness relies only on dependency checks, not
// on visitation order.
func (m *ChunkMap) drainPending() []ChunkPos {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil
	}
	worklist := make([]ChunkPos, 0, len(m.pending))
	for pos := range m.pending {
		worklist = append(worklist, pos)
	}
	m.pending = make(map[ChunkPos]struct{})
	return worklist
}

// enqueueNeighbourhood marks a position and every position whose generation
// could depend on it for re-evaluation. The pyramid's maximum accumulated
// radius bounds how far a single chunk's progress can unblock others.
func (m *ChunkMap) enqueueNeighbourhood(pos ChunkPos) {
	r := m.pyramid.MaxRadius()
	m.mu.Lock()
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			m.pending[ChunkPos{pos[0] + dx, pos[1] + dz}] = struct{}{}
		}
	}
	m.mu.Unlock()
}

// dependenciesReady reports whether every neighbour required by the step is
// present and at least at the status the step's accumulated dependency table
// demands for its distance. Missing holders count as not ready.
func (m *ChunkMap) dependenciesReady(step *ChunkStep, cache *StaticCache2D) bool {
	deps := step.Accumulated()
	r := deps.Radius()
	centre := cache.Centre()
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			if dx == 0 && dz == 0 {
				// The chunk's own status is the scheduler's step selection.
				continue
			}
			d := dx
			if d < 0 {
				d = -d
			}
			if dz > d {
				d = dz
			} else if -dz > d {
				d = -dz
			}
			required, ok := deps.Get(d)
			if !ok {
				return true
			}
			nb, ok := cache.Get(ChunkPos{centre[0] + dx, centre[1] + dz})
			if !ok {
				return false
			}
			status, has := nb.Status()
			if !has || status < required {
				return false
			}
		}
	}
	return true
}

// evict persists the holder's chunk if it was modified and removes it from
// the table. It returns false if a step is still in flight, in which case the
// holder stays and eviction is retried later. A failed store keeps the holder
// so no modified data is dropped; the position is retried on the next pass.
// The removal re-verifies, under the shard lock, that the holder is still the
// mapped entry and still at the maximum level: applyLevels writes levels
// under the same lock, so a holder revived by a concurrent ticket is never
// deleted out from under it.
func (m *ChunkMap) evict(h *ChunkHolder, failed *[]ChunkPos) bool {
	if _, inFlight := h.InFlight(); inFlight {
		h.markUnload()
		return false
	}
	if err := m.saveHolder(h); err != nil {
		m.log.Error("save chunk: "+err.Error(), "X", h.Pos()[0], "Z", h.Pos()[1])
		*failed = append(*failed, h.Pos())
		return false
	}
	s := m.shard(h.Pos())
	s.mu.Lock()
	if s.holders[h.Pos()] != h || h.Level() < m.tracker.MaxLevel() {
		// New tickets revived the position while the chunk was being saved.
		s.mu.Unlock()
		return false
	}
	delete(s.holders, h.Pos())
	s.mu.Unlock()
	return true
}

// saveHolder persists the holder's chunk if it holds modified data. Holders
// with a step in flight are skipped: the status ordinal is only published
// once the step's mutation is complete, so a holder that is settled under its
// lock always pairs its data with the matching status. Skipped holders are
// saved once their step finishes, on the next save pass.
func (m *ChunkMap) saveHolder(h *ChunkHolder) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.InFlight(); busy {
		return nil
	}
	status, ok := h.Status()
	if !ok {
		return nil
	}
	col := h.Column()
	if col == nil || !col.modified {
		return nil
	}
	if err := m.provider.StoreColumn(h.Pos(), status, col.Chunk); err != nil {
		return err
	}
	col.modified = false
	return nil
}

// SaveAll persists every modified holder. It is used by the autosave loop and
// during shutdown.
func (m *ChunkMap) SaveAll() {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		holders := make([]*ChunkHolder, 0, len(s.holders))
		for _, h := range s.holders {
			holders = append(holders, h)
		}
		s.mu.RUnlock()
		for _, h := range holders {
			if err := m.saveHolder(h); err != nil {
				m.log.Error("save chunk: "+err.Error(), "X", h.Pos()[0], "Z", h.Pos()[1])
			}
		}
	}
}

// Close stops the stage executor pool and the light engine. In-flight steps
// finish first; chunks are not advanced further. Close does not persist
// chunks: callers save through SaveAll before closing.
func (m *ChunkMap) Close() {
	close(m.closing)
	m.running.Wait()
	m.ctx.Light.Close()
}
