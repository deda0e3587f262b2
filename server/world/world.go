// Package world implements the chunk lifecycle of an effectively infinite
// voxel world: tickets express interest in regions of the world, a tracker
// derives per-chunk urgency levels from them, and a staged executor drives
// every chunk of interest through the generation pipeline while respecting
// cross-chunk dependencies.
package world

import (
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Config holds the options for creating a World. The zero value is usable:
// New fills in defaults for every unset field.
type Config struct {
	// Log is the Logger used for world-related messages. If nil, Log is set
	// to slog.Default().
	Log *slog.Logger
	// Provider loads and stores chunk data. If nil, NopProvider is used and
	// chunks are regenerated every run.
	Provider Provider
	// Generator generates new chunks. If nil, NopGenerator is used and chunks
	// stay empty.
	Generator Generator
	// Pyramid is the generation pyramid driving the pipeline. If nil, the
	// default pyramid with the ChunkStatusTasks bodies is used.
	Pyramid *GenerationPyramid
	// StageWorkers is the number of workers executing pipeline steps. If 0 or
	// lower, the count is derived from the host's available CPUs.
	StageWorkers int
	// LightWorkers is the number of workers of the light engine. These are
	// deliberately separate from the stage workers: the light pipeline step
	// blocks its stage worker on light results. If 0 or lower, a count
	// derived from the CPU count is used.
	LightWorkers int
	// TickInterval is the duration between two runs of the per-tick
	// evaluation loop. Defaults to 50ms (20 ticks per second).
	TickInterval time.Duration
	// SaveInterval is the interval of the autosave loop. If 0, a default of
	// five minutes is used; if negative, autosaving is disabled.
	SaveInterval time.Duration
	// Air is the block runtime ID fresh chunks are filled with.
	Air uint32
}

// New creates a World with the config, starting its tick and autosave loops.
func (conf Config) New() *World {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Provider == nil {
		conf.Provider = NopProvider{}
	}
	if conf.Generator == nil {
		conf.Generator = NopGenerator{}
	}
	if conf.Pyramid == nil {
		conf.Pyramid = defaultPyramid()
	}
	if conf.StageWorkers <= 0 {
		conf.StageWorkers = max(2, runtime.NumCPU())
	}
	if conf.LightWorkers <= 0 {
		conf.LightWorkers = max(1, runtime.NumCPU()/4)
	}
	if conf.TickInterval == 0 {
		conf.TickInterval = time.Second / 20
	}
	if conf.SaveInterval == 0 {
		conf.SaveInterval = time.Minute * 5
	}
	w := &World{
		conf: conf,
		cm: newChunkMap(chunkMapConfig{
			Log:          conf.Log,
			Provider:     conf.Provider,
			Generator:    conf.Generator,
			Pyramid:      conf.Pyramid,
			StageWorkers: conf.StageWorkers,
			LightWorkers: conf.LightWorkers,
			Air:          conf.Air,
		}),
		closing: make(chan struct{}),
		players: make(map[uuid.UUID]playerArea),
	}
	w.running.Add(2)
	go ticker{interval: conf.TickInterval}.tickLoop(w)
	go w.autoSave()
	return w
}

// playerArea records the ticket currently registered for a player, so moving
// or removing the player can withdraw it.
type playerArea struct {
	ticket Ticket
}

// World manages the lifecycle of the chunks of one voxel world. Interest in
// chunks is expressed exclusively through tickets; the World keeps every
// chunk of interest at the generation status its urgency level demands and
// evicts chunks nobody is interested in anymore. All methods are safe for
// concurrent use.
type World struct {
	conf Config
	cm   *ChunkMap

	closing chan struct{}
	running sync.WaitGroup
	o       sync.Once

	tps atomic.Uint64

	playerMu sync.Mutex
	players  map[uuid.UUID]playerArea
	spawn    *Ticket
}

// AddTicket registers a ticket on the world, raising the urgency of the
// chunks around the ticket's position.
func (w *World) AddTicket(t Ticket) {
	w.cm.AddTicket(t)
}

// RemoveTicket removes a previously registered ticket. Chunks whose urgency
// drops to nothing are persisted and evicted; steps already in flight for
// them complete first but the chunks are not advanced further.
func (w *World) RemoveTicket(t Ticket) {
	w.cm.RemoveTicket(t)
}

// MovePlayer registers or updates the view-distance ticket of the player with
// the UUID passed. Chunks within the view distance (in chunks) around the
// player's position are kept full; chunks beyond it taper off to earlier
// statuses with distance.
func (w *World) MovePlayer(id uuid.UUID, pos mgl64.Vec3, viewDistance int32) {
	level := FullStatusLevel - int(viewDistance)
	if level < 0 {
		level = 0
	}
	t := Ticket{Type: TicketPlayer, Owner: id, Level: level, Pos: chunkPosFromVec3(pos)}

	w.playerMu.Lock()
	old, ok := w.players[id]
	w.players[id] = playerArea{ticket: t}
	w.playerMu.Unlock()

	if ok && old.ticket == t {
		return
	}
	w.cm.AddTicket(t)
	if ok {
		w.cm.RemoveTicket(old.ticket)
	}
}

// RemovePlayer withdraws the ticket of the player with the UUID passed.
func (w *World) RemovePlayer(id uuid.UUID) {
	w.playerMu.Lock()
	old, ok := w.players[id]
	delete(w.players, id)
	w.playerMu.Unlock()
	if ok {
		w.cm.RemoveTicket(old.ticket)
	}
}

// SetSpawn reserves the chunks around the world spawn passed, keeping them
// loaded regardless of players. The radius is measured in chunks.
func (w *World) SetSpawn(pos mgl64.Vec3, radius int32) {
	level := FullStatusLevel - int(radius)
	if level < 0 {
		level = 0
	}
	t := Ticket{Type: TicketSpawn, Level: level, Pos: chunkPosFromVec3(pos)}

	w.playerMu.Lock()
	old := w.spawn
	w.spawn = &t
	w.playerMu.Unlock()

	w.cm.AddTicket(t)
	if old != nil {
		w.cm.RemoveTicket(*old)
	}
}

// ChunkStatus returns the status the chunk at the position passed has
// reached. The second return value is false if the chunk is not loaded or no
// pipeline step has completed for it yet. Callers use this to decide if a
// chunk is safe to send to clients or to tick.
func (w *World) ChunkStatus(pos ChunkPos) (ChunkStatus, bool) {
	return w.cm.Status(pos)
}

// Level returns the current urgency level of the chunk position passed.
func (w *World) Level(pos ChunkPos) int {
	return w.cm.Level(pos)
}

// LoadedChunkCount returns the number of chunks currently held in memory.
func (w *World) LoadedChunkCount() int {
	return w.cm.HolderCount()
}

// Advance runs the evaluation loop once, outside the regular tick cadence.
// It returns the number of pipeline steps completed. Callers generally rely
// on the tick loop instead; Advance exists for tools that load terrain in
// bulk and for tests.
func (w *World) Advance() int {
	return w.cm.Advance()
}

// TPS returns the current average ticks per second of the world, sampled
// over the recent tick history. It is zero until enough samples exist.
func (w *World) TPS() float64 {
	return math.Float64frombits(w.tps.Load())
}

// Save persists every chunk holding modified data.
func (w *World) Save() {
	w.cm.SaveAll()
}

// Close stops the world's loops, persists all modified chunks and closes the
// provider. It blocks until in-flight pipeline steps have completed.
func (w *World) Close() error {
	w.o.Do(func() {
		close(w.closing)
		w.running.Wait()
		w.cm.Close()
		w.cm.SaveAll()
	})
	return w.conf.Provider.Close()
}
