package world

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pelletier/go-toml"
)

// ErrForcedChunksUnavailable is returned when no forced chunk list is configured.
var ErrForcedChunksUnavailable = errors.New("forced chunks are not configured")

// forcedTicketLevel is the urgency level of forced chunk tickets. It matches
// the level of player tickets at view distance 2, so forced chunks and the
// ring directly around them reach full status.
const forcedTicketLevel = FullStatusLevel - 2

// ForcedChunks keeps a set of chunk positions loaded regardless of players.
// Entries are persisted in a TOML file and registered as tickets on the
// world, surviving restarts.
type ForcedChunks struct {
	mu       sync.RWMutex
	w        *World
	chunks   map[ChunkPos]struct{}
	filePath string
}

type forcedChunksFile struct {
	Chunks []forcedChunkEntry `toml:"chunks"`
}

type forcedChunkEntry struct {
	X int32 `toml:"x"`
	Z int32 `toml:"z"`
}

// LoadForcedChunks loads the forced chunk list stored in the file at the
// provided path and registers a ticket on the world for every entry. If the
// file does not exist yet, it will be created with an empty chunk list.
func LoadForcedChunks(path string, w *World) (*ForcedChunks, error) {
	if path == "" {
		return nil, errors.New("forced chunks path must not be empty")
	}
	f := &ForcedChunks{
		w:        w,
		chunks:   make(map[ChunkPos]struct{}),
		filePath: path,
	}
	if err := f.reloadFromDisk(); err != nil {
		return nil, err
	}
	for pos := range f.chunks {
		w.AddTicket(Ticket{Type: TicketForced, Level: forcedTicketLevel, Pos: pos})
	}
	return f, nil
}

// Add inserts the provided chunk position into the forced list and registers
// its ticket. The returned bool indicates if the position was newly added.
func (f *ForcedChunks) Add(pos ChunkPos) (bool, error) {
	if f == nil {
		return false, ErrForcedChunksUnavailable
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.chunks[pos]; exists {
		return false, nil
	}
	f.chunks[pos] = struct{}{}
	if err := f.writeLocked(); err != nil {
		delete(f.chunks, pos)
		return false, err
	}
	f.w.AddTicket(Ticket{Type: TicketForced, Level: forcedTicketLevel, Pos: pos})
	return true, nil
}

// Remove deletes the provided chunk position from the forced list and
// withdraws its ticket. The returned bool indicates if the position was
// present before the call.
func (f *ForcedChunks) Remove(pos ChunkPos) (bool, error) {
	if f == nil {
		return false, ErrForcedChunksUnavailable
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.chunks[pos]; !exists {
		return false, nil
	}
	delete(f.chunks, pos)
	if err := f.writeLocked(); err != nil {
		f.chunks[pos] = struct{}{}
		return false, err
	}
	f.w.RemoveTicket(Ticket{Type: TicketForced, Level: forcedTicketLevel, Pos: pos})
	return true, nil
}

// Positions returns the forced chunk positions in a deterministic sorted
// order.
func (f *ForcedChunks) Positions() []ChunkPos {
	if f == nil {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sortedLocked()
}

func (f *ForcedChunks) reloadFromDisk() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := forcedChunksFile{}
	contents, err := os.ReadFile(f.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.chunks = make(map[ChunkPos]struct{})
			return f.writeLocked()
		}
		return fmt.Errorf("read forced chunks: %w", err)
	}
	if len(contents) != 0 {
		if err := toml.Unmarshal(contents, &data); err != nil {
			return fmt.Errorf("decode forced chunks: %w", err)
		}
	}
	f.chunks = make(map[ChunkPos]struct{}, len(data.Chunks))
	for _, e := range data.Chunks {
		f.chunks[ChunkPos{e.X, e.Z}] = struct{}{}
	}
	return nil
}

func (f *ForcedChunks) writeLocked() error {
	dir := filepath.Dir(f.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create forced chunks directory: %w", err)
		}
	}
	entries := make([]forcedChunkEntry, 0, len(f.chunks))
	for _, pos := range f.sortedLocked() {
		entries = append(entries, forcedChunkEntry{X: pos[0], Z: pos[1]})
	}
	encoded, err := toml.Marshal(forcedChunksFile{Chunks: entries})
	if err != nil {
		return fmt.Errorf("encode forced chunks: %w", err)
	}
	if err := os.WriteFile(f.filePath, encoded, 0644); err != nil {
		return fmt.Errorf("write forced chunks: %w", err)
	}
	return nil
}

func (f *ForcedChunks) sortedLocked() []ChunkPos {
	positions := make([]ChunkPos, 0, len(f.chunks))
	for pos := range f.chunks {
		positions = append(positions, pos)
	}
	slices.SortFunc(positions, func(a, b ChunkPos) int {
		if a[0] != b[0] {
			return int(a[0]) - int(b[0])
		}
		return int(a[1]) - int(b[1])
	})
	return positions
}
