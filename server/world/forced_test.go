package world

import (
	"os"
	"path/filepath"
	"testing"
)

func TestForcedChunksPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forced_chunks.toml")
	w := newTestWorld(t, nil)

	f, err := LoadForcedChunks(path, w)
	if err != nil {
		t.Fatalf("load forced chunks: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected the file to be created: %v", err)
	}

	added, err := f.Add(ChunkPos{3, -2})
	if err != nil || !added {
		t.Fatalf("expected a new entry to be added, got added=%v err=%v", added, err)
	}
	if added, _ := f.Add(ChunkPos{3, -2}); added {
		t.Fatal("expected duplicate add to report false")
	}
	if got := w.Level(ChunkPos{3, -2}); got != forcedTicketLevel {
		t.Fatalf("expected level %d at the forced chunk, got %d", forcedTicketLevel, got)
	}

	// A second list loaded from the same file re-registers the tickets.
	w2 := newTestWorld(t, nil)
	f2, err := LoadForcedChunks(path, w2)
	if err != nil {
		t.Fatalf("reload forced chunks: %v", err)
	}
	positions := f2.Positions()
	if len(positions) != 1 || positions[0] != (ChunkPos{3, -2}) {
		t.Fatalf("expected persisted position to survive reload, got %v", positions)
	}
	if got := w2.Level(ChunkPos{3, -2}); got != forcedTicketLevel {
		t.Fatalf("expected level %d after reload, got %d", forcedTicketLevel, got)
	}
}

func TestForcedChunksRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forced_chunks.toml")
	w := newTestWorld(t, nil)

	f, err := LoadForcedChunks(path, w)
	if err != nil {
		t.Fatalf("load forced chunks: %v", err)
	}
	if _, err := f.Add(ChunkPos{1, 1}); err != nil {
		t.Fatalf("add forced chunk: %v", err)
	}

	removed, err := f.Remove(ChunkPos{1, 1})
	if err != nil || !removed {
		t.Fatalf("expected the entry to be removed, got removed=%v err=%v", removed, err)
	}
	if removed, _ := f.Remove(ChunkPos{1, 1}); removed {
		t.Fatal("expected removing a missing entry to report false")
	}
	if got := w.Level(ChunkPos{1, 1}); got <= FullStatusLevel {
		t.Fatalf("expected the forced ticket withdrawn, level %d", got)
	}
	if len(f.Positions()) != 0 {
		t.Fatalf("expected no positions left, got %v", f.Positions())
	}
}

func TestForcedChunksSortedPositions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forced_chunks.toml")
	w := newTestWorld(t, nil)

	f, err := LoadForcedChunks(path, w)
	if err != nil {
		t.Fatalf("load forced chunks: %v", err)
	}
	for _, pos := range []ChunkPos{{5, 0}, {-1, 9}, {5, -4}, {0, 0}} {
		if _, err := f.Add(pos); err != nil {
			t.Fatalf("add forced chunk %v: %v", pos, err)
		}
	}
	want := []ChunkPos{{-1, 9}, {0, 0}, {5, -4}, {5, 0}}
	got := f.Positions()
	if len(got) != len(want) {
		t.Fatalf("expected %d positions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
