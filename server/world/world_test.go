package world

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

func newTestWorld(t *testing.T, provider Provider) *World {
	t.Helper()
	w := Config{
		Log:          discardLogger(),
		Provider:     provider,
		StageWorkers: 4,
		LightWorkers: 2,
		// Keep the loops out of the way: tests drive Advance directly.
		TickInterval: time.Hour,
		SaveInterval: -1,
	}.New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Errorf("close world: %v", err)
		}
	})
	return w
}

func TestWorldMovePlayer(t *testing.T) {
	w := newTestWorld(t, nil)
	id := uuid.New()

	w.MovePlayer(id, mgl64.Vec3{8, 64, 8}, 2)
	if got, want := w.Level(ChunkPos{0, 0}), FullStatusLevel-2; got != want {
		t.Fatalf("expected level %d at the player chunk, got %d", want, got)
	}
	w.Advance()
	if s, ok := w.ChunkStatus(ChunkPos{0, 0}); !ok || s != StatusFull {
		t.Fatalf("expected full chunk under the player, got %v (ok=%v)", s, ok)
	}
	if s, ok := w.ChunkStatus(ChunkPos{2, 0}); !ok || s != StatusFull {
		t.Fatalf("expected full chunk within view distance, got %v (ok=%v)", s, ok)
	}

	// Crossing into another chunk moves the ticket with the player.
	w.MovePlayer(id, mgl64.Vec3{8 + 16, 64, 8}, 2)
	if got, want := w.Level(ChunkPos{1, 0}), FullStatusLevel-2; got != want {
		t.Fatalf("expected level %d at the new player chunk, got %d", want, got)
	}
	if got, want := w.Level(ChunkPos{0, 0}), FullStatusLevel-1; got != want {
		t.Fatalf("expected level %d at the old player chunk, got %d", want, got)
	}
}

func TestWorldMovePlayerWithinChunk(t *testing.T) {
	w := newTestWorld(t, nil)
	id := uuid.New()
	w.MovePlayer(id, mgl64.Vec3{1, 64, 1}, 4)
	before := w.Level(ChunkPos{0, 0})
	w.MovePlayer(id, mgl64.Vec3{14, 64, 14}, 4)
	if got := w.Level(ChunkPos{0, 0}); got != before {
		t.Fatalf("expected level unchanged for in-chunk movement, %d -> %d", before, got)
	}
}

func TestWorldRemovePlayer(t *testing.T) {
	w := newTestWorld(t, nil)
	id := uuid.New()
	w.MovePlayer(id, mgl64.Vec3{0, 64, 0}, 2)
	w.Advance()
	if w.LoadedChunkCount() == 0 {
		t.Fatal("expected loaded chunks around the player")
	}

	w.RemovePlayer(id)
	w.Advance()
	if got := w.LoadedChunkCount(); got != 0 {
		t.Fatalf("expected all chunks unloaded after the player left, %d remain", got)
	}
	// Removing an unknown player is a no-op.
	w.RemovePlayer(uuid.New())
}

func TestWorldSetSpawn(t *testing.T) {
	w := newTestWorld(t, nil)
	w.SetSpawn(mgl64.Vec3{100, 64, -200}, 3)
	pos := ChunkPos{6, -13}
	if got, want := w.Level(pos), FullStatusLevel-3; got != want {
		t.Fatalf("expected level %d at spawn, got %d", want, got)
	}

	// Moving the spawn withdraws the old reservation.
	w.SetSpawn(mgl64.Vec3{0, 64, 0}, 3)
	if got := w.Level(pos); got <= FullStatusLevel {
		t.Fatalf("expected old spawn reservation withdrawn, level still %d", got)
	}
	if got, want := w.Level(ChunkPos{0, 0}), FullStatusLevel-3; got != want {
		t.Fatalf("expected level %d at new spawn, got %d", want, got)
	}
}

func TestWorldCloseIdempotent(t *testing.T) {
	w := Config{
		Log:          discardLogger(),
		TickInterval: time.Hour,
		SaveInterval: -1,
	}.New()
	if err := w.Close(); err != nil {
		t.Fatalf("close world: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
