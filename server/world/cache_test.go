package world

import (
	"testing"
)

func TestStaticCache2DWindow(t *testing.T) {
	holders := map[ChunkPos]*ChunkHolder{}
	for dx := int32(-2); dx <= 2; dx++ {
		for dz := int32(-2); dz <= 2; dz++ {
			pos := ChunkPos{10 + dx, -4 + dz}
			holders[pos] = newChunkHolder(pos, 0)
		}
	}
	// One position inside the window has no holder.
	delete(holders, ChunkPos{9, -5})

	lookups := 0
	cache := newStaticCache2D(ChunkPos{10, -4}, 2, func(pos ChunkPos) *ChunkHolder {
		lookups++
		return holders[pos]
	})
	if lookups != 25 {
		t.Fatalf("expected 25 lookups during construction, got %d", lookups)
	}

	h, ok := cache.Get(ChunkPos{12, -2})
	if !ok || h == nil || h.Pos() != (ChunkPos{12, -2}) {
		t.Fatalf("expected holder at corner of window, got %v (ok=%v)", h, ok)
	}
	if _, ok := cache.Get(ChunkPos{9, -5}); ok {
		t.Fatal("expected absence for position without holder")
	}
	if _, ok := cache.Get(ChunkPos{13, -4}); ok {
		t.Fatal("expected absence outside the window")
	}
	if lookups != 25 {
		t.Fatalf("Get must not call the lookup, got %d calls", lookups)
	}
}

func TestStaticCache2DZeroRadius(t *testing.T) {
	centre := newChunkHolder(ChunkPos{3, 3}, 0)
	cache := newStaticCache2D(ChunkPos{3, 3}, 0, func(pos ChunkPos) *ChunkHolder {
		if pos == (ChunkPos{3, 3}) {
			return centre
		}
		return nil
	})
	if h, ok := cache.Get(ChunkPos{3, 3}); !ok || h != centre {
		t.Fatalf("expected the centre holder, got %v (ok=%v)", h, ok)
	}
	if _, ok := cache.Get(ChunkPos{4, 3}); ok {
		t.Fatal("expected absence outside a zero radius window")
	}
}
