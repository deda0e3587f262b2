package mcdb

import (
	"errors"
	"testing"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/vastland/vastland/server/world"
	"github.com/vastland/vastland/server/world/chunk"
)

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func TestDBRoundtrip(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	pos := world.ChunkPos{-7, 12}
	c := chunk.New(0)
	c.SetBlock(1, 64, 1, 4)
	c.SetBiome(1, 1, 2)
	if err := db.StoreColumn(pos, world.StatusFeatures, c); err != nil {
		t.Fatalf("store chunk: %v", err)
	}

	loaded, status, err := db.LoadColumn(pos)
	if err != nil {
		t.Fatalf("load chunk: %v", err)
	}
	if status != world.StatusFeatures {
		t.Fatalf("expected status %v, got %v", world.StatusFeatures, status)
	}
	if got := loaded.Block(1, 64, 1); got != 4 {
		t.Fatalf("expected block 4, got %d", got)
	}
	if got := loaded.Biome(1, 1); got != 2 {
		t.Fatalf("expected biome 2, got %d", got)
	}
}

func TestDBMissingChunk(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	_, _, err := db.LoadColumn(world.ChunkPos{1, 1})
	if !errors.Is(err, leveldb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing chunk, got %v", err)
	}
}

func TestDBSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	pos := world.ChunkPos{3, 3}

	db := openTestDB(t, dir)
	c := chunk.New(0)
	c.SetBlock(0, 0, 0, 2)
	if err := db.StoreColumn(pos, world.StatusFull, c); err != nil {
		t.Fatalf("store chunk: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	db = openTestDB(t, dir)
	defer db.Close()
	loaded, status, err := db.LoadColumn(pos)
	if err != nil {
		t.Fatalf("load chunk after reopen: %v", err)
	}
	if status != world.StatusFull {
		t.Fatalf("expected status %v, got %v", world.StatusFull, status)
	}
	if got := loaded.Block(0, 0, 0); got != 2 {
		t.Fatalf("expected block 2, got %d", got)
	}
}

func TestDBOverwrite(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	defer db.Close()

	pos := world.ChunkPos{0, 0}
	c := chunk.New(0)
	if err := db.StoreColumn(pos, world.StatusNoise, c); err != nil {
		t.Fatalf("store chunk: %v", err)
	}
	c.SetBlock(5, 5, 5, 6)
	if err := db.StoreColumn(pos, world.StatusFull, c); err != nil {
		t.Fatalf("store chunk again: %v", err)
	}

	loaded, status, err := db.LoadColumn(pos)
	if err != nil {
		t.Fatalf("load chunk: %v", err)
	}
	if status != world.StatusFull {
		t.Fatalf("expected the later status, got %v", status)
	}
	if got := loaded.Block(5, 5, 5); got != 6 {
		t.Fatalf("expected the later chunk data, got %d", got)
	}
}
