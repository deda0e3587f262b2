// Package mcdb implements a world.Provider backed by a leveldb database.
// Chunk payloads are compressed with zstd before they are written.
package mcdb

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/klauspost/compress/zstd"
	"github.com/vastland/vastland/server/world"
	"github.com/vastland/vastland/server/world/chunk"
)

// Config holds the options for opening a DB. The zero value is usable.
type Config struct {
	// Log is the Logger used for database-related messages. If nil, Log is
	// set to slog.Default().
	Log *slog.Logger
	// Compression is the zstd encoder level used for chunk payloads. The
	// zero value selects zstd.SpeedDefault.
	Compression zstd.EncoderLevel
	// LDBOptions are extra options passed to the leveldb database.
	LDBOptions *opt.Options
}

// Open opens the database under the directory passed, creating it if it does
// not exist yet.
func (conf Config) Open(dir string) (*DB, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Compression == 0 {
		conf.Compression = zstd.SpeedDefault
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, fmt.Errorf("open db: create directory: %w", err)
	}
	ldb, err := leveldb.OpenFile(dir, conf.LDBOptions)
	if err != nil {
		return nil, fmt.Errorf("open db: leveldb: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(conf.Compression))
	if err != nil {
		return nil, fmt.Errorf("open db: create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("open db: create zstd decoder: %w", err)
	}
	return &DB{conf: conf, ldb: ldb, enc: enc, dec: dec}, nil
}

// Open opens the database under dir with default options.
func Open(dir string) (*DB, error) {
	return Config{}.Open(dir)
}

// DB is a world.Provider that stores chunks in a leveldb database. It is safe
// for concurrent use.
type DB struct {
	conf Config
	ldb  *leveldb.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// chunkVersion is bumped whenever the stored chunk record layout changes.
const chunkVersion = 1

// chunkKey returns the database key of the chunk at the position passed.
func chunkKey(pos world.ChunkPos) []byte {
	k := make([]byte, 9)
	k[0] = 'c'
	binary.LittleEndian.PutUint32(k[1:], uint32(pos[0]))
	binary.LittleEndian.PutUint32(k[5:], uint32(pos[1]))
	return k
}

// LoadColumn reads the chunk at the position passed from the database.
// leveldb.ErrNotFound is returned if the chunk was never stored.
func (db *DB) LoadColumn(pos world.ChunkPos) (*chunk.Chunk, world.ChunkStatus, error) {
	data, err := db.ldb.Get(chunkKey(pos), nil)
	if err != nil {
		return nil, 0, err
	}
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("load chunk %v: record too short (%v bytes)", pos, len(data))
	}
	if data[0] != chunkVersion {
		return nil, 0, fmt.Errorf("load chunk %v: unsupported record version %v", pos, data[0])
	}
	status := world.ChunkStatus(data[1])
	if int(status) >= world.StatusCount {
		return nil, 0, fmt.Errorf("load chunk %v: unknown status %v", pos, data[1])
	}
	payload, err := db.dec.DecodeAll(data[2:], nil)
	if err != nil {
		return nil, 0, fmt.Errorf("load chunk %v: decompress: %w", pos, err)
	}
	c, err := chunk.Decode(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("load chunk %v: %w", pos, err)
	}
	return c, status, nil
}

// StoreColumn writes the chunk at the position passed to the database along
// with the status it reached.
func (db *DB) StoreColumn(pos world.ChunkPos, status world.ChunkStatus, c *chunk.Chunk) error {
	payload := chunk.Encode(c)
	data := make([]byte, 2, 2+len(payload))
	data[0] = chunkVersion
	data[1] = byte(status)
	data = db.enc.EncodeAll(payload, data)
	if err := db.ldb.Put(chunkKey(pos), data, nil); err != nil {
		return fmt.Errorf("store chunk %v: %w", pos, err)
	}
	return nil
}

// Close flushes the compressors and closes the underlying database.
func (db *DB) Close() error {
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		return fmt.Errorf("close db: zstd encoder: %w", err)
	}
	if err := db.ldb.Close(); err != nil {
		return fmt.Errorf("close db: leveldb: %w", err)
	}
	return nil
}

var _ world.Provider = (*DB)(nil)
