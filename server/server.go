// Package server ties the world, its storage and its ticket sources together
// into a runnable server.
package server

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/vastland/vastland/server/block"
	"github.com/vastland/vastland/server/world"
)

// Server runs a single world and the ticket sources that decide which of its
// chunks stay loaded.
type Server struct {
	conf   Config
	world  *world.World
	forced *world.ForcedChunks

	once sync.Once
}

// New creates a Server using the config passed, starting its world. The
// world's spawn area and the persisted forced chunk list are registered as
// ticket sources immediately.
func (conf Config) New() (*Server, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	w := world.Config{
		Log:          conf.Log,
		Provider:     conf.WorldProvider,
		Generator:    conf.Generator,
		StageWorkers: conf.StageWorkers,
		LightWorkers: conf.LightWorkers,
		SaveInterval: conf.SaveInterval,
		Air:          block.Air,
	}.New()

	srv := &Server{conf: conf, world: w}
	if conf.SpawnRadius > 0 {
		w.SetSpawn(mgl64.Vec3{}, conf.SpawnRadius)
	}
	if conf.ForcedChunksFile != "" {
		forced, err := world.LoadForcedChunks(conf.ForcedChunksFile, w)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("load forced chunks: %w", err)
		}
		srv.forced = forced
	}
	conf.Log.Info("Server started.", "name", conf.Name)
	return srv, nil
}

// World returns the world the server runs.
func (srv *Server) World() *world.World {
	return srv.world
}

// ForcedChunks returns the persisted forced chunk list, or nil if none is
// configured.
func (srv *Server) ForcedChunks() *world.ForcedChunks {
	return srv.forced
}

// CloseOnProgramEnd closes the server right before the program ends, so that
// all world data is saved.
func (srv *Server) CloseOnProgramEnd() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		if err := srv.Close(); err != nil {
			srv.conf.Log.Error("close server: " + err.Error())
		}
		os.Exit(0)
	}()
}

// Close shuts the server down, persisting the world and closing its storage.
func (srv *Server) Close() error {
	var err error
	srv.once.Do(func() {
		srv.conf.Log.Info("Server closing...")
		err = srv.world.Close()
		srv.conf.Log.Info("Server closed.")
	})
	return err
}
