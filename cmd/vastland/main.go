// Command vastland runs a world server: it keeps the chunks demanded by its
// ticket sources generated and loaded until interrupted.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/vastland/vastland/server"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	conf, err := readConfig(log)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	srv, err := conf.New()
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	srv.CloseOnProgramEnd()
	select {}
}

// readConfig reads the configuration from the config.toml file, or creates
// the file if it does not yet exist.
func readConfig(log *slog.Logger) (server.Config, error) {
	c := server.DefaultConfig()
	var zero server.Config
	if _, err := os.Stat("config.toml"); os.IsNotExist(err) {
		data, err := toml.Marshal(c)
		if err != nil {
			return zero, fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile("config.toml", data, 0644); err != nil {
			return zero, fmt.Errorf("create default config: %w", err)
		}
		return c.Config(log)
	}
	data, err := os.ReadFile("config.toml")
	if err != nil {
		return zero, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return zero, fmt.Errorf("decode config: %w", err)
	}
	return c.Config(log)
}
