// Package game parses game command flags and starts the scene server runtime.
package game

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/lukeharby/wildspace/internal/app"
	entrypoint "github.com/lukeharby/wildspace/internal/platform/cmd"
)

// Config holds game command configuration.
type Config struct {
	Port         int    `env:"WILDSPACE_GAME_PORT" envDefault:"8082"`
	Addr         string `env:"WILDSPACE_GAME_ADDR"`
	DatabasePath string `env:"WILDSPACE_GAME_DB_PATH"`
	TokenSecret  string `env:"WILDSPACE_TOKEN_SECRET"`
	MaxConns     int    `env:"WILDSPACE_GAME_MAX_CONNS" envDefault:"256"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The game server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The game server listen address (overrides -port)")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "Path to the sqlite database file")
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "Maximum concurrent connections (0 for unlimited)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the scene server.
func Run(ctx context.Context, cfg Config) error {
	if cfg.TokenSecret == "" {
		return errors.New("WILDSPACE_TOKEN_SECRET is required")
	}
	addr := cfg.Addr
	if addr == "" {
		addr = fmt.Sprintf(":%d", cfg.Port)
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(ctx context.Context) error {
		return app.Run(ctx, app.Options{
			Addr:         addr,
			DatabasePath: cfg.DatabasePath,
			TokenSecret:  []byte(cfg.TokenSecret),
			MaxConns:     cfg.MaxConns,
		})
	})
}
