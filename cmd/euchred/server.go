package main

import (
	"context"
	"time"

	rand "math/rand/v2"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/euchred/cmd/euchred/shared"
	"github.com/lox/euchred/internal/randutil"
	"github.com/lox/euchred/internal/server"
	"github.com/lox/euchred/internal/store"
)

// ServerCmd contains core server configuration
type ServerCmd struct {
	Config string `kong:"short='c',default='euchred.hcl',help='Path to HCL configuration file'"`
	Addr   string `kong:"short='a',help='Server address to bind to (overrides config)'"`
	DB     string `kong:"help='Path to sqlite database (overrides config)'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed for the server (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.DB != "" {
		cfg.Server.DBPath = c.DB
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel, c.Debug)

	var rng *rand.Rand
	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("using deterministic seed", "seed", seed)
		rng = randutil.New(seed)
	} else {
		rng = randutil.NewCrypto()
	}

	st, err := store.Open(cfg.Server.DBPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	srv := server.New(cfg, st, quartz.NewReal(), rng, logger)
	if err := srv.Restore(); err != nil {
		return err
	}

	logger.Info("starting euchre server",
		"addr", cfg.Server.Address,
		"db", cfg.Server.DBPath,
		"target_score", cfg.Game.TargetScore,
		"room_ttl", cfg.RoomTTL())

	ctx := shared.SetupSignalHandler(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
