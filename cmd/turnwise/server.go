package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turnwise/turnwise/cmd/turnwise/shared"
	"github.com/turnwise/turnwise/internal/games"
	"github.com/turnwise/turnwise/internal/games/tictactoe"
	"github.com/turnwise/turnwise/internal/history"
	"github.com/turnwise/turnwise/internal/match"
	"github.com/turnwise/turnwise/internal/server"
)

// ServerCmd runs the WebSocket match host.
type ServerCmd struct {
	Config   string `short:"c" default:"turnwise.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Listen address (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.ListenAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel)

	registry := games.NewRegistry()
	registry.Register(tictactoe.Game())

	var managerOpts []match.ManagerOption
	if dir := cfg.Server.HistoryDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("history dir: %w", err)
		}
		managerOpts = append(managerOpts, match.WithRecorderFactory(
			func(matchID, game string) match.Recorder {
				path := filepath.Join(dir, matchID+".jsonl")
				return history.NewRecorder(path, matchID, game, history.WithLogger(logger))
			}))
	}
	manager := match.NewManager(logger, registry, managerOpts...)

	for _, gameCfg := range cfg.Games {
		if !gameCfg.AutoCreate {
			continue
		}
		if _, err := manager.Create(gameCfg.Name, gameCfg.Players); err != nil {
			logger.Error("Failed to auto-create match", "game", gameCfg.Name, "error", err)
		}
	}

	srv := server.NewServer(logger, registry, manager)

	logger.Info("Starting turnwise server",
		"addr", addr,
		"games", len(registry.List()),
		"history_dir", cfg.Server.HistoryDir,
		"max_idle", cfg.MaxIdle())

	ctx := shared.SetupSignalHandler(logger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if maxIdle := cfg.MaxIdle(); maxIdle > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n := manager.ExpireIdle(maxIdle); n > 0 {
						logger.Info("Expired idle matches", "count", n)
					}
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
