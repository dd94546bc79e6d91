package main

import (
	"context"
	"fmt"
	"time"

	"github.com/turnwise/turnwise/cmd/turnwise/shared"
	"github.com/turnwise/turnwise/internal/engine"
	"github.com/turnwise/turnwise/internal/games/tictactoe"
	"github.com/turnwise/turnwise/internal/history"
	"github.com/turnwise/turnwise/internal/match"
	"github.com/turnwise/turnwise/internal/randutil"
)

// SimulateCmd plays a full match locally with scripted players, which is
// handy for smoke-testing a game definition without a server.
type SimulateCmd struct {
	Seed    int64  `short:"s" default:"0" help:"Random seed (0 uses the current time)"`
	History string `short:"o" help:"Write the match history to this file"`
	Debug   bool   `short:"d" help:"Enable debug logging"`
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupDebugLogger(c.Debug)

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := randutil.New(seed)
	logger.Info("Simulating match", "game", "tictactoe", "seed", seed)

	opts := []match.Option{match.WithLogger(logger)}
	if c.History != "" {
		rec := history.NewRecorder(c.History, "simulated", "tictactoe", history.WithLogger(logger))
		opts = append(opts, match.WithRecorder(rec))
	}

	m, err := match.New("simulated", tictactoe.Game(), 0, opts...)
	if err != nil {
		return err
	}
	defer m.Stop()

	states, cancel := m.Subscribe()
	defer cancel()

	mark, ok := m.Mover("mark")
	if !ok {
		return fmt.Errorf("game does not declare a mark move")
	}

	ctx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()

	s := m.Snapshot()
	for !s.Ctx.HasWinner() {
		move, ok := tictactoe.Auto(s.G, rng)
		if !ok {
			logger.Info("Match drawn", "turn", s.Ctx.Turn)
			break
		}

		mark(move.Args...)
		s = <-states
		logger.Debug("Applied move",
			"player", s.Ctx.CurrentPlayer,
			"cell", move.Args[0],
			"state_id", s.StateID)

		if s.Ctx.HasWinner() {
			break
		}
		if err := m.Submit(ctx, s.StateID, engine.EndTurn{}); err != nil {
			return err
		}
		s = <-states
	}

	fmt.Println(renderBoard(s.G))
	if s.Ctx.HasWinner() {
		logger.Info("Match finished", "winner", s.Ctx.Winner, "turns", s.Ctx.Turn, "state_id", s.StateID)
	}
	if c.History != "" {
		logger.Info("History written", "path", c.History)
	}
	return nil
}

func renderBoard(g any) string {
	b, ok := g.(tictactoe.Board)
	if !ok {
		return fmt.Sprintf("%v", g)
	}

	out := ""
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			cell := b.Cells[row*3+col]
			if cell == "" {
				cell = "."
			}
			out += " " + cell
		}
		out += "\n"
	}
	return out
}
