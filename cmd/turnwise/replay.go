package main

import (
	"fmt"

	"github.com/turnwise/turnwise/cmd/turnwise/shared"
	"github.com/turnwise/turnwise/internal/games"
	"github.com/turnwise/turnwise/internal/games/tictactoe"
	"github.com/turnwise/turnwise/internal/history"
)

// ReplayCmd reconstructs a match state from a recorded history file.
type ReplayCmd struct {
	Path  string `arg:"" help:"History file to replay"`
	UpTo  int64  `short:"u" default:"-1" help:"Stop after this entry sequence (-1 replays everything)"`
	Debug bool   `short:"d" help:"Enable debug logging"`
}

func (c *ReplayCmd) Run() error {
	logger := shared.SetupDebugLogger(c.Debug)

	header, entries, err := history.Load(c.Path)
	if err != nil {
		return err
	}
	logger.Info("Loaded history",
		"match", header.MatchID,
		"game", header.Game,
		"players", header.NumPlayers,
		"entries", len(entries))

	registry := games.NewRegistry()
	registry.Register(tictactoe.Game())

	game, ok := registry.Get(header.Game)
	if !ok {
		return fmt.Errorf("unknown game %q in history", header.Game)
	}

	state, err := history.Replay(game.Def, header, entries, c.UpTo)
	if err != nil {
		return err
	}

	fmt.Println(renderBoard(state.G))
	logger.Info("Replayed match",
		"state_id", state.StateID,
		"turn", state.Ctx.Turn,
		"current_player", state.Ctx.CurrentPlayer,
		"winner", state.Ctx.Winner)
	return nil
}
