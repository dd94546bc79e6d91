// Package tictactoe is a complete game definition used as the reference
// integration of the engine: a 3x3 board, one "mark" move, victory on any
// completed line.
package tictactoe

import (
	"encoding/json"
	rand "math/rand/v2"

	"github.com/turnwise/turnwise/internal/engine"
	"github.com/turnwise/turnwise/internal/games"
)

// Board is the game payload. Cells hold the marking player's index string
// ("0" or "1"), or "" while free.
type Board struct {
	Cells [9]string `json:"cells"`
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// Game returns the hostable tictactoe entry.
func Game() games.Game {
	return games.Game{Def: Definition(), MinPlayers: 2, MaxPlayers: 2}
}

// Definition builds the engine definition. The payload is type-erased to
// any for hosting; a custom Clone keeps it a Board across snapshots instead
// of decaying to a generic map through the JSON default.
func Definition() engine.Definition[any] {
	return engine.Definition[any]{
		Name:  "tictactoe",
		Moves: []string{"mark"},
		Setup: func(numPlayers int) any {
			return Board{}
		},
		Apply: apply,
		Victory: func(g any, ctx engine.Ctx) string {
			return winner(board(g))
		},
		Clone: func(g any) any {
			return board(g) // value copy, Cells is an array
		},
	}
}

func apply(g any, move engine.MakeMove, ctx engine.Ctx) any {
	b := board(g)
	if move.Name != "mark" || len(move.Args) != 1 {
		return g
	}
	cell, ok := cellIndex(move.Args[0])
	if !ok || cell < 0 || cell >= len(b.Cells) || b.Cells[cell] != "" {
		return g
	}
	b.Cells[cell] = ctx.CurrentPlayer
	return b
}

func winner(b Board) string {
	for _, line := range lines {
		mark := b.Cells[line[0]]
		if mark != "" && mark == b.Cells[line[1]] && mark == b.Cells[line[2]] {
			return mark
		}
	}
	return ""
}

// Full reports whether every cell is marked. A full board without a winner
// is a draw; the engine has no draw notion, so hosts decide what to do.
func Full(b Board) bool {
	for _, c := range b.Cells {
		if c == "" {
			return false
		}
	}
	return true
}

// Auto picks a random free cell for scripted play. ok is false when the
// board is full or already won.
func Auto(g any, rng *rand.Rand) (move engine.MakeMove, ok bool) {
	b := board(g)
	if winner(b) != "" {
		return engine.MakeMove{}, false
	}
	var free []int
	for i, c := range b.Cells {
		if c == "" {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return engine.MakeMove{}, false
	}
	cell := free[rng.IntN(len(free))]
	return engine.MakeMove{Name: "mark", Args: []any{cell}}, true
}

// board normalizes the erased payload back to a Board. Payloads that went
// through JSON (a restored snapshot from the wire) arrive as a generic map
// and are re-decoded.
func board(g any) Board {
	switch v := g.(type) {
	case Board:
		return v
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return Board{}
		}
		var b Board
		if err := json.Unmarshal(data, &b); err != nil {
			return Board{}
		}
		return b
	default:
		return Board{}
	}
}

// cellIndex accepts the native int of in-process callers and the float64
// that JSON-decoded move arguments arrive as.
func cellIndex(arg any) (int, bool) {
	switch v := arg.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
