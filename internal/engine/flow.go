package engine

import "strconv"

// DefaultFlow builds the standard turn-flow reducer over a victory function.
// Invoked on EndTurn it advances play in a fixed round-robin over
// [0, NumPlayers), increments the turn counter unconditionally, and
// evaluates victory against the current payload. Any other action kind
// returns ctx unchanged; the flow reducer is ctx-scoped and oblivious to
// payload mutations.
//
// A winner is sticky: once set it is carried forward even if victory later
// reports no winner.
func DefaultFlow[G any](victory func(G, Ctx) string) func(Ctx, Action, G) Ctx {
	return func(ctx Ctx, action Action, g G) Ctx {
		if _, ok := action.(EndTurn); !ok {
			return ctx
		}

		winner := ctx.Winner
		if winner == "" {
			winner = victory(g, ctx)
		}

		next := ctx
		next.CurrentPlayer = nextPlayer(ctx.CurrentPlayer, ctx.NumPlayers)
		next.Turn = ctx.Turn + 1
		next.Winner = winner
		return next
	}
}

// nextPlayer advances the string-encoded player index modulo numPlayers.
func nextPlayer(current string, numPlayers int) string {
	if numPlayers <= 0 {
		return current
	}
	cur, err := strconv.Atoi(current)
	if err != nil {
		cur = 0
	}
	return strconv.Itoa((cur + 1) % numPlayers)
}
