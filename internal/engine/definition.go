package engine

import (
	"encoding/json"
	"fmt"
)

// DefaultNumPlayers is used when Initialize is given a non-positive count.
const DefaultNumPlayers = 2

// Definition is the pluggable game supplied by the integrator. Only Setup,
// Apply and Victory carry game semantics; the rest are optional hooks with
// engine-provided defaults.
//
// The engine works on its own augmented copy of the Definition, so a nil
// field is filled in without the caller's value ever being touched.
type Definition[G any] struct {
	// Name identifies the game to hosts and registries.
	Name string

	// Moves declares the move names the game responds to. The dispatcher
	// factory builds one entry point per name; the engine itself does not
	// check incoming moves against this list.
	Moves []string

	// Setup produces the initial game payload. Defaults to the zero value
	// of G.
	Setup func(numPlayers int) G

	// Apply maps (payload, move, ctx) to the next payload. It owns all
	// legality decisions; the engine imposes none. Defaults to identity.
	Apply func(g G, move MakeMove, ctx Ctx) G

	// Victory inspects the payload after each completed turn and returns
	// the winning player's identifier, or "" while the game is still live.
	// Defaults to a game that never ends.
	Victory func(g G, ctx Ctx) string

	// Flow is the ctx-only reducer invoked on EndTurn. Defaults to
	// DefaultFlow over Victory: fixed round-robin, unconditional turn
	// increment, sticky winner.
	Flow func(ctx Ctx, action Action, g G) Ctx

	// Clone deep-copies a payload for snapshotting. Defaults to a JSON
	// round trip, which requires G to be JSON-serializable; payloads
	// holding functions, channels or cycles must supply their own Clone.
	Clone func(g G) G
}

// withDefaults returns an independent copy of def with every nil hook
// replaced by its default. The caller's definition is left untouched.
func (def Definition[G]) withDefaults() Definition[G] {
	d := def
	if d.Setup == nil {
		d.Setup = func(int) G {
			var zero G
			return zero
		}
	}
	if d.Apply == nil {
		d.Apply = func(g G, _ MakeMove, _ Ctx) G { return g }
	}
	if d.Victory == nil {
		d.Victory = func(G, Ctx) string { return "" }
	}
	if d.Flow == nil {
		d.Flow = DefaultFlow(d.Victory)
	}
	if d.Clone == nil {
		d.Clone = cloneJSON[G]
	}
	return d
}

// cloneJSON deep-copies a payload by serializing and re-parsing it. Payloads
// that cannot round-trip through JSON violate the documented Definition
// contract, so failure here is a programmer error.
func cloneJSON[G any](g G) G {
	data, err := json.Marshal(g)
	if err != nil {
		panic(fmt.Sprintf("engine: payload is not clonable: %v", err))
	}
	var out G
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("engine: payload is not clonable: %v", err))
	}
	return out
}
