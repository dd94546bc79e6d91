package engine

// Engine is the pure reducer for one game definition. It is stateless and
// safe to share across independent game instances.
type Engine[G any] struct {
	def Definition[G]
}

// New builds an engine around an augmented copy of def. Missing hooks are
// filled with defaults on the copy; the caller's definition is never
// modified, so a definition shared between hosts stays stable.
func New[G any](def Definition[G]) *Engine[G] {
	return &Engine[G]{def: def.withDefaults()}
}

// Definition returns the augmented definition the engine runs with.
func (e *Engine[G]) Definition() Definition[G] {
	return e.def
}

// Initialize builds the initial state for a game of numPlayers players.
// A non-positive count defaults to DefaultNumPlayers.
//
// The returned state carries a deep snapshot of itself, captured before any
// actions, as the base for later replay.
func (e *Engine[G]) Initialize(numPlayers int) State[G] {
	if numPlayers <= 0 {
		numPlayers = DefaultNumPlayers
	}

	s := State[G]{
		G: e.def.Setup(numPlayers),
		Ctx: Ctx{
			Turn:          0,
			CurrentPlayer: "0",
			NumPlayers:    numPlayers,
		},
		Log:     []Action{},
		StateID: 0,
	}

	snap := s
	snap.G = e.def.Clone(s.G)
	snap.Log = []Action{}
	s.initial = &snap

	return s
}

// Rehydrate rebuilds a fresh state from a previously captured payload and
// context, as the base for replaying a recorded action log. Like Initialize
// it starts the log and sequence number at zero and captures the initial
// snapshot.
func (e *Engine[G]) Rehydrate(g G, ctx Ctx) State[G] {
	s := State[G]{
		G:       g,
		Ctx:     ctx,
		Log:     []Action{},
		StateID: 0,
	}

	snap := s
	snap.G = e.def.Clone(g)
	snap.Log = []Action{}
	s.initial = &snap

	return s
}

// Transition maps (state, action) to the next state. It is total: expected
// inputs never fail, and unrecognized actions return the state unchanged.
//
//   - MakeMove: Apply rewrites the payload, the action is logged, the
//     sequence number increments. Ctx is untouched.
//   - EndTurn: the flow reducer rewrites Ctx, the action is logged, the
//     sequence number increments. The payload is untouched.
//   - Restore: the carried snapshot replaces the state verbatim, with no
//     log append and no sequence increment.
func (e *Engine[G]) Transition(s State[G], a Action) State[G] {
	switch act := a.(type) {
	case MakeMove:
		next := s
		next.G = e.def.Apply(s.G, act, s.Ctx)
		next.Log = appendLog(s.Log, a)
		next.StateID = s.StateID + 1
		return next
	case EndTurn:
		next := s
		next.Ctx = e.def.Flow(s.Ctx, a, s.G)
		next.Log = appendLog(s.Log, a)
		next.StateID = s.StateID + 1
		return next
	case Restore[G]:
		return act.State
	default:
		return s
	}
}

// appendLog appends without aliasing: the full slice expression caps the
// input so sibling states derived from the same parent never clobber each
// other's log tails.
func appendLog(log []Action, a Action) []Action {
	return append(log[:len(log):len(log)], a)
}
