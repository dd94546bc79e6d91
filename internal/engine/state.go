package engine

// Ctx is the framework-owned turn context. The engine maintains it across
// transitions; integrator code receives it read-only.
type Ctx struct {
	// Turn counts completed end-of-turn signals, starting at 0.
	Turn int `json:"turn"`

	// CurrentPlayer is the string-encoded index of the player to act,
	// always in [0, NumPlayers).
	CurrentPlayer string `json:"currentPlayer"`

	// NumPlayers is fixed for the lifetime of a game.
	NumPlayers int `json:"numPlayers"`

	// Winner is empty until the victory condition fires. Once set it stays
	// set; a victory function that later reports no winner cannot clear it.
	Winner string `json:"winner,omitempty"`
}

// HasWinner reports whether the game has ended. The engine keeps accepting
// actions regardless; halting further dispatch is the host's job.
func (c Ctx) HasWinner() bool {
	return c.Winner != ""
}

// State is the full snapshot of one game at one point in time.
//
// States are values: every transition returns a fresh State derived from its
// input without mutating it. The Log backing array is never written in
// place, so derived states can share it safely.
type State[G any] struct {
	// G is the integrator-owned game payload. The engine copies and
	// forwards it but never inspects it.
	G G `json:"g"`

	// Ctx is the turn/player/winner bookkeeping.
	Ctx Ctx `json:"ctx"`

	// Log records every accepted action in application order. It is
	// append-only and never truncated; together with the initial snapshot
	// it supports full replay.
	Log []Action `json:"-"`

	// StateID increments by exactly one on every accepted state-mutating
	// action. Remote clients compare it against their local copy to detect
	// staleness.
	StateID int64 `json:"stateId"`

	initial *State[G]
}

// Initial returns the deep snapshot captured immediately after
// initialization, before any actions were applied. ok is false on a zero
// State that never went through Initialize.
func (s State[G]) Initial() (State[G], bool) {
	if s.initial == nil {
		var zero State[G]
		return zero, false
	}
	return *s.initial, true
}
