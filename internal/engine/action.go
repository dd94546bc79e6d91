package engine

// Action is a discrete request to mutate game state. It is a closed variant
// type: the only implementations are MakeMove, EndTurn and Restore. Anything
// else reaching the engine is treated as unrecognized and absorbed as an
// identity transition.
type Action interface {
	isAction()
}

// MakeMove requests application of a named move with positional arguments.
// The engine forwards it verbatim to the definition's Apply function, which
// owns all legality and argument checking.
type MakeMove struct {
	Name string `json:"name"`
	Args []any  `json:"args,omitempty"`
}

// EndTurn signals the end of the current player's turn and triggers the
// turn-flow reducer.
type EndTurn struct{}

// Restore replaces the entire state wholesale with the carried snapshot,
// bypassing the log append and sequence increment. Used for time travel and
// resynchronization.
type Restore[G any] struct {
	State State[G]
}

func (MakeMove) isAction()   {}
func (EndTurn) isAction()    {}
func (Restore[G]) isAction() {}
