// Package engine implements the state-transition core of a turn-based
// multiplayer game. Given an immutable prior state and an action, it
// produces the next immutable state.
//
// The main types are State, which bundles the integrator-owned game payload
// with framework turn bookkeeping and an append-only action log, and Engine,
// a pure reducer over (State, Action) pairs.
//
// # Basic Usage
//
// Supply a Definition and feed actions through the engine:
//
//	eng := engine.New(engine.Definition[Counter]{
//	    Setup:   func(n int) Counter { return Counter{} },
//	    Apply:   applyMove,
//	    Victory: checkWinner,
//	})
//	s := eng.Initialize(2)
//	s = eng.Transition(s, engine.MakeMove{Name: "increment"})
//	s = eng.Transition(s, engine.EndTurn{})
//
// Every transition yields a fresh State value; the input is never mutated,
// so any previously held State remains valid and can be replayed or
// restored at will.
//
// # Purity and Hosting
//
// The engine performs no I/O and holds no locks. It assumes exactly one
// in-flight transition per state lineage; hosts that accept actions from
// multiple sources must serialize them (see the match package). Faults
// raised by integrator-supplied Setup/Apply/Victory/Flow functions
// propagate to the caller unhandled.
package engine
