package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchersSubmitMakeMoves(t *testing.T) {
	t.Parallel()

	var got []Action
	sink := SinkFunc(func(a Action) { got = append(got, a) })

	movers := Dispatchers([]string{"draw", "discard"}, sink)
	require.Len(t, movers, 2)

	movers["draw"]()
	movers["discard"]("hearts", 7)

	require.Len(t, got, 2, "exactly one submission per call")
	assert.Equal(t, Action(MakeMove{Name: "draw"}), got[0])
	assert.Equal(t, Action(MakeMove{Name: "discard", Args: []any{"hearts", 7}}), got[1])
}

func TestDispatchersNoDeclaredMoves(t *testing.T) {
	t.Parallel()

	movers := Dispatchers(nil, SinkFunc(func(Action) {
		t.Fatal("nothing should be dispatched")
	}))
	assert.Empty(t, movers)
}

func TestDispatchersFeedEngine(t *testing.T) {
	t.Parallel()

	eng := New(scoreboardDefinition())
	s := eng.Initialize(2)

	// The sink plays host: it folds each submission into the state.
	sink := SinkFunc(func(a Action) { s = eng.Transition(s, a) })
	movers := Dispatchers(eng.Definition().Moves, sink)

	movers["add"](4)
	movers["add"](6)

	assert.Equal(t, 10, s.G.Score)
	assert.EqualValues(t, 2, s.StateID)
	assert.Len(t, s.Log, 2)
}
