package engine

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scoreboard is a minimal integrator payload for tests.
type scoreboard struct {
	Score int      `json:"score"`
	Tags  []string `json:"tags,omitempty"`
}

func scoreboardDefinition() Definition[scoreboard] {
	return Definition[scoreboard]{
		Name:  "scoreboard",
		Moves: []string{"add"},
		Setup: func(numPlayers int) scoreboard {
			return scoreboard{Tags: []string{"fresh"}}
		},
		Apply: func(g scoreboard, move MakeMove, ctx Ctx) scoreboard {
			if move.Name == "add" && len(move.Args) == 1 {
				if n, ok := move.Args[0].(int); ok {
					g.Score += n
				}
			}
			return g
		},
		Victory: func(g scoreboard, ctx Ctx) string {
			if g.Score >= 10 {
				return "0"
			}
			return ""
		},
	}
}

func TestInitializeDefaults(t *testing.T) {
	t.Parallel()

	// Zero definition and zero player count: every hook defaulted.
	eng := New(Definition[map[string]any]{})
	s := eng.Initialize(0)

	assert.Equal(t, Ctx{Turn: 0, CurrentPlayer: "0", NumPlayers: 2}, s.Ctx)
	assert.EqualValues(t, 0, s.StateID)
	assert.Empty(t, s.Log)

	initial, ok := s.Initial()
	require.True(t, ok)
	assert.Equal(t, s.Ctx, initial.Ctx)
}

func TestInitializeCtx(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 3, 7} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			s := New(scoreboardDefinition()).Initialize(n)
			assert.Equal(t, Ctx{Turn: 0, CurrentPlayer: "0", NumPlayers: n}, s.Ctx)
			assert.EqualValues(t, 0, s.StateID)
			assert.Empty(t, s.Log)
		})
	}
}

func TestInitializeDoesNotMutateDefinition(t *testing.T) {
	t.Parallel()

	def := Definition[scoreboard]{Setup: scoreboardDefinition().Setup}
	eng := New(def)
	eng.Initialize(2)

	// The caller's copy stays bare; defaults live only on the engine's copy.
	assert.Nil(t, def.Flow)
	assert.Nil(t, def.Apply)
	assert.NotNil(t, eng.Definition().Flow)
}

func TestInitialSnapshotIndependence(t *testing.T) {
	t.Parallel()

	eng := New(scoreboardDefinition())
	s := eng.Initialize(2)

	s = eng.Transition(s, MakeMove{Name: "add", Args: []any{4}})
	s = eng.Transition(s, EndTurn{})
	s = eng.Transition(s, MakeMove{Name: "add", Args: []any{6}})
	require.Equal(t, 10, s.G.Score)

	initial, ok := s.Initial()
	require.True(t, ok)
	assert.Equal(t, 0, initial.G.Score)
	assert.Equal(t, []string{"fresh"}, initial.G.Tags)
	assert.Equal(t, Ctx{Turn: 0, CurrentPlayer: "0", NumPlayers: 2}, initial.Ctx)
	assert.EqualValues(t, 0, initial.StateID)
	assert.Empty(t, initial.Log)
}

func TestMakeMove(t *testing.T) {
	t.Parallel()

	eng := New(scoreboardDefinition())
	s := eng.Initialize(2)
	move := MakeMove{Name: "add", Args: []any{3}}

	next := eng.Transition(s, move)

	assert.Equal(t, s.StateID+1, next.StateID)
	require.Len(t, next.Log, len(s.Log)+1)
	assert.Equal(t, Action(move), next.Log[len(next.Log)-1])
	assert.Equal(t, s.Ctx, next.Ctx)
	assert.Equal(t, 3, next.G.Score)

	// The prior state is untouched.
	assert.EqualValues(t, 0, s.StateID)
	assert.Empty(t, s.Log)
	assert.Equal(t, 0, s.G.Score)
}

func TestSiblingStatesShareNoLogTail(t *testing.T) {
	t.Parallel()

	eng := New(scoreboardDefinition())
	base := eng.Initialize(2)
	base = eng.Transition(base, MakeMove{Name: "add", Args: []any{1}})

	left := eng.Transition(base, MakeMove{Name: "add", Args: []any{2}})
	right := eng.Transition(base, EndTurn{})

	require.Len(t, left.Log, 2)
	require.Len(t, right.Log, 2)
	assert.Equal(t, Action(MakeMove{Name: "add", Args: []any{2}}), left.Log[1])
	assert.Equal(t, Action(EndTurn{}), right.Log[1])
}

func TestRestoreReplacesWholesale(t *testing.T) {
	t.Parallel()

	eng := New(scoreboardDefinition())
	s := eng.Initialize(2)
	s = eng.Transition(s, MakeMove{Name: "add", Args: []any{5}})

	checkpoint := s
	s = eng.Transition(s, MakeMove{Name: "add", Args: []any{5}})
	s = eng.Transition(s, EndTurn{})
	require.EqualValues(t, 3, s.StateID)

	restored := eng.Transition(s, Restore[scoreboard]{State: checkpoint})

	// Verbatim replacement: no merge, no log append, no sequence bump.
	assert.Equal(t, checkpoint, restored)
	assert.EqualValues(t, 1, restored.StateID)
	assert.Len(t, restored.Log, 1)
}

// rogueAction stands in for an action kind the engine does not know.
type rogueAction struct{}

func (rogueAction) isAction() {}

func TestUnknownActionIsIdentity(t *testing.T) {
	t.Parallel()

	eng := New(scoreboardDefinition())
	s := eng.Initialize(2)
	s = eng.Transition(s, MakeMove{Name: "add", Args: []any{5}})

	next := eng.Transition(s, rogueAction{})
	assert.Equal(t, s, next)
}

func TestEndTurnDefaultDefinition(t *testing.T) {
	t.Parallel()

	eng := New(Definition[map[string]any]{})
	s := eng.Initialize(2)

	s = eng.Transition(s, EndTurn{})

	assert.Equal(t, Ctx{Turn: 1, CurrentPlayer: "1", NumPlayers: 2}, s.Ctx)
	assert.EqualValues(t, 1, s.StateID)
	assert.Len(t, s.Log, 1)
}

func TestVictoryAtScoreThreshold(t *testing.T) {
	t.Parallel()

	eng := New(scoreboardDefinition())
	s := eng.Initialize(2)

	s = eng.Transition(s, MakeMove{Name: "add", Args: []any{10}})
	require.Equal(t, 10, s.G.Score)
	assert.False(t, s.Ctx.HasWinner(), "winner is only evaluated at end of turn")

	s = eng.Transition(s, EndTurn{})
	assert.Equal(t, "0", s.Ctx.Winner)
	assert.True(t, s.Ctx.HasWinner())
}
