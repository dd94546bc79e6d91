package match

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnwise/turnwise/internal/engine"
	"github.com/turnwise/turnwise/internal/games"
)

func testRegistry() *games.Registry {
	r := games.NewRegistry()
	r.Register(counterGame(3))
	return r
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	mgr := NewManager(quietLogger(), testRegistry())
	defer mgr.StopAll()

	m, err := mgr.Create("counter", 2)
	require.NoError(t, err)

	got, ok := mgr.Get(m.ID)
	require.True(t, ok)
	assert.Same(t, m, got)

	_, err = mgr.Create("chess", 2)
	assert.Error(t, err, "unknown game")
}

func TestFirstMatchIsDefault(t *testing.T) {
	t.Parallel()

	mgr := NewManager(quietLogger(), testRegistry())
	defer mgr.StopAll()

	first, err := mgr.Create("counter", 2)
	require.NoError(t, err)
	second, err := mgr.Create("counter", 2)
	require.NoError(t, err)

	def, ok := mgr.Default()
	require.True(t, ok)
	assert.Same(t, first, def)

	// Deleting the default promotes another match.
	require.True(t, mgr.Delete(first.ID))
	def, ok = mgr.Default()
	require.True(t, ok)
	assert.Same(t, second, def)
}

func TestListSummaries(t *testing.T) {
	t.Parallel()

	mgr := NewManager(quietLogger(), testRegistry())
	defer mgr.StopAll()

	m, err := mgr.Create("counter", 3)
	require.NoError(t, err)
	require.NoError(t, m.Submit(context.Background(), 0, engine.EndTurn{}))

	summaries := mgr.List()
	require.Len(t, summaries, 1)
	assert.Equal(t, m.ID, summaries[0].ID)
	assert.Equal(t, "counter", summaries[0].Game)
	assert.Equal(t, 3, summaries[0].NumPlayers)
	assert.Equal(t, 1, summaries[0].Turn)
	assert.EqualValues(t, 1, summaries[0].StateID)
	assert.Empty(t, summaries[0].Winner)
}

func TestExpireIdle(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	mgr := NewManager(quietLogger(), testRegistry(), WithManagerClock(clock))
	defer mgr.StopAll()

	stale, err := mgr.Create("counter", 2)
	require.NoError(t, err)
	active, err := mgr.Create("counter", 2)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	require.NoError(t, active.Submit(context.Background(), 0, engine.EndTurn{}))
	clock.Advance(31 * time.Minute)

	removed := mgr.ExpireIdle(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := mgr.Get(stale.ID)
	assert.False(t, ok)
	_, ok = mgr.Get(active.ID)
	assert.True(t, ok)
}

func TestRecorderFactoryWiring(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	mgr := NewManager(quietLogger(), testRegistry(),
		WithRecorderFactory(func(matchID, game string) Recorder {
			assert.Equal(t, "counter", game)
			return rec
		}))
	defer mgr.StopAll()

	m, err := mgr.Create("counter", 2)
	require.NoError(t, err)
	require.NoError(t, m.Submit(context.Background(), 0, engine.EndTurn{}))

	assert.Equal(t, 1, rec.inits)
	assert.Len(t, rec.actions, 1)
}
