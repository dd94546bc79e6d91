// Package match hosts live game instances. Each Match funnels every action
// for one state lineage through a single goroutine, which is what the engine
// requires: exactly one in-flight transition per game at a time. The Manager
// keeps the registry of running matches.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/turnwise/turnwise/internal/engine"
	"github.com/turnwise/turnwise/internal/games"
)

var (
	// ErrStaleState is returned when a submission's expected state ID does
	// not match the server's, meaning the client acted on an old snapshot.
	ErrStaleState = errors.New("match: stale state id")

	// ErrGameOver is returned for moves and end-turns submitted after a
	// winner was decided.
	ErrGameOver = errors.New("match: game already decided")

	// ErrClosed is returned for submissions to a stopped match.
	ErrClosed = errors.New("match: closed")
)

// AnyState is the skip value for Submit's expected state ID: the staleness
// check is bypassed and the action applies to whatever state is current.
const AnyState int64 = -1

// Recorder observes accepted transitions, typically to build an audit log.
// Calls arrive from the match goroutine, in application order.
type Recorder interface {
	RecordInit(s engine.State[any])
	RecordAction(a engine.Action, s engine.State[any])
}

type submission struct {
	action engine.Action
	expect int64
	reply  chan error
}

// Match is one running game instance.
type Match struct {
	ID   string
	Game string

	eng    *engine.Engine[any]
	logger *log.Logger
	clock  quartz.Clock

	submissions chan submission
	stop        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup

	recorder Recorder
	movers   map[string]engine.Mover

	mu          sync.RWMutex
	state       engine.State[any]
	lastActive  time.Time
	subscribers map[int]chan engine.State[any]
	nextSub     int
}

// Option configures a Match.
type Option func(*Match)

// WithLogger sets the match logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Match) { m.logger = logger }
}

// WithClock injects the clock used for activity tracking.
func WithClock(clock quartz.Clock) Option {
	return func(m *Match) { m.clock = clock }
}

// WithRecorder attaches an audit recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Match) { m.recorder = r }
}

// New creates and starts a match for the given game. numPlayers must fall
// within the game's hosting bounds; zero picks the game's minimum.
func New(id string, game games.Game, numPlayers int, opts ...Option) (*Match, error) {
	if numPlayers == 0 {
		numPlayers = game.MinPlayers
	}
	if numPlayers < game.MinPlayers || (game.MaxPlayers > 0 && numPlayers > game.MaxPlayers) {
		return nil, fmt.Errorf("match: %s supports %d-%d players, got %d",
			game.Def.Name, game.MinPlayers, game.MaxPlayers, numPlayers)
	}

	m := &Match{
		ID:          id,
		Game:        game.Def.Name,
		eng:         engine.New(game.Def),
		logger:      log.Default(),
		clock:       quartz.NewReal(),
		submissions: make(chan submission),
		stop:        make(chan struct{}),
		subscribers: make(map[int]chan engine.State[any]),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithPrefix("match").With("match", id, "game", m.Game)

	m.state = m.eng.Initialize(numPlayers)
	m.lastActive = m.clock.Now()
	if m.recorder != nil {
		m.recorder.RecordInit(m.state)
	}

	// Fire-and-forget movers feed the same serialized queue as Submit.
	m.movers = engine.Dispatchers(m.eng.Definition().Moves, engine.SinkFunc(m.enqueue))

	m.wg.Add(1)
	go m.run()

	m.logger.Debug("Match started", "players", numPlayers)
	return m, nil
}

// Submit applies an action against the expected state ID and waits for the
// outcome. Pass AnyState to skip the staleness check.
func (m *Match) Submit(ctx context.Context, expect int64, a engine.Action) error {
	sub := submission{action: a, expect: expect, reply: make(chan error, 1)}

	select {
	case m.submissions <- sub:
	case <-m.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-sub.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Mover returns the fire-and-forget entry point for a declared move name.
func (m *Match) Mover(name string) (engine.Mover, bool) {
	mover, ok := m.movers[name]
	return mover, ok
}

// enqueue is the sink behind the movers: no staleness check, no reply.
func (m *Match) enqueue(a engine.Action) {
	select {
	case m.submissions <- submission{action: a, expect: AnyState}:
	case <-m.stop:
	}
}

// Snapshot returns the current state.
func (m *Match) Snapshot() engine.State[any] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastActive returns when the match last accepted an action.
func (m *Match) LastActive() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastActive
}

// Subscribe registers for state notifications after every accepted action.
// Slow subscribers miss updates rather than stalling the match. The returned
// cancel function releases the subscription.
func (m *Match) Subscribe() (<-chan engine.State[any], func()) {
	ch := make(chan engine.State[any], 16)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = ch
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

// Stop shuts the match down. Pending submissions fail with ErrClosed.
func (m *Match) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	m.wg.Wait()
}

func (m *Match) run() {
	defer m.wg.Done()

	for {
		select {
		case sub := <-m.submissions:
			err := m.apply(sub)
			if sub.reply != nil {
				sub.reply <- err
			}
		case <-m.stop:
			m.closeSubscribers()
			return
		}
	}
}

func (m *Match) apply(sub submission) error {
	cur := m.state

	if sub.expect != AnyState && sub.expect != cur.StateID {
		m.logger.Debug("Rejected stale submission", "expect", sub.expect, "current", cur.StateID)
		return fmt.Errorf("%w: have %d, want %d", ErrStaleState, sub.expect, cur.StateID)
	}

	switch sub.action.(type) {
	case engine.MakeMove, engine.EndTurn:
		if cur.Ctx.HasWinner() {
			return ErrGameOver
		}
	}

	next := m.eng.Transition(cur, sub.action)

	m.mu.Lock()
	m.state = next
	m.lastActive = m.clock.Now()
	// Notify under the lock so a concurrent unsubscribe cannot close a
	// channel mid-send. Sends never block: buffered, drop on overflow.
	for _, ch := range m.subscribers {
		select {
		case ch <- next:
		default:
		}
	}
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.RecordAction(sub.action, next)
	}
	if next.Ctx.HasWinner() && !cur.Ctx.HasWinner() {
		m.logger.Info("Match decided", "winner", next.Ctx.Winner, "turn", next.Ctx.Turn)
	}
	return nil
}

func (m *Match) closeSubscribers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subscribers {
		delete(m.subscribers, id)
		close(ch)
	}
}
