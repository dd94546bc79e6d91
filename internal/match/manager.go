package match

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/turnwise/turnwise/internal/games"
	"github.com/turnwise/turnwise/internal/matchid"
)

// Summary holds lightweight match metadata for clients.
type Summary struct {
	ID         string    `json:"id"`
	Game       string    `json:"game"`
	NumPlayers int       `json:"numPlayers"`
	Turn       int       `json:"turn"`
	StateID    int64     `json:"stateId"`
	Winner     string    `json:"winner,omitempty"`
	LastActive time.Time `json:"lastActive"`
}

// RecorderFactory builds a per-match recorder. A nil factory or a nil
// returned recorder disables recording for the match.
type RecorderFactory func(matchID, game string) Recorder

// Manager tracks running matches. The first created match becomes the
// default, mirroring how single-game hosts address "the" match.
type Manager struct {
	logger   *log.Logger
	registry *games.Registry
	clock    quartz.Clock
	ids      *matchid.Generator
	recorder RecorderFactory

	mu        sync.RWMutex
	matches   map[string]*Match
	defaultID string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerClock injects the clock shared with created matches.
func WithManagerClock(clock quartz.Clock) ManagerOption {
	return func(m *Manager) { m.clock = clock }
}

// WithIDGenerator injects the match ID generator.
func WithIDGenerator(ids *matchid.Generator) ManagerOption {
	return func(m *Manager) { m.ids = ids }
}

// WithRecorderFactory attaches audit recording to every created match.
func WithRecorderFactory(f RecorderFactory) ManagerOption {
	return func(m *Manager) { m.recorder = f }
}

// NewManager constructs an empty manager over a game registry.
func NewManager(logger *log.Logger, registry *games.Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		logger:   logger.WithPrefix("matches"),
		registry: registry,
		clock:    quartz.NewReal(),
		ids:      matchid.NewGenerator(nil),
		matches:  make(map[string]*Match),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new match of the named game.
func (m *Manager) Create(game string, numPlayers int) (*Match, error) {
	g, ok := m.registry.Get(game)
	if !ok {
		return nil, fmt.Errorf("manager: unknown game %q", game)
	}

	id := m.ids.Generate()
	opts := []Option{WithLogger(m.logger), WithClock(m.clock)}
	if m.recorder != nil {
		if r := m.recorder(id, game); r != nil {
			opts = append(opts, WithRecorder(r))
		}
	}

	match, err := New(id, g, numPlayers, opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.matches[id] = match
	if m.defaultID == "" {
		m.defaultID = id
	}
	m.mu.Unlock()

	m.logger.Info("Match created", "match", id, "game", game, "players", match.Snapshot().Ctx.NumPlayers)
	return match, nil
}

// Get retrieves a match by ID.
func (m *Manager) Get(id string) (*Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[id]
	return match, ok
}

// Default returns the default match, if any.
func (m *Manager) Default() (*Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	match, ok := m.matches[m.defaultID]
	return match, ok
}

// Delete stops and removes a match.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	match, ok := m.matches[id]
	if ok {
		delete(m.matches, id)
		if m.defaultID == id {
			m.defaultID = ""
			for newID := range m.matches {
				m.defaultID = newID
				break
			}
		}
	}
	m.mu.Unlock()

	if ok {
		match.Stop()
		m.logger.Info("Match deleted", "match", id)
	}
	return ok
}

// List returns a snapshot of running matches.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	matches := make([]*Match, 0, len(m.matches))
	for _, match := range m.matches {
		matches = append(matches, match)
	}
	m.mu.RUnlock()

	summaries := make([]Summary, 0, len(matches))
	for _, match := range matches {
		s := match.Snapshot()
		summaries = append(summaries, Summary{
			ID:         match.ID,
			Game:       match.Game,
			NumPlayers: s.Ctx.NumPlayers,
			Turn:       s.Ctx.Turn,
			StateID:    s.StateID,
			Winner:     s.Ctx.Winner,
			LastActive: match.LastActive(),
		})
	}
	return summaries
}

// ExpireIdle stops and removes matches inactive for longer than maxIdle,
// returning how many were removed.
func (m *Manager) ExpireIdle(maxIdle time.Duration) int {
	cutoff := m.clock.Now().Add(-maxIdle)

	m.mu.RLock()
	var expired []string
	for id, match := range m.matches {
		if match.LastActive().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		if m.Delete(id) {
			m.logger.Info("Match expired", "match", id, "max_idle", maxIdle)
		}
	}
	return len(expired)
}

// StopAll stops every match. The manager is unusable afterwards.
func (m *Manager) StopAll() {
	m.mu.Lock()
	matches := m.matches
	m.matches = make(map[string]*Match)
	m.defaultID = ""
	m.mu.Unlock()

	for _, match := range matches {
		match.Stop()
	}
}
