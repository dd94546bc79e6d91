// Package games holds the catalog of game definitions a host can run.
// Definitions are registered under their name and served to the match
// manager when a new match is created.
package games

import (
	"fmt"
	"sort"
	"sync"

	"github.com/turnwise/turnwise/internal/engine"
)

// Info describes a registered game for lobby listings.
type Info struct {
	Name       string   `json:"name"`
	Moves      []string `json:"moves"`
	MinPlayers int      `json:"minPlayers"`
	MaxPlayers int      `json:"maxPlayers"`
}

// Game pairs a type-erased definition with hosting constraints. The payload
// is erased to any at the hosting boundary; definitions keep their own
// concrete types internally.
type Game struct {
	Def        engine.Definition[any]
	MinPlayers int
	MaxPlayers int
}

// Info summarizes the game.
func (g Game) Info() Info {
	return Info{
		Name:       g.Def.Name,
		Moves:      g.Def.Moves,
		MinPlayers: g.MinPlayers,
		MaxPlayers: g.MaxPlayers,
	}
}

// Registry holds registered games by name.
type Registry struct {
	mu    sync.RWMutex
	games map[string]Game
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{games: make(map[string]Game)}
}

// Register adds a game. Panics on an unnamed or duplicate definition;
// registration happens at startup where misconfiguration should be loud.
func (r *Registry) Register(g Game) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := g.Def.Name
	if name == "" {
		panic("games: definition has no name")
	}
	if _, exists := r.games[name]; exists {
		panic(fmt.Sprintf("games: %q already registered", name))
	}
	r.games[name] = g
}

// Get returns a game by name.
func (r *Registry) Get(name string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[name]
	return g, ok
}

// List returns info for all registered games, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.games))
	for _, g := range r.games {
		infos = append(infos, g.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
