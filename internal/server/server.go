package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/turnwise/turnwise/internal/engine"
	"github.com/turnwise/turnwise/internal/games"
	"github.com/turnwise/turnwise/internal/match"
)

// Server hosts matches over WebSocket. Clients create or join matches, then
// submit moves and end-turns by name; every accepted action is pushed back
// to subscribed clients as a fresh state snapshot.
type Server struct {
	registry    *games.Registry
	manager     *match.Manager
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
}

// NewServer creates a WebSocket server over a game registry and match
// manager.
func NewServer(logger *log.Logger, registry *games.Registry, manager *match.Manager) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		registry: registry,
		manager:  manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the WebSocket server and blocks until it stops.
func (s *Server) Start(addr string) error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	s.logger.Info("Starting WebSocket server", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, its connections and all matches.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.manager.StopAll()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// run handles connection lifecycle.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s, s.logger)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleMessage routes one client message.
func (s *Server) handleMessage(c *Connection, msg *Message) {
	s.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeListGames:
		s.reply(c, msg, MessageTypeGames, GamesData{Games: s.registry.List()})

	case MessageTypeListMatches:
		s.reply(c, msg, MessageTypeMatches, MatchesData{Matches: s.manager.List()})

	case MessageTypeCreateMatch:
		var data CreateMatchData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create match data")
			return
		}
		s.handleCreateMatch(c, msg, data)

	case MessageTypeJoinMatch:
		var data JoinMatchData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join match data")
			return
		}
		s.handleJoinMatch(c, msg, data)

	case MessageTypeLeaveMatch:
		c.leaveMatch()
		s.reply(c, msg, MessageTypeLeft, struct{}{})

	case MessageTypeMove:
		var data MoveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse move data")
			return
		}
		s.handleMove(c, msg, data)

	case MessageTypeEndTurn:
		var data EndTurnData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse end turn data")
			return
		}
		s.handleEndTurn(c, msg, data)

	default:
		c.sendError("unknown_type", fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (s *Server) handleCreateMatch(c *Connection, msg *Message, data CreateMatchData) {
	if data.Game == "" {
		c.sendError("invalid_message", "Game name is required")
		return
	}

	m, err := s.manager.Create(data.Game, data.NumPlayers)
	if err != nil {
		c.sendError("create_failed", err.Error())
		return
	}

	c.joinMatch(m)
	s.reply(c, msg, MessageTypeJoined, JoinedData{MatchID: m.ID, Game: m.Game})
	s.reply(c, msg, MessageTypeState, stateData(m, m.Snapshot()))
}

func (s *Server) handleJoinMatch(c *Connection, msg *Message, data JoinMatchData) {
	m, ok := s.resolveMatch(c, data.MatchID)
	if !ok {
		c.sendError("match_not_found", fmt.Sprintf("No such match: %s", data.MatchID))
		return
	}

	c.joinMatch(m)
	s.reply(c, msg, MessageTypeJoined, JoinedData{MatchID: m.ID, Game: m.Game})
	s.reply(c, msg, MessageTypeState, stateData(m, m.Snapshot()))
}

func (s *Server) handleMove(c *Connection, msg *Message, data MoveData) {
	m, ok := s.resolveMatch(c, data.MatchID)
	if !ok {
		c.sendError("match_not_found", "No match joined and no match id given")
		return
	}

	// Only declared moves have dispatch entry points.
	if _, declared := m.Mover(data.Name); !declared {
		c.sendError("unknown_move", fmt.Sprintf("Game %s has no move %q", m.Game, data.Name))
		return
	}

	action := engine.MakeMove{Name: data.Name, Args: data.Args}
	if err := m.Submit(c.ctx, data.StateID, action); err != nil {
		s.sendSubmitError(c, err)
		return
	}

	if c.Match() != m {
		s.reply(c, msg, MessageTypeState, stateData(m, m.Snapshot()))
	}
}

func (s *Server) handleEndTurn(c *Connection, msg *Message, data EndTurnData) {
	m, ok := s.resolveMatch(c, data.MatchID)
	if !ok {
		c.sendError("match_not_found", "No match joined and no match id given")
		return
	}

	if err := m.Submit(c.ctx, data.StateID, engine.EndTurn{}); err != nil {
		s.sendSubmitError(c, err)
		return
	}

	if c.Match() != m {
		s.reply(c, msg, MessageTypeState, stateData(m, m.Snapshot()))
	}
}

// resolveMatch picks the target match: an explicit ID wins, then the joined
// match, then the server default.
func (s *Server) resolveMatch(c *Connection, id string) (*match.Match, bool) {
	if id != "" {
		return s.manager.Get(id)
	}
	if m := c.Match(); m != nil {
		return m, true
	}
	return s.manager.Default()
}

func (s *Server) sendSubmitError(c *Connection, err error) {
	switch {
	case errors.Is(err, match.ErrStaleState):
		c.sendError("stale_state", err.Error())
	case errors.Is(err, match.ErrGameOver):
		c.sendError("game_over", err.Error())
	case errors.Is(err, match.ErrClosed):
		c.sendError("match_closed", err.Error())
	default:
		c.sendError("submit_failed", err.Error())
	}
}

func (s *Server) reply(c *Connection, req *Message, messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		s.logger.Error("Failed to encode message", "type", messageType, "error", err)
		return
	}
	msg.RequestID = req.RequestID
	_ = c.SendMessage(msg)
}
