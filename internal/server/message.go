package server

import (
	"encoding/json"
	"time"

	"github.com/turnwise/turnwise/internal/engine"
	"github.com/turnwise/turnwise/internal/games"
	"github.com/turnwise/turnwise/internal/match"
)

// MessageType identifies the type of message.
type MessageType string

const (
	// Client -> Server
	MessageTypeListGames   MessageType = "list_games"
	MessageTypeListMatches MessageType = "list_matches"
	MessageTypeCreateMatch MessageType = "create_match"
	MessageTypeJoinMatch   MessageType = "join_match"
	MessageTypeLeaveMatch  MessageType = "leave_match"
	MessageTypeMove        MessageType = "move"
	MessageTypeEndTurn     MessageType = "end_turn"

	// Server -> Client
	MessageTypeGames   MessageType = "games"
	MessageTypeMatches MessageType = "matches"
	MessageTypeJoined  MessageType = "joined"
	MessageTypeLeft    MessageType = "left"
	MessageTypeState   MessageType = "state"
	MessageTypeError   MessageType = "error"
)

// Message is the base WebSocket envelope.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client -> Server payloads

type CreateMatchData struct {
	Game       string `json:"game"`
	NumPlayers int    `json:"numPlayers,omitempty"`
}

type JoinMatchData struct {
	MatchID string `json:"matchId"`
}

// MoveData submits a named move against an expected state ID. A StateID of
// -1 skips the staleness check.
type MoveData struct {
	MatchID string `json:"matchId,omitempty"`
	StateID int64  `json:"stateId"`
	Name    string `json:"name"`
	Args    []any  `json:"args,omitempty"`
}

type EndTurnData struct {
	MatchID string `json:"matchId,omitempty"`
	StateID int64  `json:"stateId"`
}

// Server -> Client payloads

type GamesData struct {
	Games []games.Info `json:"games"`
}

type MatchesData struct {
	Matches []match.Summary `json:"matches"`
}

type JoinedData struct {
	MatchID string `json:"matchId"`
	Game    string `json:"game"`
}

// StateData is the client view of a match state. The action log itself
// stays server-side; clients get its length to track progress.
type StateData struct {
	MatchID string     `json:"matchId"`
	Game    string     `json:"game"`
	StateID int64      `json:"stateId"`
	Ctx     engine.Ctx `json:"ctx"`
	G       any        `json:"g"`
	LogLen  int        `json:"logLen"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// stateData builds the client view for a match snapshot.
func stateData(m *match.Match, s engine.State[any]) StateData {
	return StateData{
		MatchID: m.ID,
		Game:    m.Game,
		StateID: s.StateID,
		Ctx:     s.Ctx,
		G:       s.G,
		LogLen:  len(s.Log),
	}
}
