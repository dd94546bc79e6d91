package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnwise/turnwise/internal/games"
	"github.com/turnwise/turnwise/internal/games/tictactoe"
	"github.com/turnwise/turnwise/internal/match"
)

type testClient struct {
	t  *testing.T
	ws *websocket.Conn
}

type testServer struct {
	t  *testing.T
	ts *httptest.Server
}

// startTestServer stands up a server around a tictactoe registry.
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := log.New(io.Discard)
	registry := games.NewRegistry()
	registry.Register(tictactoe.Game())
	manager := match.NewManager(logger, registry)
	t.Cleanup(manager.StopAll)

	srv := NewServer(logger, registry, manager)
	go srv.run()
	t.Cleanup(srv.cancel)

	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	t.Cleanup(ts.Close)

	return &testServer{t: t, ts: ts}
}

func (s *testServer) dial() *testClient {
	s.t.Helper()

	url := "ws" + strings.TrimPrefix(s.ts.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { _ = ws.Close() })

	return &testClient{t: s.t, ws: ws}
}

func dialTestServer(t *testing.T) *testClient {
	t.Helper()
	return startTestServer(t).dial()
}

func (c *testClient) send(messageType MessageType, data any) {
	c.t.Helper()
	msg, err := NewMessage(messageType, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteJSON(msg))
}

func (c *testClient) recv() *Message {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(c.t, c.ws.ReadJSON(&msg))
	return &msg
}

func (c *testClient) recvType(messageType MessageType) *Message {
	c.t.Helper()
	msg := c.recv()
	require.Equal(c.t, messageType, msg.Type, "unexpected message: %s", msg.Data)
	return msg
}

func decode[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

func TestListGames(t *testing.T) {
	t.Parallel()

	c := dialTestServer(t)
	c.send(MessageTypeListGames, struct{}{})

	data := decode[GamesData](t, c.recvType(MessageTypeGames))
	require.Len(t, data.Games, 1)
	assert.Equal(t, "tictactoe", data.Games[0].Name)
	assert.Equal(t, []string{"mark"}, data.Games[0].Moves)
}

func TestCreateMatchAndPlay(t *testing.T) {
	t.Parallel()

	c := dialTestServer(t)
	c.send(MessageTypeCreateMatch, CreateMatchData{Game: "tictactoe"})

	joined := decode[JoinedData](t, c.recvType(MessageTypeJoined))
	assert.NotEmpty(t, joined.MatchID)
	assert.Equal(t, "tictactoe", joined.Game)

	state := decode[StateData](t, c.recvType(MessageTypeState))
	assert.EqualValues(t, 0, state.StateID)
	assert.Equal(t, "0", state.Ctx.CurrentPlayer)

	// A joined client gets the new state through its subscription.
	c.send(MessageTypeMove, MoveData{StateID: 0, Name: "mark", Args: []any{4}})
	state = decode[StateData](t, c.recvType(MessageTypeState))
	assert.EqualValues(t, 1, state.StateID)
	assert.Equal(t, 1, state.LogLen)

	c.send(MessageTypeEndTurn, EndTurnData{StateID: 1})
	state = decode[StateData](t, c.recvType(MessageTypeState))
	assert.Equal(t, "1", state.Ctx.CurrentPlayer)
	assert.Equal(t, 1, state.Ctx.Turn)
}

func TestStaleMoveRejected(t *testing.T) {
	t.Parallel()

	c := dialTestServer(t)
	c.send(MessageTypeCreateMatch, CreateMatchData{Game: "tictactoe"})
	c.recvType(MessageTypeJoined)
	c.recvType(MessageTypeState)

	c.send(MessageTypeMove, MoveData{StateID: 0, Name: "mark", Args: []any{0}})
	c.recvType(MessageTypeState)

	// Replaying against the old state ID fails.
	c.send(MessageTypeMove, MoveData{StateID: 0, Name: "mark", Args: []any{1}})
	errData := decode[ErrorData](t, c.recvType(MessageTypeError))
	assert.Equal(t, "stale_state", errData.Code)
}

func TestUnknownMoveRejected(t *testing.T) {
	t.Parallel()

	c := dialTestServer(t)
	c.send(MessageTypeCreateMatch, CreateMatchData{Game: "tictactoe"})
	c.recvType(MessageTypeJoined)
	c.recvType(MessageTypeState)

	c.send(MessageTypeMove, MoveData{StateID: 0, Name: "castle"})
	errData := decode[ErrorData](t, c.recvType(MessageTypeError))
	assert.Equal(t, "unknown_move", errData.Code)
}

func TestCreateUnknownGame(t *testing.T) {
	t.Parallel()

	c := dialTestServer(t)
	c.send(MessageTypeCreateMatch, CreateMatchData{Game: "chess"})
	errData := decode[ErrorData](t, c.recvType(MessageTypeError))
	assert.Equal(t, "create_failed", errData.Code)
}

func TestListMatchesAndJoin(t *testing.T) {
	t.Parallel()

	srv := startTestServer(t)

	creator := srv.dial()
	creator.send(MessageTypeCreateMatch, CreateMatchData{Game: "tictactoe"})
	joined := decode[JoinedData](t, creator.recvType(MessageTypeJoined))
	creator.recvType(MessageTypeState)

	creator.send(MessageTypeListMatches, struct{}{})
	matches := decode[MatchesData](t, creator.recvType(MessageTypeMatches))
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, joined.MatchID, matches.Matches[0].ID)
	assert.Equal(t, "tictactoe", matches.Matches[0].Game)

	// A second client joins the same match and sees the creator's moves.
	watcher := srv.dial()
	watcher.send(MessageTypeJoinMatch, JoinMatchData{MatchID: joined.MatchID})
	watcher.recvType(MessageTypeJoined)
	watcher.recvType(MessageTypeState)

	creator.send(MessageTypeMove, MoveData{StateID: 0, Name: "mark", Args: []any{8}})
	state := decode[StateData](t, watcher.recvType(MessageTypeState))
	assert.EqualValues(t, 1, state.StateID)
}

func TestRequestIDEchoedInReply(t *testing.T) {
	t.Parallel()

	c := dialTestServer(t)
	msg, err := NewMessage(MessageTypeListGames, struct{}{})
	require.NoError(t, err)
	msg.RequestID = "req-42"
	require.NoError(t, c.ws.WriteJSON(msg))

	reply := c.recvType(MessageTypeGames)
	assert.Equal(t, "req-42", reply.RequestID)
}
