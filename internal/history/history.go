// Package history writes and replays match audit logs.
//
// A history file is JSON lines: a header capturing the initial snapshot,
// then one entry per accepted action in application order. Folding the
// entries over the header through the engine reconstructs any historical
// state. Restores are deliberately absent from the file; they rewrite state
// without extending the log, so a replayed file always reflects the
// canonical action sequence.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/turnwise/turnwise/internal/engine"
)

// Entry kinds.
const (
	KindMove    = "move"
	KindEndTurn = "end_turn"
)

// Header is the first line of a history file.
type Header struct {
	Version    int             `json:"version"`
	MatchID    string          `json:"matchId"`
	Game       string          `json:"game"`
	NumPlayers int             `json:"numPlayers"`
	CreatedAt  time.Time       `json:"createdAt"`
	Initial    json.RawMessage `json:"initial"`
	Ctx        engine.Ctx      `json:"ctx"`
}

// Entry records one accepted action. Seq is the state's sequence number
// after the action applied, so entries are numbered 1..n.
type Entry struct {
	Seq  int64     `json:"seq"`
	Kind string    `json:"kind"`
	Move string    `json:"move,omitempty"`
	Args []any     `json:"args,omitempty"`
	At   time.Time `json:"at"`
}

// Action converts the entry back into an engine action.
func (e Entry) Action() (engine.Action, error) {
	switch e.Kind {
	case KindMove:
		return engine.MakeMove{Name: e.Move, Args: e.Args}, nil
	case KindEndTurn:
		return engine.EndTurn{}, nil
	default:
		return nil, fmt.Errorf("history: unknown entry kind %q", e.Kind)
	}
}

// Recorder captures a match's transitions into a history file. It satisfies
// the match package's Recorder interface.
//
// The file is rewritten atomically after every accepted action; at
// turn-based action rates the full rewrite is cheap and readers never see a
// torn file.
type Recorder struct {
	path    string
	matchID string
	game    string
	logger  *log.Logger
	clock   quartz.Clock

	mu      sync.Mutex
	header  *Header
	entries []Entry
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the recorder logger.
func WithLogger(logger *log.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// WithClock injects the clock used for entry timestamps.
func WithClock(clock quartz.Clock) RecorderOption {
	return func(r *Recorder) { r.clock = clock }
}

// NewRecorder creates a recorder writing to path.
func NewRecorder(path, matchID, game string, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		path:    path,
		matchID: matchID,
		game:    game,
		logger:  log.Default(),
		clock:   quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithPrefix("history").With("match", matchID)
	return r
}

// RecordInit captures the initial snapshot as the file header.
func (r *Recorder) RecordInit(s engine.State[any]) {
	payload, err := json.Marshal(s.G)
	if err != nil {
		r.logger.Error("Failed to encode initial payload", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.header = &Header{
		Version:    1,
		MatchID:    r.matchID,
		Game:       r.game,
		NumPlayers: s.Ctx.NumPlayers,
		CreatedAt:  r.clock.Now().UTC(),
		Initial:    payload,
		Ctx:        s.Ctx,
	}
	r.flushLocked()
}

// RecordAction appends an entry for the accepted action and rewrites the
// file. Restores and unrecognized actions are not part of the audit log.
func (r *Recorder) RecordAction(a engine.Action, s engine.State[any]) {
	entry := Entry{Seq: s.StateID, At: r.clock.Now().UTC()}
	switch act := a.(type) {
	case engine.MakeMove:
		entry.Kind = KindMove
		entry.Move = act.Name
		entry.Args = act.Args
	case engine.EndTurn:
		entry.Kind = KindEndTurn
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	r.flushLocked()
}

// Path returns the file the recorder writes to.
func (r *Recorder) Path() string {
	return r.path
}

func (r *Recorder) flushLocked() {
	if r.header == nil {
		return
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(r.header); err != nil {
		r.logger.Error("Failed to encode history header", "error", err)
		return
	}
	for _, entry := range r.entries {
		if err := enc.Encode(entry); err != nil {
			r.logger.Error("Failed to encode history entry", "error", err, "seq", entry.Seq)
			return
		}
	}

	if err := WriteFileAtomic(r.path, buf.Bytes(), 0o644); err != nil {
		r.logger.Error("Failed to write history file", "error", err, "path", r.path)
	}
}

// Load reads a history file.
func Load(path string) (Header, []Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("history: open: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Header{}, nil, fmt.Errorf("history: read header: %w", err)
		}
		return Header{}, nil, fmt.Errorf("history: %s is empty", path)
	}

	var header Header
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return Header{}, nil, fmt.Errorf("history: decode header: %w", err)
	}

	var entries []Entry
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return Header{}, nil, fmt.Errorf("history: decode entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return Header{}, nil, fmt.Errorf("history: read: %w", err)
	}

	return header, entries, nil
}

// Replay folds entries over the header's initial snapshot through the
// engine, stopping after the entry with sequence number upTo. Pass upTo < 0
// for the full log. Sequence numbers are verified as the fold progresses;
// a gap means the file was tampered with or truncated mid-line.
func Replay(def engine.Definition[any], header Header, entries []Entry, upTo int64) (engine.State[any], error) {
	var initial any
	if len(header.Initial) > 0 {
		if err := json.Unmarshal(header.Initial, &initial); err != nil {
			return engine.State[any]{}, fmt.Errorf("history: decode initial payload: %w", err)
		}
	}

	eng := engine.New(def)
	ctx := header.Ctx
	if ctx.NumPlayers == 0 {
		ctx = engine.Ctx{Turn: 0, CurrentPlayer: "0", NumPlayers: header.NumPlayers}
	}
	s := eng.Rehydrate(initial, ctx)

	for _, entry := range entries {
		if upTo >= 0 && entry.Seq > upTo {
			break
		}
		action, err := entry.Action()
		if err != nil {
			return engine.State[any]{}, err
		}
		s = eng.Transition(s, action)
		if s.StateID != entry.Seq {
			return engine.State[any]{}, fmt.Errorf("history: sequence gap: replayed to %d, entry says %d", s.StateID, entry.Seq)
		}
	}
	return s, nil
}
