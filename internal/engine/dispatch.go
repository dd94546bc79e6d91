package engine

// Sink accepts actions for eventual application. Hosts typically back it
// with the queue that serializes all actions for one game instance.
type Sink interface {
	Dispatch(a Action)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(a Action)

// Dispatch calls f(a).
func (f SinkFunc) Dispatch(a Action) {
	f(a)
}

// Mover is a named-move entry point. Calling it packages the arguments into
// a MakeMove and submits it to the sink. Fire and forget: there is no return
// value, and no validation of the arguments against the game definition.
type Mover func(args ...any)

// Dispatchers builds one Mover per move name, each submitting to sink.
// Pure glue: names are not checked against the definition's declared moves,
// and argument counts are left to the Apply function to accept or reject.
func Dispatchers(moves []string, sink Sink) map[string]Mover {
	movers := make(map[string]Mover, len(moves))
	for _, name := range moves {
		name := name
		movers[name] = func(args ...any) {
			sink.Dispatch(MakeMove{Name: name, Args: args})
		}
	}
	return movers
}
