package domain

import "context"

// Session is an open protocol session with one remote server. Sessions
// are opened per pass and never reused across passes.
type Session interface {
	ListTools(ctx context.Context) ([]RemoteTool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (CallOutcome, error)
	Close() error
}

// SessionDialer opens sessions for parsed endpoints.
type SessionDialer interface {
	Dial(ctx context.Context, cfg ServerConfig, ep Endpoint) (Session, error)
}

// ConfigStore is the read-only view of the host configuration.
type ConfigStore interface {
	Servers() []ServerConfig
	Options() BridgeOptions
}

// StatusSink receives fire-and-forget human-readable messages. Calls
// never affect control flow.
type StatusSink interface {
	Log(msg string)
	Status(msg string)
}

// ToolBridge is the two-operation surface consumed by the command
// dispatcher.
type ToolBridge interface {
	BuildSyntax(ctx context.Context) ([]SyntaxEntry, error)
	Execute(ctx context.Context, batch []CallRequest) ([]ExecutionResult, error)
}

// NopSink discards all messages.
type NopSink struct{}

func (NopSink) Log(string)    {}
func (NopSink) Status(string) {}
