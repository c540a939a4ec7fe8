package domain

import "time"

// TransportKind classifies how a server connection is carried.
type TransportKind string

const (
	TransportStdio TransportKind = "stdio"
	TransportHTTP  TransportKind = "http"
	TransportSSE   TransportKind = "sse"
)

// ServerConfig describes one configured remote endpoint. It is loaded
// from the configuration store at discovery time and treated as
// immutable for the duration of a pass.
type ServerConfig struct {
	Index         int
	Label         string
	Address       string
	Authorization string
	Allow         []string
	Deny          []string
	Active        bool
}

// Endpoint is the parsed form of a connection string.
type Endpoint struct {
	Kind TransportKind

	// Command holds the tokenized program and arguments for stdio.
	Command []string

	// URL is the dial endpoint for http and sse.
	URL string
}

// RemoteTool is one tool advertised by a server.
type RemoteTool struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"inputSchema,omitempty"`
}

// ParamType is the simple type tag of a generalized parameter.
type ParamType string

const (
	ParamString ParamType = "str"
	ParamInt    ParamType = "int"
	ParamFloat  ParamType = "float"
	ParamBool   ParamType = "bool"
)

// ParamDescriptor generalizes one schema property for the dispatcher.
type ParamDescriptor struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// ToolIndexEntry is one published, executable command.
type ToolIndexEntry struct {
	Command     string
	Server      ServerConfig
	Endpoint    Endpoint
	ServerKey   string
	Tag         string
	RemoteName  string
	Title       string
	Description string
	InputSchema any
	Params      []ParamDescriptor
}

// SyntaxEntry is the command descriptor returned to the dispatcher by
// a BuildSyntax call.
type SyntaxEntry struct {
	Command     string        `json:"command_name"`
	Instruction string        `json:"instruction_text"`
	Params      []SyntaxParam `json:"params"`
	Enabled     bool          `json:"enabled"`
}

// SyntaxParam describes one parameter inside a SyntaxEntry.
type SyntaxParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CallRequest is one requested invocation submitted by the dispatcher.
// ID is opaque to the bridge and echoed back on the result.
type CallRequest struct {
	ID      string
	Command string
	Params  map[string]any
}

// ExecutionResult is the outcome of one invocation. Exactly one of
// Text and Err is populated.
type ExecutionResult struct {
	Request CallRequest
	Text    string
	Err     string
}

// Failed reports whether the invocation produced an error.
func (r ExecutionResult) Failed() bool { return r.Err != "" }

// CallOutcome is the transport-neutral shape of a remote tool result.
type CallOutcome struct {
	Structured any
	Text       []string
	IsError    bool
}

// BridgeOptions are the plugin options read from the configuration
// store for one pass.
type BridgeOptions struct {
	CacheEnabled     bool
	CacheTTL         time.Duration
	DiscoveryTimeout time.Duration
	ExecutionTimeout time.Duration
}
