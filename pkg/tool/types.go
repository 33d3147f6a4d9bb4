// Package tool defines the shared Message/ToolCall/ToolResult data model and
// the ToolManager that dispatches calls across MCP, A2A, and function tool
// providers on an agent's behalf.
package tool

// Role identifies who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Image is an inline image attachment on a Message.
type Image struct {
	Bytes []byte
	Mime  string
}

// FileRef is a reference to a file attachment on a Message.
type FileRef struct {
	URL  string
	Name string
}

// Message is a single conversational turn.
type Message struct {
	ID      string
	Role    Role
	Content string

	// ToolCalls is set on an assistant-role message that requests tool
	// invocations.
	ToolCalls []ToolCall

	// ToolCallID binds a tool-role message to the assistant ToolCall it
	// answers.
	ToolCallID string

	Images []Image
	Files  []FileRef
}

// ToolCall is an LLM's request to invoke a named tool with structured
// arguments. The orchestrator guarantees every dispatched call carries an
// ID, synthesizing one if the LLM omits it.
type ToolCall struct {
	ID   string
	Name string
	Args any
}

// ToolResult is the outcome of dispatching a ToolCall. Execution failures
// are represented here, as a failure result, never as a returned error —
// callers feed ToolResult back to the LLM regardless of success.
type ToolResult struct {
	Success    bool
	Content    string
	Error      string
	Metadata   map[string]any
	ToolCallID string
}

// Kind tags what a ToolDefinition's provider is.
type Kind string

const (
	KindFunction Kind = "function"
	KindMCPTool  Kind = "mcpTool"
	KindA2AAgent Kind = "a2aAgent"
)

// Parameter describes one argument a tool accepts.
type Parameter struct {
	Name        string
	Description string
	Type        string
	Required    bool
}

// Definition describes a tool for LLM function-calling.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
	Kind        Kind
}
