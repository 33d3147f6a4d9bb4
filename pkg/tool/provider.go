package tool

import "context"

// Provider is anything that can claim and execute named tools: an MCP
// server's tool list, an A2A agent exposed as a tool, or a local function
// tool. MCP and A2A adapters implement Provider over their respective
// clients; this package has no dependency on either.
type Provider interface {
	// AvailableTools returns the tool definitions this provider currently
	// exposes.
	AvailableTools(ctx context.Context) ([]Definition, error)

	// Claims reports whether this provider handles the named tool.
	Claims(name string) bool

	// Execute runs a tool call this provider claims. Execution failures
	// are returned as a failure ToolResult, not as an error; a non-nil
	// error indicates the provider itself could not attempt dispatch
	// (e.g. its transport is disconnected).
	Execute(ctx context.Context, call ToolCall) (ToolResult, error)
}
