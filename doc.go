// Package mcpkit is a client/host toolkit for the Model Context Protocol (MCP).
//
// It lets an agent process discover and invoke tools, resources, and prompts
// exposed by local (subprocess) or remote (HTTP/SSE) MCP servers, host its
// own MCP-compatible tool servers, expose an A2A (Agent-to-Agent) surface,
// and drive an LLM through an agentic tool-calling loop.
//
// # Packages
//
//   - frame: length-agnostic chunking/reassembly codec for stdio pipes
//   - logfilter: admits only well-formed JSON-RPC 2.0 records
//   - transport: stdio and remote (HTTP+SSE) transports
//   - auth: Bearer, API key, Basic, and OAuth 2.1 (PKCE) credential providers
//   - oauthflow: RFC 9728 / RFC 8414 discovery, dynamic client registration, PKCE
//   - mcpclient: JSON-RPC client implementing the MCP methods
//   - mcpserver: tool registration and content-part decoding for MCP hosts
//   - tool: shared Message/ToolCall/ToolResult types and the tool manager
//   - a2a: A2A client, task store, and agent adapter contract
//   - llm: the LLM capability interface consumed by the orchestrator
//   - orchestrator: the agentic loop
//   - config: in-memory configuration shapes
//
// Concrete LLM provider bodies, configuration file loaders, CLI entry
// points, and A2A server HTTP routing are intentionally left as interfaces
// or external collaborators; see SPEC_FULL.md for the full rationale.
package mcpkit
