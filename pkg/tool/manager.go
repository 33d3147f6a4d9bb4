package tool

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Manager aggregates Providers and offers the dispatch surface the
// orchestrator drives: a deduped tool list, and execution by tool name.
type Manager struct {
	providers []Provider
}

// NewManager returns a Manager dispatching across providers in the given
// order: the first provider that claims a tool name handles it.
func NewManager(providers ...Provider) *Manager {
	return &Manager{providers: providers}
}

// AvailableTools concatenates each provider's definitions, in provider
// order, deduplicated by name (first occurrence wins).
func (m *Manager) AvailableTools(ctx context.Context) ([]Definition, error) {
	seen := make(map[string]bool)
	var defs []Definition
	for _, p := range m.providers {
		provided, err := p.AvailableTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		for _, d := range provided {
			if seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			defs = append(defs, d)
		}
	}
	return defs, nil
}

// Execute dispatches call to the first provider (in configured order) that
// claims call.Name. If no provider claims it, Execute returns a failure
// ToolResult rather than an error, so the orchestrator can feed the failure
// back to the LLM. Argument shapes are provider-defined; Execute performs
// no coercion.
func (m *Manager) Execute(ctx context.Context, call ToolCall) (ToolResult, error) {
	call = withID(call)

	for _, p := range m.providers {
		if !p.Claims(call.Name) {
			continue
		}
		result, err := p.Execute(ctx, call)
		if err != nil {
			return ToolResult{}, err
		}
		result.ToolCallID = call.ID
		return result, nil
	}

	return ToolResult{
		Success:    false,
		Error:      fmt.Sprintf("Tool not found: %s", call.Name),
		ToolCallID: call.ID,
	}, nil
}

// withID returns call unchanged if it already carries an ID, or a copy
// with a synthesized call_<fresh> ID otherwise. The orchestrator guarantees
// every dispatched call has an ID; this is where that guarantee is
// enforced for calls the LLM emitted without one.
func withID(call ToolCall) ToolCall {
	if call.ID != "" {
		return call
	}
	call.ID = "call_" + uuid.NewString()
	return call
}
