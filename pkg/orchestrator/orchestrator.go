// Package orchestrator drives the agentic tool-calling loop: call the LLM,
// dispatch any tool calls it requests through a tool.Manager, feed the
// results back, and repeat until the model returns a final answer or an
// iteration cap is hit.
package orchestrator

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mcpkit-go/mcpkit/pkg/llm"
	"github.com/mcpkit-go/mcpkit/pkg/observability"
	"github.com/mcpkit-go/mcpkit/pkg/tool"
)

// defaultMaxIterations bounds the loop when a caller doesn't set
// Config.MaxIterations, so a model that never stops requesting tools can't
// run forever.
const defaultMaxIterations = 10

// Config tunes an Orchestrator's behavior.
type Config struct {
	// MaxIterations caps the number of LLM-call/tool-dispatch rounds in a
	// single Run. Zero means defaultMaxIterations.
	MaxIterations int

	// SystemInstruction is sent with every LLM call.
	SystemInstruction string

	// Metrics receives per-iteration and per-tool-call counters. A nil
	// value (the zero Config) disables instrumentation.
	Metrics *observability.Metrics
}

// Orchestrator runs the agentic loop for one model and one set of tools.
type Orchestrator struct {
	model         llm.LLM
	tools         *tool.Manager
	maxIterations int
	systemPrompt  string
	metrics       *observability.Metrics
}

// New builds an Orchestrator. tools may be nil, in which case the LLM is
// still called but any tool calls it requests are rejected as not found.
func New(model llm.LLM, tools *tool.Manager, cfg Config) *Orchestrator {
	max := cfg.MaxIterations
	if max <= 0 {
		max = defaultMaxIterations
	}
	return &Orchestrator{
		model:         model,
		tools:         tools,
		maxIterations: max,
		systemPrompt:  cfg.SystemInstruction,
		metrics:       cfg.Metrics,
	}
}

// EventKind distinguishes the member set on an Event.
type EventKind string

const (
	// EventChunk carries an incremental text fragment from a streaming
	// LLM call. Only emitted when Run is called with stream=true.
	EventChunk EventKind = "chunk"

	// EventMessage carries one complete conversational turn: either the
	// assistant's message for one iteration (which may itself carry tool
	// calls), or a tool-role message reporting a dispatched call's result.
	EventMessage EventKind = "message"
)

// Event is one unit of progress from Run. Exactly one of Chunk or Message
// is set, according to Kind.
type Event struct {
	Kind    EventKind
	Chunk   string
	Message *tool.Message
}

// Run drives the loop starting from messages (the existing conversation,
// oldest first) and yields Events as they occur: streaming text chunks
// (when stream is true), the assistant's message each iteration, and a
// tool-role message per dispatched call. It returns once the model's
// response carries no tool calls, the context is canceled, or the
// iteration cap is reached — in the last case the final assistant message
// carries an appended truncation notice.
//
// Run never returns an error itself; failures surface as a final assistant
// message describing the problem, so a caller can always render whatever
// Run yielded without special-casing an error path.
func (o *Orchestrator) Run(ctx context.Context, messages []tool.Message, stream bool) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		history := append([]tool.Message(nil), messages...)

		defs, err := o.availableTools(ctx)
		if err != nil {
			yield(Event{Kind: EventMessage, Message: &tool.Message{
				Role:    tool.RoleAssistant,
				Content: fmt.Sprintf("Error: could not list tools: %v", err),
			}})
			return
		}

		for iteration := 0; iteration < o.maxIterations; iteration++ {
			if ctx.Err() != nil {
				return
			}

			iterCtx, span := observability.StartSpan(ctx, "mcpkit/orchestrator", "orchestrator.iteration")
			resp, err := o.callModel(iterCtx, history, defs, stream, yield)
			span.End()
			if err != nil {
				o.metrics.ObserveOrchestratorIteration("error")
				yield(Event{Kind: EventMessage, Message: &tool.Message{
					Role:    tool.RoleAssistant,
					Content: fmt.Sprintf("Error: %v", err),
				}})
				return
			}
			if resp == nil {
				// The consumer stopped iterating (yield returned false)
				// while a partial chunk was in flight.
				return
			}

			assistant := tool.Message{
				Role:      tool.RoleAssistant,
				Content:   resp.Text,
				ToolCalls: resp.ToolCalls,
			}

			if len(resp.ToolCalls) == 0 {
				o.metrics.ObserveOrchestratorIteration("final")
				if !yield(Event{Kind: EventMessage, Message: &assistant}) {
					return
				}
				return
			}

			results, err := o.dispatch(ctx, resp.ToolCalls)
			if err != nil {
				o.metrics.ObserveOrchestratorIteration("error")
				yield(Event{Kind: EventMessage, Message: &tool.Message{
					Role:    tool.RoleAssistant,
					Content: fmt.Sprintf("Error: %v", err),
				}})
				return
			}
			o.metrics.ObserveOrchestratorIteration("tool_calls")
			for i, result := range results {
				outcome := "success"
				if !result.Success {
					outcome = "failure"
				}
				o.metrics.ObserveOrchestratorToolCall(resp.ToolCalls[i].Name, outcome)
				assistant.ToolCalls[i].ID = result.ToolCallID
			}
			if !yield(Event{Kind: EventMessage, Message: &assistant}) {
				return
			}

			history = append(history, assistant)
			for _, result := range results {
				toolMsg := toolResultMessage(result)
				if !yield(Event{Kind: EventMessage, Message: &toolMsg}) {
					return
				}
				history = append(history, toolMsg)
			}
		}

		o.metrics.ObserveOrchestratorIteration("truncated")
		history = append(history, tool.Message{
			Role:    tool.RoleAssistant,
			Content: fmt.Sprintf("Stopped after %d iterations without reaching a final answer.", o.maxIterations),
		})
		yield(Event{Kind: EventMessage, Message: &history[len(history)-1]})
	}
}

func (o *Orchestrator) availableTools(ctx context.Context) ([]tool.Definition, error) {
	if o.tools == nil {
		return nil, nil
	}
	return o.tools.AvailableTools(ctx)
}

// callModel runs one LLM call, forwarding streaming chunks through yield as
// EventChunk events, and returns the final non-partial Response. It returns
// (nil, nil) if the consumer stopped iterating mid-stream.
func (o *Orchestrator) callModel(ctx context.Context, history []tool.Message, defs []tool.Definition, stream bool, yield func(Event) bool) (*llm.Response, error) {
	req := &llm.Request{
		Messages:          history,
		Tools:             defs,
		SystemInstruction: o.systemPrompt,
	}

	var final *llm.Response
	for resp, err := range o.model.GenerateContent(ctx, req, stream) {
		if err != nil {
			return nil, err
		}
		if resp.Partial {
			if !yield(Event{Kind: EventChunk, Chunk: resp.Text}) {
				return nil, nil
			}
			continue
		}
		final = resp
	}
	if final != nil && final.FinishReason == llm.FinishReasonError {
		return nil, fmt.Errorf("%s: %s", final.ErrorCode, final.ErrorMessage)
	}
	return final, nil
}

// dispatch executes calls concurrently via the tool manager, preserving
// their original order in the returned slice. Cancellation of ctx aborts
// any calls still awaiting their provider.
func (o *Orchestrator) dispatch(ctx context.Context, calls []tool.ToolCall) ([]tool.ToolResult, error) {
	results := make([]tool.ToolResult, len(calls))

	if o.tools == nil {
		for i, call := range calls {
			results[i] = tool.ToolResult{
				Success:    false,
				Error:      fmt.Sprintf("Tool not found: %s", call.Name),
				ToolCallID: call.ID,
			}
		}
		return results, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		group.Go(func() error {
			result, err := o.tools.Execute(groupCtx, call)
			if err != nil {
				return fmt.Errorf("execute tool %q: %w", call.Name, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// toolResultMessage converts a dispatched ToolResult into the tool-role
// Message fed back to the model. Image content the tool returned (under
// Metadata["images"]) is attached to the message's Images list; file
// references (Metadata["files"]) are summarized under an "Attachments:"
// header appended to the message content, since most models have no
// structured channel for arbitrary file attachments.
func toolResultMessage(result tool.ToolResult) tool.Message {
	content := result.Content
	if !result.Success {
		content = result.Error
	}

	msg := tool.Message{
		Role:       tool.RoleTool,
		ToolCallID: result.ToolCallID,
	}

	if images, ok := result.Metadata["images"].([]tool.Image); ok {
		msg.Images = images
	}

	if files, ok := result.Metadata["files"].([]tool.FileRef); ok && len(files) > 0 {
		var b strings.Builder
		b.WriteString(content)
		if content != "" {
			b.WriteString("\n")
		}
		b.WriteString("Attachments:")
		for _, f := range files {
			name := f.Name
			if name == "" {
				name = f.URL
			}
			fmt.Fprintf(&b, "\n- %s: %s", name, f.URL)
		}
		content = b.String()
	}

	msg.Content = content
	return msg
}
