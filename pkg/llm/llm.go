// Package llm defines the capability interface the orchestrator drives.
// Concrete provider adapters (OpenAI, Anthropic, Gemini, ...) are out of
// scope here; this package only fixes the shape every adapter must expose.
package llm

import (
	"context"
	"iter"

	"github.com/mcpkit-go/mcpkit/pkg/tool"
)

// LLM generates content from a conversation, optionally streaming partial
// chunks before a final aggregated response.
type LLM interface {
	// Name identifies the model, e.g. "gpt-4o" or "claude-opus-4".
	Name() string

	// GenerateContent drives one model call.
	//
	// When stream is false, the returned sequence yields exactly one
	// Response with Partial=false.
	//
	// When stream is true, it yields zero or more Responses with
	// Partial=true as chunks arrive, followed by exactly one aggregated
	// Response with Partial=false carrying the full content and any tool
	// calls. Iteration stops early if the consumer's yield returns false,
	// which the orchestrator uses to abandon a call on cancellation.
	GenerateContent(ctx context.Context, req *Request, stream bool) iter.Seq2[*Response, error]

	// Close releases resources the LLM holds (HTTP clients, connections).
	Close() error
}

// Request is one model call's input.
type Request struct {
	Messages          []tool.Message
	Tools             []tool.Definition
	SystemInstruction string
	Config            *GenerateConfig
}

// GenerateConfig carries generation parameters. All fields are optional;
// a nil *float64/*int means "use the provider's default".
type GenerateConfig struct {
	Temperature   *float64
	MaxTokens     *int
	TopP          *float64
	StopSequences []string
	Metadata      map[string]string
}

// Clone deep-copies c so a processor pipeline stage can mutate its own copy
// without affecting a shared config.
func (c *GenerateConfig) Clone() *GenerateConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Temperature != nil {
		v := *c.Temperature
		clone.Temperature = &v
	}
	if c.MaxTokens != nil {
		v := *c.MaxTokens
		clone.MaxTokens = &v
	}
	if c.TopP != nil {
		v := *c.TopP
		clone.TopP = &v
	}
	if c.StopSequences != nil {
		clone.StopSequences = append([]string(nil), c.StopSequences...)
	}
	if c.Metadata != nil {
		clone.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// FinishReason indicates why generation stopped.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonError     FinishReason = "error"
)

// Response is one chunk or the final result of a GenerateContent call.
type Response struct {
	// Text is the generated (or incremental, when Partial) text content.
	Text string

	// Partial marks a streaming chunk; see LLM.GenerateContent.
	Partial bool

	// ToolCalls requested by the model. Only ever set on the final,
	// non-partial Response.
	ToolCalls []tool.ToolCall

	Usage        *Usage
	FinishReason FinishReason

	ErrorCode    string
	ErrorMessage string
}

// Usage reports token accounting for a call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
