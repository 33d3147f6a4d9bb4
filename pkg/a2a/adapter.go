package a2a

import (
	"context"
	"fmt"
	"time"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/mcpkit-go/mcpkit/pkg/tool"
)

// remoteSender is the slice of Client an Adapter depends on, narrowed for
// testability without a live remote agent.
type remoteSender interface {
	SendMessage(ctx context.Context, msg *a2a.Message) (*a2a.Task, error)
	GetTask(ctx context.Context, taskID a2a.TaskID) (*a2a.Task, error)
}

// Adapter exposes one remote A2A agent to the tool manager as a single
// named tool, following the same agent-as-tool shape used for delegating
// to a sub-agent: the tool's only parameter is the free-text request, and
// its name is the agent's own name rather than a generic "call_*" wrapper.
type Adapter struct {
	name        string
	description string
	client      remoteSender

	// PollInterval is how often a non-terminal task is re-fetched while
	// Execute waits for it to finish. Default 500ms.
	PollInterval time.Duration
}

// NewAdapter wraps client as a tool named name.
func NewAdapter(name, description string, client remoteSender) *Adapter {
	return &Adapter{
		name:         name,
		description:  description,
		client:       client,
		PollInterval: 500 * time.Millisecond,
	}
}

// AvailableTools reports the single tool this adapter exposes.
func (a *Adapter) AvailableTools(_ context.Context) ([]tool.Definition, error) {
	return []tool.Definition{{
		Name:        a.name,
		Description: a.description,
		Kind:        tool.KindA2AAgent,
		Parameters: []tool.Parameter{{
			Name:        "request",
			Description: "The task or request for the " + a.name + " agent",
			Type:        "string",
			Required:    true,
		}},
	}}, nil
}

// Claims reports whether name matches this adapter's agent name.
func (a *Adapter) Claims(name string) bool {
	return name == a.name
}

// Execute sends the request to the remote agent and waits for its task to
// reach a terminal state, polling at PollInterval. The final status
// message's text, if any, becomes the tool result content.
func (a *Adapter) Execute(ctx context.Context, call tool.ToolCall) (tool.ToolResult, error) {
	request, ok := extractRequest(call.Args)
	if !ok {
		return tool.ToolResult{
			Success:    false,
			Error:      "request argument must be a string",
			ToolCallID: call.ID,
		}, nil
	}

	msg := a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: request})
	task, err := a.client.SendMessage(ctx, msg)
	if err != nil {
		return tool.ToolResult{}, fmt.Errorf("a2a adapter %s: %w", a.name, err)
	}

	task, err = a.awaitTerminal(ctx, task)
	if err != nil {
		return tool.ToolResult{}, fmt.Errorf("a2a adapter %s: %w", a.name, err)
	}

	result := tool.ToolResult{
		Success:    task.Status.State == a2a.TaskStateCompleted,
		Content:    statusText(task),
		ToolCallID: call.ID,
	}
	if !result.Success {
		result.Error = fmt.Sprintf("remote task ended in state %s", task.Status.State)
	}
	return result, nil
}

func (a *Adapter) awaitTerminal(ctx context.Context, task *a2a.Task) (*a2a.Task, error) {
	interval := a.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	for !task.Status.State.Terminal() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		next, err := a.client.GetTask(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		task = next
	}
	return task, nil
}

func statusText(task *a2a.Task) string {
	if task.Status.Message == nil {
		return ""
	}
	var text string
	for _, part := range task.Status.Message.Parts {
		switch tp := part.(type) {
		case a2a.TextPart:
			text += tp.Text
		case *a2a.TextPart:
			text += tp.Text
		}
	}
	return text
}

func extractRequest(args any) (string, bool) {
	m, ok := args.(map[string]any)
	if !ok {
		return "", false
	}
	request, ok := m["request"].(string)
	return request, ok
}

var _ tool.Provider = (*Adapter)(nil)
