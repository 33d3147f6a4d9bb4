package a2a

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpkit-go/mcpkit/pkg/tool"
)

type fakeRemote struct {
	mu       sync.Mutex
	tasks    map[a2a.TaskID]*a2a.Task
	sendErr  error
	sentText string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{tasks: make(map[a2a.TaskID]*a2a.Task)}
}

func (f *fakeRemote) SendMessage(_ context.Context, msg *a2a.Message) (*a2a.Task, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if tp, ok := msg.Parts[0].(a2a.TextPart); ok {
		f.sentText = tp.Text
	}
	task := New("adapter-test").ToA2A()
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeRemote) GetTask(_ context.Context, taskID a2a.TaskID) (*a2a.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, a2a.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeRemote) completeFirst(msg *a2a.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, task := range f.tasks {
		wrapped := FromA2A(task)
		wrapped.SetStatus(a2a.TaskStateCompleted, msg)
		f.tasks[id] = wrapped.ToA2A()
		return
	}
}

func TestAdapterAvailableToolsReportsSingleTool(t *testing.T) {
	a := NewAdapter("research_agent", "does research", newFakeRemote())
	defs, err := a.AvailableTools(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "research_agent", defs[0].Name)
	assert.Equal(t, "request", defs[0].Parameters[0].Name)
}

func TestAdapterClaimsOnlyItsOwnName(t *testing.T) {
	a := NewAdapter("research_agent", "", newFakeRemote())
	assert.True(t, a.Claims("research_agent"))
	assert.False(t, a.Claims("other_agent"))
}

func TestAdapterExecuteRejectsMissingRequest(t *testing.T) {
	a := NewAdapter("research_agent", "", newFakeRemote())
	result, err := a.Execute(context.Background(), tool.ToolCall{ID: "call_1", Name: "research_agent", Args: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "request")
}

func TestAdapterExecuteWaitsForTerminalState(t *testing.T) {
	remote := newFakeRemote()
	a := NewAdapter("research_agent", "", remote)
	a.PollInterval = time.Millisecond

	go func() {
		time.Sleep(5 * time.Millisecond)
		remote.completeFirst(a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: "done"}))
	}()

	call := tool.ToolCall{ID: "call_1", Name: "research_agent", Args: map[string]any{"request": "go find X"}}
	result, err := a.Execute(context.Background(), call)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "done", result.Content)
	assert.Equal(t, "go find X", remote.sentText)
}
