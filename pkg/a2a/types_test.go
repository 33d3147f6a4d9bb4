package a2a

import (
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskStartsSubmitted(t *testing.T) {
	task := New("ctx-1")
	assert.Equal(t, a2a.TaskStateSubmitted, task.State())
	assert.Equal(t, "ctx-1", task.ToA2A().ContextID)
	assert.NotEmpty(t, task.ID())
	assert.Empty(t, task.ToA2A().History)
}

func TestSetStatusTransitionsState(t *testing.T) {
	task := New("ctx-1")
	msg := a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: "working on it"})
	task.SetStatus(a2a.TaskStateWorking, msg)

	assert.Equal(t, a2a.TaskStateWorking, task.State())
	require.NotNil(t, task.ToA2A().Status.Message)
}

func TestCancelNoOpOnTerminalTask(t *testing.T) {
	task := New("ctx-1")
	task.SetStatus(a2a.TaskStateCompleted, nil)
	task.Cancel()
	assert.Equal(t, a2a.TaskStateCompleted, task.State())
}

func TestCancelTransitionsNonTerminalTask(t *testing.T) {
	task := New("ctx-1")
	task.SetStatus(a2a.TaskStateWorking, nil)
	task.Cancel()
	assert.Equal(t, a2a.TaskStateCanceled, task.State())
}

func TestAppendHistoryAndArtifact(t *testing.T) {
	task := New("ctx-1")
	task.AppendHistory(a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: "hi"}))
	task.AddArtifact(&a2a.Artifact{})

	raw := task.ToA2A()
	assert.Len(t, raw.History, 1)
	assert.Len(t, raw.Artifacts, 1)
}

func TestFromA2AWrapsExistingTask(t *testing.T) {
	raw := &a2a.Task{ID: "task-123", Status: a2a.TaskStatus{State: a2a.TaskStateInputRequired}}
	task := FromA2A(raw)
	assert.Equal(t, a2a.TaskID("task-123"), task.ID())
	assert.Equal(t, a2a.TaskStateInputRequired, task.State())
}
