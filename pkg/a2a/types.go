// Package a2a hosts the Agent-to-Agent surface: a client for talking to a
// remote A2A agent, task store implementations (in-memory and SQL), and the
// adapter that exposes a remote agent to the tool manager as a single tool.
package a2a

import (
	"sync"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/google/uuid"
)

// Task wraps an a2a.Task with the state-machine helpers a task's owner
// needs: submitted → working → (input_required)* → completed/failed, or
// cancelled at any non-terminal point.
type Task struct {
	mu  sync.RWMutex
	raw *a2a.Task
}

// New creates a task in the submitted state, scoped to contextID.
func New(contextID string) *Task {
	return &Task{
		raw: &a2a.Task{
			ID:        a2a.TaskID(uuid.NewString()),
			ContextID: contextID,
			Status:    a2a.TaskStatus{State: a2a.TaskStateSubmitted},
			History:   make([]*a2a.Message, 0),
			Artifacts: make([]*a2a.Artifact, 0),
			Metadata:  make(map[string]any),
		},
	}
}

// FromA2A wraps an existing a2a.Task, e.g. one just loaded from a TaskStore.
func FromA2A(raw *a2a.Task) *Task {
	return &Task{raw: raw}
}

// ToA2A returns the underlying a2a.Task, suitable for TaskStore.Save or for
// returning over the wire.
func (t *Task) ToA2A() *a2a.Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.raw
}

// ID returns the task's identifier.
func (t *Task) ID() a2a.TaskID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.raw.ID
}

// State returns the task's current lifecycle state.
func (t *Task) State() a2a.TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.raw.Status.State
}

// SetStatus transitions the task to state, attaching an optional status
// message (e.g. the clarifying question for input_required, or the error
// text for failed).
func (t *Task) SetStatus(state a2a.TaskState, message *a2a.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw.Status = a2a.TaskStatus{State: state, Message: message}
}

// AppendHistory records a message exchanged as part of this task.
func (t *Task) AppendHistory(msg *a2a.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw.History = append(t.raw.History, msg)
}

// AddArtifact records a produced artifact.
func (t *Task) AddArtifact(artifact *a2a.Artifact) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw.Artifacts = append(t.raw.Artifacts, artifact)
}

// Cancel transitions a non-terminal task to cancelled. It is a no-op on an
// already-terminal task.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.raw.Status.State.Terminal() {
		return
	}
	t.raw.Status = a2a.TaskStatus{State: a2a.TaskStateCanceled}
}

// ErrTaskTerminal describes an operation that needs a non-terminal task
// being attempted on one that has already finished. No function in this
// package returns it; Task.Cancel on a terminal task is a silent no-op.
type ErrTaskTerminal struct {
	TaskID a2a.TaskID
}

func (e *ErrTaskTerminal) Error() string {
	return "a2a: task " + string(e.TaskID) + " is in a terminal state"
}
