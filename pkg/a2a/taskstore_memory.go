package a2a

import (
	"context"
	"sync"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
)

// InMemoryTaskStore implements a2asrv.TaskStore with a map guarded by a
// mutex. It's the default store for a host that doesn't configure a
// database, and is what most tests exercise.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[a2a.TaskID]*a2a.Task
}

// NewInMemoryTaskStore returns an empty store.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[a2a.TaskID]*a2a.Task)}
}

// Save inserts or overwrites task (implements a2asrv.TaskStore).
func (s *InMemoryTaskStore) Save(_ context.Context, task *a2a.Task) error {
	if task == nil {
		return a2a.ErrTaskNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

// Get retrieves a task by ID (implements a2asrv.TaskStore).
func (s *InMemoryTaskStore) Get(_ context.Context, taskID a2a.TaskID) (*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, a2a.ErrTaskNotFound
	}
	return task, nil
}

// ListByContext returns every stored task scoped to contextID. This is an
// enrichment beyond a2asrv.TaskStore, used by hosts that want to show a
// caller their task history within a session.
func (s *InMemoryTaskStore) ListByContext(_ context.Context, contextID string) ([]*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*a2a.Task
	for _, task := range s.tasks {
		if task.ContextID == contextID {
			out = append(out, task)
		}
	}
	return out, nil
}

var _ a2asrv.TaskStore = (*InMemoryTaskStore)(nil)
