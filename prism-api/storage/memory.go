package storage

import (
	"context"
	"sync"
	"time"

	"prism-todo/prism-api/domain"
)

// MemoryStore keeps tasks in process memory in insertion order. It backs
// local development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]domain.Task
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: map[string]domain.Task{}}
}

// ListTasks returns every task matching the boolean filter of q in
// insertion order.
func (s *MemoryStore) ListTasks(_ context.Context, q domain.Query) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, 0, len(s.order))
	for _, id := range s.order {
		t := s.tasks[id]
		if q.Filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertTask(_ context.Context, t domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return domain.Unavailable("insert task", errDuplicateID)
	}
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	return nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, id string, p domain.TaskPatch, now time.Time) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, domain.NotFoundError{ID: id}
	}
	t = p.ApplyTo(t, now)
	s.tasks[id] = t
	return t, nil
}

func (s *MemoryStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return domain.NotFoundError{ID: id}
	}
	delete(s.tasks, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
