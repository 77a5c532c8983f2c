package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"prism-todo/prism-api/domain"
)

func ptrBool(b bool) *bool { return &b }

func TestMemoryStoreKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.InsertTask(ctx, domain.Task{ID: id, Text: id}); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	tasks, err := s.ListTasks(ctx, domain.Query{Filter: domain.FilterAll})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 3 || tasks[0].ID != "a" || tasks[2].ID != "c" {
		t.Fatalf("unexpected order: %#v", tasks)
	}
}

func TestMemoryStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.InsertTask(ctx, domain.Task{ID: "a", Text: "a"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.InsertTask(ctx, domain.Task{ID: "a", Text: "again"})
	var sErr domain.StoreUnavailableError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestMemoryStoreFilterPushdown(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.InsertTask(ctx, domain.Task{ID: "a", Text: "a", Completed: true})
	_ = s.InsertTask(ctx, domain.Task{ID: "b", Text: "b"})
	tasks, _ := s.ListTasks(ctx, domain.Query{Filter: domain.FilterPending})
	if len(tasks) != 1 || tasks[0].ID != "b" {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.InsertTask(ctx, domain.Task{ID: "a", Text: "a", CreatedAt: created, UpdatedAt: created})

	later := created.Add(time.Minute)
	got, err := s.UpdateTask(ctx, "a", domain.TaskPatch{Completed: ptrBool(true)}, later)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Completed || !got.UpdatedAt.Equal(later) || got.Text != "a" {
		t.Fatalf("unexpected task: %#v", got)
	}

	_, err = s.UpdateTask(ctx, "missing", domain.TaskPatch{Completed: ptrBool(true)}, later)
	var nf domain.NotFoundError
	if !errors.As(err, &nf) || nf.ID != "missing" {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreUpdateWithStaleTimestamp(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.InsertTask(ctx, domain.Task{ID: "a", Text: "a", CreatedAt: created, UpdatedAt: created})

	early, late := created.Add(time.Second), created.Add(time.Minute)
	if _, err := s.UpdateTask(ctx, "a", domain.TaskPatch{Completed: ptrBool(true)}, late); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.UpdateTask(ctx, "a", domain.TaskPatch{Important: ptrBool(true)}, early)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.UpdatedAt.Before(late) {
		t.Fatalf("UpdatedAt moved backwards: %v", got.UpdatedAt)
	}
	if !got.Completed || !got.Important {
		t.Fatalf("expected both patches applied, got %#v", got)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.InsertTask(ctx, domain.Task{ID: "a", Text: "a"})
	_ = s.InsertTask(ctx, domain.Task{ID: "b", Text: "b"})

	if err := s.DeleteTask(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var nf domain.NotFoundError
	if err := s.DeleteTask(ctx, "a"); !errors.As(err, &nf) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	tasks, _ := s.ListTasks(ctx, domain.Query{})
	if len(tasks) != 1 || tasks[0].ID != "b" {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
}
