package api

import (
	"context"
	"time"

	"prism-todo/prism-api/domain"
)

// Storage abstracts the authoritative task store for handlers.
//
// ListTasks may return tasks that do not match q; handlers always evaluate
// the query themselves.
type Storage interface {
	ListTasks(ctx context.Context, q domain.Query) ([]domain.Task, error)
	InsertTask(ctx context.Context, t domain.Task) error
	UpdateTask(ctx context.Context, id string, p domain.TaskPatch, now time.Time) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Publisher delivers task change events to an external channel.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, ev domain.TaskEvent) error
}

// Events receives committed task changes from handlers.
type Events interface {
	Dispatch(ev domain.TaskEvent)
}

type noEvents struct{}

func (noEvents) Dispatch(domain.TaskEvent) {}
