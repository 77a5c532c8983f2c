package domain

import "time"

// EventType names a task change.
type EventType string

const (
	TaskCreated EventType = "task-created"
	TaskUpdated EventType = "task-updated"
	TaskDeleted EventType = "task-deleted"
)

// TaskEvent describes a committed mutation. Task is nil for deletions.
type TaskEvent struct {
	Type   EventType `json:"type"`
	TaskID string    `json:"taskId"`
	Task   *Task     `json:"task,omitempty"`
	Time   time.Time `json:"time"`
}

// NewTaskEvent builds the event for a mutation committed at the task's
// UpdatedAt, or at now for deletions.
func NewTaskEvent(typ EventType, id string, t *Task, now time.Time) TaskEvent {
	ev := TaskEvent{Type: typ, TaskID: id, Time: now}
	if t != nil {
		cp := *t
		ev.Task = &cp
		ev.Time = cp.UpdatedAt
	}
	return ev
}
