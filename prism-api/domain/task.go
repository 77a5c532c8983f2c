package domain

import (
	"strings"
	"time"
)

// Task represents a single to-do record owned by the store.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Important bool      `json:"important"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateInput is the client supplied payload for a new task.
type CreateInput struct {
	Text      *string `json:"text"`
	Important *bool   `json:"important,omitempty"`
}

// NewTask validates in and builds the canonical record stamped at now.
func NewTask(in CreateInput, id string, now time.Time) (Task, error) {
	if in.Text == nil {
		return Task{}, ValidationError{Field: "text", Reason: "is required"}
	}
	text := strings.TrimSpace(*in.Text)
	if text == "" {
		return Task{}, ValidationError{Field: "text", Reason: "must not be empty"}
	}
	t := Task{
		ID:        id,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Important != nil {
		t.Important = *in.Important
	}
	return t, nil
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Important *bool   `json:"important,omitempty"`
}

// Empty reports whether the patch names no field at all. An empty patch is
// still a valid update: it only refreshes UpdatedAt.
func (p TaskPatch) Empty() bool {
	return p.Text == nil && p.Completed == nil && p.Important == nil
}

// Normalize trims the text field and rejects patches that would leave the
// task without text.
func (p TaskPatch) Normalize() (TaskPatch, error) {
	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return TaskPatch{}, ValidationError{Field: "text", Reason: "must not be empty"}
		}
		p.Text = &text
	}
	return p, nil
}

// ApplyTo returns t with the patch fields applied and UpdatedAt refreshed.
// UpdatedAt is refreshed even when every value equals the stored one, and
// never moves behind CreatedAt or the previous UpdatedAt: a writer that took
// its timestamp before a concurrent update landed keeps the later one.
func (p TaskPatch) ApplyTo(t Task, now time.Time) Task {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Important != nil {
		t.Important = *p.Important
	}
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	if now.Before(t.UpdatedAt) {
		now = t.UpdatedAt
	}
	t.UpdatedAt = now
	return t
}
