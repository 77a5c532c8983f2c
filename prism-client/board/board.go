// Package board holds the client side view of the task collection and the
// reducer that reconciles it with responses from prism-api.
//
// The local mirror is only ever replaced by a query response or patched by
// the canonical record a mutation returned. It is never filtered locally.
package board

import (
	"strings"

	"prism-todo/prism-api/domain"
)

// Action names a user operation for error reporting.
type Action string

const (
	ActionLoad   Action = "load"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ErrorMessage is the single user visible message for a failed action.
func (a Action) ErrorMessage() string {
	return "failed to " + string(a) + " tasks"
}

// State is the complete client view state.
type State struct {
	Tasks   []domain.Task
	Stats   domain.Stats
	Filter  domain.Filter
	Search  string
	Compose string
	// Err is the dismissible error banner; empty when no error is shown.
	Err string

	inflight int
}

// New returns the initial state: empty mirror, filter "all".
func New() State {
	return State{Filter: domain.FilterAll}
}

// Loading reports whether at least one query is outstanding.
func (s State) Loading() bool {
	return s.inflight > 0
}

// CanCreate reports whether the create control is enabled.
func (s State) CanCreate() bool {
	return strings.TrimSpace(s.Compose) != ""
}

// Query is the query the mirror should currently reflect.
func (s State) Query() domain.Query {
	return domain.Query{Filter: s.Filter, Search: s.Search}
}

// Visible returns the tasks to render, in mirror order.
func Visible(s State) []domain.Task {
	return s.Tasks
}

// Find returns the mirror index of id or -1.
func (s State) Find(id string) int {
	for i, t := range s.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
