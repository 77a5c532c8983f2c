package domain

import (
	"sort"
	"strings"
)

// Filter selects tasks by their completion and importance flags.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
	FilterImportant Filter = "important"
)

// ParseFilter maps a query parameter to a Filter. Empty means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCompleted, FilterPending, FilterImportant:
		return f, nil
	}
	return "", ValidationError{Field: "filter", Reason: "must be one of all, completed, pending, important"}
}

// Matches reports whether t satisfies the filter.
func (f Filter) Matches(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	case FilterImportant:
		return t.Important
	}
	return true
}

// Query is a filter combined with an optional text search.
type Query struct {
	Filter Filter
	Search string
}

// Matches reports whether t satisfies both the filter and the search term.
// Search is a case-insensitive literal substring match on the task text.
func (q Query) Matches(t Task) bool {
	if !q.Filter.Matches(t) {
		return false
	}
	if q.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Text), strings.ToLower(q.Search))
}

// Apply returns the matching tasks newest first. Tasks created at the same
// instant keep their input order. The input slice is not modified.
func (q Query) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
