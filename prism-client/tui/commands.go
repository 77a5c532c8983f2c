package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"prism-todo/prism-api/domain"
	"prism-todo/prism-client/board"
)

// API is the subset of client.Client the TUI needs.
type API interface {
	ListTasks(ctx context.Context, q domain.Query) ([]domain.Task, error)
	CreateTask(ctx context.Context, text string, important bool) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	Stats(ctx context.Context) (domain.Stats, error)
}

// Every command issues exactly one request and turns the outcome into a
// board message. Nothing is retried.

func queryCmd(ctx context.Context, api API, q domain.Query) tea.Cmd {
	return func() tea.Msg {
		tasks, err := api.ListTasks(ctx, q)
		if err != nil {
			return board.QueryFailed{Err: err}
		}
		return board.QuerySucceeded{Tasks: tasks}
	}
}

func statsCmd(ctx context.Context, api API) tea.Cmd {
	return func() tea.Msg {
		s, err := api.Stats(ctx)
		if err != nil {
			return board.StatsFailed{Err: err}
		}
		return board.StatsSucceeded{Stats: s}
	}
}

func createCmd(ctx context.Context, api API, text string, important bool) tea.Cmd {
	return func() tea.Msg {
		t, err := api.CreateTask(ctx, text, important)
		if err != nil {
			return board.MutationFailed{Action: board.ActionCreate, Err: err}
		}
		return board.MutationSucceeded{Kind: domain.TaskCreated, Task: t}
	}
}

func updateCmd(ctx context.Context, api API, id string, p domain.TaskPatch) tea.Cmd {
	return func() tea.Msg {
		t, err := api.UpdateTask(ctx, id, p)
		if err != nil {
			return board.MutationFailed{Action: board.ActionUpdate, Err: err}
		}
		return board.MutationSucceeded{Kind: domain.TaskUpdated, Task: t}
	}
}

func deleteCmd(ctx context.Context, api API, id string) tea.Cmd {
	return func() tea.Msg {
		if err := api.DeleteTask(ctx, id); err != nil {
			return board.MutationFailed{Action: board.ActionDelete, Err: err}
		}
		return board.MutationSucceeded{Kind: domain.TaskDeleted, ID: id}
	}
}
