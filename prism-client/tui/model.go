// Package tui is the interactive single page view of the task board.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"prism-todo/prism-api/domain"
	"prism-todo/prism-client/board"
)

type mode int

const (
	modeBrowse mode = iota
	modeCompose
	modeSearch
	modeEdit
)

var filterOrder = []domain.Filter{domain.FilterAll, domain.FilterPending, domain.FilterCompleted, domain.FilterImportant}

// Model is the bubbletea model. All task state lives in board.State and only
// changes through board.Reduce.
type Model struct {
	ctx    context.Context
	api    API
	logger *log.Logger

	state     board.State
	mode      mode
	cursor    int
	important bool
	editID    string
	editText  string
	width     int
}

// NewModel creates a Model with the initial board state.
func NewModel(ctx context.Context, api API, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New()
	}
	return &Model{ctx: ctx, api: api, logger: logger, state: board.New()}
}

// Run starts the full screen program and blocks until the user quits.
func Run(ctx context.Context, api API, logger *log.Logger) error {
	program := tea.NewProgram(NewModel(ctx, api, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// State returns the current board state.
func (m *Model) State() board.State {
	return m.state
}

func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case board.Msg:
		return m, m.apply(msg)
	}
	return m, nil
}

func (m *Model) apply(msg board.Msg) tea.Cmd {
	m.state = board.Reduce(m.state, msg)
	m.clampCursor()

	switch msg := msg.(type) {
	case board.MutationSucceeded:
		return statsCmd(m.ctx, m.api)
	case board.MutationFailed:
		m.logger.WithError(msg.Err).WithField("action", msg.Action).Debug("task mutation failed")
	case board.QueryFailed:
		m.logger.WithError(msg.Err).Debug("task query failed")
	case board.StatsFailed:
		m.logger.WithError(msg.Err).Debug("stats query failed")
	}
	return nil
}

// requery marks the list loading and fetches it for the current query.
func (m *Model) requery() tea.Cmd {
	m.state = board.Reduce(m.state, board.QueryStarted{})
	return queryCmd(m.ctx, m.api, m.state.Query())
}

func (m *Model) refresh() tea.Cmd {
	return tea.Batch(m.requery(), statsCmd(m.ctx, m.api))
}

func (m *Model) setFilter(f domain.Filter) tea.Cmd {
	m.state = board.Reduce(m.state, board.FilterChanged{Filter: f})
	return m.requery()
}

func (m *Model) nextFilter() domain.Filter {
	for i, f := range filterOrder {
		if f == m.state.Filter {
			return filterOrder[(i+1)%len(filterOrder)]
		}
	}
	return domain.FilterAll
}

func (m *Model) selected() (domain.Task, bool) {
	tasks := board.Visible(m.state)
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(board.Visible(m.state))
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
