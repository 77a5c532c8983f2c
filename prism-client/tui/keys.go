package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"prism-todo/prism-api/domain"
	"prism-todo/prism-client/board"
)

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	switch m.mode {
	case modeCompose:
		return m.composeKey(msg)
	case modeSearch:
		return m.searchKey(msg)
	case modeEdit:
		return m.editKey(msg)
	}
	return m.browseKey(msg)
}

func (m *Model) browseKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(board.Visible(m.state))-1 {
			m.cursor++
		}
	case "tab":
		return m.setFilter(m.nextFilter())
	case "1", "2", "3", "4":
		return m.setFilter(filterOrder[int(msg.String()[0]-'1')])
	case "r", "f5":
		return m.refresh()
	case "a", "n":
		m.mode = modeCompose
	case "/":
		m.mode = modeSearch
	case "esc":
		m.state = board.Reduce(m.state, board.ErrorDismissed{})
	case " ", "x":
		if t, ok := m.mutable(); ok {
			completed := !t.Completed
			return updateCmd(m.ctx, m.api, t.ID, domain.TaskPatch{Completed: &completed})
		}
	case "s", "*":
		if t, ok := m.mutable(); ok {
			important := !t.Important
			return updateCmd(m.ctx, m.api, t.ID, domain.TaskPatch{Important: &important})
		}
	case "e":
		if t, ok := m.mutable(); ok {
			m.mode = modeEdit
			m.editID = t.ID
			m.editText = t.Text
		}
	case "d", "delete":
		if t, ok := m.mutable(); ok {
			return deleteCmd(m.ctx, m.api, t.ID)
		}
	}
	return nil
}

func (m *Model) composeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
	case tea.KeyCtrlT:
		m.important = !m.important
	case tea.KeyEnter:
		if !m.state.CanCreate() {
			return nil
		}
		text, important := m.state.Compose, m.important
		m.important = false
		m.mode = modeBrowse
		return createCmd(m.ctx, m.api, text, important)
	default:
		if text, ok := edit(m.state.Compose, msg); ok {
			m.state = board.Reduce(m.state, board.ComposeChanged{Text: text})
		}
	}
	return nil
}

func (m *Model) searchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.mode = modeBrowse
		return nil
	}
	text, ok := edit(m.state.Search, msg)
	if !ok || text == m.state.Search {
		return nil
	}
	m.state = board.Reduce(m.state, board.SearchChanged{Search: text})
	return m.requery()
}

func (m *Model) editKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
	case tea.KeyEnter:
		m.mode = modeBrowse
		if strings.TrimSpace(m.editText) == "" {
			return nil
		}
		text := m.editText
		return updateCmd(m.ctx, m.api, m.editID, domain.TaskPatch{Text: &text})
	default:
		if text, ok := edit(m.editText, msg); ok {
			m.editText = text
		}
	}
	return nil
}

// mutable returns the selected task unless a query is in flight. The mirror
// is about to be replaced then, so the row under the cursor may not be the
// one the user sees once the response lands.
func (m *Model) mutable() (domain.Task, bool) {
	if m.state.Loading() {
		return domain.Task{}, false
	}
	return m.selected()
}

// edit applies a text editing key to s.
func edit(s string, msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		return s + string(msg.Runes), true
	case tea.KeySpace:
		return s + " ", true
	case tea.KeyBackspace:
		if s == "" {
			return s, false
		}
		r := []rune(s)
		return string(r[:len(r)-1]), true
	case tea.KeyCtrlU:
		return "", true
	}
	return s, false
}
