package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"prism-todo/prism-api/domain"
	"prism-todo/prism-client/board"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	statsStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activeTab      = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("212"))
	inactiveTab    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	completedStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	importantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")).Padding(0, 1)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	inputStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	disabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func (m *Model) View() string {
	var b strings.Builder
	s := m.state

	b.WriteString(titleStyle.Render("prism todo"))
	b.WriteString("  ")
	b.WriteString(statsStyle.Render(formatStats(s.Stats)))
	b.WriteString("\n\n")

	writeTabs(&b, s.Filter)
	if s.Search != "" || m.mode == modeSearch {
		fmt.Fprintf(&b, "  search: %s", s.Search)
		if m.mode == modeSearch {
			b.WriteString("_")
		}
	}
	b.WriteString("\n\n")

	if s.Err != "" {
		b.WriteString(errorStyle.Render(s.Err + "  (esc to dismiss)"))
		b.WriteString("\n\n")
	}

	tasks := board.Visible(s)
	switch {
	case s.Loading() && len(tasks) == 0:
		b.WriteString("Loading...\n")
	case len(tasks) == 0:
		b.WriteString(helpStyle.Render("No tasks."))
		b.WriteString("\n")
	default:
		for i, t := range tasks {
			b.WriteString(m.renderRow(i, t))
			b.WriteString("\n")
		}
		if s.Loading() {
			b.WriteString(helpStyle.Render("refreshing..."))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	switch m.mode {
	case modeCompose:
		b.WriteString(m.renderCompose())
	case modeEdit:
		b.WriteString(inputStyle.Render("edit: " + m.editText + "_"))
		b.WriteString("\n" + helpStyle.Render("enter save • esc cancel"))
	default:
		b.WriteString(helpStyle.Render("↑/↓ move • space done • s star • e edit • d delete • a add • / search • tab filter • r refresh • q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderRow(i int, t domain.Task) string {
	prefix := "  "
	if i == m.cursor && m.mode == modeBrowse {
		prefix = cursorStyle.Render("> ")
	}
	check := "[ ]"
	text := t.Text
	if t.Completed {
		check = "[x]"
		text = completedStyle.Render(text)
	}
	star := " "
	if t.Important {
		star = importantStyle.Render("★")
	}
	return fmt.Sprintf("%s%s %s %s", prefix, check, star, text)
}

func (m *Model) renderCompose() string {
	label := "new task"
	if m.important {
		label += " ★"
	}
	box := inputStyle.Render(label + ": " + m.state.Compose + "_")
	hint := "enter create"
	if !m.state.CanCreate() {
		hint = disabledStyle.Render(hint)
	}
	return box + "\n" + hint + helpStyle.Render(" • ctrl+t important • esc cancel")
}

func writeTabs(b *strings.Builder, current domain.Filter) {
	for i, f := range filterOrder {
		if i > 0 {
			b.WriteString(" ")
		}
		label := fmt.Sprintf("%d %s", i+1, f)
		if f == current {
			b.WriteString(activeTab.Render(label))
		} else {
			b.WriteString(inactiveTab.Render(label))
		}
	}
}

func formatStats(s domain.Stats) string {
	return fmt.Sprintf("%d total • %d pending • %d completed • %d important", s.Total, s.Pending, s.Completed, s.Important)
}
