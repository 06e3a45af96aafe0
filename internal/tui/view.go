package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/bloomup/internal/facade"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateTimer:
		content = m.timerView.View(m.face())
	case StateHabits:
		content = docStyle.Render(m.habitsModel.View())
	case StateAddHabit:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Timer", "Habits"} {
		active := m.state == SessionState(i) || (i == 1 && m.state > StateHabits)
		if active {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	if m.deps.Habits.Mode() == facade.ModeCache {
		tabs = append(tabs, warningStyle.Render("offline, using local cache"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	if m.err != nil {
		return dangerStyle.Render("  " + m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return ""
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Are you sure you want to delete this habit?"),
			"History and sessions are removed too.",
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
