// Package timer renders the countdown face of the timer view.
package timer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/utils"
)

var (
	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(1, 2).
			Align(lipgloss.Center)

	phaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(0, 1)

	taskNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Padding(1, 0).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Width(40).
			Align(lipgloss.Center)

	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
)

// Face is everything the view needs from one moment of the timer.
type Face struct {
	Snapshot models.TimerSnapshot
	Duration int
	Current  *models.Task
	Tasks    []models.Task
	Label    string
}

type Model struct {
	bar    progress.Model
	width  int
	height int
}

func New() Model {
	return Model{bar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = min(max(width-8, 10), 60)
}

func phaseTitle(s models.TimerSnapshot) string {
	if s.Mode == models.ModeRegular {
		return "Focus"
	}
	switch s.Phase {
	case models.PhaseShortBreak:
		return "Short break"
	case models.PhaseLongBreak:
		return "Long break"
	}
	return "Work"
}

// Percent is the share of the countdown already spent.
func Percent(f Face) float64 {
	if f.Duration <= 0 {
		return 0
	}
	spent := f.Duration - f.Snapshot.TimeLeftSeconds
	return min(max(float64(spent)/float64(f.Duration), 0), 1)
}

func (m Model) View(f Face) string {
	state := "paused"
	if f.Snapshot.Running {
		state = "running"
	}

	name := "All tasks done for today 🎉"
	if f.Current != nil {
		name = strings.TrimSpace(f.Current.Icon + " " + f.Current.Name)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		clockStyle.Render(utils.FormatClock(f.Snapshot.TimeLeftSeconds)),
		m.bar.ViewAs(Percent(f)),
		phaseStyle.Render(fmt.Sprintf("%s · %s · %s", phaseTitle(f.Snapshot), f.Label, state)),
		taskNameStyle.Render(name),
		m.taskList(f),
	)

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

func (m Model) taskList(f Face) string {
	var b strings.Builder
	for i, t := range f.Tasks {
		line := fmt.Sprintf("%d. %s %s (%d min)", i+1, t.Icon, t.Name, t.Minutes)
		switch {
		case t.Completed:
			line = doneStyle.Render("✓ " + line)
		case f.Current != nil && t.ID == f.Current.ID:
			line = currentStyle.Render("▶ " + line)
		default:
			line = pendingStyle.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
