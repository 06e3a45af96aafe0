package habits

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/bloomup/internal/models"
)

type AddHabitMsg struct{}

type MarkHabitMsg struct {
	ID string
}

type UnmarkHabitMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID string
}

type Item struct {
	Habit    models.Habit
	IsMarked bool
	Streak   int
}

func (i Item) Title() string {
	mark := "○"
	if i.IsMarked {
		mark = "✓"
	}
	title := fmt.Sprintf("%s %s %s", mark, i.Habit.Icon, i.Habit.Name)
	if !i.Habit.IsActive {
		title += " (paused)"
	}
	return title
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%s · %d min", i.Habit.Category.Name, i.Habit.DurationMinutes)
	if i.Streak > 0 {
		desc += fmt.Sprintf(" · %d day streak", i.Streak)
	}
	if i.Habit.BestStreak > 0 {
		desc += fmt.Sprintf(" · best %d", i.Habit.BestStreak)
	}
	return desc
}

func (i Item) FilterValue() string { return i.Habit.Name }

type KeyMap struct {
	Add    key.Binding
	Mark   key.Binding
	Unmark key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Mark: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark done"),
		),
		Unmark: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unmark"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list  list.Model
	keys  KeyMap
	today string
}

func New(habits []models.Habit, today string, width, height int) Model {
	l := list.New(items(habits, today), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Mark, keys.Unmark, keys.Delete}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{list: l, keys: keys, today: today}
}

func items(habits []models.Habit, today string) []list.Item {
	out := make([]list.Item, len(habits))
	for i, h := range habits {
		out[i] = Item{
			Habit:    h,
			IsMarked: h.CompletedOn(today),
			Streak:   models.CurrentStreak(h.History, today),
		}
	}
	return out
}

func (m *Model) SetHabits(habits []models.Habit, today string) {
	m.today = today
	m.list.SetItems(items(habits, today))
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		i, selected := m.list.SelectedItem().(Item)
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Mark):
			if selected && !i.IsMarked {
				return m, func() tea.Msg { return MarkHabitMsg{ID: i.Habit.ID} }
			}
		case key.Matches(msg, m.keys.Unmark):
			if selected && i.IsMarked {
				return m, func() tea.Msg { return UnmarkHabitMsg{ID: i.Habit.ID} }
			}
		case key.Matches(msg, m.keys.Delete):
			if selected {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: i.Habit.ID} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
