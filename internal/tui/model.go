// Package tui is the interactive timer and today view.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/bloomup/internal/facade"
	"github.com/julianstephens/bloomup/internal/models"
	"github.com/julianstephens/bloomup/internal/taskctx"
	"github.com/julianstephens/bloomup/internal/timer"
	"github.com/julianstephens/bloomup/internal/tui/components/habits"
	timerview "github.com/julianstephens/bloomup/internal/tui/components/timer"
)

type SessionState int

const (
	StateTimer SessionState = iota
	StateHabits
	StateAddHabit
	StateConfirmDelete
)

// HabitService is the facade surface the view mutates habits through.
type HabitService interface {
	Create(ctx context.Context, h models.Habit) (models.Habit, error)
	Remove(ctx context.Context, id string) error
	ToggleHistory(ctx context.Context, id, day string, done bool) error
	Mode() facade.Mode
}

type Deps struct {
	Timer  *timer.Machine
	Tasks  *taskctx.Context
	Habits HabitService
	Today  func() string
}

type Model struct {
	deps          Deps
	state         SessionState
	keys          KeyMap
	help          help.Model
	timerView     timerview.Model
	habitsModel   habits.Model
	form          *huh.Form
	habitForm     *HabitFormModel
	habitToDelete string
	status        string
	err           error
	quitting      bool
	width         int
	height        int
}

func NewModel(deps Deps) Model {
	today := deps.Today()
	return Model{
		deps:        deps,
		state:       StateTimer,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		timerView:   timerview.New(),
		habitsModel: habits.New(deps.Tasks.Habits(), today, 0, 0),
	}
}

// Run starts the full-screen program and blocks until the user quits.
// The timer is paused on exit so elapsed time is checkpointed.
func Run(deps Deps) error {
	_, err := tea.NewProgram(NewModel(deps), tea.WithAltScreen()).Run()
	deps.Timer.Pause()
	deps.Timer.Wait()
	return err
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == StateTimer {
		keys = append(keys, m.keys.Toggle, m.keys.Reset, m.keys.Mode)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	if m.state != StateTimer {
		return [][]key.Binding{global}
	}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.MoveUp, m.keys.MoveDown}
	actions := []key.Binding{m.keys.Toggle, m.keys.Reset, m.keys.Mode, m.keys.Work, m.keys.Short, m.keys.Long}
	return [][]key.Binding{global, navigation, actions}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) face() timerview.Face {
	f := timerview.Face{
		Snapshot: m.deps.Timer.Snapshot(),
		Duration: m.deps.Timer.Duration(),
		Tasks:    m.deps.Timer.Tasks(),
		Label:    m.deps.Timer.SessionLabel(),
	}
	if cur, ok := m.deps.Timer.Current(); ok {
		f.Current = &cur
	}
	return f
}
